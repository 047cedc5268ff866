// Package webhook receives billing provider callbacks. It listens on its
// own port so the provider allowlist never overlaps the tenant API.
package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"school-management-platform/internal/domain"
	"school-management-platform/internal/domain/model"
	"school-management-platform/internal/infra/logging"
	"school-management-platform/internal/usecase"
)

const secretHeader = "X-Webhook-Secret"

type eventPayload struct {
	EventType      string    `json:"eventType"`
	TenantID       string    `json:"tenantId"`
	Plan           string    `json:"plan"`
	Status         string    `json:"status"`
	Amount         int64     `json:"amount"`
	TransactionRef string    `json:"transactionRef"`
	OccurredAt     time.Time `json:"occurredAt"`
}

type Server struct {
	subUC  usecase.SubscriptionUseCase
	path   string
	secret string
	log    *zerolog.Logger

	srv *http.Server
}

func NewServer(subUC usecase.SubscriptionUseCase, path, secret string, logger *zerolog.Logger) *Server {
	if path == "" {
		path = "/webhook/billing"
	}
	compLog := logger.With().Str("component", "webhook").Logger()
	return &Server{subUC: subUC, path: path, secret: secret, log: &compLog}
}

func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc(s.path, s.handleBillingEvent)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

func (s *Server) handleBillingEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.secret == "" || subtle.ConstantTimeCompare([]byte(r.Header.Get(secretHeader)), []byte(s.secret)) != 1 {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	var payload eventPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ev := &model.BillingEvent{
		TenantID:       payload.TenantID,
		Type:           payload.EventType,
		Plan:           model.PlanTier(payload.Plan),
		Status:         model.SubscriptionStatus(payload.Status),
		Amount:         payload.Amount,
		TransactionRef: payload.TransactionRef,
		OccurredAt:     payload.OccurredAt,
	}

	ctx := logging.WithTenantID(r.Context(), payload.TenantID)
	l := logging.With(ctx, s.log)

	applied, err := s.subUC.ApplyBillingEvent(ctx, ev)
	switch {
	case err == nil:
		// replays and stale deliveries ack with 200 so the provider
		// stops retrying; applied=false distinguishes them in the body
		writeResult(w, applied)
	case errors.Is(err, domain.ErrMissingTransaction), errors.Is(err, domain.ErrInvalidArgument):
		http.Error(w, "invalid event", http.StatusBadRequest)
	case errors.Is(err, domain.ErrNoSubscription), errors.Is(err, domain.ErrNotFound):
		http.Error(w, "unknown tenant", http.StatusNotFound)
	default:
		l.Error().Err(err).Str("transaction_ref", payload.TransactionRef).Msg("billing event failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeResult(w http.ResponseWriter, applied bool) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(struct {
		Applied bool `json:"applied"`
	}{Applied: applied})
}

func (s *Server) Start(port int) error {
	mux := http.NewServeMux()
	s.Register(mux)
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info().Int("port", port).Str("path", s.path).Msg("webhook server listening")
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
