package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"school-management-platform/internal/usecase"
)

// Server exposes the tenant-facing REST API.
type Server struct {
	subUC        usecase.SubscriptionUseCase
	entitleUC    usecase.EntitlementUseCase
	enrollUC     usecase.EnrollmentUseCase
	quizUC       usecase.QuizUseCase
	submissionUC usecase.SubmissionUseCase
	statsUC      usecase.StatsUseCase
	auth         *AuthManager
	adminKey     string
	log          *zerolog.Logger

	srv *http.Server
}

func NewServer(
	subUC usecase.SubscriptionUseCase,
	entitleUC usecase.EntitlementUseCase,
	enrollUC usecase.EnrollmentUseCase,
	quizUC usecase.QuizUseCase,
	submissionUC usecase.SubmissionUseCase,
	statsUC usecase.StatsUseCase,
	auth *AuthManager,
	adminKey string,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		subUC:        subUC,
		entitleUC:    entitleUC,
		enrollUC:     enrollUC,
		quizUC:       quizUC,
		submissionUC: submissionUC,
		statsUC:      statsUC,
		auth:         auth,
		adminKey:     adminKey,
		log:          logger,
	}
}

// Router builds the chi mux. Exposed separately so tests can drive it with
// httptest without binding a port.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(func(next http.Handler) http.Handler {
		return Chain(next, TraceID(), Recover(s.log), RequestLog(s.log), Timeout(30*time.Second))
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// platform-operator routes, guarded by the admin API key
		r.Group(func(r chi.Router) {
			r.Use(s.adminOnly)
			r.Post("/auth/token", s.handleMintToken)
			r.Post("/tenants", s.handleRegisterTenant)
			r.Get("/stats", s.handleStats)
		})

		// tenant routes, guarded by the session token
		r.Group(func(r chi.Router) {
			r.Use(s.auth.RequireAuth)

			r.Get("/plan", s.handleGetPlan)
			r.Get("/subscription", s.handleGetSubscription)
			r.Post("/members", requireRole(RoleStaff, s.handleAddMember))

			r.Route("/quizzes", func(r chi.Router) {
				r.Post("/", requireRole(RoleStaff, s.handleCreateQuiz))
				r.Get("/", s.handleListQuizzes)
				r.Route("/{quizID}", func(r chi.Router) {
					r.Get("/", s.handleGetQuiz)
					r.Post("/publish", requireRole(RoleStaff, s.handlePublishQuiz))
					r.Post("/submissions", requireRole(RoleStudent, s.handleSubmit))
					r.Get("/submissions", requireRole(RoleStaff, s.handleListSubmissions))
					r.Get("/submissions/me", requireRole(RoleStudent, s.handleMySubmission))
				})
			})
		})
	})

	return r
}

// adminOnly provides Bearer key authentication for operator routes.
func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.adminKey == "" {
			s.log.Error().Msg("admin API key is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		hdr := r.Header.Get("Authorization")
		parts := strings.SplitN(hdr, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if parts[1] != s.adminKey {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) Start(port int) error {
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info().Int("port", port).Msg("api server listening")
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
