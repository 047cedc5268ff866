package model

import (
	"time"

	"school-management-platform/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive      SubscriptionStatus = "active"
	SubscriptionStatusPastDue     SubscriptionStatus = "past_due"
	SubscriptionStatusAttention   SubscriptionStatus = "attention"
	SubscriptionStatusNonRenewing SubscriptionStatus = "non_renewing"
	SubscriptionStatusCancelled   SubscriptionStatus = "cancelled"
)

// Subscription is the persisted billing state of one tenant (school).
// It is created at tenant registration and never deleted; billing events
// supersede its state while the event trail keeps the history.
type Subscription struct {
	ID        string // UUID
	TenantID  string // UUID of the school
	Plan      PlanTier
	Status    SubscriptionStatus
	Amount    int64 // smallest currency unit
	StartDate time.Time
	EndDate   *time.Time // nil while open-ended

	// External billing collaborator references.
	PaymentRef       string
	SubscriptionCode string

	// LastEventAt is the occurrence time of the last applied billing
	// event; it guards against out-of-order webhook deliveries.
	LastEventAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSubscription creates the registration-time record: lowest tier, active.
func NewSubscription(id, tenantID string) (*Subscription, error) {
	if id == "" || tenantID == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Subscription{
		ID:        id,
		TenantID:  tenantID,
		Plan:      LowestTier,
		Status:    SubscriptionStatusActive,
		StartDate: now,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// InGoodStanding reports whether the recorded plan still grants access.
// past_due and cancelled subscriptions keep their plan field for billing
// history but are entitled as if on the lowest tier.
func (s *Subscription) InGoodStanding() bool {
	switch s.Status {
	case SubscriptionStatusCancelled, SubscriptionStatusPastDue:
		return false
	default:
		return true
	}
}

// EffectiveTier is the tier entitlement is computed from. Nil or absent
// records and records not in good standing resolve to the lowest tier.
func (s *Subscription) EffectiveTier() PlanTier {
	if s == nil || !s.InGoodStanding() {
		return LowestTier
	}
	return s.Plan
}

// BillingEvent is one inbound message from the external billing
// collaborator. TransactionRef is its idempotency key: the same reference
// applied twice must change nothing.
type BillingEvent struct {
	ID             string // UUID, assigned on receipt
	TenantID       string
	Type           string // provider event type, e.g. "charge.success"
	Plan           PlanTier
	Status         SubscriptionStatus
	Amount         int64
	TransactionRef string
	OccurredAt     time.Time
	ReceivedAt     time.Time
}

func (e *BillingEvent) Validate() error {
	if e == nil || e.TransactionRef == "" {
		return domain.ErrMissingTransaction
	}
	if e.TenantID == "" || e.Status == "" {
		return domain.ErrInvalidArgument
	}
	return nil
}

// Apply folds the event into the subscription. The caller has already
// established idempotency (unique transaction reference); Apply only
// guards ordering: an event older than the last applied one must not
// regress newer state.
func (s *Subscription) Apply(e *BillingEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if s.LastEventAt != nil && e.OccurredAt.Before(*s.LastEventAt) {
		return domain.ErrStaleBillingEvent
	}
	s.Status = e.Status
	if e.Plan != "" {
		s.Plan = e.Plan
	}
	if e.Amount > 0 {
		s.Amount = e.Amount
	}
	s.PaymentRef = e.TransactionRef
	occurred := e.OccurredAt
	s.LastEventAt = &occurred
	s.UpdatedAt = time.Now()
	return nil
}
