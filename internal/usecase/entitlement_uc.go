package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"school-management-platform/internal/domain"
	"school-management-platform/internal/domain/model"
	"school-management-platform/internal/domain/ports/repository"
	"school-management-platform/internal/infra/metrics"
)

// Compile-time check
var _ EntitlementUseCase = (*entitlementUC)(nil)

// EntitlementUseCase is the single authoritative server-side gate for
// feature access and quota growth. Any client-side mirror of these checks
// is a UX convenience only.
type EntitlementUseCase interface {
	// HasFeature reports whether the tenant's effective plan includes the
	// feature. Advisory-safe to call repeatedly; no side effects.
	HasFeature(ctx context.Context, tenantID string, feature model.Feature) (bool, error)
	// CheckQuota reports whether the resource may grow by one, evaluated
	// against the live count (strict current < limit).
	CheckQuota(ctx context.Context, tenantID string, kind model.ResourceKind) (bool, error)
	// RequireFeature is HasFeature that fails with ErrEntitlementDenied.
	RequireFeature(ctx context.Context, tenantID string, feature model.Feature) error
	// RequireQuota is CheckQuota that fails with a QuotaError carrying
	// current and limit.
	RequireQuota(ctx context.Context, tenantID string, kind model.ResourceKind) error
	// ResolvePlan returns the effective catalog entry for a tenant.
	ResolvePlan(ctx context.Context, tenantID string) (model.Plan, error)
}

// QuotaError reports a denied quota check with the numbers behind it.
type QuotaError struct {
	Kind    model.ResourceKind
	Current int
	Limit   int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%s quota exceeded: %d of %d used", e.Kind, e.Current, e.Limit)
}

func (e *QuotaError) Unwrap() error { return domain.ErrQuotaExceeded }

type entitlementUC struct {
	catalog *model.Catalog
	subs    repository.SubscriptionRepository
	members repository.MemberRepository
	log     *zerolog.Logger
}

func NewEntitlementUseCase(catalog *model.Catalog, subs repository.SubscriptionRepository, members repository.MemberRepository, logger *zerolog.Logger) *entitlementUC {
	return &entitlementUC{catalog: catalog, subs: subs, members: members, log: logger}
}

// resolve loads the tenant's subscription and resolves its effective plan.
// A missing record and an unrecognized tier both resolve to the lowest
// tier: entitlement must always be answerable, even over corrupt data.
func (u *entitlementUC) resolve(ctx context.Context, tenantID string) (model.Plan, error) {
	sub, err := u.subs.FindByTenant(ctx, repository.NoTX, tenantID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return model.Plan{}, err
	}
	tier := sub.EffectiveTier() // nil-safe
	plan, known := u.catalog.Resolve(tier)
	if !known {
		// Resolved fail-safe-closed; surfaced to operators, not callers.
		metrics.IncUnknownPlan(string(tier))
		u.log.Warn().Str("tenant_id", tenantID).Str("plan", string(tier)).
			Msg("subscription references a tier absent from the catalog; entitled as lowest tier")
	}
	return plan, nil
}

func (u *entitlementUC) ResolvePlan(ctx context.Context, tenantID string) (model.Plan, error) {
	return u.resolve(ctx, tenantID)
}

func (u *entitlementUC) HasFeature(ctx context.Context, tenantID string, feature model.Feature) (bool, error) {
	plan, err := u.resolve(ctx, tenantID)
	if err != nil {
		return false, err
	}
	allowed := plan.HasFeature(feature)
	metrics.IncFeatureCheck(string(feature), allowed)
	return allowed, nil
}

func (u *entitlementUC) RequireFeature(ctx context.Context, tenantID string, feature model.Feature) error {
	ok, err := u.HasFeature(ctx, tenantID, feature)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("feature %q: %w", feature, domain.ErrEntitlementDenied)
	}
	return nil
}

func (u *entitlementUC) CheckQuota(ctx context.Context, tenantID string, kind model.ResourceKind) (bool, error) {
	err := u.RequireQuota(ctx, tenantID, kind)
	if err == nil {
		return true, nil
	}
	var qe *QuotaError
	if errors.As(err, &qe) {
		return false, nil
	}
	return false, err
}

func (u *entitlementUC) RequireQuota(ctx context.Context, tenantID string, kind model.ResourceKind) error {
	plan, err := u.resolve(ctx, tenantID)
	if err != nil {
		return err
	}
	var role model.MemberRole
	if kind == model.ResourceStaff {
		role = model.RoleStaff
	} else {
		role = model.RoleStudent
	}
	// Live count, on purpose: a cached count at the boundary would let a
	// tenant slip past the ceiling on a stale read.
	current, err := u.members.CountByRole(ctx, repository.NoTX, tenantID, role)
	if err != nil {
		return err
	}
	limit := plan.Limit(kind)
	if current < limit {
		metrics.IncQuotaCheck(string(kind), true)
		return nil
	}
	metrics.IncQuotaCheck(string(kind), false)
	return &QuotaError{Kind: kind, Current: current, Limit: limit}
}
