//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"school-management-platform/internal/domain"
	"school-management-platform/internal/domain/model"
	"school-management-platform/internal/usecase"
)

func seedSubscription(subs *memSubscriptionRepo, tenantID string, tier model.PlanTier, status model.SubscriptionStatus) {
	now := time.Now()
	subs.seed(&model.Subscription{
		ID:        "sub-" + tenantID,
		TenantID:  tenantID,
		Plan:      tier,
		Status:    status,
		StartDate: now,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func TestEntitlement_ResolvePlan(t *testing.T) {
	ctx := context.Background()
	subs := newMemSubscriptionRepo()
	members := newMemMemberRepo()
	uc := usecase.NewEntitlementUseCase(model.DefaultCatalog(), subs, members, newTestLogger())

	cases := []struct {
		name     string
		tier     model.PlanTier
		status   model.SubscriptionStatus
		wantTier model.PlanTier
	}{
		{"active premium keeps its tier", model.TierPremium, model.SubscriptionStatusActive, model.TierPremium},
		{"attention keeps its tier", model.TierStandard, model.SubscriptionStatusAttention, model.TierStandard},
		{"non_renewing keeps its tier", model.TierBasic, model.SubscriptionStatusNonRenewing, model.TierBasic},
		{"past_due drops to lowest", model.TierPremium, model.SubscriptionStatusPastDue, model.TierFree},
		{"cancelled drops to lowest", model.TierPremium, model.SubscriptionStatusCancelled, model.TierFree},
		{"unknown tier resolves to lowest", model.PlanTier("legacy-gold"), model.SubscriptionStatusActive, model.TierFree},
	}
	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tenant := "tenant-" + string(rune('a'+i))
			seedSubscription(subs, tenant, tc.tier, tc.status)
			plan, err := uc.ResolvePlan(ctx, tenant)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if plan.Tier != tc.wantTier {
				t.Fatalf("want tier %s, got %s", tc.wantTier, plan.Tier)
			}
		})
	}

	t.Run("missing subscription resolves to lowest", func(t *testing.T) {
		plan, err := uc.ResolvePlan(ctx, "tenant-without-record")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if plan.Tier != model.LowestTier {
			t.Fatalf("want lowest tier, got %s", plan.Tier)
		}
	})
}

func TestEntitlement_Features(t *testing.T) {
	ctx := context.Background()
	subs := newMemSubscriptionRepo()
	members := newMemMemberRepo()
	uc := usecase.NewEntitlementUseCase(model.DefaultCatalog(), subs, members, newTestLogger())

	seedSubscription(subs, "free-school", model.TierFree, model.SubscriptionStatusActive)
	seedSubscription(subs, "premium-school", model.TierPremium, model.SubscriptionStatusActive)
	seedSubscription(subs, "lapsed-school", model.TierPremium, model.SubscriptionStatusPastDue)

	t.Run("premium has aiMarking", func(t *testing.T) {
		ok, err := uc.HasFeature(ctx, "premium-school", model.FeatureAIMarking)
		if err != nil || !ok {
			t.Fatalf("want allowed, got ok=%v err=%v", ok, err)
		}
	})
	t.Run("free lacks aiMarking", func(t *testing.T) {
		if err := uc.RequireFeature(ctx, "free-school", model.FeatureAIMarking); !errors.Is(err, domain.ErrEntitlementDenied) {
			t.Fatalf("want ErrEntitlementDenied, got %v", err)
		}
	})
	t.Run("past_due loses premium features", func(t *testing.T) {
		ok, err := uc.HasFeature(ctx, "lapsed-school", model.FeatureAIMarking)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Fatal("past_due premium must be entitled as lowest tier")
		}
	})
}

func TestEntitlement_QuotaBoundary(t *testing.T) {
	ctx := context.Background()
	// small limits so the boundary is cheap to reach
	catalog := model.NewCatalog(
		model.Plan{Tier: model.TierFree, MaxStudents: 3, MaxStaff: 1},
	)
	subs := newMemSubscriptionRepo()
	members := newMemMemberRepo()
	uc := usecase.NewEntitlementUseCase(catalog, subs, members, newTestLogger())

	seedSubscription(subs, "school", model.TierFree, model.SubscriptionStatusActive)

	t.Run("below limit allows", func(t *testing.T) {
		members.seedMembers("school", model.RoleStudent, 2)
		if err := uc.RequireQuota(ctx, "school", model.ResourceStudents); err != nil {
			t.Fatalf("2 of 3 used, want allowed: %v", err)
		}
	})

	t.Run("at limit denies with counts", func(t *testing.T) {
		members.seedMembers("school", model.RoleStudent, 1) // now 3 of 3
		err := uc.RequireQuota(ctx, "school", model.ResourceStudents)
		if !errors.Is(err, domain.ErrQuotaExceeded) {
			t.Fatalf("want ErrQuotaExceeded, got %v", err)
		}
		var qe *usecase.QuotaError
		if !errors.As(err, &qe) {
			t.Fatalf("want QuotaError, got %T", err)
		}
		if qe.Current != 3 || qe.Limit != 3 {
			t.Fatalf("want 3/3, got %d/%d", qe.Current, qe.Limit)
		}
	})

	t.Run("quotas are independent per resource", func(t *testing.T) {
		// students full, staff still open
		if err := uc.RequireQuota(ctx, "school", model.ResourceStaff); err != nil {
			t.Fatalf("staff quota should still allow: %v", err)
		}
	})

	t.Run("CheckQuota reports denial as false without error", func(t *testing.T) {
		ok, err := uc.CheckQuota(ctx, "school", model.ResourceStudents)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Fatal("want denied")
		}
	})
}
