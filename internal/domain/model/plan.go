package model

// PlanTier is the closed enumeration of subscription tiers.
type PlanTier string

const (
	TierFree     PlanTier = "free"
	TierBasic    PlanTier = "basic"
	TierStandard PlanTier = "standard"
	TierPremium  PlanTier = "premium"
)

// LowestTier is the fail-safe fallback for unknown or corrupt tier values
// and the tier assigned at tenant registration.
const LowestTier = TierFree

// Feature is a closed-vocabulary identifier for a gateable capability.
// Free-form strings are deliberately not accepted anywhere: a typo must be
// a compile error, not a silently denied (or granted) feature.
type Feature string

const (
	FeatureAIMarking       Feature = "aiMarking"
	FeatureBulkEnrollment  Feature = "bulkEnrollment"
	FeatureAdvancedReports Feature = "advancedReports"
	FeatureCustomBranding  Feature = "customBranding"
	FeaturePrioritySupport Feature = "prioritySupport"
)

// ResourceKind names a countable per-tenant resource with a quota ceiling.
type ResourceKind string

const (
	ResourceStudents ResourceKind = "students"
	ResourceStaff    ResourceKind = "staff"
)

// Plan is one catalog entry: the quota limits and feature set of a tier.
type Plan struct {
	Tier        PlanTier
	MaxStudents int
	MaxStaff    int
	Features    map[Feature]struct{}
}

// HasFeature reports membership of f in the plan's feature set.
func (p Plan) HasFeature(f Feature) bool {
	_, ok := p.Features[f]
	return ok
}

// Limit returns the quota ceiling for the given resource kind. Unknown
// kinds get a zero limit so nothing can be added under them.
func (p Plan) Limit(kind ResourceKind) int {
	switch kind {
	case ResourceStudents:
		return p.MaxStudents
	case ResourceStaff:
		return p.MaxStaff
	default:
		return 0
	}
}

// Catalog is the immutable process-wide tier table. It is built once at
// startup and never mutated afterwards.
type Catalog struct {
	entries map[PlanTier]Plan
}

func features(fs ...Feature) map[Feature]struct{} {
	m := make(map[Feature]struct{}, len(fs))
	for _, f := range fs {
		m[f] = struct{}{}
	}
	return m
}

// DefaultCatalog returns the built-in tier table.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		Plan{Tier: TierFree, MaxStudents: 30, MaxStaff: 3,
			Features: features()},
		Plan{Tier: TierBasic, MaxStudents: 150, MaxStaff: 15,
			Features: features(FeatureBulkEnrollment)},
		Plan{Tier: TierStandard, MaxStudents: 500, MaxStaff: 50,
			Features: features(FeatureBulkEnrollment, FeatureAdvancedReports, FeatureCustomBranding)},
		Plan{Tier: TierPremium, MaxStudents: 2000, MaxStaff: 200,
			Features: features(FeatureAIMarking, FeatureBulkEnrollment, FeatureAdvancedReports,
				FeatureCustomBranding, FeaturePrioritySupport)},
	)
}

// NewCatalog builds a catalog from the given entries. The lowest tier must
// always be resolvable, so a zero-feature entry is synthesized when absent.
func NewCatalog(plans ...Plan) *Catalog {
	entries := make(map[PlanTier]Plan, len(plans))
	for _, p := range plans {
		entries[p.Tier] = p
	}
	if _, ok := entries[LowestTier]; !ok {
		entries[LowestTier] = Plan{Tier: LowestTier, Features: features()}
	}
	return &Catalog{entries: entries}
}

// Resolve is total: any tier value, including unrecognized ones, yields an
// entry. Unrecognized tiers resolve to the lowest tier (fail-safe-closed,
// never the richest tier); known=false lets callers log the
// data-consistency warning without ever failing the check itself.
func (c *Catalog) Resolve(tier PlanTier) (plan Plan, known bool) {
	if p, ok := c.entries[tier]; ok {
		return p, true
	}
	return c.entries[LowestTier], false
}

// Tiers lists the catalog tiers, lowest first.
func (c *Catalog) Tiers() []PlanTier {
	order := []PlanTier{TierFree, TierBasic, TierStandard, TierPremium}
	out := make([]PlanTier, 0, len(c.entries))
	for _, t := range order {
		if _, ok := c.entries[t]; ok {
			out = append(out, t)
		}
	}
	return out
}
