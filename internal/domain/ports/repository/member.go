package repository

import (
	"context"

	"school-management-platform/internal/domain/model"
)

// MemberRepository is the port for tenant rosters. CountByRole is the live
// count quota checks are evaluated against; cached counts would allow
// stale-read false positives at the quota boundary.
type MemberRepository interface {
	Save(ctx context.Context, tx Tx, m *model.Member) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Member, error)
	CountByRole(ctx context.Context, tx Tx, tenantID string, role model.MemberRole) (int, error)
}
