package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"school-management-platform/internal/domain/model"
	"school-management-platform/internal/domain/ports/repository"
)

// Compile-time check
var _ EnrollmentUseCase = (*enrollmentUC)(nil)

// EnrollmentUseCase adds members to a tenant's roster behind the quota
// gate. The quota check and the insert are not a single atomic unit; the
// check is advisory-accurate (live count) and a tenant racing itself past
// the ceiling by one is acceptable for roster growth.
type EnrollmentUseCase interface {
	AddMember(ctx context.Context, tenantID, name, email string, role model.MemberRole) (*model.Member, error)
	Counts(ctx context.Context, tenantID string) (students, staff int, err error)
}

type enrollmentUC struct {
	members repository.MemberRepository
	entitle EntitlementUseCase
	log     *zerolog.Logger
}

func NewEnrollmentUseCase(members repository.MemberRepository, entitle EntitlementUseCase, logger *zerolog.Logger) *enrollmentUC {
	return &enrollmentUC{members: members, entitle: entitle, log: logger}
}

func (u *enrollmentUC) AddMember(ctx context.Context, tenantID, name, email string, role model.MemberRole) (*model.Member, error) {
	m, err := model.NewMember(uuid.NewString(), tenantID, name, email, role)
	if err != nil {
		return nil, err
	}
	if err := u.entitle.RequireQuota(ctx, tenantID, role.Resource()); err != nil {
		return nil, err
	}
	if err := u.members.Save(ctx, repository.NoTX, m); err != nil {
		return nil, err
	}
	u.log.Info().Str("tenant_id", tenantID).Str("member_id", m.ID).Str("role", string(role)).Msg("member added")
	return m, nil
}

func (u *enrollmentUC) Counts(ctx context.Context, tenantID string) (int, int, error) {
	students, err := u.members.CountByRole(ctx, repository.NoTX, tenantID, model.RoleStudent)
	if err != nil {
		return 0, 0, err
	}
	staff, err := u.members.CountByRole(ctx, repository.NoTX, tenantID, model.RoleStaff)
	if err != nil {
		return 0, 0, err
	}
	return students, staff, nil
}
