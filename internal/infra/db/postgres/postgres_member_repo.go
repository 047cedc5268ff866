package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"school-management-platform/internal/domain"
	"school-management-platform/internal/domain/model"
	"school-management-platform/internal/domain/ports/repository"
)

var _ repository.MemberRepository = (*memberRepo)(nil)

type memberRepo struct {
	pool *pgxpool.Pool
}

func NewMemberRepo(pool *pgxpool.Pool) *memberRepo {
	return &memberRepo{pool: pool}
}

func (r *memberRepo) Save(ctx context.Context, tx repository.Tx, m *model.Member) error {
	const q = `
INSERT INTO members (id, tenant_id, name, email, role, joined_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET name=$3, email=$4, role=$5;`

	_, err := execSQL(ctx, r.pool, tx, q, m.ID, m.TenantID, m.Name, m.Email, m.Role, m.JoinedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return domain.ErrAlreadyExists
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext):
			return err
		default:
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func (r *memberRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Member, error) {
	const q = `SELECT id, tenant_id, name, email, role, joined_at FROM members WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	m := &model.Member{}
	var role string
	if err := row.Scan(&m.ID, &m.TenantID, &m.Name, &m.Email, &role, &m.JoinedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	m.Role = model.MemberRole(role)
	return m, nil
}

// CountByRole is the live roster count quota checks read. It always hits
// the database; a cached count could admit a member past the limit.
func (r *memberRepo) CountByRole(ctx context.Context, tx repository.Tx, tenantID string, role model.MemberRole) (int, error) {
	const q = `SELECT COUNT(*) FROM members WHERE tenant_id=$1 AND role=$2;`
	row, err := pickRow(ctx, r.pool, tx, q, tenantID, role)
	if err != nil {
		return 0, err
	}
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return count, nil
}
