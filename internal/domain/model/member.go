package model

import (
	"time"

	"school-management-platform/internal/domain"
)

// MemberRole distinguishes the two quota-counted roster populations.
type MemberRole string

const (
	RoleStudent MemberRole = "student"
	RoleStaff   MemberRole = "staff"
)

// Resource maps the role to the quota it consumes.
func (r MemberRole) Resource() ResourceKind {
	if r == RoleStaff {
		return ResourceStaff
	}
	return ResourceStudents
}

// Member is one person on a tenant's roster. Adding one consumes a quota
// slot of the role's resource kind.
type Member struct {
	ID       string // UUID
	TenantID string
	Name     string
	Email    string
	Role     MemberRole
	JoinedAt time.Time
}

func NewMember(id, tenantID, name, email string, role MemberRole) (*Member, error) {
	if id == "" || tenantID == "" || name == "" {
		return nil, domain.ErrInvalidArgument
	}
	if role != RoleStudent && role != RoleStaff {
		return nil, domain.ErrInvalidArgument
	}
	return &Member{
		ID:       id,
		TenantID: tenantID,
		Name:     name,
		Email:    email,
		Role:     role,
		JoinedAt: time.Now(),
	}, nil
}
