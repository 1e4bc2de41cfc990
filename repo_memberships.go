package staart

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Memberships is the membership store. It doubles as the capability
// engine's MembershipReader.
type Memberships interface {
	MembershipReader
	Create(ctx context.Context, membership *Membership) (*Membership, error)
	CreateTx(ctx context.Context, tx bun.IDB, membership *Membership) (*Membership, error)
	ListForOrganization(ctx context.Context, organizationID int64) ([]Membership, error)
	DeleteAllForOrganization(ctx context.Context, organizationID int64) error
	DeleteAllForOrganizationTx(ctx context.Context, tx bun.IDB, organizationID int64) error
}

type memberships struct {
	db *bun.DB
}

var _ Memberships = (*memberships)(nil)
var _ MembershipReader = (*memberships)(nil)

func NewMembershipsRepository(db *bun.DB) Memberships {
	return &memberships{db: db}
}

func (r *memberships) GetMembership(ctx context.Context, userID, organizationID int64) (*Membership, error) {
	membership := &Membership{}
	err := r.db.NewSelect().Model(membership).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.organization_id = ?", organizationID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, wrapDBErr(err, "membership", userID)
	}
	return membership, nil
}

// GetSharedMembership returns the actor's strongest membership row in
// any organization both users belong to.
func (r *memberships) GetSharedMembership(ctx context.Context, userID, otherUserID int64) (*Membership, error) {
	membership := &Membership{}
	err := r.db.NewSelect().Model(membership).
		Join("JOIN memberships AS other ON other.organization_id = mem.organization_id").
		Where("mem.user_id = ?", userID).
		Where("other.user_id = ?", otherUserID).
		OrderExpr("CASE mem.role WHEN ? THEN 0 WHEN ? THEN 1 ELSE 2 END", RoleOwner, RoleAdmin).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, wrapDBErr(err, "membership", userID)
	}
	return membership, nil
}

func (r *memberships) Create(ctx context.Context, membership *Membership) (*Membership, error) {
	return r.CreateTx(ctx, r.db, membership)
}

func (r *memberships) CreateTx(ctx context.Context, tx bun.IDB, membership *Membership) (*Membership, error) {
	if membership != nil && !membership.Role.IsValid() {
		return nil, errors.New("invalid membership role", errors.CategoryValidation).
			WithTextCode(TextCodeValidationFailed).
			WithCode(errors.CodeBadRequest)
	}
	if _, err := tx.NewInsert().Model(membership).Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryConflict, "could not create membership")
	}
	return membership, nil
}

func (r *memberships) ListForOrganization(ctx context.Context, organizationID int64) ([]Membership, error) {
	var records []Membership
	err := r.db.NewSelect().Model(&records).
		Relation("User").
		Where("?TableAlias.organization_id = ?", organizationID).
		Order("mem.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, wrapDBErr(err, "memberships", organizationID)
	}
	for i := range records {
		records[i].User = records[i].User.Sanitized()
	}
	return records, nil
}

func (r *memberships) DeleteAllForOrganization(ctx context.Context, organizationID int64) error {
	return r.DeleteAllForOrganizationTx(ctx, r.db, organizationID)
}

func (r *memberships) DeleteAllForOrganizationTx(ctx context.Context, tx bun.IDB, organizationID int64) error {
	_, err := tx.NewDelete().Model((*Membership)(nil)).
		Where("organization_id = ?", organizationID).
		Exec(ctx)
	if err != nil {
		return wrapDBErr(err, "memberships", organizationID)
	}
	return nil
}
