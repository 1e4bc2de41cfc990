package staart

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Organizations is the tenant store.
type Organizations interface {
	GetByID(ctx context.Context, id int64) (*Organization, error)
	Create(ctx context.Context, org *Organization) (*Organization, error)
	CreateTx(ctx context.Context, tx bun.IDB, org *Organization) (*Organization, error)
	Update(ctx context.Context, org *Organization) error
	SetBillingCustomer(ctx context.Context, id int64, customerID string) error
	Delete(ctx context.Context, id int64) error
	DeleteTx(ctx context.Context, tx bun.IDB, id int64) error
}

type organizations struct {
	db *bun.DB
}

var _ Organizations = (*organizations)(nil)

func NewOrganizationsRepository(db *bun.DB) Organizations {
	return &organizations{db: db}
}

func (r *organizations) GetByID(ctx context.Context, id int64) (*Organization, error) {
	org := &Organization{}
	err := r.db.NewSelect().Model(org).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, wrapDBErr(err, "organization", id)
	}
	return org, nil
}

func (r *organizations) Create(ctx context.Context, org *Organization) (*Organization, error) {
	return r.CreateTx(ctx, r.db, org)
}

func (r *organizations) CreateTx(ctx context.Context, tx bun.IDB, org *Organization) (*Organization, error) {
	if _, err := tx.NewInsert().Model(org).Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryConflict, "could not create organization")
	}
	return org, nil
}

func (r *organizations) Update(ctx context.Context, org *Organization) error {
	if org == nil || org.ID == 0 {
		return notFound("organization", 0)
	}
	_, err := r.db.NewUpdate().Model(org).
		OmitZero().
		WherePK().
		Exec(ctx)
	if err != nil {
		return wrapDBErr(err, "organization", org.ID)
	}
	return nil
}

func (r *organizations) SetBillingCustomer(ctx context.Context, id int64, customerID string) error {
	_, err := r.db.NewUpdate().Model((*Organization)(nil)).
		Set("billing_customer_id = ?", customerID).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return wrapDBErr(err, "organization", id)
	}
	return nil
}

func (r *organizations) Delete(ctx context.Context, id int64) error {
	return r.DeleteTx(ctx, r.db, id)
}

func (r *organizations) DeleteTx(ctx context.Context, tx bun.IDB, id int64) error {
	_, err := tx.NewDelete().Model((*Organization)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return wrapDBErr(err, "organization", id)
	}
	return nil
}
