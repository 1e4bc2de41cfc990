package staart

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Emails is the email store.
type Emails interface {
	GetByID(ctx context.Context, id int64) (*Email, error)
	ListForUser(ctx context.Context, userID int64) ([]Email, error)
	ListVerifiedForUser(ctx context.Context, userID int64) ([]Email, error)
	Create(ctx context.Context, email *Email) (*Email, error)
	CreateTx(ctx context.Context, tx bun.IDB, email *Email) (*Email, error)
	SetVerified(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	DeleteTx(ctx context.Context, tx bun.IDB, id int64) error
	IsNewEmail(ctx context.Context, address string) error
}

type emails struct {
	db *bun.DB
}

var _ Emails = (*emails)(nil)

func NewEmailsRepository(db *bun.DB) Emails {
	return &emails{db: db}
}

func (r *emails) GetByID(ctx context.Context, id int64) (*Email, error) {
	email := &Email{}
	err := r.db.NewSelect().Model(email).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, wrapDBErr(err, "email", id)
	}
	return email, nil
}

func (r *emails) ListForUser(ctx context.Context, userID int64) ([]Email, error) {
	var records []Email
	err := r.db.NewSelect().Model(&records).
		Where("user_id = ?", userID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, wrapDBErr(err, "emails", userID)
	}
	return records, nil
}

func (r *emails) ListVerifiedForUser(ctx context.Context, userID int64) ([]Email, error) {
	var records []Email
	err := r.db.NewSelect().Model(&records).
		Where("user_id = ?", userID).
		Where("is_verified = ?", true).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, wrapDBErr(err, "emails", userID)
	}
	return records, nil
}

func (r *emails) Create(ctx context.Context, email *Email) (*Email, error) {
	return r.CreateTx(ctx, r.db, email)
}

func (r *emails) CreateTx(ctx context.Context, tx bun.IDB, email *Email) (*Email, error) {
	if _, err := tx.NewInsert().Model(email).Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryConflict, "could not create email")
	}
	return email, nil
}

func (r *emails) SetVerified(ctx context.Context, id int64) error {
	res, err := r.db.NewUpdate().Model((*Email)(nil)).
		Set("is_verified = ?", true).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return wrapDBErr(err, "email", id)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return notFound("email", id)
	}
	return nil
}

func (r *emails) Delete(ctx context.Context, id int64) error {
	return r.DeleteTx(ctx, r.db, id)
}

func (r *emails) DeleteTx(ctx context.Context, tx bun.IDB, id int64) error {
	_, err := tx.NewDelete().Model((*Email)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return wrapDBErr(err, "email", id)
	}
	return nil
}

// IsNewEmail returns ErrEmailExists when the address is already taken.
func (r *emails) IsNewEmail(ctx context.Context, address string) error {
	count, err := r.db.NewSelect().Model((*Email)(nil)).
		Where("email = ?", address).
		Count(ctx)
	if err != nil {
		return wrapDBErr(err, "email", address)
	}
	if count > 0 {
		return ErrEmailExists
	}
	return nil
}
