package staart

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Users is the user store.
type Users interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, address string) (*User, error)
	Create(ctx context.Context, user *User) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	SetPrimaryEmail(ctx context.Context, id, emailID int64) error
	SetPrimaryEmailTx(ctx context.Context, tx bun.IDB, id, emailID int64) error
	Delete(ctx context.Context, id int64) error
	IsSuperuser(ctx context.Context, id int64) (bool, error)
	AddApprovedLocation(ctx context.Context, userID int64, ip string) error
	AddApprovedLocationTx(ctx context.Context, tx bun.IDB, userID int64, ip string) error
	HasApprovedLocation(ctx context.Context, userID int64, ip string) (bool, error)
}

type users struct {
	db *bun.DB
}

var _ Users = (*users)(nil)
var _ SuperuserReader = (*users)(nil)

func NewUsersRepository(db *bun.DB) Users {
	return &users{db: db}
}

func (r *users) GetByID(ctx context.Context, id int64) (*User, error) {
	user := &User{}
	err := r.db.NewSelect().Model(user).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, wrapDBErr(err, "user", id)
	}
	return user, nil
}

// GetByEmail resolves a user through the emails table so secondary
// addresses work for login too.
func (r *users) GetByEmail(ctx context.Context, address string) (*User, error) {
	user := &User{}
	err := r.db.NewSelect().Model(user).
		Join("JOIN emails AS eml ON eml.user_id = usr.id").
		Where("eml.email = ?", address).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, wrapDBErr(err, "user", address)
	}
	return user, nil
}

func (r *users) Create(ctx context.Context, user *User) (*User, error) {
	return r.CreateTx(ctx, r.db, user)
}

func (r *users) CreateTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	if _, err := tx.NewInsert().Model(user).Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryConflict, "could not create user")
	}
	return user, nil
}

func (r *users) Update(ctx context.Context, user *User) error {
	if user == nil || user.ID == 0 {
		return notFound("user", 0)
	}
	_, err := r.db.NewUpdate().Model(user).
		OmitZero().
		WherePK().
		Exec(ctx)
	if err != nil {
		return wrapDBErr(err, "user", user.ID)
	}
	return nil
}

func (r *users) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := r.db.NewUpdate().Model((*User)(nil)).
		Set("password = ?", passwordHash).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return wrapDBErr(err, "user", id)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return notFound("user", id)
	}
	return nil
}

func (r *users) SetPrimaryEmail(ctx context.Context, id, emailID int64) error {
	return r.SetPrimaryEmailTx(ctx, r.db, id, emailID)
}

func (r *users) SetPrimaryEmailTx(ctx context.Context, tx bun.IDB, id, emailID int64) error {
	_, err := tx.NewUpdate().Model((*User)(nil)).
		Set("primary_email_id = ?", emailID).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return wrapDBErr(err, "user", id)
	}
	return nil
}

func (r *users) Delete(ctx context.Context, id int64) error {
	_, err := r.db.NewDelete().Model((*User)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return wrapDBErr(err, "user", id)
	}
	return nil
}

func (r *users) IsSuperuser(ctx context.Context, id int64) (bool, error) {
	var superuser bool
	err := r.db.NewSelect().Model((*User)(nil)).
		Column("superuser").
		Where("?TableAlias.id = ?", id).
		Scan(ctx, &superuser)
	if err != nil {
		return false, wrapDBErr(err, "user", id)
	}
	return superuser, nil
}

func (r *users) AddApprovedLocation(ctx context.Context, userID int64, ip string) error {
	return r.AddApprovedLocationTx(ctx, r.db, userID, ip)
}

func (r *users) AddApprovedLocationTx(ctx context.Context, tx bun.IDB, userID int64, ip string) error {
	if ip == "" {
		return nil
	}
	location := &ApprovedLocation{UserID: userID, Subnet: approvedSubnet(ip)}
	if _, err := tx.NewInsert().Model(location).Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "could not record approved location")
	}
	return nil
}

func (r *users) HasApprovedLocation(ctx context.Context, userID int64, ip string) (bool, error) {
	count, err := r.db.NewSelect().Model((*ApprovedLocation)(nil)).
		Where("user_id = ?", userID).
		Where("subnet = ?", approvedSubnet(ip)).
		Count(ctx)
	if err != nil {
		return false, wrapDBErr(err, "approved location", userID)
	}
	return count > 0, nil
}

// Locations are approved at /24 granularity for IPv4 so small DHCP
// churn does not retrigger approval mails.
func approvedSubnet(ip string) string {
	lastDot := -1
	dots := 0
	for i := 0; i < len(ip); i++ {
		if ip[i] == '.' {
			dots++
			lastDot = i
		}
	}
	if dots == 3 && lastDot > 0 {
		return ip[:lastDot] + ".0/24"
	}
	return ip
}
