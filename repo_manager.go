package staart

import (
	"context"
	"database/sql"
	stderrors "errors"
	"log"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	Users() Users
	Emails() Emails
	Organizations() Organizations
	Memberships() Memberships
	Events() Events
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
	Validate() error
	MustValidate()
}

type mngr struct {
	db            *bun.DB
	users         Users
	emails        Emails
	organizations Organizations
	memberships   Memberships
	events        Events
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:            db,
		users:         NewUsersRepository(db),
		emails:        NewEmailsRepository(db),
		organizations: NewOrganizationsRepository(db),
		memberships:   NewMembershipsRepository(db),
		events:        NewEventsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return stderrors.New("repository users should be initialized")
	}
	if m.emails == nil {
		return stderrors.New("repository emails should be initialized")
	}
	if m.organizations == nil {
		return stderrors.New("repository organizations should be initialized")
	}
	if m.memberships == nil {
		return stderrors.New("repository memberships should be initialized")
	}
	if m.events == nil {
		return stderrors.New("repository events should be initialized")
	}
	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users                 { return m.users }
func (m mngr) Emails() Emails               { return m.emails }
func (m mngr) Organizations() Organizations { return m.organizations }
func (m mngr) Memberships() Memberships     { return m.memberships }
func (m mngr) Events() Events               { return m.events }

// OpenDB opens a SQLite backed bun database. Callers that need a
// different backend can hand any *bun.DB to NewRepositoryManager.
func OpenDB(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to open database")
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// CreateSchema creates the tables for every model. Intended for
// embedded/dev use; production deployments run managed migrations.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*User)(nil),
		(*Email)(nil),
		(*Organization)(nil),
		(*Membership)(nil),
		(*ApprovedLocation)(nil),
		(*Event)(nil),
	}
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to create schema")
		}
	}
	return nil
}

func notFound(kind string, id any) *errors.Error {
	return errors.New(kind+" not found", errors.CategoryNotFound).
		WithTextCode(TextCodeResourceNotFound).
		WithCode(errors.CodeNotFound).
		WithMetadata(map[string]any{"id": id})
}

func wrapDBErr(err error, kind string, id any) error {
	if stderrors.Is(err, sql.ErrNoRows) {
		return notFound(kind, id)
	}
	return errors.Wrap(err, errors.CategoryInternal, "failed to query "+kind)
}
