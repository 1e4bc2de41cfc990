package staart

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Events is the persisted audit log. It implements ActivitySink so the
// core components can write to it directly.
type Events interface {
	ActivitySink
	ListForOrganization(ctx context.Context, organizationID int64) ([]Event, error)
	RecentForOrganization(ctx context.Context, organizationID int64, limit int) ([]Event, error)
}

type events struct {
	db *bun.DB
}

var _ Events = (*events)(nil)
var _ ActivitySink = (*events)(nil)

func NewEventsRepository(db *bun.DB) Events {
	return &events{db: db}
}

func (r *events) Record(ctx context.Context, event ActivityEvent) error {
	record := &Event{
		UserID:         event.UserID,
		OrganizationID: event.OrganizationID,
		Type:           event.Type,
		Data:           event.Data,
		IPAddress:      event.IPAddress,
		UserAgent:      event.UserAgent,
	}
	if !event.OccurredAt.IsZero() {
		occurredAt := event.OccurredAt
		record.CreatedAt = &occurredAt
	}
	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "could not record event")
	}
	return nil
}

func (r *events) ListForOrganization(ctx context.Context, organizationID int64) ([]Event, error) {
	var records []Event
	err := r.db.NewSelect().Model(&records).
		Where("organization_id = ?", organizationID).
		Order("id DESC").
		Scan(ctx)
	if err != nil {
		return nil, wrapDBErr(err, "events", organizationID)
	}
	return records, nil
}

func (r *events) RecentForOrganization(ctx context.Context, organizationID int64, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 25
	}
	var records []Event
	err := r.db.NewSelect().Model(&records).
		Where("organization_id = ?", organizationID).
		Order("id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, wrapDBErr(err, "events", organizationID)
	}
	return records, nil
}
