package staart

import (
	"context"
	"time"
)

// EventType enumerates the audit event categories.
type EventType string

const (
	EventTypeLogin                  EventType = "auth.login"
	EventTypeRefresh                EventType = "auth.refresh"
	EventTypeApproveLocation        EventType = "auth.location.approved"
	EventTypePasswordResetRequested EventType = "auth.password_reset.requested"
	EventTypePasswordChanged        EventType = "auth.password.changed"
	EventTypeImpersonation          EventType = "auth.impersonation"
	EventTypeEmailCreated           EventType = "email.created"
	EventTypeEmailVerified          EventType = "email.verified"
	EventTypeEmailDeleted           EventType = "email.deleted"
	EventTypeOrganizationCreated    EventType = "organization.created"
	EventTypeOrganizationUpdated    EventType = "organization.updated"
	EventTypeOrganizationDeleted    EventType = "organization.deleted"
	EventTypeBillingUpdated         EventType = "billing.updated"
)

// ActivityEvent captures audit friendly information about an action.
type ActivityEvent struct {
	Type           EventType
	UserID         int64
	OrganizationID int64
	Data           map[string]any
	IPAddress      string
	UserAgent      string
	OccurredAt     time.Time
}

// ActivitySink consumes activity events for auditing purposes. Sinks
// run best-effort: callers log failures and continue.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
