package staart

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Locals carries request scoped metadata threaded from the transport
// layer into events and location checks.
type Locals struct {
	IPAddress string
	UserAgent string
}

// MailTemplate identifies the message a Mailer should render.
type MailTemplate string

const (
	TemplateEmailVerify     MailTemplate = "email-verify"
	TemplatePasswordReset   MailTemplate = "password-reset"
	TemplateApproveLocation MailTemplate = "approve-location"
)

// Mailer delivers transactional mail. Rendering and transport are
// external concerns; the services only hand over a template tag and its
// data.
type Mailer interface {
	Send(ctx context.Context, to string, template MailTemplate, data map[string]any) error
}

// SocialProfile is the normalized user information a social provider
// returns after a successful code exchange.
type SocialProfile struct {
	Provider      string
	Email         string
	EmailVerified bool
	Name          string
}

// SocialProvider abstracts an OAuth2 identity provider used for social
// login. AuthCodeURL returns the authorization redirect for the given
// CSRF state; Exchange trades an authorization code for the user's
// profile. Name identifies the provider in audit events ("google").
type SocialProvider interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*SocialProfile, error)
}

// BillingProvider is the narrow surface the organization service needs
// from the payment backend. Provider specific protocol details stay on
// the other side of this interface.
type BillingProvider interface {
	Customer(ctx context.Context, customerID string) (map[string]any, error)
	CreateCustomer(ctx context.Context, organizationID int64, details map[string]any) (string, error)
	UpdateCustomer(ctx context.Context, customerID string, details map[string]any) (map[string]any, error)
	DeleteCustomer(ctx context.Context, customerID string) error
	Invoices(ctx context.Context, customerID string) ([]map[string]any, error)
	Subscriptions(ctx context.Context, customerID string) ([]map[string]any, error)
	ProductPricing(ctx context.Context, productID string) ([]map[string]any, error)
	Sources(ctx context.Context, customerID string) ([]map[string]any, error)
	Source(ctx context.Context, customerID, sourceID string) (map[string]any, error)
	CreateSource(ctx context.Context, customerID string, source map[string]any) (map[string]any, error)
	UpdateSource(ctx context.Context, customerID, sourceID string, source map[string]any) (map[string]any, error)
	DeleteSource(ctx context.Context, customerID, sourceID string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] STAART "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] STAART "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] STAART "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] STAART "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
