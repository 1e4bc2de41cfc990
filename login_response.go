package staart

import (
	"context"
	"time"
)

// LoginResponse is the payload returned on successful authentication.
// User is always the sanitized profile; the password hash and signing
// material never appear here.
type LoginResponse struct {
	User         *User  `json:"user"`
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

type loginResponseOptions struct {
	eventType EventType
	method    string
	locals    Locals
}

// LoginResponseOption customizes a single Build call.
type LoginResponseOption func(*loginResponseOptions)

// WithLoginEvent records an audit event with the given type and login
// method tag ("local", "google", an ip address for location approvals).
func WithLoginEvent(eventType EventType, method string) LoginResponseOption {
	return func(o *loginResponseOptions) {
		o.eventType = eventType
		o.method = method
	}
}

// WithLocals threads request metadata (ip, user agent) into the event.
func WithLocals(locals Locals) LoginResponseOption {
	return func(o *loginResponseOptions) {
		o.locals = locals
	}
}

// LoginResponseBuilder composes the response for every flow that ends
// in an authenticated session: login, refresh exchange, impersonation,
// location approval.
type LoginResponseBuilder struct {
	issuer *TokenIssuer
	sink   ActivitySink
	logger Logger
}

// NewLoginResponseBuilder creates a builder with a noop sink.
func NewLoginResponseBuilder(issuer *TokenIssuer) *LoginResponseBuilder {
	return &LoginResponseBuilder{
		issuer: issuer,
		sink:   noopActivitySink{},
		logger: defLogger{},
	}
}

// WithActivitySink sets the sink used to emit audit events.
func (b *LoginResponseBuilder) WithActivitySink(sink ActivitySink) *LoginResponseBuilder {
	b.sink = normalizeActivitySink(sink)
	return b
}

func (b *LoginResponseBuilder) WithLogger(logger Logger) *LoginResponseBuilder {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// Build issues a fresh session and refresh token for the user and
// returns them with the sanitized profile. When an event type is
// supplied it emits exactly one audit event; a sink failure is logged
// and never blocks the login response.
func (b *LoginResponseBuilder) Build(ctx context.Context, user *User, opts ...LoginResponseOption) (*LoginResponse, error) {
	if user == nil || user.ID == 0 {
		return nil, ErrUserNotFound
	}

	options := &loginResponseOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	token, err := b.issuer.SessionToken(user.ID)
	if err != nil {
		return nil, err
	}

	refresh, err := b.issuer.RefreshToken(user.ID)
	if err != nil {
		return nil, err
	}

	if options.eventType != "" {
		event := ActivityEvent{
			Type:       options.eventType,
			UserID:     user.ID,
			Data:       map[string]any{"method": options.method},
			IPAddress:  options.locals.IPAddress,
			UserAgent:  options.locals.UserAgent,
			OccurredAt: time.Now(),
		}
		if err := b.sink.Record(ctx, event); err != nil {
			b.logger.Warn("activity sink record error: %v", err)
		}
	}

	return &LoginResponse{
		User:         user.Sanitized(),
		Token:        token,
		RefreshToken: refresh,
	}, nil
}
