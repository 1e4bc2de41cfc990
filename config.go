package staart

import "time"

// Config holds token options. The signing key is process wide, read only
// after initialization, and injected here rather than looked up from any
// ambient global.
type Config interface {
	GetSigningKey() string
	GetIssuer() string
	GetAudience() []string
	GetSessionTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetEmailVerifyTokenTTL() time.Duration
	GetPasswordResetTokenTTL() time.Duration
	GetApproveLocationTokenTTL() time.Duration
}

const (
	defaultSessionTTL         = 24 * time.Hour
	defaultRefreshTTL         = 30 * 24 * time.Hour
	defaultEmailVerifyTTL     = 7 * 24 * time.Hour
	defaultPasswordResetTTL   = time.Hour
	defaultApproveLocationTTL = 10 * time.Minute
)

// TokenConfig is a literal Config implementation. Zero TTLs fall back to
// the package defaults.
type TokenConfig struct {
	SigningKey         string
	Issuer             string
	Audience           []string
	SessionTTL         time.Duration
	RefreshTTL         time.Duration
	EmailVerifyTTL     time.Duration
	PasswordResetTTL   time.Duration
	ApproveLocationTTL time.Duration
}

var _ Config = TokenConfig{}

func (c TokenConfig) GetSigningKey() string { return c.SigningKey }

func (c TokenConfig) GetIssuer() string { return c.Issuer }

func (c TokenConfig) GetAudience() []string { return c.Audience }

func (c TokenConfig) GetSessionTokenTTL() time.Duration {
	return ttlOrDefault(c.SessionTTL, defaultSessionTTL)
}

func (c TokenConfig) GetRefreshTokenTTL() time.Duration {
	return ttlOrDefault(c.RefreshTTL, defaultRefreshTTL)
}

func (c TokenConfig) GetEmailVerifyTokenTTL() time.Duration {
	return ttlOrDefault(c.EmailVerifyTTL, defaultEmailVerifyTTL)
}

func (c TokenConfig) GetPasswordResetTokenTTL() time.Duration {
	return ttlOrDefault(c.PasswordResetTTL, defaultPasswordResetTTL)
}

func (c TokenConfig) GetApproveLocationTokenTTL() time.Duration {
	return ttlOrDefault(c.ApproveLocationTTL, defaultApproveLocationTTL)
}

func ttlOrDefault(ttl, def time.Duration) time.Duration {
	if ttl == 0 {
		return def
	}
	return ttl
}
