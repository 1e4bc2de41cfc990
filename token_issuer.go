package staart

import "time"

// TokenIssuer builds the specific token kinds the flows hand out. Each
// constructor wraps TokenCodec.Encode with a fixed purpose tag and the
// configured ttl for that purpose.
type TokenIssuer struct {
	codec              *TokenCodec
	sessionTTL         time.Duration
	refreshTTL         time.Duration
	emailVerifyTTL     time.Duration
	passwordResetTTL   time.Duration
	approveLocationTTL time.Duration
}

// NewTokenIssuer creates an issuer bound to the given codec and ttl
// configuration.
func NewTokenIssuer(codec *TokenCodec, cfg Config) *TokenIssuer {
	return &TokenIssuer{
		codec:              codec,
		sessionTTL:         cfg.GetSessionTokenTTL(),
		refreshTTL:         cfg.GetRefreshTokenTTL(),
		emailVerifyTTL:     cfg.GetEmailVerifyTokenTTL(),
		passwordResetTTL:   cfg.GetPasswordResetTokenTTL(),
		approveLocationTTL: cfg.GetApproveLocationTokenTTL(),
	}
}

// SessionToken issues a long lived session bearer token for a user.
func (ti *TokenIssuer) SessionToken(userID int64) (string, error) {
	return ti.codec.Encode(&TokenClaims{SubjectID: userID, Purpose: PurposeSession}, ti.sessionTTL)
}

// RefreshToken issues a refresh token, longer lived than the session.
func (ti *TokenIssuer) RefreshToken(userID int64) (string, error) {
	return ti.codec.Encode(&TokenClaims{SubjectID: userID, Purpose: PurposeRefresh}, ti.refreshTTL)
}

// EmailVerifyToken issues a short lived token bound to an email record.
func (ti *TokenIssuer) EmailVerifyToken(emailID int64) (string, error) {
	return ti.codec.Encode(&TokenClaims{
		SubjectID: emailID,
		EmailID:   emailID,
		Purpose:   PurposeEmailVerify,
	}, ti.emailVerifyTTL)
}

// PasswordResetToken issues a short lived token for completing a
// password reset.
func (ti *TokenIssuer) PasswordResetToken(userID int64) (string, error) {
	return ti.codec.Encode(&TokenClaims{SubjectID: userID, Purpose: PurposePasswordReset}, ti.passwordResetTTL)
}

// ApproveLocationToken issues a short lived token for confirming a
// login from a new location.
func (ti *TokenIssuer) ApproveLocationToken(userID int64) (string, error) {
	return ti.codec.Encode(&TokenClaims{SubjectID: userID, Purpose: PurposeApproveLocation}, ti.approveLocationTTL)
}
