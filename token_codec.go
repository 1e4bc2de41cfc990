package staart

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenPurpose is the single intended use of a token, fixed at issuance
// and checked at verification.
type TokenPurpose string

const (
	PurposeSession         TokenPurpose = "session"
	PurposeRefresh         TokenPurpose = "refresh"
	PurposeEmailVerify     TokenPurpose = "email-verify"
	PurposePasswordReset   TokenPurpose = "password-reset"
	PurposeApproveLocation TokenPurpose = "approve-location"
)

// IsValid checks if the purpose is part of the closed enumeration.
func (p TokenPurpose) IsValid() bool {
	switch p {
	case PurposeSession, PurposeRefresh, PurposeEmailVerify, PurposePasswordReset, PurposeApproveLocation:
		return true
	default:
		return false
	}
}

// AllPurposes returns every purpose in the enumeration.
func AllPurposes() []TokenPurpose {
	return []TokenPurpose{
		PurposeSession,
		PurposeRefresh,
		PurposeEmailVerify,
		PurposePasswordReset,
		PurposeApproveLocation,
	}
}

// TokenClaims is the signed token payload. SubjectID identifies the
// principal the token is about: a user id for every purpose except
// email verification, where it is the email record id (mirrored in
// EmailID so purpose and payload shape are checked together).
type TokenClaims struct {
	jwt.RegisteredClaims
	SubjectID int64        `json:"uid"`
	Purpose   TokenPurpose `json:"pur"`
	EmailID   int64        `json:"eml,omitempty"`
}

// TokenCodec signs and verifies purpose tagged tokens. A single signing
// key underlies all token kinds; purpose separation is enforced by
// TokenVerifier, so the codec itself is kind agnostic.
type TokenCodec struct {
	signingKey []byte
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
}

// NewTokenCodec creates a codec from the given configuration.
func NewTokenCodec(cfg Config) *TokenCodec {
	return &TokenCodec{
		signingKey: []byte(cfg.GetSigningKey()),
		issuer:     cfg.GetIssuer(),
		audience:   cfg.GetAudience(),
		logger:     defLogger{},
	}
}

func (tc *TokenCodec) WithLogger(logger Logger) *TokenCodec {
	if logger != nil {
		tc.logger = logger
	}
	return tc
}

// Encode serializes and signs the claims with the given ttl. The
// registered claims (iss, aud, iat, exp, jti) are filled here; callers
// only provide subject, purpose, and purpose specific fields.
func (tc *TokenCodec) Encode(claims *TokenClaims, ttl time.Duration) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}
	if !claims.Purpose.IsValid() {
		return "", errors.New("unknown token purpose", errors.CategoryInternal)
	}

	now := time.Now()

	var aud jwt.ClaimStrings
	if len(tc.audience) > 0 {
		aud = make(jwt.ClaimStrings, len(tc.audience))
		copy(aud, tc.audience)
	}

	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    tc.issuer,
		Subject:   strconv.FormatInt(claims.SubjectID, 10),
		Audience:  aud,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(tc.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign token")
	}

	return signedString, nil
}

// Decode verifies signature and expiry and returns the claims. Expiry
// is checked on every decode against the wall clock; no token is valid
// past its exp.
func (tc *TokenCodec) Decode(raw string) (*TokenClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if tc.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(tc.issuer))
	}
	if len(tc.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(tc.audience...))
	}

	token, err := jwt.ParseWithClaims(raw, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			tc.logger.Error("TokenCodec decode encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return tc.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, errors.Wrap(err, ErrInvalidToken.Category, ErrInvalidToken.Message).
			WithTextCode(ErrInvalidToken.TextCode)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		tc.logger.Error("TokenCodec decode could not map claims")
		return nil, ErrInvalidToken
	}

	if !claims.Purpose.IsValid() {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
