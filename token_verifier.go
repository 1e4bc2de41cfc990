package staart

// TokenVerifier validates a token string and enforces that its declared
// purpose matches the purpose the calling flow expects. Every flow that
// consumes a token goes through Verify: refresh-to-session exchange,
// email verification, password reset completion, location approval.
type TokenVerifier struct {
	codec  *TokenCodec
	logger Logger
}

// NewTokenVerifier creates a verifier bound to the given codec.
func NewTokenVerifier(codec *TokenCodec) *TokenVerifier {
	return &TokenVerifier{codec: codec, logger: defLogger{}}
}

func (tv *TokenVerifier) WithLogger(logger Logger) *TokenVerifier {
	if logger != nil {
		tv.logger = logger
	}
	return tv
}

// Verify decodes the token and checks its purpose. A well formed token
// presented to the wrong flow fails with ErrWrongTokenPurpose, distinct
// from ErrInvalidToken and ErrExpiredToken.
func (tv *TokenVerifier) Verify(raw string, purpose TokenPurpose) (*TokenClaims, error) {
	claims, err := tv.codec.Decode(raw)
	if err != nil {
		return nil, err
	}

	if claims.Purpose != purpose {
		tv.logger.Warn("token purpose mismatch: want %s got %s", purpose, claims.Purpose)
		return nil, ErrWrongTokenPurpose
	}

	return claims, nil
}

// VerifySubject is a convenience wrapper returning just the subject id.
func (tv *TokenVerifier) VerifySubject(raw string, purpose TokenPurpose) (int64, error) {
	claims, err := tv.Verify(raw, purpose)
	if err != nil {
		return 0, err
	}
	return claims.SubjectID, nil
}
