package staart

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Registration is the payload for creating a new account. Organization
// and Role are optional; when both are set the new user joins that
// organization immediately (invitation flows).
type Registration struct {
	Name              string         `json:"name"`
	Nickname          string         `json:"nickname"`
	CountryCode       string         `json:"country_code"`
	Timezone          string         `json:"timezone"`
	PreferredLanguage string         `json:"preferred_language"`
	Password          string         `json:"password"`
	Email             string         `json:"email"`
	OrganizationID    int64          `json:"organization_id"`
	Role              MembershipRole `json:"role"`
}

// AuthService implements the authentication flows: login, refresh
// exchange, registration, password reset, email verification, location
// approval, and impersonation. Every flow authorizes through the
// capability engine and consumes or issues tokens through the token
// components.
type AuthService struct {
	repo     RepositoryManager
	issuer   *TokenIssuer
	verifier *TokenVerifier
	can      *CapabilityEngine
	login    *LoginResponseBuilder
	mailer   Mailer
	social   SocialProvider
	sink     ActivitySink
	logger   Logger
}

// NewAuthService wires the token components and capability engine from
// the given configuration and stores.
func NewAuthService(repo RepositoryManager, cfg Config) *AuthService {
	codec := NewTokenCodec(cfg)
	issuer := NewTokenIssuer(codec, cfg)

	return &AuthService{
		repo:     repo,
		issuer:   issuer,
		verifier: NewTokenVerifier(codec),
		can:      NewCapabilityEngine(repo.Memberships(), repo.Users()),
		login:    NewLoginResponseBuilder(issuer),
		sink:     noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithMailer sets the transactional mail delivery collaborator.
func (s *AuthService) WithMailer(mailer Mailer) *AuthService {
	s.mailer = mailer
	return s
}

// WithSocialProvider enables social login through the given provider.
func (s *AuthService) WithSocialProvider(provider SocialProvider) *AuthService {
	s.social = provider
	return s
}

// WithActivitySink sets the audit sink used by this service and the
// login response builder.
func (s *AuthService) WithActivitySink(sink ActivitySink) *AuthService {
	s.sink = normalizeActivitySink(sink)
	s.login.WithActivitySink(s.sink)
	return s
}

func (s *AuthService) WithLogger(logger Logger) *AuthService {
	if logger != nil {
		s.logger = logger
		s.login.WithLogger(logger)
		s.verifier.WithLogger(logger)
		s.can.WithLogger(logger)
	}
	return s
}

// Issuer exposes the token issuer for collaborating services.
func (s *AuthService) Issuer() *TokenIssuer { return s.issuer }

// Verifier exposes the token verifier for collaborating services.
func (s *AuthService) Verifier() *TokenVerifier { return s.verifier }

// Engine exposes the capability engine for collaborating services.
func (s *AuthService) Engine() *CapabilityEngine { return s.can }

// Login authenticates an email/password pair and returns the login
// response. Unknown addresses and wrong passwords both surface
// ErrInvalidLogin.
func (s *AuthService) Login(ctx context.Context, email, password string, locals Locals) (*LoginResponse, error) {
	if err := validateEmailAddress(email); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, ErrNoEmptyString
	}

	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrInvalidLogin
		}
		return nil, err
	}

	if user.Password == "" {
		return nil, ErrMissingPassword
	}

	if err := ComparePasswordAndHash(password, user.Password); err != nil {
		return nil, ErrInvalidLogin
	}

	if err := s.checkLoginLocation(ctx, user, email, locals); err != nil {
		return nil, err
	}

	return s.login.Build(ctx, user,
		WithLoginEvent(EventTypeLogin, "local"),
		WithLocals(locals),
	)
}

// SocialLoginLink returns the social provider's authorization URL for
// the given CSRF state.
func (s *AuthService) SocialLoginLink(state string) (string, error) {
	if s.social == nil {
		return "", ErrSocialNotConfigured
	}
	return s.social.AuthCodeURL(state), nil
}

// SocialLoginVerify completes a social login: it exchanges the
// authorization code for the provider profile and logs in the account
// registered under the profile's email address. Accounts are never
// created here; an unknown address surfaces ErrUserNotFound.
func (s *AuthService) SocialLoginVerify(ctx context.Context, code string, locals Locals) (*LoginResponse, error) {
	if s.social == nil {
		return nil, ErrSocialNotConfigured
	}

	profile, err := s.social.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryAuth, "social code exchange failed")
	}
	if profile == nil || profile.Email == "" {
		return nil, ErrUserNotFound
	}

	user, err := s.repo.Users().GetByEmail(ctx, profile.Email)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err := s.checkLoginLocation(ctx, user, profile.Email, locals); err != nil {
		return nil, err
	}

	return s.login.Build(ctx, user,
		WithLoginEvent(EventTypeLogin, s.social.Name()),
		WithLocals(locals),
	)
}

// ValidateRefreshToken exchanges a refresh token for a fresh session.
func (s *AuthService) ValidateRefreshToken(ctx context.Context, raw string) (*LoginResponse, error) {
	userID, err := s.verifier.VerifySubject(raw, PurposeRefresh)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return s.login.Build(ctx, user)
}

// Register creates a user with an optional email, membership, and
// approved location, then sends the email verification message.
func (s *AuthService) Register(ctx context.Context, reg Registration, locals Locals) (*User, error) {
	if err := validateText("name", reg.Name); err != nil {
		return nil, err
	}
	if reg.CountryCode != "" {
		if err := validateCountryCode(reg.CountryCode); err != nil {
			return nil, err
		}
	}
	if reg.Email != "" {
		if err := validateEmailAddress(reg.Email); err != nil {
			return nil, err
		}
		if err := s.repo.Emails().IsNewEmail(ctx, reg.Email); err != nil {
			return nil, err
		}
	}
	if reg.Role != "" && !reg.Role.IsValid() {
		return nil, invalidInput("role", errors.New("unknown role", errors.CategoryValidation))
	}

	user := &User{
		Name:              reg.Name,
		Nickname:          reg.Nickname,
		CountryCode:       reg.CountryCode,
		Timezone:          reg.Timezone,
		PreferredLanguage: reg.PreferredLanguage,
	}

	if reg.Password != "" {
		hash, err := HashPassword(reg.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hash
	}

	var email *Email

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		if user, err = s.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return err
		}

		if reg.Email != "" {
			email = &Email{UserID: user.ID, Email: reg.Email}
			if email, err = s.repo.Emails().CreateTx(ctx, tx, email); err != nil {
				return err
			}
			if err = s.repo.Users().SetPrimaryEmailTx(ctx, tx, user.ID, email.ID); err != nil {
				return err
			}
			user.PrimaryEmailID = email.ID
		}

		if reg.OrganizationID != 0 && reg.Role != "" {
			membership := &Membership{
				UserID:         user.ID,
				OrganizationID: reg.OrganizationID,
				Role:           reg.Role,
			}
			if _, err = s.repo.Memberships().CreateTx(ctx, tx, membership); err != nil {
				return err
			}
		}

		return s.repo.Users().AddApprovedLocationTx(ctx, tx, user.ID, locals.IPAddress)
	})
	if err != nil {
		return nil, err
	}

	if email != nil {
		s.sendEmailVerification(ctx, email)
	}

	return user.Sanitized(), nil
}

// SendPasswordReset issues a reset token and mails it to the address.
func (s *AuthService) SendPasswordReset(ctx context.Context, email string, locals Locals) error {
	if err := validateEmailAddress(email); err != nil {
		return err
	}

	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			return ErrUserNotFound
		}
		return err
	}

	token, err := s.issuer.PasswordResetToken(user.ID)
	if err != nil {
		return err
	}

	if s.mailer != nil {
		if err := s.mailer.Send(ctx, email, TemplatePasswordReset, map[string]any{
			"name":  user.Name,
			"token": token,
		}); err != nil {
			return errors.Wrap(err, errors.CategoryOperation, "failed to send password reset mail")
		}
	}

	s.recordEvent(ctx, ActivityEvent{
		Type:      EventTypePasswordResetRequested,
		UserID:    user.ID,
		IPAddress: locals.IPAddress,
		UserAgent: locals.UserAgent,
	})

	return nil
}

// VerifyEmail consumes an email verification token and marks the email
// record verified.
func (s *AuthService) VerifyEmail(ctx context.Context, raw string, locals Locals) error {
	claims, err := s.verifier.Verify(raw, PurposeEmailVerify)
	if err != nil {
		return err
	}

	email, err := s.repo.Emails().GetByID(ctx, claims.EmailID)
	if err != nil {
		if errors.IsNotFound(err) {
			return ErrResourceNotFound
		}
		return err
	}

	if err := s.repo.Emails().SetVerified(ctx, email.ID); err != nil {
		return err
	}

	s.recordEvent(ctx, ActivityEvent{
		Type:      EventTypeEmailVerified,
		UserID:    email.UserID,
		Data:      map[string]any{"id": email.ID},
		IPAddress: locals.IPAddress,
		UserAgent: locals.UserAgent,
	})

	return nil
}

// UpdatePassword completes a password reset: it consumes the reset
// token and replaces the user's password hash.
func (s *AuthService) UpdatePassword(ctx context.Context, raw, password string, locals Locals) error {
	userID, err := s.verifier.VerifySubject(raw, PurposePasswordReset)
	if err != nil {
		return err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	if err := s.repo.Users().UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	s.recordEvent(ctx, ActivityEvent{
		Type:      EventTypePasswordChanged,
		UserID:    userID,
		IPAddress: locals.IPAddress,
		UserAgent: locals.UserAgent,
	})

	return nil
}

// Impersonate returns a login response for the target user, provided
// the capability engine grants the actor the impersonation capability.
func (s *AuthService) Impersonate(ctx context.Context, actorID, targetUserID int64) (*LoginResponse, error) {
	if !s.can.Can(ctx, actorID, ActionImpersonate, ResourceUser, targetUserID) {
		return nil, ErrInsufficientPermission
	}

	user, err := s.repo.Users().GetByID(ctx, targetUserID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return s.login.Build(ctx, user,
		WithLoginEvent(EventTypeImpersonation, "impersonation"),
	)
}

// ApproveLocation consumes an approve-location token, records the new
// location, and logs the user in.
func (s *AuthService) ApproveLocation(ctx context.Context, raw string, locals Locals) (*LoginResponse, error) {
	userID, err := s.verifier.VerifySubject(raw, PurposeApproveLocation)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err := s.repo.Users().AddApprovedLocation(ctx, user.ID, locals.IPAddress); err != nil {
		return nil, err
	}

	return s.login.Build(ctx, user,
		WithLoginEvent(EventTypeApproveLocation, locals.IPAddress),
		WithLocals(locals),
	)
}

// checkLoginLocation enforces new-location detection. Correct
// credentials arriving from a subnet the user has never approved do not
// produce a session; an approve-location token is mailed to the address
// that signed in and the login fails with ErrUnapprovedLocation.
func (s *AuthService) checkLoginLocation(ctx context.Context, user *User, address string, locals Locals) error {
	if locals.IPAddress == "" {
		return nil
	}

	known, err := s.repo.Users().HasApprovedLocation(ctx, user.ID, locals.IPAddress)
	if err != nil {
		return err
	}
	if known {
		return nil
	}

	token, err := s.issuer.ApproveLocationToken(user.ID)
	if err != nil {
		return err
	}

	if s.mailer != nil {
		if err := s.mailer.Send(ctx, address, TemplateApproveLocation, map[string]any{
			"name":  user.Name,
			"token": token,
		}); err != nil {
			return errors.Wrap(err, errors.CategoryOperation, "failed to send location approval mail")
		}
	}

	return ErrUnapprovedLocation
}

func (s *AuthService) sendEmailVerification(ctx context.Context, email *Email) {
	if s.mailer == nil || email == nil {
		return
	}

	token, err := s.issuer.EmailVerifyToken(email.ID)
	if err != nil {
		s.logger.Warn("failed to issue email verification token: %v", err)
		return
	}

	if err := s.mailer.Send(ctx, email.Email, TemplateEmailVerify, map[string]any{
		"token": token,
	}); err != nil {
		s.logger.Warn("failed to send verification mail: %v", err)
	}
}

func (s *AuthService) recordEvent(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if err := normalizeActivitySink(s.sink).Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}
