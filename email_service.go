package staart

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// EmailService manages the email addresses attached to a user account.
// Every operation authorizes the acting user against the owning account
// through the capability engine before touching storage.
type EmailService struct {
	repo   RepositoryManager
	issuer *TokenIssuer
	can    *CapabilityEngine
	mailer Mailer
	sink   ActivitySink
	logger Logger
}

func NewEmailService(repo RepositoryManager, issuer *TokenIssuer, can *CapabilityEngine) *EmailService {
	return &EmailService{
		repo:   repo,
		issuer: issuer,
		can:    can,
		sink:   noopActivitySink{},
		logger: defLogger{},
	}
}

func (s *EmailService) WithMailer(mailer Mailer) *EmailService {
	s.mailer = mailer
	return s
}

func (s *EmailService) WithActivitySink(sink ActivitySink) *EmailService {
	s.sink = normalizeActivitySink(sink)
	return s
}

func (s *EmailService) WithLogger(logger Logger) *EmailService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// GetUserEmails lists the addresses attached to the given account.
func (s *EmailService) GetUserEmails(ctx context.Context, actorID, userID int64) ([]Email, error) {
	if !s.can.Can(ctx, actorID, ActionRead, ResourceUser, userID) {
		return nil, ErrInsufficientPermission
	}
	return s.repo.Emails().ListForUser(ctx, userID)
}

// GetEmail returns a single address record, authorized against the
// account that owns it.
func (s *EmailService) GetEmail(ctx context.Context, actorID, userID, emailID int64) (*Email, error) {
	if !s.can.Can(ctx, actorID, ActionRead, ResourceUser, userID) {
		return nil, ErrInsufficientPermission
	}

	email, err := s.repo.Emails().GetByID(ctx, emailID)
	if err != nil {
		return nil, err
	}
	if email.UserID != userID {
		return nil, ErrResourceNotFound
	}
	return email, nil
}

// ResendVerification re-issues the verification token for an address
// that has not yet been verified.
func (s *EmailService) ResendVerification(ctx context.Context, actorID, userID, emailID int64) error {
	email, err := s.GetEmail(ctx, actorID, userID, emailID)
	if err != nil {
		return err
	}
	if email.IsVerified {
		return errors.New("email is already verified", errors.CategoryConflict).
			WithTextCode("EMAIL_ALREADY_VERIFIED").
			WithCode(errors.CodeConflict)
	}
	return s.sendVerification(ctx, email)
}

// AddEmail attaches a new address to the account and sends the
// verification message. The address must not exist anywhere else.
func (s *EmailService) AddEmail(ctx context.Context, actorID, userID int64, address string, locals Locals) (*Email, error) {
	if !s.can.Can(ctx, actorID, ActionUpdate, ResourceUser, userID) {
		return nil, ErrInsufficientPermission
	}
	if err := validateEmailAddress(address); err != nil {
		return nil, err
	}
	if err := s.repo.Emails().IsNewEmail(ctx, address); err != nil {
		return nil, err
	}

	email, err := s.repo.Emails().Create(ctx, &Email{UserID: userID, Email: address})
	if err != nil {
		return nil, err
	}

	if err := s.sendVerification(ctx, email); err != nil {
		return nil, err
	}

	s.recordEvent(ctx, ActivityEvent{
		Type:      EventTypeEmailCreated,
		UserID:    userID,
		Data:      map[string]any{"email": address},
		IPAddress: locals.IPAddress,
		UserAgent: locals.UserAgent,
	})

	return email, nil
}

// DeleteEmail detaches an address from the account. The last verified
// address cannot be removed, and deleting the primary address promotes
// another verified one in its place.
func (s *EmailService) DeleteEmail(ctx context.Context, actorID, userID, emailID int64, locals Locals) error {
	if !s.can.Can(ctx, actorID, ActionUpdate, ResourceUser, userID) {
		return ErrInsufficientPermission
	}

	email, err := s.repo.Emails().GetByID(ctx, emailID)
	if err != nil {
		return err
	}
	if email.UserID != userID {
		return ErrResourceNotFound
	}

	verified, err := s.repo.Emails().ListVerifiedForUser(ctx, userID)
	if err != nil {
		return err
	}

	remaining := make([]Email, 0, len(verified))
	for _, v := range verified {
		if v.ID != emailID {
			remaining = append(remaining, v)
		}
	}
	if len(remaining) == 0 {
		return ErrEmailCannotDelete
	}

	user, err := s.repo.Users().GetByID(ctx, userID)
	if err != nil {
		return err
	}

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if user.PrimaryEmailID == emailID {
			if err := s.repo.Users().SetPrimaryEmailTx(ctx, tx, userID, remaining[0].ID); err != nil {
				return err
			}
		}
		return s.repo.Emails().DeleteTx(ctx, tx, emailID)
	})
	if err != nil {
		return err
	}

	s.recordEvent(ctx, ActivityEvent{
		Type:      EventTypeEmailDeleted,
		UserID:    userID,
		Data:      map[string]any{"email": email.Email},
		IPAddress: locals.IPAddress,
		UserAgent: locals.UserAgent,
	})

	return nil
}

func (s *EmailService) sendVerification(ctx context.Context, email *Email) error {
	token, err := s.issuer.EmailVerifyToken(email.ID)
	if err != nil {
		return err
	}
	if s.mailer == nil {
		return nil
	}
	if err := s.mailer.Send(ctx, email.Email, TemplateEmailVerify, map[string]any{
		"token": token,
	}); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to send verification mail")
	}
	return nil
}

func (s *EmailService) recordEvent(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if err := s.sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}
