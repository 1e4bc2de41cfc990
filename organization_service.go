package staart

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// OrganizationUpdate carries the mutable organization fields. Zero
// values are skipped.
type OrganizationUpdate struct {
	Name             string `json:"name"`
	InvitationDomain string `json:"invitation_domain"`
}

// OrganizationExport bundles everything an organization owns, used by
// the data export endpoint.
type OrganizationExport struct {
	Organization *Organization `json:"organization"`
	Memberships  []Membership  `json:"memberships"`
	Events       []Event       `json:"events"`
}

// OrganizationService manages organizations, their memberships, audit
// history, and billing. Billing calls pass through the configured
// BillingProvider; without one they fail with ErrNoBillingCustomer.
type OrganizationService struct {
	repo    RepositoryManager
	can     *CapabilityEngine
	billing BillingProvider
	sink    ActivitySink
	logger  Logger
}

func NewOrganizationService(repo RepositoryManager, can *CapabilityEngine) *OrganizationService {
	return &OrganizationService{
		repo:   repo,
		can:    can,
		sink:   noopActivitySink{},
		logger: defLogger{},
	}
}

func (s *OrganizationService) WithBillingProvider(billing BillingProvider) *OrganizationService {
	s.billing = billing
	return s
}

func (s *OrganizationService) WithActivitySink(sink ActivitySink) *OrganizationService {
	s.sink = normalizeActivitySink(sink)
	return s
}

func (s *OrganizationService) WithLogger(logger Logger) *OrganizationService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Get returns an organization the actor is allowed to read.
func (s *OrganizationService) Get(ctx context.Context, actorID, organizationID int64) (*Organization, error) {
	if !s.can.Can(ctx, actorID, ActionRead, ResourceOrganization, organizationID) {
		return nil, ErrInsufficientPermission
	}
	return s.repo.Organizations().GetByID(ctx, organizationID)
}

// Create creates an organization and makes the actor its owner.
func (s *OrganizationService) Create(ctx context.Context, actorID int64, name string, locals Locals) (*Organization, error) {
	if err := validateText("name", name); err != nil {
		return nil, err
	}

	org := &Organization{Name: name}

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		if org, err = s.repo.Organizations().CreateTx(ctx, tx, org); err != nil {
			return err
		}
		_, err = s.repo.Memberships().CreateTx(ctx, tx, &Membership{
			UserID:         actorID,
			OrganizationID: org.ID,
			Role:           RoleOwner,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.recordEvent(ctx, ActivityEvent{
		Type:           EventTypeOrganizationCreated,
		UserID:         actorID,
		OrganizationID: org.ID,
		IPAddress:      locals.IPAddress,
		UserAgent:      locals.UserAgent,
	})

	return org, nil
}

// Update applies the non-zero fields of the update to the organization.
func (s *OrganizationService) Update(ctx context.Context, actorID, organizationID int64, update OrganizationUpdate, locals Locals) (*Organization, error) {
	if !s.can.Can(ctx, actorID, ActionUpdate, ResourceOrganization, organizationID) {
		return nil, ErrInsufficientPermission
	}

	org, err := s.repo.Organizations().GetByID(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	if update.Name != "" {
		if err := validateText("name", update.Name); err != nil {
			return nil, err
		}
		org.Name = update.Name
	}
	if update.InvitationDomain != "" {
		if err := validateDomain(update.InvitationDomain); err != nil {
			return nil, err
		}
		org.InvitationDomain = update.InvitationDomain
	}

	if err := s.repo.Organizations().Update(ctx, org); err != nil {
		return nil, err
	}

	s.recordEvent(ctx, ActivityEvent{
		Type:           EventTypeOrganizationUpdated,
		UserID:         actorID,
		OrganizationID: organizationID,
		Data:           map[string]any{"name": org.Name},
		IPAddress:      locals.IPAddress,
		UserAgent:      locals.UserAgent,
	})

	return org, nil
}

// Delete removes the organization, its memberships, and its billing
// customer. Only an owner passes the capability check.
func (s *OrganizationService) Delete(ctx context.Context, actorID, organizationID int64, locals Locals) error {
	if !s.can.Can(ctx, actorID, ActionDelete, ResourceOrganization, organizationID) {
		return ErrInsufficientPermission
	}

	org, err := s.repo.Organizations().GetByID(ctx, organizationID)
	if err != nil {
		return err
	}

	if org.BillingCustomer != "" && s.billing != nil {
		if err := s.billing.DeleteCustomer(ctx, org.BillingCustomer); err != nil {
			return errors.Wrap(err, errors.CategoryOperation, "failed to delete billing customer")
		}
	}

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.repo.Memberships().DeleteAllForOrganizationTx(ctx, tx, organizationID); err != nil {
			return err
		}
		return s.repo.Organizations().DeleteTx(ctx, tx, organizationID)
	})
	if err != nil {
		return err
	}

	s.recordEvent(ctx, ActivityEvent{
		Type:           EventTypeOrganizationDeleted,
		UserID:         actorID,
		OrganizationID: organizationID,
		Data:           map[string]any{"name": org.Name},
		IPAddress:      locals.IPAddress,
		UserAgent:      locals.UserAgent,
	})

	return nil
}

// Memberships lists the organization's members with sanitized users.
func (s *OrganizationService) Memberships(ctx context.Context, actorID, organizationID int64) ([]Membership, error) {
	if !s.can.Can(ctx, actorID, ActionRead, ResourceOrganization, organizationID) {
		return nil, ErrInsufficientPermission
	}
	return s.repo.Memberships().ListForOrganization(ctx, organizationID)
}

// RecentEvents returns the organization's latest audit events.
func (s *OrganizationService) RecentEvents(ctx context.Context, actorID, organizationID int64, limit int) ([]Event, error) {
	if !s.can.Can(ctx, actorID, ActionRead, ResourceOrganization, organizationID) {
		return nil, ErrInsufficientPermission
	}
	return s.repo.Events().RecentForOrganization(ctx, organizationID, limit)
}

// GetBilling returns the billing customer record. Reading billing data
// requires the elevated read capability.
func (s *OrganizationService) GetBilling(ctx context.Context, actorID, organizationID int64) (map[string]any, error) {
	org, err := s.billingOrganization(ctx, actorID, organizationID, ActionReadSecure)
	if err != nil {
		return nil, err
	}
	return s.billing.Customer(ctx, org.BillingCustomer)
}

// UpdateBilling updates the billing customer, creating one on first
// use.
func (s *OrganizationService) UpdateBilling(ctx context.Context, actorID, organizationID int64, details map[string]any, locals Locals) (map[string]any, error) {
	if !s.can.Can(ctx, actorID, ActionUpdate, ResourceOrganization, organizationID) {
		return nil, ErrInsufficientPermission
	}
	if s.billing == nil {
		return nil, ErrNoBillingCustomer
	}

	org, err := s.repo.Organizations().GetByID(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	var customer map[string]any
	if org.BillingCustomer == "" {
		customerID, err := s.billing.CreateCustomer(ctx, organizationID, details)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryOperation, "failed to create billing customer")
		}
		if err := s.repo.Organizations().SetBillingCustomer(ctx, organizationID, customerID); err != nil {
			return nil, err
		}
		if customer, err = s.billing.Customer(ctx, customerID); err != nil {
			return nil, err
		}
	} else {
		if customer, err = s.billing.UpdateCustomer(ctx, org.BillingCustomer, details); err != nil {
			return nil, errors.Wrap(err, errors.CategoryOperation, "failed to update billing customer")
		}
	}

	s.recordEvent(ctx, ActivityEvent{
		Type:           EventTypeBillingUpdated,
		UserID:         actorID,
		OrganizationID: organizationID,
		IPAddress:      locals.IPAddress,
		UserAgent:      locals.UserAgent,
	})

	return customer, nil
}

// Invoices lists the organization's invoices.
func (s *OrganizationService) Invoices(ctx context.Context, actorID, organizationID int64) ([]map[string]any, error) {
	org, err := s.billingOrganization(ctx, actorID, organizationID, ActionReadSecure)
	if err != nil {
		return nil, err
	}
	return s.billing.Invoices(ctx, org.BillingCustomer)
}

// Subscriptions lists the organization's subscriptions.
func (s *OrganizationService) Subscriptions(ctx context.Context, actorID, organizationID int64) ([]map[string]any, error) {
	org, err := s.billingOrganization(ctx, actorID, organizationID, ActionReadSecure)
	if err != nil {
		return nil, err
	}
	return s.billing.Subscriptions(ctx, org.BillingCustomer)
}

// PricingPlans lists the prices for a billing product. Plain read
// access is enough since pricing is not customer data.
func (s *OrganizationService) PricingPlans(ctx context.Context, actorID, organizationID int64, productID string) ([]map[string]any, error) {
	if !s.can.Can(ctx, actorID, ActionRead, ResourceOrganization, organizationID) {
		return nil, ErrInsufficientPermission
	}
	if s.billing == nil {
		return nil, ErrNoBillingCustomer
	}
	return s.billing.ProductPricing(ctx, productID)
}

// Sources lists the organization's payment sources.
func (s *OrganizationService) Sources(ctx context.Context, actorID, organizationID int64) ([]map[string]any, error) {
	org, err := s.billingOrganization(ctx, actorID, organizationID, ActionReadSecure)
	if err != nil {
		return nil, err
	}
	return s.billing.Sources(ctx, org.BillingCustomer)
}

// Source returns a single payment source.
func (s *OrganizationService) Source(ctx context.Context, actorID, organizationID int64, sourceID string) (map[string]any, error) {
	org, err := s.billingOrganization(ctx, actorID, organizationID, ActionReadSecure)
	if err != nil {
		return nil, err
	}
	return s.billing.Source(ctx, org.BillingCustomer, sourceID)
}

// CreateSource attaches a payment source to the billing customer.
func (s *OrganizationService) CreateSource(ctx context.Context, actorID, organizationID int64, source map[string]any, locals Locals) (map[string]any, error) {
	org, err := s.billingOrganization(ctx, actorID, organizationID, ActionUpdate)
	if err != nil {
		return nil, err
	}

	created, err := s.billing.CreateSource(ctx, org.BillingCustomer, source)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to create payment source")
	}

	s.recordEvent(ctx, ActivityEvent{
		Type:           EventTypeBillingUpdated,
		UserID:         actorID,
		OrganizationID: organizationID,
		IPAddress:      locals.IPAddress,
		UserAgent:      locals.UserAgent,
	})

	return created, nil
}

// UpdateSource replaces the details of a payment source.
func (s *OrganizationService) UpdateSource(ctx context.Context, actorID, organizationID int64, sourceID string, source map[string]any, locals Locals) (map[string]any, error) {
	org, err := s.billingOrganization(ctx, actorID, organizationID, ActionUpdate)
	if err != nil {
		return nil, err
	}

	updated, err := s.billing.UpdateSource(ctx, org.BillingCustomer, sourceID, source)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to update payment source")
	}

	s.recordEvent(ctx, ActivityEvent{
		Type:           EventTypeBillingUpdated,
		UserID:         actorID,
		OrganizationID: organizationID,
		IPAddress:      locals.IPAddress,
		UserAgent:      locals.UserAgent,
	})

	return updated, nil
}

// DeleteSource detaches a payment source from the billing customer.
func (s *OrganizationService) DeleteSource(ctx context.Context, actorID, organizationID int64, sourceID string, locals Locals) error {
	org, err := s.billingOrganization(ctx, actorID, organizationID, ActionUpdate)
	if err != nil {
		return err
	}

	if err := s.billing.DeleteSource(ctx, org.BillingCustomer, sourceID); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to delete payment source")
	}

	s.recordEvent(ctx, ActivityEvent{
		Type:           EventTypeBillingUpdated,
		UserID:         actorID,
		OrganizationID: organizationID,
		IPAddress:      locals.IPAddress,
		UserAgent:      locals.UserAgent,
	})

	return nil
}

// Export collects everything the organization owns. Restricted to the
// elevated read capability.
func (s *OrganizationService) Export(ctx context.Context, actorID, organizationID int64) (*OrganizationExport, error) {
	if !s.can.Can(ctx, actorID, ActionReadSecure, ResourceOrganization, organizationID) {
		return nil, ErrInsufficientPermission
	}

	org, err := s.repo.Organizations().GetByID(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	members, err := s.repo.Memberships().ListForOrganization(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	history, err := s.repo.Events().ListForOrganization(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	return &OrganizationExport{
		Organization: org,
		Memberships:  members,
		Events:       history,
	}, nil
}

// billingOrganization authorizes the action and loads an organization
// that already has a billing customer.
func (s *OrganizationService) billingOrganization(ctx context.Context, actorID, organizationID int64, action Action) (*Organization, error) {
	if !s.can.Can(ctx, actorID, action, ResourceOrganization, organizationID) {
		return nil, ErrInsufficientPermission
	}
	if s.billing == nil {
		return nil, ErrNoBillingCustomer
	}

	org, err := s.repo.Organizations().GetByID(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	if org.BillingCustomer == "" {
		return nil, ErrNoBillingCustomer
	}
	return org, nil
}

func (s *OrganizationService) recordEvent(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if err := s.sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}
