package staart_test

import (
	"context"
	"testing"

	"github.com/jozhetak/staart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newOrgService(repo *mockRepoManager) *staart.OrganizationService {
	engine := staart.NewCapabilityEngine(repo.memberships, repo.users)
	return staart.NewOrganizationService(repo, engine)
}

func memberOf(repo *mockRepoManager, ctx context.Context, userID, orgID int64, role staart.MembershipRole) {
	repo.memberships.On("GetMembership", ctx, userID, orgID).
		Return(&staart.Membership{UserID: userID, OrganizationID: orgID, Role: role}, nil)
}

func strangerTo(repo *mockRepoManager, ctx context.Context, userID, orgID int64) {
	repo.memberships.On("GetMembership", ctx, userID, orgID).
		Return(nil, notFoundErr())
}

func TestOrganizationServiceCreate(t *testing.T) {
	ctx := context.Background()
	locals := staart.Locals{IPAddress: "203.0.113.7"}

	t.Run("creator becomes owner", func(t *testing.T) {
		repo := newMockRepoManager()
		repo.organizations.On("CreateTx", ctx, mock.Anything, mock.MatchedBy(func(o *staart.Organization) bool {
			return o.Name == "Acme"
		})).Return(&staart.Organization{ID: 10, Name: "Acme"}, nil)
		repo.memberships.On("CreateTx", ctx, mock.Anything, mock.MatchedBy(func(m *staart.Membership) bool {
			return m.UserID == 1 && m.OrganizationID == 10 && m.Role == staart.RoleOwner
		})).Return(&staart.Membership{ID: 1}, nil)

		sink := &MockActivitySink{}
		sink.On("Record", ctx, mock.MatchedBy(func(e staart.ActivityEvent) bool {
			return e.Type == staart.EventTypeOrganizationCreated && e.OrganizationID == 10
		})).Return(nil).Once()

		service := newOrgService(repo).WithActivitySink(sink)

		org, err := service.Create(ctx, 1, "Acme", locals)
		require.NoError(t, err)
		assert.Equal(t, int64(10), org.ID)
		repo.assertExpectations(t)
		sink.AssertExpectations(t)
	})

	t.Run("rejects an empty name", func(t *testing.T) {
		repo := newMockRepoManager()
		service := newOrgService(repo)

		_, err := service.Create(ctx, 1, "", locals)
		assert.Error(t, err)
	})
}

func TestOrganizationServiceGet(t *testing.T) {
	ctx := context.Background()

	t.Run("member may read", func(t *testing.T) {
		repo := newMockRepoManager()
		memberOf(repo, ctx, 1, 10, staart.RoleMember)
		repo.organizations.On("GetByID", ctx, int64(10)).
			Return(&staart.Organization{ID: 10, Name: "Acme"}, nil)

		service := newOrgService(repo)

		org, err := service.Get(ctx, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, "Acme", org.Name)
	})

	t.Run("stranger is denied", func(t *testing.T) {
		repo := newMockRepoManager()
		strangerTo(repo, ctx, 2, 10)

		service := newOrgService(repo)

		_, err := service.Get(ctx, 2, 10)
		assert.ErrorIs(t, err, staart.ErrInsufficientPermission)
		repo.organizations.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})
}

func TestOrganizationServiceUpdate(t *testing.T) {
	ctx := context.Background()
	locals := staart.Locals{}

	t.Run("admin updates the name", func(t *testing.T) {
		repo := newMockRepoManager()
		memberOf(repo, ctx, 1, 10, staart.RoleAdmin)
		repo.organizations.On("GetByID", ctx, int64(10)).
			Return(&staart.Organization{ID: 10, Name: "Acme"}, nil)
		repo.organizations.On("Update", ctx, mock.MatchedBy(func(o *staart.Organization) bool {
			return o.ID == 10 && o.Name == "Acme Corp"
		})).Return(nil)

		sink := &MockActivitySink{}
		sink.On("Record", ctx, mock.Anything).Return(nil).Once()

		service := newOrgService(repo).WithActivitySink(sink)

		org, err := service.Update(ctx, 1, 10, staart.OrganizationUpdate{Name: "Acme Corp"}, locals)
		require.NoError(t, err)
		assert.Equal(t, "Acme Corp", org.Name)
	})

	t.Run("member may not update", func(t *testing.T) {
		repo := newMockRepoManager()
		memberOf(repo, ctx, 1, 10, staart.RoleMember)

		service := newOrgService(repo)

		_, err := service.Update(ctx, 1, 10, staart.OrganizationUpdate{Name: "Acme Corp"}, locals)
		assert.ErrorIs(t, err, staart.ErrInsufficientPermission)
	})

	t.Run("rejects a malformed invitation domain", func(t *testing.T) {
		repo := newMockRepoManager()
		memberOf(repo, ctx, 1, 10, staart.RoleAdmin)
		repo.organizations.On("GetByID", ctx, int64(10)).
			Return(&staart.Organization{ID: 10, Name: "Acme"}, nil)

		service := newOrgService(repo)

		_, err := service.Update(ctx, 1, 10, staart.OrganizationUpdate{InvitationDomain: "not a domain"}, locals)
		assert.Error(t, err)
		repo.organizations.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestOrganizationServiceDelete(t *testing.T) {
	ctx := context.Background()
	locals := staart.Locals{}

	t.Run("owner deletes memberships, billing, organization", func(t *testing.T) {
		repo := newMockRepoManager()
		memberOf(repo, ctx, 1, 10, staart.RoleOwner)
		repo.organizations.On("GetByID", ctx, int64(10)).
			Return(&staart.Organization{ID: 10, Name: "Acme", BillingCustomer: "cus_123"}, nil)
		repo.memberships.On("DeleteAllForOrganizationTx", ctx, mock.Anything, int64(10)).Return(nil)
		repo.organizations.On("DeleteTx", ctx, mock.Anything, int64(10)).Return(nil)

		billing := &MockBillingProvider{}
		billing.On("DeleteCustomer", ctx, "cus_123").Return(nil)

		service := newOrgService(repo).WithBillingProvider(billing)

		err := service.Delete(ctx, 1, 10, locals)
		require.NoError(t, err)
		repo.assertExpectations(t)
		billing.AssertExpectations(t)
	})

	t.Run("admin may not delete", func(t *testing.T) {
		repo := newMockRepoManager()
		memberOf(repo, ctx, 1, 10, staart.RoleAdmin)

		service := newOrgService(repo)

		err := service.Delete(ctx, 1, 10, locals)
		assert.ErrorIs(t, err, staart.ErrInsufficientPermission)
		repo.organizations.AssertNotCalled(t, "DeleteTx", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestOrganizationServiceBilling(t *testing.T) {
	ctx := context.Background()
	locals := staart.Locals{}

	t.Run("admin reads billing", func(t *testing.T) {
		repo := newMockRepoManager()
		memberOf(repo, ctx, 1, 10, staart.RoleAdmin)
		repo.organizations.On("GetByID", ctx, int64(10)).
			Return(&staart.Organization{ID: 10, BillingCustomer: "cus_123"}, nil)

		billing := &MockBillingProvider{}
		billing.On("Customer", ctx, "cus_123").
			Return(map[string]any{"id": "cus_123"}, nil)

		service := newOrgService(repo).WithBillingProvider(billing)

		customer, err := service.GetBilling(ctx, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, "cus_123", customer["id"])
	})

	t.Run("member may not read billing", func(t *testing.T) {
		repo := newMockRepoManager()
		memberOf(repo, ctx, 1, 10, staart.RoleMember)

		service := newOrgService(repo).WithBillingProvider(&MockBillingProvider{})

		_, err := service.GetBilling(ctx, 1, 10)
		assert.ErrorIs(t, err, staart.ErrInsufficientPermission)
	})

	t.Run("no billing customer yet", func(t *testing.T) {
		repo := newMockRepoManager()
		memberOf(repo, ctx, 1, 10, staart.RoleAdmin)
		repo.organizations.On("GetByID", ctx, int64(10)).
			Return(&staart.Organization{ID: 10}, nil)

		service := newOrgService(repo).WithBillingProvider(&MockBillingProvider{})

		_, err := service.GetBilling(ctx, 1, 10)
		assert.ErrorIs(t, err, staart.ErrNoBillingCustomer)
	})

	t.Run("no provider configured", func(t *testing.T) {
		repo := newMockRepoManager()
		memberOf(repo, ctx, 1, 10, staart.RoleAdmin)

		service := newOrgService(repo)

		_, err := service.GetBilling(ctx, 1, 10)
		assert.ErrorIs(t, err, staart.ErrNoBillingCustomer)
	})

	t.Run("first update creates the customer", func(t *testing.T) {
		repo := newMockRepoManager()
		memberOf(repo, ctx, 1, 10, staart.RoleAdmin)
		repo.organizations.On("GetByID", ctx, int64(10)).
			Return(&staart.Organization{ID: 10}, nil)
		repo.organizations.On("SetBillingCustomer", ctx, int64(10), "cus_new").Return(nil)

		billing := &MockBillingProvider{}
		billing.On("CreateCustomer", ctx, int64(10), mock.Anything).Return("cus_new", nil)
		billing.On("Customer", ctx, "cus_new").
			Return(map[string]any{"id": "cus_new"}, nil)

		sink := &MockActivitySink{}
		sink.On("Record", ctx, mock.MatchedBy(func(e staart.ActivityEvent) bool {
			return e.Type == staart.EventTypeBillingUpdated
		})).Return(nil).Once()

		service := newOrgService(repo).WithBillingProvider(billing).WithActivitySink(sink)

		customer, err := service.UpdateBilling(ctx, 1, 10, map[string]any{"email": "billing@acme.test"}, locals)
		require.NoError(t, err)
		assert.Equal(t, "cus_new", customer["id"])
		repo.assertExpectations(t)
		billing.AssertExpectations(t)
	})

	t.Run("sources require update rights", func(t *testing.T) {
		repo := newMockRepoManager()
		memberOf(repo, ctx, 1, 10, staart.RoleMember)

		service := newOrgService(repo).WithBillingProvider(&MockBillingProvider{})

		_, err := service.CreateSource(ctx, 1, 10, map[string]any{"token": "tok_visa"}, locals)
		assert.ErrorIs(t, err, staart.ErrInsufficientPermission)
	})

	t.Run("invoices pass through", func(t *testing.T) {
		repo := newMockRepoManager()
		memberOf(repo, ctx, 1, 10, staart.RoleOwner)
		repo.organizations.On("GetByID", ctx, int64(10)).
			Return(&staart.Organization{ID: 10, BillingCustomer: "cus_123"}, nil)

		billing := &MockBillingProvider{}
		billing.On("Invoices", ctx, "cus_123").
			Return([]map[string]any{{"id": "in_1"}}, nil)

		service := newOrgService(repo).WithBillingProvider(billing)

		invoices, err := service.Invoices(ctx, 1, 10)
		require.NoError(t, err)
		assert.Len(t, invoices, 1)
	})
}

func TestOrganizationServiceMembershipsAndEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("member lists memberships", func(t *testing.T) {
		repo := newMockRepoManager()
		memberOf(repo, ctx, 1, 10, staart.RoleMember)
		repo.memberships.On("ListForOrganization", ctx, int64(10)).
			Return([]staart.Membership{{ID: 1, UserID: 1, OrganizationID: 10, Role: staart.RoleOwner}}, nil)

		service := newOrgService(repo)

		members, err := service.Memberships(ctx, 1, 10)
		require.NoError(t, err)
		assert.Len(t, members, 1)
	})

	t.Run("member reads recent events", func(t *testing.T) {
		repo := newMockRepoManager()
		memberOf(repo, ctx, 1, 10, staart.RoleMember)
		repo.events.On("RecentForOrganization", ctx, int64(10), 5).
			Return([]staart.Event{{ID: 1, Type: staart.EventTypeLogin}}, nil)

		service := newOrgService(repo)

		events, err := service.RecentEvents(ctx, 1, 10, 5)
		require.NoError(t, err)
		assert.Len(t, events, 1)
	})

	t.Run("export requires elevated read", func(t *testing.T) {
		repo := newMockRepoManager()
		memberOf(repo, ctx, 1, 10, staart.RoleMember)

		service := newOrgService(repo)

		_, err := service.Export(ctx, 1, 10)
		assert.ErrorIs(t, err, staart.ErrInsufficientPermission)
	})

	t.Run("admin exports everything", func(t *testing.T) {
		repo := newMockRepoManager()
		memberOf(repo, ctx, 1, 10, staart.RoleAdmin)
		repo.organizations.On("GetByID", ctx, int64(10)).
			Return(&staart.Organization{ID: 10, Name: "Acme"}, nil)
		repo.memberships.On("ListForOrganization", ctx, int64(10)).
			Return([]staart.Membership{{ID: 1}}, nil)
		repo.events.On("ListForOrganization", ctx, int64(10)).
			Return([]staart.Event{{ID: 1}}, nil)

		service := newOrgService(repo)

		export, err := service.Export(ctx, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, "Acme", export.Organization.Name)
		assert.Len(t, export.Memberships, 1)
		assert.Len(t, export.Events, 1)
	})
}
