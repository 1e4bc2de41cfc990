package staart_test

import (
	"context"
	"database/sql"

	"github.com/jozhetak/staart"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockMembershipReader implements staart.MembershipReader
type MockMembershipReader struct {
	mock.Mock
}

func (m *MockMembershipReader) GetMembership(ctx context.Context, userID, organizationID int64) (*staart.Membership, error) {
	args := m.Called(ctx, userID, organizationID)
	membership, _ := args.Get(0).(*staart.Membership)
	return membership, args.Error(1)
}

func (m *MockMembershipReader) GetSharedMembership(ctx context.Context, userID, otherUserID int64) (*staart.Membership, error) {
	args := m.Called(ctx, userID, otherUserID)
	membership, _ := args.Get(0).(*staart.Membership)
	return membership, args.Error(1)
}

// MockSuperuserReader implements staart.SuperuserReader
type MockSuperuserReader struct {
	mock.Mock
}

func (m *MockSuperuserReader) IsSuperuser(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

// MockActivitySink implements staart.ActivitySink
type MockActivitySink struct {
	mock.Mock
}

func (m *MockActivitySink) Record(ctx context.Context, event staart.ActivityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockMailer implements staart.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to string, template staart.MailTemplate, data map[string]any) error {
	args := m.Called(ctx, to, template, data)
	return args.Error(0)
}

// MockSocialProvider implements staart.SocialProvider
type MockSocialProvider struct {
	mock.Mock
}

func (m *MockSocialProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockSocialProvider) AuthCodeURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

func (m *MockSocialProvider) Exchange(ctx context.Context, code string) (*staart.SocialProfile, error) {
	args := m.Called(ctx, code)
	if profile, ok := args.Get(0).(*staart.SocialProfile); ok {
		return profile, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockBillingProvider implements staart.BillingProvider
type MockBillingProvider struct {
	mock.Mock
}

func (m *MockBillingProvider) Customer(ctx context.Context, customerID string) (map[string]any, error) {
	args := m.Called(ctx, customerID)
	customer, _ := args.Get(0).(map[string]any)
	return customer, args.Error(1)
}

func (m *MockBillingProvider) CreateCustomer(ctx context.Context, organizationID int64, details map[string]any) (string, error) {
	args := m.Called(ctx, organizationID, details)
	return args.String(0), args.Error(1)
}

func (m *MockBillingProvider) UpdateCustomer(ctx context.Context, customerID string, details map[string]any) (map[string]any, error) {
	args := m.Called(ctx, customerID, details)
	customer, _ := args.Get(0).(map[string]any)
	return customer, args.Error(1)
}

func (m *MockBillingProvider) DeleteCustomer(ctx context.Context, customerID string) error {
	args := m.Called(ctx, customerID)
	return args.Error(0)
}

func (m *MockBillingProvider) Invoices(ctx context.Context, customerID string) ([]map[string]any, error) {
	args := m.Called(ctx, customerID)
	invoices, _ := args.Get(0).([]map[string]any)
	return invoices, args.Error(1)
}

func (m *MockBillingProvider) Subscriptions(ctx context.Context, customerID string) ([]map[string]any, error) {
	args := m.Called(ctx, customerID)
	subs, _ := args.Get(0).([]map[string]any)
	return subs, args.Error(1)
}

func (m *MockBillingProvider) ProductPricing(ctx context.Context, productID string) ([]map[string]any, error) {
	args := m.Called(ctx, productID)
	pricing, _ := args.Get(0).([]map[string]any)
	return pricing, args.Error(1)
}

func (m *MockBillingProvider) Sources(ctx context.Context, customerID string) ([]map[string]any, error) {
	args := m.Called(ctx, customerID)
	sources, _ := args.Get(0).([]map[string]any)
	return sources, args.Error(1)
}

func (m *MockBillingProvider) Source(ctx context.Context, customerID, sourceID string) (map[string]any, error) {
	args := m.Called(ctx, customerID, sourceID)
	source, _ := args.Get(0).(map[string]any)
	return source, args.Error(1)
}

func (m *MockBillingProvider) CreateSource(ctx context.Context, customerID string, source map[string]any) (map[string]any, error) {
	args := m.Called(ctx, customerID, source)
	created, _ := args.Get(0).(map[string]any)
	return created, args.Error(1)
}

func (m *MockBillingProvider) UpdateSource(ctx context.Context, customerID, sourceID string, source map[string]any) (map[string]any, error) {
	args := m.Called(ctx, customerID, sourceID, source)
	updated, _ := args.Get(0).(map[string]any)
	return updated, args.Error(1)
}

func (m *MockBillingProvider) DeleteSource(ctx context.Context, customerID, sourceID string) error {
	args := m.Called(ctx, customerID, sourceID)
	return args.Error(0)
}

// MockUsers implements staart.Users
type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) GetByID(ctx context.Context, id int64) (*staart.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*staart.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetByEmail(ctx context.Context, address string) (*staart.User, error) {
	args := m.Called(ctx, address)
	user, _ := args.Get(0).(*staart.User)
	return user, args.Error(1)
}

func (m *MockUsers) Create(ctx context.Context, user *staart.User) (*staart.User, error) {
	args := m.Called(ctx, user)
	created, _ := args.Get(0).(*staart.User)
	return created, args.Error(1)
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, user *staart.User) (*staart.User, error) {
	args := m.Called(ctx, tx, user)
	created, _ := args.Get(0).(*staart.User)
	return created, args.Error(1)
}

func (m *MockUsers) Update(ctx context.Context, user *staart.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUsers) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUsers) SetPrimaryEmail(ctx context.Context, id, emailID int64) error {
	args := m.Called(ctx, id, emailID)
	return args.Error(0)
}

func (m *MockUsers) SetPrimaryEmailTx(ctx context.Context, tx bun.IDB, id, emailID int64) error {
	args := m.Called(ctx, tx, id, emailID)
	return args.Error(0)
}

func (m *MockUsers) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUsers) IsSuperuser(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsers) AddApprovedLocation(ctx context.Context, userID int64, ip string) error {
	args := m.Called(ctx, userID, ip)
	return args.Error(0)
}

func (m *MockUsers) AddApprovedLocationTx(ctx context.Context, tx bun.IDB, userID int64, ip string) error {
	args := m.Called(ctx, tx, userID, ip)
	return args.Error(0)
}

func (m *MockUsers) HasApprovedLocation(ctx context.Context, userID int64, ip string) (bool, error) {
	args := m.Called(ctx, userID, ip)
	return args.Bool(0), args.Error(1)
}

// MockEmails implements staart.Emails
type MockEmails struct {
	mock.Mock
}

func (m *MockEmails) GetByID(ctx context.Context, id int64) (*staart.Email, error) {
	args := m.Called(ctx, id)
	email, _ := args.Get(0).(*staart.Email)
	return email, args.Error(1)
}

func (m *MockEmails) ListForUser(ctx context.Context, userID int64) ([]staart.Email, error) {
	args := m.Called(ctx, userID)
	emails, _ := args.Get(0).([]staart.Email)
	return emails, args.Error(1)
}

func (m *MockEmails) ListVerifiedForUser(ctx context.Context, userID int64) ([]staart.Email, error) {
	args := m.Called(ctx, userID)
	emails, _ := args.Get(0).([]staart.Email)
	return emails, args.Error(1)
}

func (m *MockEmails) Create(ctx context.Context, email *staart.Email) (*staart.Email, error) {
	args := m.Called(ctx, email)
	created, _ := args.Get(0).(*staart.Email)
	return created, args.Error(1)
}

func (m *MockEmails) CreateTx(ctx context.Context, tx bun.IDB, email *staart.Email) (*staart.Email, error) {
	args := m.Called(ctx, tx, email)
	created, _ := args.Get(0).(*staart.Email)
	return created, args.Error(1)
}

func (m *MockEmails) SetVerified(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockEmails) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockEmails) DeleteTx(ctx context.Context, tx bun.IDB, id int64) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockEmails) IsNewEmail(ctx context.Context, address string) error {
	args := m.Called(ctx, address)
	return args.Error(0)
}

// MockOrganizations implements staart.Organizations
type MockOrganizations struct {
	mock.Mock
}

func (m *MockOrganizations) GetByID(ctx context.Context, id int64) (*staart.Organization, error) {
	args := m.Called(ctx, id)
	org, _ := args.Get(0).(*staart.Organization)
	return org, args.Error(1)
}

func (m *MockOrganizations) Create(ctx context.Context, org *staart.Organization) (*staart.Organization, error) {
	args := m.Called(ctx, org)
	created, _ := args.Get(0).(*staart.Organization)
	return created, args.Error(1)
}

func (m *MockOrganizations) CreateTx(ctx context.Context, tx bun.IDB, org *staart.Organization) (*staart.Organization, error) {
	args := m.Called(ctx, tx, org)
	created, _ := args.Get(0).(*staart.Organization)
	return created, args.Error(1)
}

func (m *MockOrganizations) Update(ctx context.Context, org *staart.Organization) error {
	args := m.Called(ctx, org)
	return args.Error(0)
}

func (m *MockOrganizations) SetBillingCustomer(ctx context.Context, id int64, customerID string) error {
	args := m.Called(ctx, id, customerID)
	return args.Error(0)
}

func (m *MockOrganizations) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOrganizations) DeleteTx(ctx context.Context, tx bun.IDB, id int64) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

// MockMemberships implements staart.Memberships
type MockMemberships struct {
	MockMembershipReader
}

func (m *MockMemberships) Create(ctx context.Context, membership *staart.Membership) (*staart.Membership, error) {
	args := m.Called(ctx, membership)
	created, _ := args.Get(0).(*staart.Membership)
	return created, args.Error(1)
}

func (m *MockMemberships) CreateTx(ctx context.Context, tx bun.IDB, membership *staart.Membership) (*staart.Membership, error) {
	args := m.Called(ctx, tx, membership)
	created, _ := args.Get(0).(*staart.Membership)
	return created, args.Error(1)
}

func (m *MockMemberships) ListForOrganization(ctx context.Context, organizationID int64) ([]staart.Membership, error) {
	args := m.Called(ctx, organizationID)
	memberships, _ := args.Get(0).([]staart.Membership)
	return memberships, args.Error(1)
}

func (m *MockMemberships) DeleteAllForOrganization(ctx context.Context, organizationID int64) error {
	args := m.Called(ctx, organizationID)
	return args.Error(0)
}

func (m *MockMemberships) DeleteAllForOrganizationTx(ctx context.Context, tx bun.IDB, organizationID int64) error {
	args := m.Called(ctx, tx, organizationID)
	return args.Error(0)
}

// MockEvents implements staart.Events
type MockEvents struct {
	mock.Mock
}

func (m *MockEvents) Record(ctx context.Context, event staart.ActivityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEvents) ListForOrganization(ctx context.Context, organizationID int64) ([]staart.Event, error) {
	args := m.Called(ctx, organizationID)
	events, _ := args.Get(0).([]staart.Event)
	return events, args.Error(1)
}

func (m *MockEvents) RecentForOrganization(ctx context.Context, organizationID int64, limit int) ([]staart.Event, error) {
	args := m.Called(ctx, organizationID, limit)
	events, _ := args.Get(0).([]staart.Event)
	return events, args.Error(1)
}

// mockRepoManager bundles the repository mocks behind the
// RepositoryManager surface. RunInTx invokes the callback directly with
// a zero transaction; the repository mocks ignore the tx handle.
type mockRepoManager struct {
	users         *MockUsers
	emails        *MockEmails
	organizations *MockOrganizations
	memberships   *MockMemberships
	events        *MockEvents
}

func newMockRepoManager() *mockRepoManager {
	return &mockRepoManager{
		users:         &MockUsers{},
		emails:        &MockEmails{},
		organizations: &MockOrganizations{},
		memberships:   &MockMemberships{},
		events:        &MockEvents{},
	}
}

func (m *mockRepoManager) Users() staart.Users                 { return m.users }
func (m *mockRepoManager) Emails() staart.Emails               { return m.emails }
func (m *mockRepoManager) Organizations() staart.Organizations { return m.organizations }
func (m *mockRepoManager) Memberships() staart.Memberships     { return m.memberships }
func (m *mockRepoManager) Events() staart.Events               { return m.events }
func (m *mockRepoManager) Validate() error                     { return nil }
func (m *mockRepoManager) MustValidate()                       {}

func (m *mockRepoManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (m *mockRepoManager) assertExpectations(t mock.TestingT) {
	m.users.AssertExpectations(t)
	m.emails.AssertExpectations(t)
	m.organizations.AssertExpectations(t)
	m.memberships.AssertExpectations(t)
	m.events.AssertExpectations(t)
}
