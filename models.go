package staart

import (
	"time"

	"github.com/uptrace/bun"
)

// User is the user model. Password carries the bcrypt hash and is never
// serialized; responses go through Sanitized.
type User struct {
	bun.BaseModel     `bun:"table:users,alias:usr"`
	ID                int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	Name              string     `bun:"name,notnull" json:"name,omitempty"`
	Nickname          string     `bun:"nickname" json:"nickname,omitempty"`
	CountryCode       string     `bun:"country_code" json:"country_code,omitempty"`
	Timezone          string     `bun:"timezone" json:"timezone,omitempty"`
	PreferredLanguage string     `bun:"preferred_language" json:"preferred_language,omitempty"`
	Gender            string     `bun:"gender" json:"gender,omitempty"`
	Password          string     `bun:"password" json:"-"`
	Superuser         bool       `bun:"superuser" json:"-"`
	PrimaryEmailID    int64      `bun:"primary_email_id" json:"primary_email_id,omitempty"`
	CreatedAt         *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt         *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt         *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}

// Sanitized returns a copy safe to hand to clients: no password hash, no
// soft delete marker.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	clean := *u
	clean.Password = ""
	clean.DeletedAt = nil
	return &clean
}

// Email is one address attached to a user. A user has one primary email
// and may have several secondary ones.
type Email struct {
	bun.BaseModel `bun:"table:emails,alias:eml"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	UserID        int64      `bun:"user_id,notnull" json:"user_id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	IsVerified    bool       `bun:"is_verified" json:"is_verified"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Organization is the tenant model.
type Organization struct {
	bun.BaseModel    `bun:"table:organizations,alias:org"`
	ID               int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	Name             string     `bun:"name,notnull" json:"name,omitempty"`
	InvitationDomain string     `bun:"invitation_domain" json:"invitation_domain,omitempty"`
	BillingCustomer  string     `bun:"billing_customer_id" json:"-"`
	CreatedAt        *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt        *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Membership grants a user a role within an organization.
type Membership struct {
	bun.BaseModel  `bun:"table:memberships,alias:mem"`
	ID             int64          `bun:"id,pk,autoincrement" json:"id,omitempty"`
	UserID         int64          `bun:"user_id,notnull" json:"user_id,omitempty"`
	OrganizationID int64          `bun:"organization_id,notnull" json:"organization_id,omitempty"`
	Role           MembershipRole `bun:"role,notnull" json:"role,omitempty"`
	User           *User          `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	CreatedAt      *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// ApprovedLocation records an IP a user has confirmed logins from.
type ApprovedLocation struct {
	bun.BaseModel `bun:"table:approved_locations,alias:loc"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	UserID        int64      `bun:"user_id,notnull" json:"user_id,omitempty"`
	Subnet        string     `bun:"subnet,notnull" json:"subnet,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Event is a persisted audit record.
type Event struct {
	bun.BaseModel  `bun:"table:events,alias:evt"`
	ID             int64          `bun:"id,pk,autoincrement" json:"id,omitempty"`
	UserID         int64          `bun:"user_id" json:"user_id,omitempty"`
	OrganizationID int64          `bun:"organization_id" json:"organization_id,omitempty"`
	Type           EventType      `bun:"type,notnull" json:"type,omitempty"`
	Data           map[string]any `bun:"data,type:jsonb" json:"data,omitempty"`
	IPAddress      string         `bun:"ip_address" json:"ip_address,omitempty"`
	UserAgent      string         `bun:"user_agent" json:"user_agent,omitempty"`
	CreatedAt      *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}
