package staart

import (
	"context"

	"github.com/goliatone/go-errors"
)

// Action is the closed set of operations the capability engine decides
// on.
type Action string

const (
	ActionCreate      Action = "create"
	ActionRead        Action = "read"
	ActionReadSecure  Action = "read-secure"
	ActionUpdate      Action = "update"
	ActionDelete      Action = "delete"
	ActionImpersonate Action = "impersonate"
)

// ResourceType is the kind of resource a decision is about.
type ResourceType string

const (
	ResourceUser         ResourceType = "user"
	ResourceOrganization ResourceType = "organization"
)

// MembershipReader is the read only membership lookup the engine needs.
type MembershipReader interface {
	// GetMembership returns the membership row for a user in an
	// organization, or a not found error when absent.
	GetMembership(ctx context.Context, userID, organizationID int64) (*Membership, error)
	// GetSharedMembership returns the actor's highest membership in any
	// organization both users belong to, or a not found error.
	GetSharedMembership(ctx context.Context, userID, otherUserID int64) (*Membership, error)
}

// SuperuserReader reports the superuser designation on a user record.
type SuperuserReader interface {
	IsSuperuser(ctx context.Context, userID int64) (bool, error)
}

// CapabilityEngine answers "may actor X do action A on resource R" as a
// pure boolean. A decision is computed fresh from current membership
// and ownership state on every call; nothing is cached across requests.
type CapabilityEngine struct {
	memberships MembershipReader
	superusers  SuperuserReader
	logger      Logger
}

// NewCapabilityEngine creates an engine over the given stores.
func NewCapabilityEngine(memberships MembershipReader, superusers SuperuserReader) *CapabilityEngine {
	return &CapabilityEngine{
		memberships: memberships,
		superusers:  superusers,
		logger:      defLogger{},
	}
}

func (e *CapabilityEngine) WithLogger(logger Logger) *CapabilityEngine {
	if logger != nil {
		e.logger = logger
	}
	return e
}

// Can reports whether the actor may perform the action on the resource
// instance. It never returns an error: absence of permission is a
// normal false, and a failed store lookup (including a cancelled
// context) resolves to deny, never to allow.
//
// Decision order, first match wins:
//  1. impersonation, which never falls back to role based allow
//  2. self access on user resources
//  3. organization membership role thresholds
//  4. cross-user access through a shared organization, read rules only
//  5. deny
func (e *CapabilityEngine) Can(ctx context.Context, actorID int64, action Action, resource ResourceType, resourceID int64) bool {
	if action == ActionImpersonate {
		return e.canImpersonate(ctx, actorID, resource, resourceID)
	}

	switch resource {
	case ResourceUser:
		if actorID == resourceID {
			return selfAccessAllows(action)
		}
		return e.sharedOrganizationAllows(ctx, actorID, action, resourceID)
	case ResourceOrganization:
		return e.organizationRoleAllows(ctx, actorID, action, resourceID)
	default:
		return false
	}
}

// Self access covers plain reads and writes on one's own record.
// ReadSecure and impersonation require elevated grants even over
// oneself, so a single special case path handles both.
func selfAccessAllows(action Action) bool {
	switch action {
	case ActionRead, ActionUpdate, ActionDelete:
		return true
	case ActionCreate, ActionReadSecure, ActionImpersonate:
		return false
	default:
		return false
	}
}

func (e *CapabilityEngine) organizationRoleAllows(ctx context.Context, actorID int64, action Action, organizationID int64) bool {
	membership, err := e.memberships.GetMembership(ctx, actorID, organizationID)
	if err != nil {
		e.denyOnLookupFailure(err, actorID, action, ResourceOrganization, organizationID)
		return false
	}
	if membership == nil {
		return false
	}

	switch action {
	case ActionRead:
		return membership.Role.CanRead()
	case ActionReadSecure:
		return membership.Role.CanReadSecure()
	case ActionCreate:
		return membership.Role.CanCreate()
	case ActionUpdate:
		return membership.Role.CanUpdate()
	case ActionDelete:
		return membership.Role.CanDelete()
	case ActionImpersonate:
		// handled before role resolution; an owner never gains
		// impersonation rights over members
		return false
	default:
		return false
	}
}

// Cross-user access resolves the actor's role in an organization shared
// with the target user, then applies the read thresholds only.
func (e *CapabilityEngine) sharedOrganizationAllows(ctx context.Context, actorID int64, action Action, targetUserID int64) bool {
	membership, err := e.memberships.GetSharedMembership(ctx, actorID, targetUserID)
	if err != nil {
		e.denyOnLookupFailure(err, actorID, action, ResourceUser, targetUserID)
		return false
	}
	if membership == nil {
		return false
	}

	switch action {
	case ActionRead:
		return membership.Role.CanRead()
	case ActionReadSecure:
		return membership.Role.CanReadSecure()
	case ActionCreate, ActionUpdate, ActionDelete, ActionImpersonate:
		return false
	default:
		return false
	}
}

// Impersonation is a narrow grant: the actor must hold the superuser
// designation and the target must not be a superuser itself.
func (e *CapabilityEngine) canImpersonate(ctx context.Context, actorID int64, resource ResourceType, targetUserID int64) bool {
	if resource != ResourceUser {
		return false
	}

	actorSuper, err := e.superusers.IsSuperuser(ctx, actorID)
	if err != nil {
		e.denyOnLookupFailure(err, actorID, ActionImpersonate, resource, targetUserID)
		return false
	}
	if !actorSuper {
		return false
	}

	targetSuper, err := e.superusers.IsSuperuser(ctx, targetUserID)
	if err != nil {
		e.denyOnLookupFailure(err, actorID, ActionImpersonate, resource, targetUserID)
		return false
	}

	return !targetSuper
}

func (e *CapabilityEngine) denyOnLookupFailure(err error, actorID int64, action Action, resource ResourceType, resourceID int64) {
	if errors.IsNotFound(err) {
		return
	}
	e.logger.Warn("capability lookup failed, denying %s on %s/%d for actor %d: %v",
		action, resource, resourceID, actorID, err)
}
