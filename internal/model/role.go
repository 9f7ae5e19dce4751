package model

// Role is the closed set of user roles understood by the service.  Roles
// arrive from the identity layer (the JWT "role" claim) and are only ever
// compared through the capability methods below; handlers must not branch
// on raw strings.
type Role string

const (
    RoleAdmin           Role = "admin"
    RoleUser            Role = "user"
    RoleFacilityManager Role = "facility_manager"
    RoleModerator       Role = "moderator"
    RoleAuditor         Role = "auditor"
    RoleService         Role = "service"
)

// ParseRole maps a raw claim value onto the closed role set.  Unknown
// values return false so callers can reject the request instead of
// silently granting the default role.
func ParseRole(s string) (Role, bool) {
    switch Role(s) {
    case RoleAdmin, RoleUser, RoleFacilityManager, RoleModerator, RoleAuditor, RoleService:
        return Role(s), true
    }
    return "", false
}

// AssignableAtRegistration reports whether a self-registering user may
// request this role.  The admin role is seeded in the database and can
// never be claimed through the public register endpoint.
func (r Role) AssignableAtRegistration() bool {
    switch r {
    case RoleUser, RoleFacilityManager, RoleModerator, RoleAuditor, RoleService:
        return true
    }
    return false
}

// CanManageRooms reports whether the role may create, update or delete
// rooms and flip their availability flag.
func (r Role) CanManageRooms() bool {
    return r == RoleAdmin || r == RoleFacilityManager
}

// CanViewAllBookings reports whether the role may list bookings that
// belong to other users.
func (r Role) CanViewAllBookings() bool {
    return r == RoleAdmin || r == RoleFacilityManager || r == RoleAuditor
}

// CanCancelAnyBooking reports whether the role may cancel bookings it
// does not own.
func (r Role) CanCancelAnyBooking() bool {
    return r == RoleAdmin || r == RoleFacilityManager
}

// CanModerateReviews reports whether the role may flag, unflag, remove
// or restore reviews written by other users.
func (r Role) CanModerateReviews() bool {
    return r == RoleAdmin || r == RoleModerator
}

// CanAdministerUsers reports whether the role may list all users or
// delete accounts other than its own.
func (r Role) CanAdministerUsers() bool {
    return r == RoleAdmin
}
