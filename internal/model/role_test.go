package model

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
    for _, s := range []string{"admin", "user", "facility_manager", "moderator", "auditor", "service"} {
        r, ok := ParseRole(s)
        assert.True(t, ok, s)
        assert.Equal(t, Role(s), r)
    }
    for _, s := range []string{"", "ADMIN", "root", "owner", "customer"} {
        _, ok := ParseRole(s)
        assert.False(t, ok, s)
    }
}

func TestAdminNotAssignableAtRegistration(t *testing.T) {
    assert.False(t, RoleAdmin.AssignableAtRegistration())
    assert.True(t, RoleUser.AssignableAtRegistration())
    assert.True(t, RoleFacilityManager.AssignableAtRegistration())
}

func TestRoleCapabilities(t *testing.T) {
    assert.True(t, RoleAdmin.CanManageRooms())
    assert.True(t, RoleFacilityManager.CanManageRooms())
    assert.False(t, RoleUser.CanManageRooms())
    assert.False(t, RoleModerator.CanManageRooms())

    assert.True(t, RoleAuditor.CanViewAllBookings())
    assert.False(t, RoleAuditor.CanCancelAnyBooking())
    assert.True(t, RoleFacilityManager.CanCancelAnyBooking())
    assert.False(t, RoleUser.CanViewAllBookings())

    assert.True(t, RoleModerator.CanModerateReviews())
    assert.True(t, RoleAdmin.CanModerateReviews())
    assert.False(t, RoleFacilityManager.CanModerateReviews())

    assert.True(t, RoleAdmin.CanAdministerUsers())
    assert.False(t, RoleFacilityManager.CanAdministerUsers())
}
