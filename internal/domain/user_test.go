package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in     string
		want   Role
		wantOK bool
	}{
		{in: "PHARMACY_ADMIN", want: RolePharmacyAdmin, wantOK: true},
		{in: " staff ", want: RoleStaff, wantOK: true},
		{in: "super_admin", want: RoleSuperAdmin, wantOK: true},
		{in: "admin", wantOK: false},
		{in: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseRole(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseStaffRole(t *testing.T) {
	tests := []struct {
		in     string
		want   StaffRole
		wantOK bool
	}{
		{in: "Pharmacist", want: StaffRolePharmacist, wantOK: true},
		{in: "cashier", want: StaffRoleCashier, wantOK: true},
		{in: " INVENTORY STAFF ", want: StaffRoleInventoryStaff, wantOK: true},
		{in: "InventoryStaff", wantOK: false},
		{in: "Manager", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseStaffRole(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
			if ok {
				assert.True(t, got.Valid())
			}
		})
	}
}

func TestParseUserStatus(t *testing.T) {
	status, ok := ParseUserStatus("inactive")
	assert.True(t, ok)
	assert.Equal(t, UserStatusInactive, status)

	_, ok = ParseUserStatus("SUSPENDED")
	assert.False(t, ok)
}

func TestRole_IsAdmin(t *testing.T) {
	assert.True(t, RolePharmacyAdmin.IsAdmin())
	assert.True(t, RoleSuperAdmin.IsAdmin())
	assert.False(t, RoleStaff.IsAdmin())
}

func TestUser_TenantID(t *testing.T) {
	adminID := "admin-1"

	admin := &User{ID: adminID, Role: RolePharmacyAdmin}
	staff := &User{ID: "staff-1", Role: RoleStaff, CreatedBy: &adminID}
	orphan := &User{ID: "staff-2", Role: RoleStaff}

	assert.Equal(t, "admin-1", admin.TenantID())
	assert.Equal(t, "admin-1", staff.TenantID(), "staff work in their creator's pharmacy")
	assert.Equal(t, "staff-2", orphan.TenantID())
}

func TestUser_PublicHidesSecrets(t *testing.T) {
	otp, token := "482913", "reset-token"
	u := &User{
		ID:           "u-1",
		Name:         "Asha Rao",
		Email:        "asha@example.com",
		PasswordHash: "$2a$10$hash",
		Role:         RolePharmacyAdmin,
		Status:       UserStatusActive,
		OTP:          &otp,
		ResetToken:   &token,
	}

	raw, err := json.Marshal(u.Public())
	require.NoError(t, err)

	body := string(raw)
	assert.Contains(t, body, `"email":"asha@example.com"`)
	assert.NotContains(t, body, "hash")
	assert.NotContains(t, body, otp)
	assert.NotContains(t, body, token)
	assert.NotContains(t, body, "staffRole", "omitted for admins")
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "asha@example.com", NormalizeEmail("  Asha@Example.COM "))
}
