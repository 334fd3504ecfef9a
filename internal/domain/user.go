package domain

import (
	"strings"
	"time"
)

// Role is the coarse identity class governing endpoint access.
type Role string

// Roles.
const (
	RolePharmacyAdmin Role = "PHARMACY_ADMIN"
	RoleStaff         Role = "STAFF"
	RoleSuperAdmin    Role = "SUPER_ADMIN"
)

// ParseRole matches s case-insensitively against the known roles.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RolePharmacyAdmin:
		return RolePharmacyAdmin, true
	case RoleStaff:
		return RoleStaff, true
	case RoleSuperAdmin:
		return RoleSuperAdmin, true
	}
	return "", false
}

// IsAdmin reports whether the role owns a tenant.
func (r Role) IsAdmin() bool {
	return r == RolePharmacyAdmin || r == RoleSuperAdmin
}

// StaffRole is the sub-role of a STAFF identity.
type StaffRole string

// Staff roles.
const (
	StaffRolePharmacist     StaffRole = "Pharmacist"
	StaffRoleCashier        StaffRole = "Cashier"
	StaffRoleInventoryStaff StaffRole = "Inventory Staff"
)

// StaffRoles lists staff sub-roles in display order.
var StaffRoles = []StaffRole{StaffRolePharmacist, StaffRoleCashier, StaffRoleInventoryStaff}

// Valid reports whether r is a known staff role.
func (r StaffRole) Valid() bool {
	for _, s := range StaffRoles {
		if r == s {
			return true
		}
	}
	return false
}

// ParseStaffRole matches s case-insensitively against the known staff roles.
func ParseStaffRole(s string) (StaffRole, bool) {
	s = strings.TrimSpace(s)
	for _, r := range StaffRoles {
		if strings.EqualFold(s, string(r)) {
			return r, true
		}
	}
	return "", false
}

// UserStatus is the account state.
type UserStatus string

// Statuses.
const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusInactive UserStatus = "INACTIVE"
)

// Valid reports whether s is a known status.
func (s UserStatus) Valid() bool {
	return s == UserStatusActive || s == UserStatusInactive
}

// ParseUserStatus matches s case-insensitively against the known statuses.
func ParseUserStatus(s string) (UserStatus, bool) {
	status := UserStatus(strings.ToUpper(strings.TrimSpace(s)))
	return status, status.Valid()
}

// User is an identity: a pharmacy admin, a staff member or a super admin.
type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         Role
	StaffRole    *StaffRole
	Status       UserStatus
	CreatedBy    *string

	OTP          *string
	OTPExpiresAt *time.Time
	// OTPPurpose names the flow that issued OTP; a code only verifies in that flow.
	OTPPurpose *string

	ResetToken          *string
	ResetTokenExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TenantID is the id that owns records created by this identity.
// Staff act on behalf of the admin who created them.
func (u *User) TenantID() string {
	if u.Role == RoleStaff && u.CreatedBy != nil {
		return *u.CreatedBy
	}
	return u.ID
}

// PublicUser is the wire form of a user. It carries no secrets.
type PublicUser struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone,omitempty"`
	Role      Role       `json:"role"`
	StaffRole *StaffRole `json:"staffRole,omitempty"`
	Status    UserStatus `json:"status"`
	CreatedBy *string    `json:"createdBy,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Public strips credential and challenge fields.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
		StaffRole: u.StaffRole,
		Status:    u.Status,
		CreatedBy: u.CreatedBy,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
