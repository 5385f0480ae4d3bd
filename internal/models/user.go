package models

import "gorm.io/gorm"

// Role determines which operations a user may reach. It is assigned at
// account creation and never changed by the application.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleRider    Role = "rider"
	RoleManager  Role = "manager"
)

// Rider availability states.
const (
	RiderActive   = "active"
	RiderInactive = "inactive"
)

// User is one identity with its persisted profile. Customers self-register;
// riders are provisioned by a manager; the manager account is seeded at
// startup. There is no delete path.
type User struct {
	ID       string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Email    string `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password string `json:"-" gorm:"type:varchar(255)" validate:"required,min=6"`
	Role     Role   `json:"role" gorm:"type:varchar(16);index"`

	FullName  string `json:"full_name" validate:"required"`
	Address   string `json:"address,omitempty"`
	ContactNo string `json:"contact_no,omitempty"`

	// Rider-only fields.
	Vehicle   string `json:"vehicle,omitempty"`
	PlateNo   string `json:"plate_no,omitempty"`
	LicenseNo string `json:"license_no,omitempty"`
	Status    string `json:"status,omitempty"` // active or inactive

	gorm.Model // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
