package services

import (
	"fmt"
	"strings"

	"lods/internal/models"
	"lods/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

// ProvisionRiderInput is the manager-supplied profile for a new rider
// account.
type ProvisionRiderInput struct {
	FullName  string `json:"full_name" validate:"required"`
	ContactNo string `json:"contact_no"`
	Vehicle   string `json:"vehicle"`
	PlateNo   string `json:"plate_no"`
	LicenseNo string `json:"license_no" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
}

// RiderService handles rider provisioning and the roster. Riders are
// administrative accounts: only a manager creates them.
type RiderService struct {
	userRepo repositories.UserRepository
}

// NewRiderService creates a new RiderService.
func NewRiderService(userRepo repositories.UserRepository) *RiderService {
	return &RiderService{
		userRepo: userRepo,
	}
}

// Provision creates a rider account with an active status.
func (s *RiderService) Provision(input ProvisionRiderInput) (*models.User, error) {
	if strings.TrimSpace(input.FullName) == "" || strings.TrimSpace(input.LicenseNo) == "" {
		return nil, fmt.Errorf("full name and license number are required: %w", models.ErrValidation)
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if existing, err := s.userRepo.GetByEmail(email); err == nil && existing != nil {
		return nil, fmt.Errorf("email '%s' already registered: %w", email, models.ErrConflict)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	rider := &models.User{
		Email:     email,
		Password:  string(hashedPassword),
		Role:      models.RoleRider,
		FullName:  input.FullName,
		ContactNo: input.ContactNo,
		Vehicle:   input.Vehicle,
		PlateNo:   input.PlateNo,
		LicenseNo: input.LicenseNo,
		Status:    models.RiderActive,
	}
	if err := s.userRepo.Create(rider); err != nil {
		return nil, fmt.Errorf("failed to create rider: %w", err)
	}
	return rider, nil
}

// Roster returns every registered rider.
func (s *RiderService) Roster() ([]models.User, error) {
	return s.userRepo.GetByRole(models.RoleRider)
}
