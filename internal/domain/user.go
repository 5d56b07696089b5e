package domain

import "time"

const (
	RoleCitizen = "citizen"
	RoleOfficer = "officer"
	RoleAdmin   = "admin"
)

type GeoPoint struct {
	Lat float64 `json:"lat" dynamodbav:"lat"`
	Lng float64 `json:"lng" dynamodbav:"lng"`
}

type User struct {
	UserID       string    `json:"id" dynamodbav:"user_id"`
	Name         string    `json:"name" dynamodbav:"name"`
	Email        string    `json:"email" dynamodbav:"email"`
	Phone        string    `json:"phone" dynamodbav:"phone"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	Role         string    `json:"role" dynamodbav:"role"`
	DepartmentID string    `json:"department_id,omitempty" dynamodbav:"department_id"`
	Address      string    `json:"address,omitempty" dynamodbav:"address"`
	Location     *GeoPoint `json:"location,omitempty" dynamodbav:"location"`
	Verified     bool      `json:"verified" dynamodbav:"verified"`
	Active       bool      `json:"active" dynamodbav:"active"`

	// Password-reset fields. Only the sha256 hash of the reset token is ever
	// stored; both fields are cleared atomically when the token is consumed.
	ResetTokenHash      string `json:"-" dynamodbav:"reset_token_hash,omitempty"`
	ResetTokenExpiresAt int64  `json:"-" dynamodbav:"reset_token_expires_at,omitempty"`

	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}

type RegisterRequest struct {
	Name     string    `json:"name" validate:"required"`
	Email    string    `json:"email" validate:"required,email"`
	Phone    string    `json:"phone" validate:"required,len=10,numeric"`
	Password string    `json:"password" validate:"required,min=6,max=72"`
	Address  string    `json:"address"`
	Location *GeoPoint `json:"location"`
}

type LoginRequest struct {
	EmailOrPhone string `json:"email_or_phone" validate:"required"`
	Password     string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Name     *string   `json:"name"`
	Phone    *string   `json:"phone" validate:"omitempty,len=10,numeric"`
	Address  *string   `json:"address"`
	Location *GeoPoint `json:"location"`
}
