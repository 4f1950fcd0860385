package dto

// Request DTOs

type RegisterRequest struct {
	FullName       string `json:"full_name" validate:"required,min=2"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=6"`
	PhoneNumber    string `json:"phone_number" validate:"required,min=10,max=20"`
	Role           string `json:"role" validate:"required,oneof=patient doctor"`
	Specialization string `json:"specialization" validate:"required_if=Role doctor"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Response DTOs

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}
