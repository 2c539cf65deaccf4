package dto

import (
	"github.com/google/uuid"
)

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required,min=2,max=100"`
}

type RegisterResponse struct {
	Id    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	// Linked reports whether today's anonymous usage was folded into the new
	// account. Best-effort: false does not mean the registration failed.
	QuotaLinked      bool `json:"quota_linked"`
	QuotaLinkedCount int  `json:"quota_linked_count"`
}

type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"remember_me"`
}

type LoginResponse struct {
	AccessToken      string  `json:"access_token"`
	RefreshToken     string  `json:"refresh_token,omitempty"`
	User             UserDTO `json:"user"`
	QuotaLinked      bool    `json:"quota_linked"`
	QuotaLinkedCount int     `json:"quota_linked_count"`
}

type UserDTO struct {
	Id       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}
