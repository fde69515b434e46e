package models

import (
	"time"
)

type SignupRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Name       string `json:"name"`
	TenantName string `json:"tenant_name"`
}

type AuthRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TenantId string `json:"tenant_id"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  `json:"user"`
}

type RedisPayload struct {
	User         `json:"user"`
	RefreshToken string `json:"refresh-token"`
}

type User struct {
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Id            string    `json:"id"`
	TenantId      string    `json:"tenant_id"`
	TenantName    string    `json:"tenant_name,omitempty"`
	TenantSlug    string    `json:"tenant_slug,omitempty"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Currency      string    `json:"currency"`
	MonthlyBudget *float64  `json:"monthly_budget"`
}

type UpdateProfileRequest struct {
	Name          *string  `json:"name"`
	Currency      *string  `json:"currency"`
	MonthlyBudget *float64 `json:"monthly_budget"`
}
