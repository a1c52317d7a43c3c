package model

import "time"

// Role distinguishes regular advisors from administrators.
type Role string

const (
	RoleAdvisor Role = "advisor"
	RoleAdmin   Role = "admin"
)

// Advisor represents an advisor account.
type Advisor struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"advisor_name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Students     []int     `json:"students"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AdvisorLoginRequest is the payload for advisor authentication.
type AdvisorLoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// CreateAdvisorRequest is the payload for creating an advisor account.
type CreateAdvisorRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Name     string `json:"advisor_name" binding:"required,min=2,max=100"`
	Password string `json:"password" binding:"required,min=6,max=128"`
	Role     Role   `json:"role" binding:"omitempty,oneof=advisor admin"`
	Students []int  `json:"students" binding:"omitempty,dive,min=1"`
}

// UpdateAdvisorRequest is the payload for updating an advisor account.
type UpdateAdvisorRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Name     string `json:"advisor_name" binding:"required,min=2,max=100"`
	Password string `json:"password" binding:"omitempty,min=6,max=128"`
	Role     Role   `json:"role" binding:"required,oneof=advisor admin"`
}

// ReplaceRosterRequest replaces an advisor's roster wholesale.
type ReplaceRosterRequest struct {
	StudentIDs []int `json:"studentIds" binding:"omitempty,max=5000,dive,min=1"`
}
