package customers

import (
	"errors"
	"time"
)

// Customer represents a buying customer with loyalty state.
type Customer struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address"`
	LoyaltyPoints int       `json:"loyalty_points"`
	CreditBalance float64   `json:"credit_balance"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CustomerForm is the create/update payload.
type CustomerForm struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"max=50"`
	Address  string `json:"address" validate:"max=500"`
	IsActive bool   `json:"is_active"`
}

// AdjustPointsRequest applies a signed delta to loyalty points.
type AdjustPointsRequest struct {
	Delta  int    `json:"delta" validate:"required"`
	Reason string `json:"reason" validate:"required,max=200"`
}

// ErrNegativePoints indicates an adjustment would drive points below zero.
var ErrNegativePoints = errors.New("customers: loyalty points must not go negative")
