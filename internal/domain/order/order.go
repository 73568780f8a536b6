package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status enumerates the order lifecycle states.
type Status string

const (
	StatusCreated   Status = "created"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// IsKnown reports whether s is one of the defined lifecycle states.
func (s Status) IsKnown() bool {
	switch s {
	case StatusCreated, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

var (
	// ErrNotFound is returned when no order exists for a given id.
	ErrNotFound = errors.New("order not found")
	// ErrInvalidAmount is returned when an order amount is not positive.
	ErrInvalidAmount = errors.New("order amount must be positive")
	// ErrUnknownStatus is returned when a status transition targets an
	// undefined state.
	ErrUnknownStatus = errors.New("unknown order status")
)

// Order represents a customer order with pricing and discount details.
type Order struct {
	ID             string
	Name           string
	OriginalAmount decimal.Decimal
	FinalAmount    decimal.Decimal
	Status         Status
	CustomerID     string
	CouponCode     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Order, error)
	Save(ctx context.Context, o *Order) (*Order, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]Order, error)
	ListByStatus(ctx context.Context, status Status) ([]Order, error)
}
