package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// MockUserID is the hard-coded user injected when auth is disabled.
const MockUserID = "user-123-mock"

// Seed populates the store with the mock user and a small set of demo
// orders and invoices. Safe to call on a database that is already seeded.
func Seed(ctx context.Context, s *Store) error {
	if _, err := s.GetUser(ctx, MockUserID); err == nil {
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	if err := s.CreateUser(ctx, &User{
		ID:    MockUserID,
		Email: "alice@example.com",
		Name:  "Alice User",
	}); err != nil {
		return err
	}

	now := time.Now()
	inTwoDays := now.AddDate(0, 0, 2)
	fiveDaysAgo := now.AddDate(0, 0, -5)

	shipped := &Order{
		ID:           uuid.Must(uuid.NewV7()).String(),
		UserID:       MockUserID,
		Status:       OrderStatusShipped,
		Items:        `[{"name":"Wireless Headphones","price":199.99}]`,
		TotalAmount:  199.99,
		DeliveryDate: &inTwoDays,
		CreatedAt:    now,
	}
	delivered := &Order{
		ID:           uuid.Must(uuid.NewV7()).String(),
		UserID:       MockUserID,
		Status:       OrderStatusDelivered,
		Items:        `[{"name":"Mechanical Keyboard","price":150.00}]`,
		TotalAmount:  150.00,
		DeliveryDate: &fiveDaysAgo,
		CreatedAt:    now,
	}
	processing := &Order{
		ID:          uuid.Must(uuid.NewV7()).String(),
		UserID:      MockUserID,
		Status:      OrderStatusProcessing,
		Items:       `[{"name":"USB-C Dock","price":89.99}]`,
		TotalAmount: 89.99,
		CreatedAt:   now,
	}

	for _, o := range []*Order{shipped, delivered, processing} {
		if err := s.CreateOrder(ctx, o); err != nil {
			return err
		}
	}

	invoices := []*Invoice{
		{
			ID:      uuid.Must(uuid.NewV7()).String(),
			UserID:  MockUserID,
			OrderID: shipped.ID,
			Amount:  199.99,
			Status:  "PAID",
			DueDate: now.AddDate(0, 0, 30),
		},
		{
			ID:      uuid.Must(uuid.NewV7()).String(),
			UserID:  MockUserID,
			OrderID: delivered.ID,
			Amount:  150.00,
			Status:  "PENDING",
			DueDate: now.AddDate(0, 0, -10),
		},
	}
	for _, inv := range invoices {
		if err := s.CreateInvoice(ctx, inv); err != nil {
			return err
		}
	}

	return nil
}
