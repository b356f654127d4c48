// Package store provides the persistence collaborator for the routing core.
// A Store delegates to a Driver; drivers exist for SQLite and for an
// in-memory map used by tests and local development.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Order status values.
const (
	OrderStatusProcessing = "PROCESSING"
	OrderStatusShipped    = "SHIPPED"
	OrderStatusDelivered  = "DELIVERED"
	OrderStatusCancelled  = "CANCELLED"
)

// User is a customer account.
type User struct {
	ID    string
	Email string
	Name  string
}

// Conversation is a persisted conversation record.
type Conversation struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time
	Summary   *string
}

// Message is a persisted conversation message.
type Message struct {
	ID             string
	ConversationID string
	Role           string
	Content        string
	Intent         *string
	CreatedAt      time.Time
}

// Order is a customer order.
type Order struct {
	ID           string
	UserID       string
	Status       string
	Items        string // serialized JSON line items
	TotalAmount  float64
	DeliveryDate *time.Time
	CreatedAt    time.Time
}

// Invoice is a billing record tied to an order.
type Invoice struct {
	ID      string
	UserID  string
	OrderID string
	Amount  float64
	Status  string
	DueDate time.Time
}

// Driver is the backend persistence interface.
type Driver interface {
	// Users
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, user *User) error

	// Conversations
	CreateConversation(ctx context.Context, conv *Conversation) error
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]*Conversation, error)
	UpdateConversationSummary(ctx context.Context, id string, summary string) error
	TouchConversation(ctx context.Context, id string, at time.Time) error
	DeleteConversation(ctx context.Context, id string) error

	// Messages
	CreateMessage(ctx context.Context, msg *Message) error
	GetMessagesByConversation(ctx context.Context, conversationID string) ([]*Message, error)
	CountMessages(ctx context.Context, conversationID string) (int, error)
	DeleteMessages(ctx context.Context, ids []string) error

	// Domain lookups
	GetOrder(ctx context.Context, id string) (*Order, error)
	CreateOrder(ctx context.Context, order *Order) error
	GetInvoice(ctx context.Context, id string) (*Invoice, error)
	GetInvoiceByOrder(ctx context.Context, orderID string) (*Invoice, error)
	CreateInvoice(ctx context.Context, invoice *Invoice) error

	Ping(ctx context.Context) error
	Close() error
}

// Store is the persistence collaborator consumed by services, tools and
// the routing core.
type Store struct {
	driver Driver
}

// New creates a store backed by the given driver.
func New(driver Driver) *Store {
	return &Store{driver: driver}
}

// GetUser returns a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	return s.driver.GetUser(ctx, id)
}

// GetUserByEmail returns a user by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.driver.GetUserByEmail(ctx, email)
}

// CreateUser persists a new user.
func (s *Store) CreateUser(ctx context.Context, user *User) error {
	return s.driver.CreateUser(ctx, user)
}

// CreateConversation persists a new conversation.
func (s *Store) CreateConversation(ctx context.Context, conv *Conversation) error {
	return s.driver.CreateConversation(ctx, conv)
}

// GetConversation returns a conversation by id.
func (s *Store) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	return s.driver.GetConversation(ctx, id)
}

// ListConversations returns a user's conversations, most recently updated
// first.
func (s *Store) ListConversations(ctx context.Context, userID string) ([]*Conversation, error) {
	return s.driver.ListConversations(ctx, userID)
}

// UpdateConversationSummary overwrites the conversation summary blob.
// Last write wins.
func (s *Store) UpdateConversationSummary(ctx context.Context, id string, summary string) error {
	return s.driver.UpdateConversationSummary(ctx, id, summary)
}

// TouchConversation bumps the conversation's updated timestamp.
func (s *Store) TouchConversation(ctx context.Context, id string, at time.Time) error {
	return s.driver.TouchConversation(ctx, id, at)
}

// DeleteConversation deletes a conversation and cascades to its messages.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	return s.driver.DeleteConversation(ctx, id)
}

// CreateMessage persists a new message.
func (s *Store) CreateMessage(ctx context.Context, msg *Message) error {
	return s.driver.CreateMessage(ctx, msg)
}

// GetMessagesByConversation returns all messages for a conversation,
// oldest first.
func (s *Store) GetMessagesByConversation(ctx context.Context, conversationID string) ([]*Message, error) {
	return s.driver.GetMessagesByConversation(ctx, conversationID)
}

// CountMessages returns the message count for a conversation.
func (s *Store) CountMessages(ctx context.Context, conversationID string) (int, error) {
	return s.driver.CountMessages(ctx, conversationID)
}

// DeleteMessages deletes messages by id. Used by the compactor.
func (s *Store) DeleteMessages(ctx context.Context, ids []string) error {
	return s.driver.DeleteMessages(ctx, ids)
}

// GetOrder returns an order by id.
func (s *Store) GetOrder(ctx context.Context, id string) (*Order, error) {
	return s.driver.GetOrder(ctx, id)
}

// CreateOrder persists a new order.
func (s *Store) CreateOrder(ctx context.Context, order *Order) error {
	return s.driver.CreateOrder(ctx, order)
}

// GetInvoice returns an invoice by its own id.
func (s *Store) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	return s.driver.GetInvoice(ctx, id)
}

// GetInvoiceByOrder returns the invoice associated with an order.
func (s *Store) GetInvoiceByOrder(ctx context.Context, orderID string) (*Invoice, error) {
	return s.driver.GetInvoiceByOrder(ctx, orderID)
}

// CreateInvoice persists a new invoice.
func (s *Store) CreateInvoice(ctx context.Context, invoice *Invoice) error {
	return s.driver.CreateInvoice(ctx, invoice)
}

// Ping checks backend connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.driver.Ping(ctx)
}

// Close releases driver resources.
func (s *Store) Close() error {
	return s.driver.Close()
}
