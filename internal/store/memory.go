package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryDriver is an in-memory persistence driver for tests and local
// development.
type MemoryDriver struct {
	mu            sync.RWMutex
	users         map[string]*User
	conversations map[string]*Conversation
	messages      map[string]*Message
	orders        map[string]*Order
	invoices      map[string]*Invoice
	seq           int64
	msgSeq        map[string]int64
}

// NewMemoryDriver creates an empty in-memory driver.
func NewMemoryDriver() *MemoryDriver {
	return &MemoryDriver{
		users:         make(map[string]*User),
		conversations: make(map[string]*Conversation),
		messages:      make(map[string]*Message),
		orders:        make(map[string]*Order),
		invoices:      make(map[string]*Invoice),
		msgSeq:        make(map[string]int64),
	}
}

// GetUser returns a user by id.
func (d *MemoryDriver) GetUser(ctx context.Context, id string) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// GetUserByEmail returns a user by email.
func (d *MemoryDriver) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, u := range d.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// CreateUser persists a new user.
func (d *MemoryDriver) CreateUser(ctx context.Context, user *User) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *user
	d.users[user.ID] = &cp
	return nil
}

// CreateConversation persists a new conversation.
func (d *MemoryDriver) CreateConversation(ctx context.Context, conv *Conversation) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *conv
	d.conversations[conv.ID] = &cp
	return nil
}

// GetConversation returns a conversation by id.
func (d *MemoryDriver) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// ListConversations returns a user's conversations, most recently updated
// first.
func (d *MemoryDriver) ListConversations(ctx context.Context, userID string) ([]*Conversation, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var list []*Conversation
	for _, c := range d.conversations {
		if c.UserID == userID {
			cp := *c
			list = append(list, &cp)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].UpdatedAt.After(list[j].UpdatedAt)
	})
	return list, nil
}

// UpdateConversationSummary overwrites the summary blob.
func (d *MemoryDriver) UpdateConversationSummary(ctx context.Context, id string, summary string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.conversations[id]
	if !ok {
		return ErrNotFound
	}
	s := summary
	c.Summary = &s
	c.UpdatedAt = time.Now()
	return nil
}

// TouchConversation bumps the updated timestamp.
func (d *MemoryDriver) TouchConversation(ctx context.Context, id string, at time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.conversations[id]; ok {
		c.UpdatedAt = at
	}
	return nil
}

// DeleteConversation deletes a conversation and its messages.
func (d *MemoryDriver) DeleteConversation(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.conversations[id]; !ok {
		return ErrNotFound
	}
	delete(d.conversations, id)
	for mid, m := range d.messages {
		if m.ConversationID == id {
			delete(d.messages, mid)
		}
	}
	return nil
}

// CreateMessage persists a new message. Insertion order is preserved for
// messages created within the same millisecond.
func (d *MemoryDriver) CreateMessage(ctx context.Context, msg *Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *msg
	d.seq++
	d.msgSeq[msg.ID] = d.seq
	d.messages[msg.ID] = &cp
	return nil
}

// GetMessagesByConversation returns all messages oldest first.
func (d *MemoryDriver) GetMessagesByConversation(ctx context.Context, conversationID string) ([]*Message, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var list []*Message
	for _, m := range d.messages {
		if m.ConversationID == conversationID {
			cp := *m
			list = append(list, &cp)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return d.msgSeq[list[i].ID] < d.msgSeq[list[j].ID]
	})
	return list, nil
}

// CountMessages returns the message count for a conversation.
func (d *MemoryDriver) CountMessages(ctx context.Context, conversationID string) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n := 0
	for _, m := range d.messages {
		if m.ConversationID == conversationID {
			n++
		}
	}
	return n, nil
}

// DeleteMessages deletes messages by id.
func (d *MemoryDriver) DeleteMessages(ctx context.Context, ids []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range ids {
		delete(d.messages, id)
	}
	return nil
}

// GetOrder returns an order by id.
func (d *MemoryDriver) GetOrder(ctx context.Context, id string) (*Order, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	o, ok := d.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

// CreateOrder persists a new order.
func (d *MemoryDriver) CreateOrder(ctx context.Context, order *Order) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *order
	d.orders[order.ID] = &cp
	return nil
}

// GetInvoice returns an invoice by its own id.
func (d *MemoryDriver) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	inv, ok := d.invoices[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

// GetInvoiceByOrder returns the invoice associated with an order.
func (d *MemoryDriver) GetInvoiceByOrder(ctx context.Context, orderID string) (*Invoice, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, inv := range d.invoices {
		if inv.OrderID == orderID {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// CreateInvoice persists a new invoice.
func (d *MemoryDriver) CreateInvoice(ctx context.Context, invoice *Invoice) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *invoice
	d.invoices[invoice.ID] = &cp
	return nil
}

// Ping always succeeds for the in-memory driver.
func (d *MemoryDriver) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for the in-memory driver.
func (d *MemoryDriver) Close() error {
	return nil
}
