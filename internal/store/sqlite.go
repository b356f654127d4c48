package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteDriver is the SQLite persistence driver.
type SQLiteDriver struct {
	db *sql.DB
}

// NewSQLiteDriver opens (or creates) a SQLite database at path and ensures
// the schema exists.
func NewSQLiteDriver(path string) (*SQLiteDriver, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite handles one writer at a time.
	db.SetMaxOpenConns(1)

	d := &SQLiteDriver{db: db}
	if err := d.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

func (d *SQLiteDriver) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS user (
			id    TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name  TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS conversation (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES user(id),
			created_ts INTEGER NOT NULL,
			updated_ts INTEGER NOT NULL,
			summary    TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS message (
			id              TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL REFERENCES conversation(id) ON DELETE CASCADE,
			role            TEXT NOT NULL,
			content         TEXT NOT NULL,
			intent          TEXT,
			created_ts      INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_message_conversation ON message(conversation_id, created_ts)`,
		`CREATE TABLE IF NOT EXISTS "order" (
			id            TEXT PRIMARY KEY,
			user_id       TEXT NOT NULL REFERENCES user(id),
			status        TEXT NOT NULL,
			items         TEXT NOT NULL DEFAULT '[]',
			total_amount  REAL NOT NULL DEFAULT 0,
			delivery_ts   INTEGER,
			created_ts    INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS invoice (
			id       TEXT PRIMARY KEY,
			user_id  TEXT NOT NULL REFERENCES user(id),
			order_id TEXT NOT NULL REFERENCES "order"(id),
			amount   REAL NOT NULL,
			status   TEXT NOT NULL,
			due_ts   INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_invoice_order ON invoice(order_id)`,
	}
	for _, s := range stmts {
		if _, err := d.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// GetUser returns a user by id.
func (d *SQLiteDriver) GetUser(ctx context.Context, id string) (*User, error) {
	u := &User{}
	err := d.db.QueryRowContext(ctx,
		`SELECT id, email, name FROM user WHERE id = ?`, id,
	).Scan(&u.ID, &u.Email, &u.Name)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetUserByEmail returns a user by email.
func (d *SQLiteDriver) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	u := &User{}
	err := d.db.QueryRowContext(ctx,
		`SELECT id, email, name FROM user WHERE email = ?`, email,
	).Scan(&u.ID, &u.Email, &u.Name)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser persists a new user.
func (d *SQLiteDriver) CreateUser(ctx context.Context, user *User) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO user (id, email, name) VALUES (?, ?, ?)`,
		user.ID, user.Email, user.Name,
	)
	return err
}

// CreateConversation persists a new conversation.
func (d *SQLiteDriver) CreateConversation(ctx context.Context, conv *Conversation) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO conversation (id, user_id, created_ts, updated_ts, summary) VALUES (?, ?, ?, ?, ?)`,
		conv.ID, conv.UserID, conv.CreatedAt.UnixMilli(), conv.UpdatedAt.UnixMilli(), conv.Summary,
	)
	return err
}

// GetConversation returns a conversation by id.
func (d *SQLiteDriver) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	c := &Conversation{}
	var createdTs, updatedTs int64
	err := d.db.QueryRowContext(ctx,
		`SELECT id, user_id, created_ts, updated_ts, summary FROM conversation WHERE id = ?`, id,
	).Scan(&c.ID, &c.UserID, &createdTs, &updatedTs, &c.Summary)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.CreatedAt = time.UnixMilli(createdTs)
	c.UpdatedAt = time.UnixMilli(updatedTs)
	return c, nil
}

// ListConversations returns a user's conversations, most recently updated
// first.
func (d *SQLiteDriver) ListConversations(ctx context.Context, userID string) ([]*Conversation, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, user_id, created_ts, updated_ts, summary FROM conversation
		 WHERE user_id = ? ORDER BY updated_ts DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*Conversation
	for rows.Next() {
		c := &Conversation{}
		var createdTs, updatedTs int64
		if err := rows.Scan(&c.ID, &c.UserID, &createdTs, &updatedTs, &c.Summary); err != nil {
			return nil, err
		}
		c.CreatedAt = time.UnixMilli(createdTs)
		c.UpdatedAt = time.UnixMilli(updatedTs)
		list = append(list, c)
	}
	return list, rows.Err()
}

// UpdateConversationSummary overwrites the summary blob.
func (d *SQLiteDriver) UpdateConversationSummary(ctx context.Context, id string, summary string) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE conversation SET summary = ?, updated_ts = ? WHERE id = ?`,
		summary, time.Now().UnixMilli(), id,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchConversation bumps the updated timestamp.
func (d *SQLiteDriver) TouchConversation(ctx context.Context, id string, at time.Time) error {
	_, err := d.db.ExecContext(ctx,
		`UPDATE conversation SET updated_ts = ? WHERE id = ?`, at.UnixMilli(), id,
	)
	return err
}

// DeleteConversation deletes a conversation and its messages.
func (d *SQLiteDriver) DeleteConversation(ctx context.Context, id string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM message WHERE conversation_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM conversation WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// CreateMessage persists a new message.
func (d *SQLiteDriver) CreateMessage(ctx context.Context, msg *Message) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO message (id, conversation_id, role, content, intent, created_ts) VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ConversationID, msg.Role, msg.Content, msg.Intent, msg.CreatedAt.UnixMilli(),
	)
	return err
}

// GetMessagesByConversation returns all messages oldest first.
func (d *SQLiteDriver) GetMessagesByConversation(ctx context.Context, conversationID string) ([]*Message, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, conversation_id, role, content, intent, created_ts FROM message
		 WHERE conversation_id = ? ORDER BY created_ts ASC, id ASC`, conversationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*Message
	for rows.Next() {
		m := &Message{}
		var createdTs int64
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.Intent, &createdTs); err != nil {
			return nil, err
		}
		m.CreatedAt = time.UnixMilli(createdTs)
		list = append(list, m)
	}
	return list, rows.Err()
}

// CountMessages returns the message count for a conversation.
func (d *SQLiteDriver) CountMessages(ctx context.Context, conversationID string) (int, error) {
	var n int
	err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM message WHERE conversation_id = ?`, conversationID,
	).Scan(&n)
	return n, err
}

// DeleteMessages deletes messages by id.
func (d *SQLiteDriver) DeleteMessages(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := d.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM message WHERE id IN (%s)`, placeholders), args...,
	)
	return err
}

// GetOrder returns an order by id.
func (d *SQLiteDriver) GetOrder(ctx context.Context, id string) (*Order, error) {
	o := &Order{}
	var createdTs int64
	var deliveryTs sql.NullInt64
	err := d.db.QueryRowContext(ctx,
		`SELECT id, user_id, status, items, total_amount, delivery_ts, created_ts FROM "order" WHERE id = ?`, id,
	).Scan(&o.ID, &o.UserID, &o.Status, &o.Items, &o.TotalAmount, &deliveryTs, &createdTs)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	o.CreatedAt = time.UnixMilli(createdTs)
	if deliveryTs.Valid {
		t := time.UnixMilli(deliveryTs.Int64)
		o.DeliveryDate = &t
	}
	return o, nil
}

// CreateOrder persists a new order.
func (d *SQLiteDriver) CreateOrder(ctx context.Context, order *Order) error {
	var deliveryTs *int64
	if order.DeliveryDate != nil {
		ts := order.DeliveryDate.UnixMilli()
		deliveryTs = &ts
	}
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO "order" (id, user_id, status, items, total_amount, delivery_ts, created_ts) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.UserID, order.Status, order.Items, order.TotalAmount, deliveryTs, order.CreatedAt.UnixMilli(),
	)
	return err
}

// GetInvoice returns an invoice by its own id.
func (d *SQLiteDriver) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	return d.scanInvoice(d.db.QueryRowContext(ctx,
		`SELECT id, user_id, order_id, amount, status, due_ts FROM invoice WHERE id = ?`, id,
	))
}

// GetInvoiceByOrder returns the invoice associated with an order.
func (d *SQLiteDriver) GetInvoiceByOrder(ctx context.Context, orderID string) (*Invoice, error) {
	return d.scanInvoice(d.db.QueryRowContext(ctx,
		`SELECT id, user_id, order_id, amount, status, due_ts FROM invoice WHERE order_id = ? LIMIT 1`, orderID,
	))
}

func (d *SQLiteDriver) scanInvoice(row *sql.Row) (*Invoice, error) {
	inv := &Invoice{}
	var dueTs int64
	err := row.Scan(&inv.ID, &inv.UserID, &inv.OrderID, &inv.Amount, &inv.Status, &dueTs)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	inv.DueDate = time.UnixMilli(dueTs)
	return inv, nil
}

// CreateInvoice persists a new invoice.
func (d *SQLiteDriver) CreateInvoice(ctx context.Context, invoice *Invoice) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO invoice (id, user_id, order_id, amount, status, due_ts) VALUES (?, ?, ?, ?, ?, ?)`,
		invoice.ID, invoice.UserID, invoice.OrderID, invoice.Amount, invoice.Status, invoice.DueDate.UnixMilli(),
	)
	return err
}

// Ping checks database connectivity.
func (d *SQLiteDriver) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Close closes the database.
func (d *SQLiteDriver) Close() error {
	return d.db.Close()
}
