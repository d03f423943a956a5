package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/matthewbaird/rentroll/internal/dunning"
	"github.com/matthewbaird/rentroll/internal/types"
)

// SQLiteStore implements Store on a SQLite file via database/sql. Amounts
// are stored as integer cents next to their currency code; timestamps as
// RFC 3339 text.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the
// schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows a single writer; serializing through one connection
	// avoids SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS charges (
			id          TEXT PRIMARY KEY,
			tenant_id   TEXT NOT NULL,
			unit_id     TEXT NOT NULL,
			description TEXT NOT NULL,
			amount      INTEGER NOT NULL,
			paid_amount INTEGER NOT NULL DEFAULT 0,
			currency    TEXT NOT NULL,
			due_date    TEXT NOT NULL,
			created_at  TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS payments (
			id        TEXT PRIMARY KEY,
			charge_id TEXT NOT NULL REFERENCES charges(id),
			amount    INTEGER NOT NULL,
			currency  TEXT NOT NULL,
			paid_at   TEXT NOT NULL,
			note      TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_payments_charge ON payments (charge_id, paid_at);

		CREATE TABLE IF NOT EXISTS reminders (
			id           TEXT PRIMARY KEY,
			charge_id    TEXT NOT NULL REFERENCES charges(id),
			stage        TEXT NOT NULL,
			fee          INTEGER NOT NULL,
			currency     TEXT NOT NULL,
			generated_at TEXT NOT NULL,
			notes        TEXT NOT NULL DEFAULT '',
			html         TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_reminders_charge ON reminders (charge_id, generated_at);

		CREATE TABLE IF NOT EXISTS templates (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			body       TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS tenants (
			id         TEXT PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name  TEXT NOT NULL,
			address    TEXT NOT NULL DEFAULT '',
			email      TEXT NOT NULL DEFAULT '',
			phone      TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS properties (
			id      TEXT PRIMARY KEY,
			name    TEXT NOT NULL,
			address TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS units (
			id          TEXT PRIMARY KEY,
			property_id TEXT NOT NULL REFERENCES properties(id),
			label       TEXT NOT NULL,
			unit_number TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS letterhead (
			role    TEXT PRIMARY KEY,
			name    TEXT NOT NULL,
			address TEXT NOT NULL DEFAULT '',
			email   TEXT NOT NULL DEFAULT '',
			phone   TEXT NOT NULL DEFAULT ''
		);
	`)
	return err
}

// DB exposes the underlying handle so the audit store can share it.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

func (s *SQLiteStore) Close() error { return s.db.Close() }

const timeLayout = time.RFC3339Nano

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func decodeTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, raw)
}

func (s *SQLiteStore) CreateCharge(ctx context.Context, c dunning.Charge) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO charges (id, tenant_id, unit_id, description, amount, paid_amount, currency, due_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID.String(), c.TenantID.String(), c.UnitID.String(), c.Description,
		c.Amount.AmountCents, c.PaidAmount.AmountCents, c.Amount.Currency,
		encodeTime(c.DueDate), encodeTime(c.CreatedAt))
	return err
}

func (s *SQLiteStore) scanCharge(row interface{ Scan(...any) error }) (dunning.Charge, error) {
	var c dunning.Charge
	var id, tenantID, unitID, currency, dueDate, createdAt string
	var amount, paid int64
	if err := row.Scan(&id, &tenantID, &unitID, &c.Description, &amount, &paid, &currency, &dueDate, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dunning.Charge{}, ErrNotFound
		}
		return dunning.Charge{}, err
	}
	var err error
	if c.ID, err = uuid.Parse(id); err != nil {
		return dunning.Charge{}, err
	}
	if c.TenantID, err = uuid.Parse(tenantID); err != nil {
		return dunning.Charge{}, err
	}
	if c.UnitID, err = uuid.Parse(unitID); err != nil {
		return dunning.Charge{}, err
	}
	if c.DueDate, err = decodeTime(dueDate); err != nil {
		return dunning.Charge{}, err
	}
	if c.CreatedAt, err = decodeTime(createdAt); err != nil {
		return dunning.Charge{}, err
	}
	c.Amount = moneyFrom(amount, currency)
	c.PaidAmount = moneyFrom(paid, currency)
	return c, nil
}

const chargeColumns = "id, tenant_id, unit_id, description, amount, paid_amount, currency, due_date, created_at"

func (s *SQLiteStore) GetCharge(ctx context.Context, id uuid.UUID) (dunning.Charge, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+chargeColumns+" FROM charges WHERE id = ?", id.String())
	return s.scanCharge(row)
}

func (s *SQLiteStore) ListCharges(ctx context.Context, f ChargeFilter) ([]dunning.Charge, error) {
	query := "SELECT " + chargeColumns + " FROM charges WHERE 1=1"
	var args []any
	if f.TenantID != uuid.Nil {
		query += " AND tenant_id = ?"
		args = append(args, f.TenantID.String())
	}
	if f.Unsettled {
		query += " AND paid_amount < amount"
	}
	if !f.OverdueAt.IsZero() {
		query += " AND due_date < ?"
		args = append(args, encodeTime(f.OverdueAt))
	}
	query += " ORDER BY created_at, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []dunning.Charge
	for rows.Next() {
		c, err := s.scanCharge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AddPayment(ctx context.Context, p dunning.Payment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE charges SET paid_amount = paid_amount + ? WHERE id = ?",
		p.Amount.AmountCents, p.ChargeID.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payments (id, charge_id, amount, currency, paid_at, note)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID.String(), p.ChargeID.String(), p.Amount.AmountCents, p.Amount.Currency,
		encodeTime(p.PaidAt), p.Note)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListPayments(ctx context.Context, chargeID uuid.UUID) ([]dunning.Payment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, charge_id, amount, currency, paid_at, note
		FROM payments WHERE charge_id = ? ORDER BY paid_at, id`, chargeID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []dunning.Payment
	for rows.Next() {
		var p dunning.Payment
		var id, cid, currency, paidAt string
		var amount int64
		if err := rows.Scan(&id, &cid, &amount, &currency, &paidAt, &p.Note); err != nil {
			return nil, err
		}
		if p.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if p.ChargeID, err = uuid.Parse(cid); err != nil {
			return nil, err
		}
		if p.PaidAt, err = decodeTime(paidAt); err != nil {
			return nil, err
		}
		p.Amount = moneyFrom(amount, currency)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateReminder(ctx context.Context, r dunning.Reminder) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reminders (id, charge_id, stage, fee, currency, generated_at, notes, html)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID.String(), r.ChargeID.String(), r.Stage.Token(), r.Fee.AmountCents,
		r.Fee.Currency, encodeTime(r.GeneratedAt), r.Notes, r.HTML)
	return err
}

const reminderColumns = "id, charge_id, stage, fee, currency, generated_at, notes, html"

func scanReminder(row interface{ Scan(...any) error }) (dunning.Reminder, error) {
	var r dunning.Reminder
	var id, cid, stage, currency, generatedAt string
	var fee int64
	if err := row.Scan(&id, &cid, &stage, &fee, &currency, &generatedAt, &r.Notes, &r.HTML); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dunning.Reminder{}, ErrNotFound
		}
		return dunning.Reminder{}, err
	}
	var err error
	if r.ID, err = uuid.Parse(id); err != nil {
		return dunning.Reminder{}, err
	}
	if r.ChargeID, err = uuid.Parse(cid); err != nil {
		return dunning.Reminder{}, err
	}
	if r.Stage, err = dunning.ParseStage(stage); err != nil {
		return dunning.Reminder{}, err
	}
	if r.GeneratedAt, err = decodeTime(generatedAt); err != nil {
		return dunning.Reminder{}, err
	}
	r.Fee = moneyFrom(fee, currency)
	return r, nil
}

func (s *SQLiteStore) GetReminder(ctx context.Context, id uuid.UUID) (dunning.Reminder, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+reminderColumns+" FROM reminders WHERE id = ?", id.String())
	return scanReminder(row)
}

func (s *SQLiteStore) listReminders(ctx context.Context, query string, args ...any) ([]dunning.Reminder, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []dunning.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListRemindersByCharge(ctx context.Context, chargeID uuid.UUID) ([]dunning.Reminder, error) {
	return s.listReminders(ctx,
		"SELECT "+reminderColumns+" FROM reminders WHERE charge_id = ? ORDER BY generated_at, id",
		chargeID.String())
}

func (s *SQLiteStore) ListReminders(ctx context.Context) ([]dunning.Reminder, error) {
	return s.listReminders(ctx,
		"SELECT "+reminderColumns+" FROM reminders ORDER BY generated_at, id")
}

func (s *SQLiteStore) CreateTemplate(ctx context.Context, t dunning.NoticeTemplate) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO templates (id, name, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		t.ID.String(), t.Name, t.Body, encodeTime(t.CreatedAt), encodeTime(t.UpdatedAt))
	return err
}

func scanTemplate(row interface{ Scan(...any) error }) (dunning.NoticeTemplate, error) {
	var t dunning.NoticeTemplate
	var id, createdAt, updatedAt string
	if err := row.Scan(&id, &t.Name, &t.Body, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dunning.NoticeTemplate{}, ErrNotFound
		}
		return dunning.NoticeTemplate{}, err
	}
	var err error
	if t.ID, err = uuid.Parse(id); err != nil {
		return dunning.NoticeTemplate{}, err
	}
	if t.CreatedAt, err = decodeTime(createdAt); err != nil {
		return dunning.NoticeTemplate{}, err
	}
	if t.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return dunning.NoticeTemplate{}, err
	}
	return t, nil
}

func (s *SQLiteStore) GetTemplate(ctx context.Context, id uuid.UUID) (dunning.NoticeTemplate, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, body, created_at, updated_at FROM templates WHERE id = ?", id.String())
	return scanTemplate(row)
}

func (s *SQLiteStore) ListTemplates(ctx context.Context) ([]dunning.NoticeTemplate, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, body, created_at, updated_at FROM templates ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []dunning.NoticeTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateTemplate(ctx context.Context, t dunning.NoticeTemplate) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE templates SET name = ?, body = ?, updated_at = ? WHERE id = ?",
		t.Name, t.Body, encodeTime(t.UpdatedAt), t.ID.String())
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *SQLiteStore) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM templates WHERE id = ?", id.String())
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *SQLiteStore) PutTenant(ctx context.Context, t dunning.Tenant) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tenants (id, first_name, last_name, address, email, phone)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_name = excluded.first_name, last_name = excluded.last_name,
			address = excluded.address, email = excluded.email, phone = excluded.phone`,
		t.ID.String(), t.FirstName, t.LastName, t.Address, t.Email, t.Phone)
	return err
}

func (s *SQLiteStore) GetTenant(ctx context.Context, id uuid.UUID) (dunning.Tenant, error) {
	var t dunning.Tenant
	var rawID string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, first_name, last_name, address, email, phone FROM tenants WHERE id = ?",
		id.String()).Scan(&rawID, &t.FirstName, &t.LastName, &t.Address, &t.Email, &t.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return dunning.Tenant{}, ErrNotFound
	}
	if err != nil {
		return dunning.Tenant{}, err
	}
	t.ID, err = uuid.Parse(rawID)
	return t, err
}

func (s *SQLiteStore) PutProperty(ctx context.Context, p dunning.Property) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO properties (id, name, address) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, address = excluded.address`,
		p.ID.String(), p.Name, p.Address)
	return err
}

func (s *SQLiteStore) GetProperty(ctx context.Context, id uuid.UUID) (dunning.Property, error) {
	var p dunning.Property
	var rawID string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, address FROM properties WHERE id = ?", id.String()).
		Scan(&rawID, &p.Name, &p.Address)
	if errors.Is(err, sql.ErrNoRows) {
		return dunning.Property{}, ErrNotFound
	}
	if err != nil {
		return dunning.Property{}, err
	}
	p.ID, err = uuid.Parse(rawID)
	return p, err
}

func (s *SQLiteStore) PutUnit(ctx context.Context, u dunning.Unit) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO units (id, property_id, label, unit_number) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			property_id = excluded.property_id, label = excluded.label,
			unit_number = excluded.unit_number`,
		u.ID.String(), u.PropertyID.String(), u.Label, u.UnitNumber)
	return err
}

func (s *SQLiteStore) GetUnit(ctx context.Context, id uuid.UUID) (dunning.Unit, error) {
	var u dunning.Unit
	var rawID, propertyID string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, property_id, label, unit_number FROM units WHERE id = ?", id.String()).
		Scan(&rawID, &propertyID, &u.Label, &u.UnitNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return dunning.Unit{}, ErrNotFound
	}
	if err != nil {
		return dunning.Unit{}, err
	}
	if u.ID, err = uuid.Parse(rawID); err != nil {
		return dunning.Unit{}, err
	}
	u.PropertyID, err = uuid.Parse(propertyID)
	return u, err
}

func (s *SQLiteStore) PutClient(ctx context.Context, c dunning.Client) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO letterhead (role, name, address, email, phone)
		VALUES ('client', ?, ?, ?, ?)
		ON CONFLICT(role) DO UPDATE SET
			name = excluded.name, address = excluded.address,
			email = excluded.email, phone = excluded.phone`,
		c.Name, c.Address, c.Email, c.Phone)
	return err
}

func (s *SQLiteStore) GetClient(ctx context.Context) (dunning.Client, error) {
	var c dunning.Client
	err := s.db.QueryRowContext(ctx,
		"SELECT name, address, email, phone FROM letterhead WHERE role = 'client'").
		Scan(&c.Name, &c.Address, &c.Email, &c.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return dunning.Client{}, ErrNotFound
	}
	return c, err
}

func (s *SQLiteStore) PutOwner(ctx context.Context, o dunning.Owner) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO letterhead (role, name, address, email, phone)
		VALUES ('owner', ?, '', ?, '')
		ON CONFLICT(role) DO UPDATE SET name = excluded.name, email = excluded.email`,
		o.Name, o.Email)
	return err
}

func (s *SQLiteStore) GetOwner(ctx context.Context) (dunning.Owner, error) {
	var o dunning.Owner
	err := s.db.QueryRowContext(ctx,
		"SELECT name, email FROM letterhead WHERE role = 'owner'").
		Scan(&o.Name, &o.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return dunning.Owner{}, ErrNotFound
	}
	return o, err
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func moneyFrom(cents int64, currency string) types.Money {
	return types.Cents(cents, currency)
}
