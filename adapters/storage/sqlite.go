package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"widget-estimate/core/types"
	apperrors "widget-estimate/internal/errors"
)

//go:embed schema.sql
var schema string

const leadColumns = `id, widget_key, widget_id, contact_info, form_responses, estimate,
	base_price, subtotal, tax_amount, total_price, currency, status,
	source_url, ip_address, user_agent, created_at`

// SQLiteStore persists leads in a SQLite database
type SQLiteStore struct {
	db *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// OpenSQLite opens a SQLite lead store and creates the schema
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, apperrors.New(apperrors.TypeConfig, "sqlite path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := mkdirAll(dir); err != nil {
			return nil, err
		}
	}

	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, apperrors.Storage("open sqlite db", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, apperrors.Storage("ping sqlite db", err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return apperrors.Storage("apply schema", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Save(ctx context.Context, lead *Lead) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := prepare(lead); err != nil {
		return err
	}

	contact, err := json.Marshal(lead.Contact)
	if err != nil {
		return apperrors.Storage("marshal contact info", err)
	}
	estimate, err := json.Marshal(lead.Estimate)
	if err != nil {
		return apperrors.Storage("marshal estimate", err)
	}

	est := lead.Estimate
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO widget_leads (`+leadColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID,
		lead.WidgetKey,
		lead.WidgetID,
		string(contact),
		string(lead.Responses),
		string(estimate),
		est.BasePrice.StringFixed(2),
		est.Subtotal.StringFixed(2),
		est.TaxAmount.StringFixed(2),
		est.TotalPrice.StringFixed(2),
		est.Currency.String(),
		lead.Status,
		lead.SourceURL,
		lead.IPAddress,
		lead.UserAgent,
		toMillis(lead.CreatedAt),
	)
	if err != nil {
		return apperrors.Storage("insert lead", err).WithContext("id", lead.ID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*Lead, error) {
	var (
		lead                          Lead
		contact, responses, estimate  string
		basePrice, subtotal, tax, tot string
		currency                      string
		createdAt                     int64
	)
	err := row.Scan(
		&lead.ID,
		&lead.WidgetKey,
		&lead.WidgetID,
		&contact,
		&responses,
		&estimate,
		&basePrice,
		&subtotal,
		&tax,
		&tot,
		&currency,
		&lead.Status,
		&lead.SourceURL,
		&lead.IPAddress,
		&lead.UserAgent,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(contact), &lead.Contact); err != nil {
		return nil, fmt.Errorf("decode contact info: %w", err)
	}
	var result types.EstimateResult
	if err := json.Unmarshal([]byte(estimate), &result); err != nil {
		return nil, fmt.Errorf("decode estimate: %w", err)
	}
	lead.Estimate = &result
	lead.Responses = json.RawMessage(responses)
	lead.CreatedAt = fromMillis(createdAt)
	return &lead, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Lead, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM widget_leads WHERE id = ?`, id)
	lead, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, leadNotFound(id)
	}
	if err != nil {
		return nil, apperrors.Storage("get lead", err).WithContext("id", id)
	}
	return lead, nil
}

func (s *SQLiteStore) List(ctx context.Context, filter *ListFilter) ([]*Lead, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if filter != nil {
		if filter.WidgetKey != "" {
			where = append(where, "widget_key = ?")
			args = append(args, filter.WidgetKey)
		}
		if filter.Status != "" {
			where = append(where, "status = ?")
			args = append(args, filter.Status)
		}
		if !filter.Since.IsZero() {
			where = append(where, "created_at >= ?")
			args = append(args, toMillis(filter.Since))
		}
		if !filter.Until.IsZero() {
			where = append(where, "created_at <= ?")
			args = append(args, toMillis(filter.Until))
		}
	}

	query := `SELECT ` + leadColumns + ` FROM widget_leads`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id ASC"
	if filter != nil && (filter.Limit > 0 || filter.Offset > 0) {
		limit := filter.Limit
		if limit <= 0 {
			limit = -1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Storage("list leads", err)
	}
	defer rows.Close()

	leads := []*Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, apperrors.Storage("scan lead", err)
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage("list leads", err)
	}
	return leads, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM widget_leads WHERE id = ?`, id)
	if err != nil {
		return apperrors.Storage("delete lead", err).WithContext("id", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.Storage("delete lead", err)
	}
	if n == 0 {
		return leadNotFound(id)
	}
	return nil
}

// Close closes the SQLite handle
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
