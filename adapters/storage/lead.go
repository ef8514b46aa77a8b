// Package storage persists captured leads: the visitor's contact details,
// their raw responses and the estimate computed from them.
// Supports multiple backends: file, memory, SQLite.
package storage

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"widget-estimate/core/types"
	apperrors "widget-estimate/internal/errors"
)

// Backend is a storage backend type
type Backend string

const (
	BackendFile   Backend = "file"
	BackendMemory Backend = "memory"
	BackendSQLite Backend = "sqlite"
)

// StatusNew is the status of a freshly captured lead
const StatusNew = "new"

// Store is the storage interface
type Store interface {
	// Save stores a lead, assigning ID, status and timestamp when empty
	Save(ctx context.Context, lead *Lead) error

	// Get retrieves a lead by ID
	Get(ctx context.Context, id string) (*Lead, error)

	// List lists leads newest first
	List(ctx context.Context, filter *ListFilter) ([]*Lead, error)

	// Delete removes a lead
	Delete(ctx context.Context, id string) error

	// Close closes the store
	Close() error
}

// Lead is one submitted estimate request
type Lead struct {
	// ID is unique identifier
	ID string `json:"id"`

	// WidgetKey is the public key of the widget that captured the lead
	WidgetKey string `json:"widget_key"`

	// WidgetID is the configuration id, when the document carries one
	WidgetID string `json:"widget_id,omitempty"`

	// Contact holds the visitor's details
	Contact ContactInfo `json:"contact_info"`

	// Responses is the raw responses object as submitted
	Responses json.RawMessage `json:"form_responses"`

	// Estimate is the engine output for Responses
	Estimate *types.EstimateResult `json:"estimate"`

	// Status tracks follow-up, StatusNew on capture
	Status string `json:"status"`

	// SourceURL is the page embedding the widget
	SourceURL string `json:"source_url,omitempty"`

	// IPAddress of the submitter
	IPAddress string `json:"ip_address,omitempty"`

	// UserAgent of the submitter
	UserAgent string `json:"user_agent,omitempty"`

	// CreatedAt timestamp
	CreatedAt time.Time `json:"created_at"`
}

// ContactInfo is the visitor's contact details
type ContactInfo struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// DisplayName returns the contact name or "Unknown"
func (c ContactInfo) DisplayName() string {
	if strings.TrimSpace(c.Name) == "" {
		return "Unknown"
	}
	return c.Name
}

// TotalPrice returns the estimate total, zero without an estimate
func (l *Lead) TotalPrice() decimal.Decimal {
	if l.Estimate == nil {
		return decimal.Zero
	}
	return l.Estimate.TotalPrice
}

// HasValidEstimate reports whether the lead carries a priced breakdown
func (l *Lead) HasValidEstimate() bool {
	return l.Estimate != nil && len(l.Estimate.Breakdown) > 0 && l.Estimate.TotalPrice.IsPositive()
}

// ListFilter filters lead listing
type ListFilter struct {
	WidgetKey string
	Status    string
	Since     time.Time
	Until     time.Time
	Limit     int
	Offset    int
}

func (f *ListFilter) matches(l *Lead) bool {
	if f == nil {
		return true
	}
	if f.WidgetKey != "" && l.WidgetKey != f.WidgetKey {
		return false
	}
	if f.Status != "" && l.Status != f.Status {
		return false
	}
	if !f.Since.IsZero() && l.CreatedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && l.CreatedAt.After(f.Until) {
		return false
	}
	return true
}

func (f *ListFilter) page(leads []*Lead) []*Lead {
	if f == nil {
		return leads
	}
	if f.Offset > 0 {
		if f.Offset >= len(leads) {
			return []*Lead{}
		}
		leads = leads[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(leads) {
		leads = leads[:f.Limit]
	}
	return leads
}

// prepare validates a lead and fills ID, status, timestamp and responses
func prepare(lead *Lead) error {
	if lead == nil {
		return apperrors.InvalidRequest("lead is required")
	}
	if !safeSegment(lead.WidgetKey) {
		return apperrors.InvalidRequest("lead widget key is invalid")
	}
	if lead.Estimate == nil {
		return apperrors.InvalidRequest("lead estimate is required")
	}
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	} else if _, err := uuid.Parse(lead.ID); err != nil {
		return apperrors.InvalidRequest("lead id must be a UUID")
	}
	if lead.Status == "" {
		lead.Status = StatusNew
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now()
	}
	lead.CreatedAt = lead.CreatedAt.UTC().Truncate(time.Millisecond)
	if len(lead.Responses) == 0 {
		lead.Responses = json.RawMessage(`{}`)
	}
	return nil
}

// safeSegment reports whether s can be used as a single path element
func safeSegment(s string) bool {
	return s != "" && s != "." && s != ".." && filepath.Base(s) == s && !strings.ContainsAny(s, `/\`)
}

func leadNotFound(id string) error {
	return apperrors.NotFound("lead", id)
}

func newestFirst(a, b *Lead) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID < b.ID
}
