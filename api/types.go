// Package api - API types for the public widget endpoints.
// These types define the contract for the estimate and lead endpoints.
package api

import (
	"encoding/json"

	"widget-estimate/adapters/storage"
	"widget-estimate/core/output"
	"widget-estimate/core/types"
)

// EstimateRequest is the input to POST /api/widget/{widgetKey}/estimate
type EstimateRequest struct {
	// Responses maps step id to the visitor's response for that step
	Responses json.RawMessage `json:"responses"`
}

// LeadRequest is the input to POST /api/widget/{widgetKey}/leads
type LeadRequest struct {
	Responses json.RawMessage     `json:"responses"`
	Contact   storage.ContactInfo `json:"contact_info"`
	SourceURL string              `json:"source_url,omitempty"`
}

// EstimateResponse is the output of the estimate endpoint
type EstimateResponse struct {
	WidgetID   string                `json:"widget_id,omitempty"`
	WidgetName string                `json:"widget_name,omitempty"`
	TotalPrice json.Number           `json:"total_price"`
	BasePrice  json.Number           `json:"base_price"`
	Subtotal   json.Number           `json:"subtotal"`
	TaxAmount  json.Number           `json:"tax_amount"`
	Breakdown  []types.BreakdownLine `json:"breakdown"`
	Responses  json.RawMessage       `json:"responses"`
	Currency   types.Currency        `json:"currency"`
	Metadata   output.Metadata       `json:"metadata"`
}

// LeadResponse is the output of the lead endpoints
type LeadResponse struct {
	Lead *storage.Lead `json:"lead"`
}

// LeadListResponse is the output of GET /api/leads
type LeadListResponse struct {
	Leads []*storage.Lead `json:"leads"`
	Count int             `json:"count"`
}

// ErrorResponse is the error envelope
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody describes one failure
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newEstimateResponse(report *output.Report, responses json.RawMessage) *EstimateResponse {
	result := report.Result
	breakdown := result.Breakdown
	if breakdown == nil {
		breakdown = []types.BreakdownLine{}
	}
	return &EstimateResponse{
		WidgetID:   report.WidgetID,
		WidgetName: report.WidgetName,
		TotalPrice: types.Cents(result.TotalPrice),
		BasePrice:  json.Number(result.BasePrice.String()),
		Subtotal:   types.Cents(result.Subtotal),
		TaxAmount:  types.Cents(result.TaxAmount),
		Breakdown:  breakdown,
		Responses:  responses,
		Currency:   result.Currency,
		Metadata:   report.Metadata,
	}
}
