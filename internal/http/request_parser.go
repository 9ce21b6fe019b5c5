// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// month query parameters and expense bodies sent as JSON or form data.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pocketwatcher/internal/core"
	"pocketwatcher/internal/services"
)

const maxBodyBytes = 1 << 20

var (
	errMissingFields = errors.New("missing required fields")
	errInvalidBody   = errors.New("invalid request body")
	errBodyTooLarge  = errors.New("request body too large")
)

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month time.Month
}

// ParseMonthParams reads year and month from the query, defaulting each to
// the month containing now. Present but malformed values are errors.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	params := MonthParams{Year: now.Year(), Month: now.Month()}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			return MonthParams{}, core.InvalidArgument("year must be between 1 and 9999")
		}
		params.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || !core.ValidMonth(time.Month(m)) {
			return MonthParams{}, core.InvalidArgument("month must be between 1 and 12")
		}
		params.Month = time.Month(m)
	}
	return params, nil
}

// ParseMonthCount reads a positive month count from key, returning def when
// the parameter is absent.
func ParseMonthCount(query url.Values, key string, def, max int) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > max {
		return 0, core.InvalidArgument("%s must be between 1 and %d", key, max)
	}
	return n, nil
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON objects and form-encoded data.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser reads at most maxBodyBytes of the request body.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	var tooLarge *http.MaxBytesError
	if errors.As(p.err, &tooLarge) {
		p.err = errBodyTooLarge
	}
	return p
}

// Parse decodes the body as a JSON object when it looks like one and as
// form data otherwise.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' {
		if err := json.Unmarshal([]byte(trimmed), &p.jsonData); err != nil {
			p.err = errInvalidBody
		}
		return p.err
	}
	if trimmed[0] == '[' {
		p.err = errInvalidBody
		return p.err
	}

	p.formData, p.err = url.ParseQuery(trimmed)
	if p.err != nil {
		p.err = errInvalidBody
	}
	return p.err
}

// Has reports whether key was sent with a non-null value.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		v, ok := p.jsonData[key]
		return ok && v != nil
	}
	if p.formData != nil {
		_, ok := p.formData[key]
		return ok
	}
	return false
}

// Get returns a sanitized string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput removes control characters except tab and newlines, then
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// ParseNewExpense reads a create request. Description, category and amount
// are required; a missing date means today.
func ParseNewExpense(p *RequestBodyParser) (core.Expense, error) {
	if err := p.Parse(); err != nil {
		return core.Expense{}, err
	}

	description := p.Get("description")
	category := p.Get("category")
	amountStr := p.Get("amount")
	if description == "" || category == "" || amountStr == "" {
		return core.Expense{}, errMissingFields
	}

	amount, err := core.ParseAmount(amountStr)
	if err != nil {
		return core.Expense{}, err
	}
	e := core.Expense{
		Description: description,
		Category:    category,
		Amount:      amount.Float64(),
		Notes:       p.Get("notes"),
	}
	if v := p.Get("date"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Expense{}, err
		}
		e.Date = d
	}
	return e, nil
}

// ParseExpensePatch reads an update request. Only fields present in the body
// are changed; an empty notes value clears the notes.
func ParseExpensePatch(p *RequestBodyParser) (services.ExpensePatch, error) {
	var patch services.ExpensePatch
	if err := p.Parse(); err != nil {
		return patch, err
	}

	if p.Has("description") {
		v := p.Get("description")
		patch.Description = &v
	}
	if p.Has("category") {
		v := p.Get("category")
		patch.Category = &v
	}
	if p.Has("amount") {
		m, err := core.ParseAmount(p.Get("amount"))
		if err != nil {
			return patch, err
		}
		v := m.Float64()
		patch.Amount = &v
	}
	if v := p.Get("date"); p.Has("date") && v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return patch, err
		}
		patch.Date = &d
	}
	if p.Has("notes") {
		v := p.Get("notes")
		patch.Notes = &v
	}

	if patch == (services.ExpensePatch{}) {
		return patch, fmt.Errorf("%w: no fields to update", core.ErrInvalidArgument)
	}
	return patch, nil
}
