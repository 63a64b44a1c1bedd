// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// JSON bodies, month query parameters, path identifiers and amounts.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"finpulse/internal/auth"
	"finpulse/internal/core"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 64 << 10

// requestError is a malformed request, answered with 400.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// decodeJSON reads exactly one JSON object into dst. Unknown fields are
// rejected so a typo in a field name does not silently drop a value.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return badRequest("request body larger than %d bytes", tooLarge.Limit)
		case errors.Is(err, io.EOF):
			return badRequest("request body is empty")
		default:
			return badRequest("invalid JSON body: %v", err)
		}
	}
	if dec.More() {
		return badRequest("request body must contain a single JSON object")
	}
	return nil
}

// amountText accepts a JSON string or number and keeps its text, so amounts
// never pass through float64.
type amountText string

func (a *amountText) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*a = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amountText(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*a = amountText(n)
	return nil
}

// parseAmount parses a signed non-zero amount for field.
func parseAmount(field string, v amountText) (decimal.Decimal, error) {
	d, err := core.ParseAmount(string(v))
	if err != nil {
		return decimal.Zero, core.Invalid(field, err)
	}
	return d, nil
}

// parsePositiveAmount parses a limit, target or contribution, which must be
// greater than zero.
func parsePositiveAmount(field string, v amountText) (decimal.Decimal, error) {
	d, err := core.ParsePositiveAmount(string(v))
	if err != nil {
		return decimal.Zero, core.Invalid(field, err)
	}
	return d, nil
}

// parseAmountOrZero is parseAmount that also accepts an empty or zero value.
func parseAmountOrZero(field string, v amountText) (decimal.Decimal, error) {
	s := strings.TrimSpace(string(v))
	if s == "" {
		return decimal.Zero, nil
	}
	if d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ".")); err == nil && d.IsZero() {
		return decimal.Zero, nil
	}
	return parseAmount(field, v)
}

// parseDate parses a required "YYYY-MM-DD" field.
func parseDate(field, s string) (core.Date, error) {
	if strings.TrimSpace(s) == "" {
		return core.Date{}, core.Invalid(field, core.ErrInvalidDate)
	}
	return parseDateOr(field, s, core.Date{})
}

// parseDateOr parses a "YYYY-MM-DD" field, returning def when it is empty.
func parseDateOr(field, s string, def core.Date) (core.Date, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, core.Invalid(field, err)
	}
	return d, nil
}

// parseOptionalUUID returns uuid.Nil for an empty value.
func parseOptionalUUID(field, s string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, badRequest("invalid %s %q", field, s)
	}
	return id, nil
}

// pathID reads the {id} URL parameter.
func pathID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, badRequest("invalid id %q", raw)
	}
	return id, nil
}

// ParseMonthParam reads ?month=YYYY-MM, defaulting to the month containing now.
func ParseMonthParam(r *http.Request, now time.Time) (core.Period, error) {
	return parseMonthOr(r.URL.Query().Get("month"), now)
}

func parseMonthOr(s string, now time.Time) (core.Period, error) {
	if strings.TrimSpace(s) == "" {
		return core.MonthPeriod(core.DateOf(now)), nil
	}
	p, err := core.ParseMonth(s)
	if err != nil {
		return core.Period{}, core.Invalid("month", err)
	}
	return p, nil
}

// userID returns the authenticated caller. Routes behind the auth middleware
// always have one.
func userID(r *http.Request) string {
	id, _ := auth.UserID(r.Context())
	return id
}
