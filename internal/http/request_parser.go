// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// JSON bodies read field by field, query filters and path ids.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"finwell/internal/core"

	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

const (
	msgRequired   = "This field is required."
	msgNull       = "This field may not be null."
	msgNotNumber  = "A valid number is required."
	msgNotInteger = "A valid integer is required."
	msgNotString  = "Not a valid string."
	msgDateFormat = "Date has wrong format. Use one of these formats instead: YYYY-MM-DD."
	msgPKType     = "Incorrect type. Expected pk value."
	msgMonthRange = "Ensure this value is between 1 and 12."
	msgYearRange  = "Ensure this value is between 1 and 9999."
)

var errMalformedBody = errors.New("malformed request body")

// RequestBodyParser reads a JSON object body once and hands out typed
// fields, collecting a field error for each one that is missing or invalid.
type RequestBodyParser struct {
	body   []byte
	fields map[string]json.RawMessage
	errs   core.ValidationErrors
	parsed bool
	err    error
}

// NewRequestBodyParser reads at most maxBodyBytes of r's body.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body. An empty body is an empty object.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		p.err = fmt.Errorf("%w: %v", errMalformedBody, p.err)
		return p.err
	}

	p.fields = make(map[string]json.RawMessage)
	if len(bytes.TrimSpace(p.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(p.body, &p.fields); err != nil {
		p.err = fmt.Errorf("%w: %v", errMalformedBody, err)
		return p.err
	}
	return nil
}

// Has reports whether key was supplied, even as null.
func (p *RequestBodyParser) Has(key string) bool {
	_, ok := p.fields[key]
	return ok
}

// raw returns the field bytes, recording a required or null error as needed.
func (p *RequestBodyParser) raw(key string, required bool) (json.RawMessage, bool) {
	v, ok := p.fields[key]
	if !ok {
		if required {
			p.errs.Add(key, core.ErrNotFound, msgRequired)
		}
		return nil, false
	}
	if string(bytes.TrimSpace(v)) == "null" {
		p.errs.Add(key, core.ErrNotFound, msgNull)
		return nil, false
	}
	return v, true
}

// String returns a trimmed string field with control characters removed.
func (p *RequestBodyParser) String(key string, required bool) (string, bool) {
	v, ok := p.raw(key, required)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		p.errs.Add(key, err, msgNotString)
		return "", false
	}
	return sanitizeInput(s), true
}

// Amount accepts a JSON number or a decimal string.
func (p *RequestBodyParser) Amount(key string, required bool) (decimal.Decimal, bool) {
	v, ok := p.raw(key, required)
	if !ok {
		return decimal.Zero, false
	}
	text := string(bytes.TrimSpace(v))
	if strings.HasPrefix(text, `"`) {
		if err := json.Unmarshal(v, &text); err != nil {
			p.errs.Add(key, core.ErrInvalidAmount, msgNotNumber)
			return decimal.Zero, false
		}
	}
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		p.errs.Add(key, core.ErrInvalidAmount, msgNotNumber)
		return decimal.Zero, false
	}
	if err := core.ValidateAmount(d); err != nil {
		p.errs.Add(key, err, core.AmountMessage(err))
		return decimal.Zero, false
	}
	return d, true
}

// ID reads a primary key given as a JSON integer or numeric string.
func (p *RequestBodyParser) ID(key string, required bool) (int64, bool) {
	v, ok := p.raw(key, required)
	if !ok {
		return 0, false
	}
	text := string(bytes.TrimSpace(v))
	if strings.HasPrefix(text, `"`) {
		if err := json.Unmarshal(v, &text); err != nil {
			p.errs.Add(key, core.ErrNotFound, msgPKType)
			return 0, false
		}
	}
	id, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || id <= 0 {
		p.errs.Add(key, core.ErrNotFound, msgPKType)
		return 0, false
	}
	return id, true
}

func (p *RequestBodyParser) Date(key string, required bool) (core.Date, bool) {
	s, ok := p.String(key, required)
	if !ok {
		return core.Date{}, false
	}
	d, err := core.ParseDate(s)
	if err != nil {
		p.errs.Add(key, err, msgDateFormat)
		return core.Date{}, false
	}
	return d, true
}

func (p *RequestBodyParser) Period(key string, required bool) (core.Period, bool) {
	s, ok := p.String(key, required)
	if !ok {
		return core.Period{}, false
	}
	period, err := core.ParsePeriod(s)
	if err != nil {
		p.errs.Add(key, err, core.PeriodMessage)
		return core.Period{}, false
	}
	return period, true
}

// Err returns the collected field errors, or nil.
func (p *RequestBodyParser) Err() error {
	return p.errs.Err()
}

// sanitizeInput removes control characters other than tab, newline and
// carriage return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// ParseTransactionFilter reads start_date, end_date, month, year and
// category_id. Unset parameters leave the filter open.
func ParseTransactionFilter(query url.Values) (core.TransactionFilter, error) {
	var (
		f    core.TransactionFilter
		errs core.ValidationErrors
	)

	parseDate := func(key string) core.Date {
		v := strings.TrimSpace(query.Get(key))
		if v == "" {
			return core.Date{}
		}
		d, err := core.ParseDate(v)
		if err != nil {
			errs.Add(key, err, msgDateFormat)
		}
		return d
	}
	parseInt := func(key string, lo, hi int, rangeMsg string) int {
		v := strings.TrimSpace(query.Get(key))
		if v == "" {
			return 0
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs.Add(key, err, msgNotInteger)
			return 0
		}
		if n < lo || n > hi {
			errs.Add(key, core.ErrInvalidPeriod, rangeMsg)
			return 0
		}
		return n
	}

	f.Start = parseDate("start_date")
	f.End = parseDate("end_date")
	f.Month = parseInt("month", 1, 12, msgMonthRange)
	f.Year = parseInt("year", 1, 9999, msgYearRange)

	if v := strings.TrimSpace(query.Get("category_id")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			errs.Add("category_id", core.ErrNotFound, msgPKType)
		} else {
			f.CategoryID = id
		}
	}

	if err := errs.Err(); err != nil {
		return core.TransactionFilter{}, err
	}
	return f, nil
}

// ParsePeriodQuery reads an optional ?period=YYYY-MM.
func ParsePeriodQuery(query url.Values) (*core.Period, error) {
	v := strings.TrimSpace(query.Get("period"))
	if v == "" {
		return nil, nil
	}
	p, err := core.ParsePeriod(v)
	if err != nil {
		return nil, core.FieldError("period", err, core.PeriodMessage)
	}
	return &p, nil
}

// pathID parses the {id} wildcard. Ids that are not positive integers can
// never match a row, so they are reported as not found.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.ErrNotFound
	}
	return id, nil
}
