package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"spendtrack/internal/core"
	"spendtrack/internal/records"
	"spendtrack/internal/summary"
)

const maxBodyBytes = 64 << 10

// ReferenceMonth picks the month the dashboard is computed for. year and
// month query parameters override now; invalid values are ignored.
func ReferenceMonth(query url.Values, now time.Time) time.Time {
	year, month := now.Year(), now.Month()
	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil && y > 0 {
			year = y
		}
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			month = time.Month(m)
		}
	}
	if year == now.Year() && month == now.Month() {
		return now
	}
	return time.Date(year, month, 1, 12, 0, 0, 0, now.Location())
}

// ListFilter is the search box and category selector of the expense list.
type ListFilter struct {
	Query    string
	Category string
}

// ParseListFilter reads q and category. An absent category means every
// category. The search text is matched as typed, so it is not trimmed.
func ParseListFilter(query url.Values) ListFilter {
	f := ListFilter{
		Query:    stripControl(query.Get("q")),
		Category: sanitizeInput(query.Get("category")),
	}
	if f.Category == "" {
		f.Category = summary.AllCategories
	}
	return f
}

// RequestBodyParser reads a JSON or form-encoded body once.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{contentType: r.Header.Get("Content-Type")}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body as JSON when it looks like JSON, otherwise as form
// values.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	body := strings.TrimSpace(string(p.body))
	if body == "" {
		p.formData = url.Values{}
		return nil
	}
	if body[0] == '{' || strings.Contains(p.contentType, "application/json") {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.jsonData = nil
			p.err = err
		}
		return p.err
	}
	p.formData, p.err = url.ParseQuery(body)
	return p.err
}

// Get returns a trimmed, sanitized value from the parsed body.
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

// ParseExpenseFields builds the editable fields from a parsed body. A blank
// date means today; a blank amount means zero.
func ParseExpenseFields(p *RequestBodyParser, today core.Date) (records.Fields, error) {
	f := records.Fields{
		Title:       p.Get("title"),
		Category:    p.Get("category"),
		Description: p.Get("description"),
		Date:        today,
	}

	if raw := p.Get("amount"); raw != "" {
		cents, err := core.ParseDecimalToCents(raw)
		if err != nil {
			return records.Fields{}, fmt.Errorf("%w: %q", core.ErrInvalidAmount, raw)
		}
		f.Amount = core.Money{Cents: cents}
	}

	if raw := p.Get("date"); raw != "" {
		d, err := core.ParseDate(raw)
		if err != nil {
			return records.Fields{}, fmt.Errorf("%w: %q", core.ErrInvalidDate, raw)
		}
		f.Date = d
	}
	return f, nil
}
