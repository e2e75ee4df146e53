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

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/query"
)

const maxBodyBytes = 64 << 10

var errMalformedBody = errors.New("malformed request body")

// fieldError ties a parse failure to the request field that caused it.
type fieldError struct {
	Field string
	Err   error
}

func (e *fieldError) Error() string { return e.Err.Error() }
func (e *fieldError) Unwrap() error { return e.Err }

func fieldErr(field string, err error) error {
	return &fieldError{Field: field, Err: err}
}

// RequestBodyParser reads a JSON object or a form-encoded body once and
// exposes its fields as strings.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads up to 64KiB of the request body.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{contentType: r.Header.Get("Content-Type")}
	if r.Body != nil {
		p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
		if p.err == nil && len(p.body) > maxBodyBytes {
			p.err = fmt.Errorf("%w: body too large", errMalformedBody)
		}
	}
	return p
}

// Parse decodes the body. JSON is detected by content type or a leading
// brace; anything else is treated as a form.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if strings.HasPrefix(p.contentType, "application/json") || trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		p.jsonData = make(map[string]any)
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = fmt.Errorf("%w: %v", errMalformedBody, err)
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(trimmed))
	if p.err != nil {
		p.err = fmt.Errorf("%w: %v", errMalformedBody, p.err)
	}
	return p.err
}

// Get returns the sanitized value of key, or "" when absent.
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

// Has reports whether key was sent at all, even with an empty value.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	if p.formData != nil {
		_, ok := p.formData[key]
		return ok
	}
	return false
}

// First returns the value of the first key present, for fields accepted
// under more than one name.
func (p *RequestBodyParser) First(keys ...string) (key, value string, ok bool) {
	for _, k := range keys {
		if p.Has(k) {
			return k, p.Get(k), true
		}
	}
	return keys[0], "", false
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// parseCriteria reads the list query string. Unknown parameters are ignored.
func parseCriteria(q url.Values) (query.Criteria, error) {
	c := query.Criteria{
		SearchText: sanitizeInput(q.Get("search")),
		Category:   sanitizeInput(q.Get("category")),
	}
	if v := sanitizeInput(q.Get("kind")); v != "" {
		k, err := core.ParseKind(v)
		if err != nil {
			return c, fieldErr("kind", err)
		}
		c.Kind = k
	}
	for _, f := range []struct {
		name string
		dst  *core.Date
	}{{"from", &c.From}, {"to", &c.To}} {
		if v := sanitizeInput(q.Get(f.name)); v != "" {
			d, err := core.ParseDate(v)
			if err != nil {
				return c, fieldErr(f.name, err)
			}
			*f.dst = d
		}
	}
	if v := sanitizeInput(q.Get("sort")); v != "" {
		k, err := query.ParseSortKey(v)
		if err != nil {
			return c, fieldErr("sort", err)
		}
		c.SortKey = k
	}
	if v := sanitizeInput(q.Get("dir")); v != "" {
		d, err := query.ParseDirection(v)
		if err != nil {
			return c, fieldErr("dir", err)
		}
		c.Direction = d
	}
	return c, nil
}

// parseTransaction reads a new transaction. A missing date means today.
func parseTransaction(p *RequestBodyParser, today core.Date) (core.Transaction, error) {
	kind, err := core.ParseKind(p.Get("kind"))
	if err != nil {
		return core.Transaction{}, fieldErr("kind", err)
	}
	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return core.Transaction{}, fieldErr("amount", err)
	}
	day := today
	if field, v, _ := p.First("date", "occurredOn"); v != "" {
		if day, err = core.ParseDate(v); err != nil {
			return core.Transaction{}, fieldErr(field, err)
		}
	}
	return core.Transaction{
		Kind:        kind,
		Category:    p.Get("category"),
		Amount:      amount,
		OccurredOn:  day,
		Description: p.Get("description"),
	}, nil
}

// parseTransactionPatch reads only the fields present in the body.
func parseTransactionPatch(p *RequestBodyParser) (core.TransactionPatch, error) {
	var patch core.TransactionPatch
	if p.Has("kind") {
		k, err := core.ParseKind(p.Get("kind"))
		if err != nil {
			return patch, fieldErr("kind", err)
		}
		patch.Kind = &k
	}
	if p.Has("category") {
		c := p.Get("category")
		patch.Category = &c
	}
	if p.Has("amount") {
		a, err := core.ParseAmount(p.Get("amount"))
		if err != nil {
			return patch, fieldErr("amount", err)
		}
		patch.Amount = &a
	}
	if field, v, ok := p.First("date", "occurredOn"); ok {
		d, err := core.ParseDate(v)
		if err != nil {
			return patch, fieldErr(field, err)
		}
		patch.OccurredOn = &d
	}
	if p.Has("description") {
		d := p.Get("description")
		patch.Description = &d
	}
	return patch, nil
}

func parseLoan(p *RequestBodyParser, today core.Date) (core.Loan, error) {
	principal, err := parsePositiveDecimal(p.Get("principal"), core.ErrInvalidPrincipal)
	if err != nil {
		return core.Loan{}, fieldErr("principal", err)
	}
	rateField, rateValue, _ := p.First("interestRate", "rate")
	rate, err := parsePositiveDecimal(rateValue, core.ErrInvalidRate)
	if err != nil {
		return core.Loan{}, fieldErr(rateField, err)
	}
	period := core.PerYear
	if v := p.Get("ratePeriod"); v != "" {
		if period, err = core.ParseRatePeriod(v); err != nil {
			return core.Loan{}, fieldErr("ratePeriod", err)
		}
	}
	termField, termValue, _ := p.First("termYears", "term")
	term, err := parsePositiveDecimal(termValue, core.ErrInvalidTerm)
	if err != nil {
		return core.Loan{}, fieldErr(termField, err)
	}
	start := today
	if v := p.Get("startDate"); v != "" {
		if start, err = core.ParseDate(v); err != nil {
			return core.Loan{}, fieldErr("startDate", err)
		}
	}
	return core.Loan{
		Name:         p.Get("name"),
		Lender:       p.Get("lender"),
		Principal:    principal,
		InterestRate: rate,
		RatePeriod:   period,
		TermYears:    term,
		StartDate:    start,
	}, nil
}

func parseGoal(p *RequestBodyParser) (core.Goal, error) {
	field, v, _ := p.First("targetAmount", "target")
	target, err := core.ParseAmount(v)
	if err != nil {
		return core.Goal{}, fieldErr(field, core.ErrInvalidTarget)
	}
	var deadline core.Date
	if v := p.Get("deadline"); v != "" {
		if deadline, err = core.ParseDate(v); err != nil {
			return core.Goal{}, fieldErr("deadline", err)
		}
	}
	return core.Goal{Name: p.Get("name"), Target: target, Deadline: deadline}, nil
}

func parseAmountField(p *RequestBodyParser) (decimal.Decimal, error) {
	a, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return decimal.Decimal{}, fieldErr("amount", err)
	}
	return a, nil
}

func parsePositiveDecimal(s string, sentinel error) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if err != nil || !d.IsPositive() {
		return decimal.Decimal{}, sentinel
	}
	return d, nil
}
