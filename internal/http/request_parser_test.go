package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/query"
)

func newParser(t *testing.T, contentType, body string) *RequestBodyParser {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return p
}

func TestRequestBodyParser(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		key         string
		want        string
		wantJSON    bool
	}{
		{"json string", "application/json", `{"category":" Food "}`, "category", "Food", true},
		{"json number keeps digits", "application/json", `{"amount":0.10}`, "amount", "0.10", true},
		{"json without content type", "", `{"kind":"expense"}`, "kind", "expense", true},
		{"form", "application/x-www-form-urlencoded", "kind=income&amount=5", "amount", "5", false},
		{"control characters removed", "", "description=a%00b", "description", "ab", false},
		{"missing key", "", `{"a":"b"}`, "c", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newParser(t, tt.contentType, tt.body)
			if got := p.Get(tt.key); got != tt.want {
				t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.want)
			}
			if p.IsJSON() != tt.wantJSON {
				t.Errorf("IsJSON() = %v, want %v", p.IsJSON(), tt.wantJSON)
			}
		})
	}
}

func TestRequestBodyParser_Malformed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"broken"`))
	req.Header.Set("Content-Type", "application/json")
	p := NewRequestBodyParser(req)
	if err := p.Parse(); !errors.Is(err, errMalformedBody) {
		t.Fatalf("expected errMalformedBody, got %v", err)
	}
	if err := p.Parse(); !errors.Is(err, errMalformedBody) {
		t.Fatal("second Parse should return the same error")
	}
}

func TestRequestBodyParser_Has(t *testing.T) {
	p := newParser(t, "", `{"description":""}`)
	if !p.Has("description") || p.Has("category") {
		t.Fatal("Has should distinguish sent-but-empty from absent")
	}
	key, _, ok := p.First("date", "description")
	if !ok || key != "description" {
		t.Fatalf("First = %q, %v", key, ok)
	}
}

func TestParseCriteria(t *testing.T) {
	c, err := parseCriteria(url.Values{
		"search": {"rent"}, "kind": {"expense"}, "from": {"2026-01-01"},
		"to": {"2026-01-31"}, "sort": {"amount"}, "dir": {"desc"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if c.SearchText != "rent" || c.Kind != core.Expense || c.SortKey != query.SortByAmount || c.Direction != query.Descending {
		t.Fatalf("unexpected criteria: %+v", c)
	}
	if c.From.String() != "2026-01-01" || c.To.String() != "2026-01-31" {
		t.Fatalf("unexpected range: %v..%v", c.From, c.To)
	}

	bad := []struct {
		values url.Values
		field  string
	}{
		{url.Values{"kind": {"loan"}}, "kind"},
		{url.Values{"from": {"01/02/2026"}}, "from"},
		{url.Values{"to": {"2026-02-30"}}, "to"},
		{url.Values{"sort": {"colour"}}, "sort"},
		{url.Values{"dir": {"up"}}, "dir"},
	}
	for _, b := range bad {
		_, err := parseCriteria(b.values)
		if got := validationField(err); got != b.field {
			t.Errorf("%v: field = %q, want %q (err %v)", b.values, got, b.field, err)
		}
	}
}

func TestParseTransactionDefaultsDateToToday(t *testing.T) {
	today := core.NewDate(2026, time.April, 2)
	p := newParser(t, "", "kind=expense&category=Food&amount=1,250.5")
	tx, err := parseTransaction(p, today)
	if err != nil {
		t.Fatal(err)
	}
	if tx.OccurredOn.Compare(today) != 0 || tx.Amount.String() != "1250.5" {
		t.Fatalf("unexpected transaction: %+v", tx)
	}

	p = newParser(t, "", `{"kind":"expense","amount":"-3"}`)
	if _, err := parseTransaction(p, today); validationField(err) != "amount" {
		t.Fatalf("expected amount error, got %v", err)
	}
	p = newParser(t, "", `{"kind":"expense","amount":"3","occurredOn":"soon"}`)
	if _, err := parseTransaction(p, today); validationField(err) != "occurredOn" {
		t.Fatalf("expected occurredOn error, got %v", err)
	}
}

func TestParseTransactionPatchOnlySetsPresentFields(t *testing.T) {
	p := newParser(t, "", `{"amount":"7","description":""}`)
	patch, err := parseTransactionPatch(p)
	if err != nil {
		t.Fatal(err)
	}
	if patch.Amount == nil || patch.Description == nil || *patch.Description != "" {
		t.Fatalf("unexpected patch: %+v", patch)
	}
	if patch.Kind != nil || patch.Category != nil || patch.OccurredOn != nil {
		t.Fatalf("absent fields must stay nil: %+v", patch)
	}
}

func TestParseLoanAndGoal(t *testing.T) {
	today := core.NewDate(2026, time.April, 2)
	p := newParser(t, "", `{"name":"Car","principal":"5000","rate":"1.5","ratePeriod":"monthly","term":"2"}`)
	l, err := parseLoan(p, today)
	if err != nil {
		t.Fatal(err)
	}
	if l.RatePeriod != core.PerMonth || l.StartDate.Compare(today) != 0 || l.TermYears.String() != "2" {
		t.Fatalf("unexpected loan: %+v", l)
	}

	p = newParser(t, "", `{"name":"Car","principal":"0","rate":"1","termYears":"2"}`)
	if _, err := parseLoan(p, today); validationField(err) != "principal" {
		t.Fatalf("expected principal error, got %v", err)
	}

	p = newParser(t, "", `{"name":"Trip","target":"abc"}`)
	if _, err := parseGoal(p); !errors.Is(err, core.ErrInvalidTarget) || validationField(err) != "target" {
		t.Fatalf("expected target error, got %v", err)
	}
}
