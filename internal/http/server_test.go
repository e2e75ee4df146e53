package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/query"
	"fintrack/internal/services"
	"fintrack/internal/storage/memory"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func newTestServer(t *testing.T, cfg Config, ready Pinger) *Server {
	t.Helper()
	store := memory.New()
	tx := services.NewTransactionService(store, query.NewEngine(log.Nop()), nil,
		cache.NewLRUCache[[]core.Transaction](10, time.Minute), log.Nop())
	loans := services.NewLoanService(store, log.Nop())
	goals := services.NewGoalService(store, log.Nop())
	srv := NewServer(cfg, Deps{
		Transactions: tx,
		Loans:        loans,
		Goals:        goals,
		Overview:     services.NewOverviewer(tx, loans, goals),
		Ready:        ready,
	}, log.Nop())
	srv.today = func() core.Date { return core.NewDate(2026, time.March, 10) }
	t.Cleanup(func() { srv.rateLimiter.stop() })
	return srv
}

func do(t *testing.T, srv *Server, method, path, owner, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if owner != "" {
		req.Header.Set(DefaultOwnerHeader, owner)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, Config{}, pinger{})
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
		assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	}

	down := newTestServer(t, Config{}, pinger{err: errors.New("disk full")})
	rr := do(t, down, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestOwnerHeaderRequired(t *testing.T) {
	srv := newTestServer(t, Config{OwnerHeader: "X-Owner"}, nil)
	rr := do(t, srv, http.MethodGet, "/api/transactions", "", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	req.Header.Set("X-Owner", "alice")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTransactionFlow(t *testing.T) {
	srv := newTestServer(t, Config{Currency: "usd"}, nil)

	rr := do(t, srv, http.MethodPost, "/api/transactions", "alice",
		`{"kind":"expense","category":"Food","amount":"12.50","date":"2026-03-02"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode(t, rr)
	id := created["id"].(string)
	assert.Equal(t, "/api/transactions/"+id, rr.Header().Get("Location"))
	assert.Equal(t, "2026-03-02", created["occurredOn"])

	rr = do(t, srv, http.MethodPost, "/api/transactions", "alice",
		`{"kind":"income","category":"Salary","amount":"1000"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = do(t, srv, http.MethodGet, "/api/transactions?kind=expense&sort=amount&dir=desc", "alice", "")
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode(t, rr)
	assert.Len(t, list["transactions"], 1)
	summary := list["summary"].(map[string]any)
	assert.Equal(t, "$12.50", summary["display"].(map[string]any)["totalExpenses"])
	assert.Equal(t, "USD", list["currency"])

	rr = do(t, srv, http.MethodGet, "/api/transactions", "bob", "")
	assert.Empty(t, decode(t, rr)["transactions"], "owners never see each other's data")

	rr = do(t, srv, http.MethodPatch, "/api/transactions/"+id, "alice", `{"amount":"20"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "20", decode(t, rr)["amount"])

	rr = do(t, srv, http.MethodPatch, "/api/transactions/"+id, "alice", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = do(t, srv, http.MethodDelete, "/api/transactions/"+id, "bob", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = do(t, srv, http.MethodDelete, "/api/transactions/"+id, "alice", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestValidationErrorsNameTheField(t *testing.T) {
	srv := newTestServer(t, Config{}, nil)
	tests := []struct {
		name, body, field string
	}{
		{"bad kind", `{"kind":"gift","category":"x","amount":"1"}`, "kind"},
		{"bad amount", `{"kind":"expense","category":"x","amount":"0"}`, "amount"},
		{"empty category", `{"kind":"expense","category":"  ","amount":"1"}`, "category"},
		{"long description", `{"kind":"expense","category":"x","amount":"1","description":"` + strings.Repeat("d", 101) + `"}`, "description"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, "/api/transactions", "alice", tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())
			assert.Equal(t, tt.field, decode(t, rr)["field"])
		})
	}

	rr := do(t, srv, http.MethodPost, "/api/transactions", "alice", `{"kind":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, srv, http.MethodGet, "/api/transactions?sort=colour", "alice", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "sort", decode(t, rr)["field"])
}

func TestDashboardReportAndCategories(t *testing.T) {
	srv := newTestServer(t, Config{}, nil)
	for _, body := range []string{
		`{"kind":"expense","category":"Pets","amount":"30","date":"2026-03-01"}`,
		`{"kind":"income","category":"Salary","amount":"100","date":"2026-02-01"}`,
	} {
		require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/transactions", "alice", body).Code)
	}

	rr := do(t, srv, http.MethodGet, "/api/dashboard", "alice", "")
	require.Equal(t, http.StatusOK, rr.Code)
	dash := decode(t, rr)
	assert.NotEmpty(t, dash["month"])
	assert.Len(t, dash["monthly"], 2)
	assert.Contains(t, dash["totals"], "display")

	rr = do(t, srv, http.MethodGet, "/api/reports", "alice", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "70", decode(t, rr)["totals"].(map[string]any)["balance"])

	rr = do(t, srv, http.MethodGet, "/api/categories?kind=expense", "alice", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, decode(t, rr)["categories"], "Pets")

	rr = do(t, srv, http.MethodGet, "/api/overview", "alice", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, decode(t, rr), "dashboard")
}

func TestLoanAndGoalEndpoints(t *testing.T) {
	srv := newTestServer(t, Config{}, nil)

	rr := do(t, srv, http.MethodPost, "/api/loans", "alice",
		`{"name":"Car","principal":"1000","interestRate":"10","termYears":"1","startDate":"2026-01-01"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	loanID := decode(t, rr)["id"].(string)

	rr = do(t, srv, http.MethodPost, "/api/loans/"+loanID+"/payments", "alice", `{"amount":"250"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	repayment := decode(t, rr)["repayment"].(map[string]any)
	assert.Equal(t, "25", repayment["progressPercent"])
	assert.Equal(t, "750", repayment["remainingBalance"])

	rr = do(t, srv, http.MethodPost, "/api/loans/"+loanID+"/payments", "alice", `{"amount":"-1"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	rr = do(t, srv, http.MethodPost, "/api/loans/missing/payments", "alice", `{"amount":"1"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, srv, http.MethodPost, "/api/loans", "alice", `{"name":"Car","principal":"1000","interestRate":"10","termYears":"1","ratePeriod":"weekly"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "ratePeriod", decode(t, rr)["field"])

	rr = do(t, srv, http.MethodPost, "/api/goals", "alice", `{"name":"Trip","targetAmount":"400"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	goalID := decode(t, rr)["id"].(string)

	rr = do(t, srv, http.MethodPost, "/api/goals/"+goalID+"/funds", "alice", `{"amount":"100"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "25", decode(t, rr)["progressPercent"])

	rr = do(t, srv, http.MethodGet, "/api/goals", "alice", "")
	assert.Len(t, decode(t, rr)["goals"], 1)

	assert.Equal(t, http.StatusNoContent, do(t, srv, http.MethodDelete, "/api/goals/"+goalID, "alice", "").Code)
	assert.Equal(t, http.StatusNoContent, do(t, srv, http.MethodDelete, "/api/loans/"+loanID, "alice", "").Code)
	rr = do(t, srv, http.MethodGet, "/api/loans", "alice", "")
	assert.Empty(t, decode(t, rr)["loans"])
}

func TestCalculatorEndpoints(t *testing.T) {
	srv := newTestServer(t, Config{}, nil)

	rr := do(t, srv, http.MethodPost, "/api/calculators/simple", "",
		`{"principal":"10000","rate":"10","ratePeriod":"per_year","termYears":"2"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decode(t, rr)
	assert.Equal(t, "2000", body["interest"])
	assert.Equal(t, "12000", body["totalPayable"])
	assert.Equal(t, "500", body["monthlyPayment"])

	rr = do(t, srv, http.MethodPost, "/api/calculators/simple", "",
		`{"principal":"","rate":"10","termYears":"2"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "principal", decode(t, rr)["field"])

	rr = do(t, srv, http.MethodPost, "/api/calculators/compound", "",
		`{"principal":"1000","rate":"10","termYears":"1","compoundingFrequency":"3"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "compoundingFrequency", decode(t, rr)["field"])

	rr = do(t, srv, http.MethodPost, "/api/calculators/compound", "",
		`{"principal":"1000","rate":"10","termYears":"1","compoundingFrequency":"1"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "100", decode(t, rr)["compoundInterest"])
}

func TestRateLimitAppliesToMutatingRequests(t *testing.T) {
	srv := newTestServer(t, Config{RateLimitPerMinute: 2}, nil)
	body := `{"kind":"expense","category":"Food","amount":"1"}`
	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/transactions", "alice", body).Code)
	}
	rr := do(t, srv, http.MethodPost, "/api/transactions", "alice", body)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/transactions", "alice", "").Code,
		"reads are not limited")

	rr = do(t, srv, http.MethodGet, "/api/security", "", "")
	assert.EqualValues(t, 1, decode(t, rr)["rateLimitHits"])
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, Config{}, nil)
	rr := do(t, srv, http.MethodPut, "/api/transactions", "alice", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
