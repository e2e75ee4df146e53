package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

// summaryView adds currency-formatted strings to a Summary.
type summaryView struct {
	core.Summary
	Display summaryDisplay `json:"display"`
}

type summaryDisplay struct {
	Income   string `json:"totalIncome"`
	Expenses string `json:"totalExpenses"`
	Balance  string `json:"balance"`
}

func (s *Server) summaryView(sum core.Summary) summaryView {
	return summaryView{
		Summary: sum,
		Display: summaryDisplay{
			Income:   s.format(sum.Income),
			Expenses: s.format(sum.Expenses),
			Balance:  s.format(sum.Balance),
		},
	}
}

func (s *Server) format(d decimal.Decimal) string {
	return core.FormatAmount(d, s.currency)
}

type transactionListResponse struct {
	Transactions []core.Transaction `json:"transactions"`
	Summary      summaryView        `json:"summary"`
	Degraded     bool               `json:"degraded,omitempty"`
	Currency     string             `json:"currency"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	c, err := parseCriteria(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	view, err := s.deps.Transactions.View(r.Context(), ownerFrom(r.Context()), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(transactionListResponse{
		Transactions: view.Transactions,
		Summary:      s.summaryView(view.Summary),
		Degraded:     view.Degraded,
		Currency:     s.currency,
	}).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := parseTransaction(p, s.today())
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.deps.Transactions.Create(r.Context(), ownerFrom(r.Context()), t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+created.ID).
		JSON(created).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := parseTransactionPatch(p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.deps.Transactions.Update(r.Context(), ownerFrom(r.Context()), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(updated).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Transactions.Delete(r.Context(), ownerFrom(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	NoContent().Write(w)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	var kind core.Kind
	if v := sanitizeInput(r.URL.Query().Get("kind")); v != "" {
		k, err := core.ParseKind(v)
		if err != nil {
			writeError(w, r, fieldErr("kind", err))
			return
		}
		kind = k
	}
	cats, err := s.deps.Transactions.Categories(r.Context(), ownerFrom(r.Context()), kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(map[string][]string{"categories": cats}).Write(w)
}

type dashboardResponse struct {
	services.Dashboard
	Totals   summaryView `json:"totals"`
	Currency string      `json:"currency"`
}

func (s *Server) dashboardResponse(d services.Dashboard) dashboardResponse {
	return dashboardResponse{Dashboard: d, Totals: s.summaryView(d.Totals), Currency: s.currency}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.deps.Transactions.Dashboard(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(s.dashboardResponse(d)).Write(w)
}

type reportResponse struct {
	services.Report
	Totals   summaryView `json:"totals"`
	Currency string      `json:"currency"`
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.deps.Transactions.Report(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(reportResponse{Report: rep, Totals: s.summaryView(rep.Totals), Currency: s.currency}).Write(w)
}

type overviewResponse struct {
	services.Overview
	Dashboard dashboardResponse `json:"dashboard"`
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := s.deps.Overview.Overview(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(overviewResponse{Overview: ov, Dashboard: s.dashboardResponse(ov.Dashboard)}).Write(w)
}
