package http

import (
	"net/http"

	"fintrack/internal/loan"
)

type simpleInterestResponse struct {
	loan.SimpleInterestResult
	Display map[string]string `json:"display"`
}

func (s *Server) handleSimpleInterest(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}
	_, rate, _ := p.First("rate", "interestRate")
	_, term, _ := p.First("termYears", "term")
	in, err := loan.ParseSimpleInterest(p.Get("principal"), rate, p.Get("ratePeriod"), term)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := loan.ComputeSimpleInterest(in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(simpleInterestResponse{
		SimpleInterestResult: res,
		Display: map[string]string{
			"interest":       s.format(res.Interest),
			"totalPayable":   s.format(res.TotalPayable),
			"monthlyPayment": s.format(res.MonthlyPayment),
		},
	}).Write(w)
}

type compoundInterestResponse struct {
	loan.CompoundInterestResult
	Display map[string]string `json:"display"`
}

func (s *Server) handleCompoundInterest(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}
	_, rate, _ := p.First("rate", "interestRate")
	_, term, _ := p.First("termYears", "term")
	_, freq, _ := p.First("compoundingFrequency", "frequency")
	in, err := loan.ParseCompoundInterest(p.Get("principal"), rate, p.Get("ratePeriod"), term, freq)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := loan.ComputeCompoundInterest(in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(compoundInterestResponse{
		CompoundInterestResult: res,
		Display: map[string]string{
			"compoundInterest": s.format(res.CompoundInterest),
			"totalAmount":      s.format(res.TotalAmount),
		},
	}).Write(w)
}

func (s *Server) handleListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := s.deps.Loans.List(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(map[string]any{"loans": loans, "currency": s.currency}).Write(w)
}

func (s *Server) handleCreateLoan(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}
	l, err := parseLoan(p, s.today())
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.deps.Loans.Create(r.Context(), ownerFrom(r.Context()), l)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).
		Header("Location", "/api/loans/"+created.ID).
		JSON(created).Write(w)
}

func (s *Server) handleDeleteLoan(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Loans.Delete(r.Context(), ownerFrom(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	NoContent().Write(w)
}

func (s *Server) handleLoanPayment(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := parseAmountField(p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.deps.Loans.RecordPayment(r.Context(), ownerFrom(r.Context()), r.PathValue("id"), amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(updated).Write(w)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.deps.Goals.List(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(map[string]any{"goals": goals, "currency": s.currency}).Write(w)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}
	g, err := parseGoal(p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.deps.Goals.Create(r.Context(), ownerFrom(r.Context()), g)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).
		Header("Location", "/api/goals/"+created.ID).
		JSON(created).Write(w)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Goals.Delete(r.Context(), ownerFrom(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	NoContent().Write(w)
}

func (s *Server) handleGoalFunds(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := parseAmountField(p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.deps.Goals.AddFunds(r.Context(), ownerFrom(r.Context()), r.PathValue("id"), amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(updated).Write(w)
}
