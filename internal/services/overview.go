package services

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Overview is everything the landing page needs in one response.
type Overview struct {
	Dashboard Dashboard  `json:"dashboard"`
	Loans     []LoanView `json:"loans"`
	Goals     []GoalView `json:"goals"`
}

// Overviewer loads the three owner views concurrently.
type Overviewer struct {
	transactions *TransactionService
	loans        *LoanService
	goals        *GoalService
}

func NewOverviewer(t *TransactionService, l *LoanService, g *GoalService) *Overviewer {
	return &Overviewer{transactions: t, loans: l, goals: g}
}

// Overview fails as a whole when any part fails.
func (o *Overviewer) Overview(ctx context.Context, ownerID string) (Overview, error) {
	var out Overview
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := o.transactions.Dashboard(ctx, ownerID)
		out.Dashboard = d
		return err
	})
	g.Go(func() error {
		l, err := o.loans.List(ctx, ownerID)
		out.Loans = l
		return err
	})
	g.Go(func() error {
		gs, err := o.goals.List(ctx, ownerID)
		out.Goals = gs
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return out, nil
}
