package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// GoalView is a stored goal with its progress, capped at 100.
type GoalView struct {
	core.Goal
	ProgressPercent decimal.Decimal `json:"progressPercent"`
}

func newGoalView(g core.Goal) GoalView {
	return GoalView{Goal: g, ProgressPercent: g.ProgressPercent()}
}

type GoalService struct {
	store  storage.GoalStore
	logger *log.Logger
	newID  func() string
}

func NewGoalService(store storage.GoalStore, logger *log.Logger) *GoalService {
	if logger == nil {
		logger = log.Default()
	}
	return &GoalService{
		store:  store,
		logger: logger.WithComponent(log.ComponentGoal),
		newID:  uuid.NewString,
	}
}

func (s *GoalService) Create(ctx context.Context, ownerID string, g core.Goal) (GoalView, error) {
	g.ID = s.newID()
	g.OwnerID = ownerID
	g.Name = strings.TrimSpace(g.Name)
	g.Current = decimal.Zero
	if err := g.Validate(); err != nil {
		return GoalView{}, invalidInput(err)
	}
	if err := s.store.CreateGoal(ctx, g); err != nil {
		return GoalView{}, fmt.Errorf("save goal: %w", err)
	}
	s.logger.InfoContext(ctx, "Goal created",
		log.FieldOperation, log.OpCreate,
		log.FieldOwnerID, ownerID,
		log.FieldGoalID, g.ID)
	return newGoalView(g), nil
}

func (s *GoalService) List(ctx context.Context, ownerID string) ([]GoalView, error) {
	goals, err := s.store.ListGoals(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	out := make([]GoalView, 0, len(goals))
	for _, g := range goals {
		out = append(out, newGoalView(g))
	}
	return out, nil
}

// AddFunds deposits a positive amount towards the goal.
func (s *GoalService) AddFunds(ctx context.Context, ownerID, id string, amount decimal.Decimal) (GoalView, error) {
	if !amount.IsPositive() {
		return GoalView{}, invalidInput(core.ErrInvalidAmount)
	}
	g, err := s.store.AddGoalFunds(ctx, ownerID, id, amount)
	if err != nil {
		return GoalView{}, fmt.Errorf("add funds: %w", err)
	}
	s.logger.InfoContext(ctx, "Goal funded",
		log.FieldOperation, log.OpUpdate,
		log.FieldOwnerID, ownerID,
		log.FieldGoalID, id,
		log.FieldAmount, amount.String())
	return newGoalView(g), nil
}

func (s *GoalService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeleteGoal(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	s.logger.InfoContext(ctx, "Goal deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldOwnerID, ownerID,
		log.FieldGoalID, id)
	return nil
}
