package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	engine "github.com/household-daily-budget/internal/budget_engine/service"
	"github.com/household-daily-budget/internal/domain/activity"
	"github.com/household-daily-budget/internal/domain/budget"
	"github.com/household-daily-budget/internal/domain/events"
	"github.com/household-daily-budget/internal/domain/shared"
	"github.com/household-daily-budget/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

const maxActivityPageSize = 100

// HouseholdServiceImpl implements the HouseholdService interface
type HouseholdServiceImpl struct {
	txRunner    persistence.TxRunner
	params      budget.ParametersRepository
	categories  budget.CategoryRepository
	feed        activity.Repository
	outbox      engine.OutboxManager
	coordinator engine.InvalidationCoordinator
	recorder    engine.ErrorRecorder
	validate    *validator.Validate
	logger      *slog.Logger
}

// HouseholdDependencies groups what NewHouseholdService needs
type HouseholdDependencies struct {
	TxRunner    persistence.TxRunner
	Params      budget.ParametersRepository
	Categories  budget.CategoryRepository
	Feed        activity.Repository
	Outbox      engine.OutboxManager
	Coordinator engine.InvalidationCoordinator
	Recorder    engine.ErrorRecorder
}

func NewHouseholdService(logger *slog.Logger, deps HouseholdDependencies) HouseholdService {
	return &HouseholdServiceImpl{
		txRunner:    deps.TxRunner,
		params:      deps.Params,
		categories:  deps.Categories,
		feed:        deps.Feed,
		outbox:      deps.Outbox,
		coordinator: deps.Coordinator,
		recorder:    deps.Recorder,
		validate:    newValidator(),
		logger:      logger,
	}
}

func (s *HouseholdServiceImpl) GetParameters(ctx context.Context, householdID uuid.UUID) (*budget.Parameters, error) {
	params, err := s.params.Get(ctx, householdID)
	if err != nil {
		if errors.As(err, &budget.ErrHouseholdNotFound{}) {
			return nil, err
		}
		return nil, s.recorder.Record(ctx, householdID, "parameters.get", err)
	}
	return params, nil
}

// UpdateParameters upserts the household's figures. The first call sets the household up.
func (s *HouseholdServiceImpl) UpdateParameters(ctx context.Context, cmd UpdateParametersCommand) (*budget.Parameters, error) {
	if err := validateCommand(s.validate, cmd); err != nil {
		return nil, err
	}

	params, err := s.params.Get(ctx, cmd.HouseholdID)
	switch {
	case errors.As(err, &budget.ErrHouseholdNotFound{}):
		params = &budget.Parameters{
			HouseholdID:     cmd.HouseholdID,
			Currency:        budget.DefaultCurrency,
			PeriodStartDate: shared.NormalizeDate(time.Now()),
		}
		s.logger.Info("Setting up household", "household_id", cmd.HouseholdID.String())
	case err != nil:
		return nil, s.recorder.Record(ctx, cmd.HouseholdID, "parameters.get", err)
	}

	if cmd.Currency != "" {
		params.Currency = strings.ToUpper(cmd.Currency)
	}
	update := budget.ParametersUpdate{
		MonthlyIncome:   cmd.MonthlyIncome,
		FixedExpenses:   cmd.FixedExpenses,
		SavingsGoal:     cmd.SavingsGoal,
		PeriodStartDate: cmd.PeriodStartDate,
	}
	if err := update.Apply(params); err != nil {
		return nil, shared.NewValidationError("parameters", "%s", err.Error())
	}

	event := events.ParametersUpdated{
		Meta:          events.NewMeta(cmd.HouseholdID, cmd.ActorID),
		MonthlyIncome: params.MonthlyIncome,
		FixedExpenses: params.FixedExpenses,
		SavingsGoal:   params.SavingsGoal,
	}
	err = s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := s.params.WithTx(tx).Update(ctx, params); err != nil {
			return err
		}
		return s.outbox.Enqueue(ctx, tx, event)
	})
	if err != nil {
		return nil, s.recordUnlessTransient(ctx, cmd.HouseholdID, "parameters.update", err)
	}

	s.coordinator.Handle(ctx, event)

	s.logger.Info("Household parameters updated",
		"household_id", cmd.HouseholdID.String(),
		"variable_income", params.VariableIncome())
	return params, nil
}

func (s *HouseholdServiceImpl) ListCategories(ctx context.Context, householdID uuid.UUID) ([]*budget.Category, error) {
	categories, err := s.categories.ListByHousehold(ctx, householdID)
	if err != nil {
		return nil, s.recorder.Record(ctx, householdID, "categories.list", err)
	}
	return categories, nil
}

func (s *HouseholdServiceImpl) CreateCategory(ctx context.Context, cmd CreateCategoryCommand) (*budget.Category, error) {
	if err := validateCommand(s.validate, cmd); err != nil {
		return nil, err
	}
	if _, err := s.GetParameters(ctx, cmd.HouseholdID); err != nil {
		return nil, err
	}

	category, err := budget.NewCategory(cmd.HouseholdID, cmd.Name, cmd.Type, cmd.BudgetedAmount)
	if err != nil {
		return nil, shared.NewValidationError("category", "%s", err.Error())
	}

	if err := s.saveCategory(ctx, cmd.ActorID, category, true); err != nil {
		return nil, err
	}

	s.logger.Info("Category created",
		"household_id", cmd.HouseholdID.String(),
		"category_id", category.ID.String(),
		"type", category.Type)
	return category, nil
}

func (s *HouseholdServiceImpl) UpdateCategory(ctx context.Context, cmd UpdateCategoryCommand) (*budget.Category, error) {
	if err := validateCommand(s.validate, cmd); err != nil {
		return nil, err
	}

	category, err := s.categories.GetByID(ctx, cmd.CategoryID)
	if err != nil {
		if errors.As(err, &budget.ErrCategoryNotFound{}) {
			return nil, err
		}
		return nil, s.recorder.Record(ctx, cmd.HouseholdID, "categories.get", err)
	}
	if category.HouseholdID != cmd.HouseholdID {
		return nil, budget.ErrCategoryNotFound{CategoryID: cmd.CategoryID}
	}

	update := budget.CategoryUpdate{Name: cmd.Name, BudgetedAmount: cmd.BudgetedAmount, IsActive: cmd.IsActive}
	if err := update.Apply(category); err != nil {
		return nil, shared.NewValidationError("category", "%s", err.Error())
	}

	if err := s.saveCategory(ctx, cmd.ActorID, category, false); err != nil {
		return nil, err
	}

	s.logger.Info("Category updated",
		"household_id", cmd.HouseholdID.String(),
		"category_id", category.ID.String(),
		"is_active", category.IsActive)
	return category, nil
}

// ListActivity pages through the feed; page is 1-based
func (s *HouseholdServiceImpl) ListActivity(ctx context.Context, householdID uuid.UUID, page, perPage int) ([]*activity.Record, error) {
	if page < 1 {
		return nil, shared.NewValidationError("page", "must be at least 1")
	}
	if perPage < 1 || perPage > maxActivityPageSize {
		return nil, shared.NewValidationError("per_page", "must be between 1 and %d", maxActivityPageSize)
	}

	records, err := s.feed.ListByHousehold(ctx, householdID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, s.recorder.Record(ctx, householdID, "activity.list", err)
	}
	return records, nil
}

// saveCategory writes the category and its definition event in one transaction, then invalidates every date
func (s *HouseholdServiceImpl) saveCategory(ctx context.Context, actorID string, category *budget.Category, created bool) error {
	event := events.CategoryDefinitionChanged{
		Meta:           events.NewMeta(category.HouseholdID, actorID),
		CategoryID:     category.ID,
		Name:           category.Name,
		Type:           category.Type,
		BudgetedAmount: category.BudgetedAmount,
		IsActive:       category.IsActive,
		Created:        created,
	}

	err := s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		repo := s.categories.WithTx(tx)
		var err error
		if created {
			err = repo.Create(ctx, category)
		} else {
			err = repo.Update(ctx, category)
		}
		if err != nil {
			return err
		}
		return s.outbox.Enqueue(ctx, tx, event)
	})
	if err != nil {
		if errors.As(err, &budget.ErrDuplicateCategory{}) || errors.As(err, &budget.ErrCategoryNotFound{}) {
			return err
		}
		return s.recordUnlessTransient(ctx, category.HouseholdID, "categories.save", err)
	}

	s.coordinator.Handle(ctx, event)
	return nil
}

func (s *HouseholdServiceImpl) recordUnlessTransient(ctx context.Context, householdID uuid.UUID, operation string, err error) error {
	if shared.IsTransient(err) {
		return err
	}
	return s.recorder.Record(ctx, householdID, operation, err)
}
