package expense

import (
	"log/slog"
	"time"

	internal "github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/auth"
)

// Query is the explicit, ordered set of predicates the repository applies
// to the expense collection. All filters are assembled before the query
// runs; there is no lazy chaining.
type Query struct {
	OwnerID   *int64
	StartDate *time.Time
	EndDate   *time.Time
	Category  string
}

// Repository defines the data access methods for expenses.
type Repository interface {
	Create(exp *Expense) error
	GetByID(id int64) (*Expense, error)
	List(q Query) ([]*Expense, error)
	SumByCategory(q Query) ([]CategorySummary, error)
	Update(exp *Expense) error
	Delete(id int64) error
}

// Service handles expense business logic.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// CreateExpense validates the payload and persists a new record. The
// owner is always the requester; any owner value in the payload is
// discarded.
func (s *Service) CreateExpense(actor *auth.User, dto CreateExpenseDTO) (*Expense, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Warn("expense validation failed", "error", err.GetDetailedMessage(), "user_id", actor.ID)
		return nil, err
	}

	now := time.Now()
	exp := &Expense{
		UserID:    actor.ID,
		Title:     dto.Title,
		Amount:    dto.ParsedAmount(),
		Category:  dto.Category,
		Date:      dto.ParsedDate(),
		Notes:     dto.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(exp); err != nil {
		s.logger.Error("failed to create expense", "error", err, "user_id", actor.ID)
		return nil, err
	}

	s.logger.Info("expense created",
		"expense_id", exp.ID,
		"user_id", actor.ID,
		"amount", exp.Amount.String(),
		"category", exp.Category)

	return exp, nil
}

// GetExpenseByID retrieves a single record. Existence is checked before
// ownership, so absent ids look identical to every requester.
func (s *Service) GetExpenseByID(id int64, actor *auth.User) (*Expense, error) {
	exp, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if !actor.CanAccessOwnedBy(exp.UserID) {
		s.logger.Warn("expense access denied", "expense_id", id, "user_id", actor.ID, "owner_id", exp.UserID)
		return nil, internal.ErrForbidden
	}

	return exp, nil
}

// ListExpenses returns the records visible to the actor, narrowed by the
// given filters. Non-staff always see their own records only; the owner
// filter is silently ignored for them.
func (s *Service) ListExpenses(actor *auth.User, filter ListFilter) ([]*Expense, error) {
	q := Query{
		StartDate: filter.StartDate,
		EndDate:   filter.EndDate,
		Category:  filter.Category,
	}

	if actor.IsStaff {
		q.OwnerID = filter.OwnerID
	} else {
		owner := actor.ID
		q.OwnerID = &owner
	}

	expenses, err := s.repo.List(q)
	if err != nil {
		s.logger.Error("failed to list expenses", "error", err, "user_id", actor.ID)
		return nil, err
	}

	return expenses, nil
}

// UpdateExpense applies a full (partial=false) or partial (partial=true)
// update. Unsupplied fields keep their prior values on partial updates.
func (s *Service) UpdateExpense(id int64, actor *auth.User, dto UpdateExpenseDTO, partial bool) (*Expense, error) {
	exp, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if !actor.CanAccessOwnedBy(exp.UserID) {
		s.logger.Warn("expense update denied", "expense_id", id, "user_id", actor.ID, "owner_id", exp.UserID)
		return nil, internal.ErrForbidden
	}

	if err := dto.Validate(partial); err != nil {
		s.logger.Warn("expense update validation failed", "error", err.GetDetailedMessage(), "expense_id", id)
		return nil, err
	}

	if dto.Title != nil {
		exp.Title = *dto.Title
	}
	if dto.Amount != nil {
		exp.Amount = dto.ParsedAmount()
	}
	if dto.Category != nil {
		exp.Category = *dto.Category
	}
	if dto.Date != nil {
		exp.Date = dto.ParsedDate()
	}
	if dto.Notes != nil {
		exp.Notes = dto.Notes
	}
	if dto.UserID != nil {
		// Owner reassignment through the payload is allowed here, matching
		// the existing clients. See the note on UpdateExpenseDTO.
		exp.UserID = *dto.UserID
	}
	exp.UpdatedAt = time.Now()

	if err := s.repo.Update(exp); err != nil {
		s.logger.Error("failed to update expense", "error", err, "expense_id", id)
		return nil, err
	}

	s.logger.Info("expense updated", "expense_id", id, "user_id", actor.ID, "partial", partial)

	return exp, nil
}

// DeleteExpense removes a record permanently.
func (s *Service) DeleteExpense(id int64, actor *auth.User) error {
	exp, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}

	if !actor.CanAccessOwnedBy(exp.UserID) {
		s.logger.Warn("expense delete denied", "expense_id", id, "user_id", actor.ID, "owner_id", exp.UserID)
		return internal.ErrForbidden
	}

	if err := s.repo.Delete(id); err != nil {
		s.logger.Error("failed to delete expense", "error", err, "expense_id", id)
		return err
	}

	s.logger.Info("expense deleted", "expense_id", id, "user_id", actor.ID)

	return nil
}

// Summary returns per-category amount sums over the actor's visibility
// scope. Only the date-range filters apply; category and owner filters
// are intentionally not used here. Categories without matching records
// do not appear in the result.
func (s *Service) Summary(actor *auth.User, filter ListFilter) ([]CategorySummary, error) {
	q := Query{
		StartDate: filter.StartDate,
		EndDate:   filter.EndDate,
	}

	if !actor.IsStaff {
		owner := actor.ID
		q.OwnerID = &owner
	}

	summary, err := s.repo.SumByCategory(q)
	if err != nil {
		s.logger.Error("failed to compute summary", "error", err, "user_id", actor.ID)
		return nil, err
	}

	return summary, nil
}
