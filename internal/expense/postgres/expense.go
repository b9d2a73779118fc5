package postgres

import (
	"errors"

	internal "github.com/frahmantamala/expense-tracker/internal"
	expenseDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-tracker/internal/expense"
	"gorm.io/gorm"
)

// ExpenseRepository implements the expense.Repository interface using GORM.
type ExpenseRepository struct {
	db *gorm.DB
}

func NewExpenseRepository(db *gorm.DB) expense.Repository {
	return &ExpenseRepository{db: db}
}

func (r *ExpenseRepository) Create(exp *expense.Expense) error {
	row := expense.ToDataModel(exp)
	if err := r.db.Create(row).Error; err != nil {
		return err
	}
	exp.ID = row.ID
	exp.CreatedAt = row.CreatedAt
	exp.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *ExpenseRepository) GetByID(id int64) (*expense.Expense, error) {
	var row expenseDatamodel.Expense
	err := r.db.Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrExpenseNotFound
		}
		return nil, err
	}
	return expense.FromDataModel(&row), nil
}

// List applies the assembled predicates in a fixed order and evaluates
// the query once.
func (r *ExpenseRepository) List(q expense.Query) ([]*expense.Expense, error) {
	var rows []*expenseDatamodel.Expense
	err := r.applyQuery(q).
		Order("date DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return expense.FromDataModelSlice(rows), nil
}

// SumByCategory groups the filtered rows by category and sums amounts.
// Categories with no matching rows are simply absent.
func (r *ExpenseRepository) SumByCategory(q expense.Query) ([]expense.CategorySummary, error) {
	var rows []expenseDatamodel.CategoryTotal
	err := r.applyQuery(q).
		Select("category, SUM(amount) AS total").
		Group("category").
		Order("category ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	summary := make([]expense.CategorySummary, len(rows))
	for i, row := range rows {
		summary[i] = expense.CategorySummary{
			Category: row.Category,
			Total:    row.Total,
		}
	}
	return summary, nil
}

func (r *ExpenseRepository) Update(exp *expense.Expense) error {
	return r.db.Save(expense.ToDataModel(exp)).Error
}

func (r *ExpenseRepository) Delete(id int64) error {
	result := r.db.Delete(&expenseDatamodel.Expense{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrExpenseNotFound
	}
	return nil
}

func (r *ExpenseRepository) applyQuery(q expense.Query) *gorm.DB {
	tx := r.db.Model(&expenseDatamodel.Expense{})
	if q.OwnerID != nil {
		tx = tx.Where("user_id = ?", *q.OwnerID)
	}
	if q.StartDate != nil {
		tx = tx.Where("date >= ?", *q.StartDate)
	}
	if q.EndDate != nil {
		tx = tx.Where("date <= ?", *q.EndDate)
	}
	if q.Category != "" {
		tx = tx.Where("category = ?", q.Category)
	}
	return tx
}
