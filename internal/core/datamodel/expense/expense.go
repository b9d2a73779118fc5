package expense

import (
	"time"

	"github.com/shopspring/decimal"
)

type Expense struct {
	ID        int64           `gorm:"primaryKey"`
	UserID    int64           `gorm:"column:user_id;not null"`
	Title     string          `gorm:"column:title;size:100;not null"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(10,2);not null"`
	Category  string          `gorm:"column:category;size:20;not null"`
	Date      time.Time       `gorm:"column:date;type:date;not null"`
	Notes     *string         `gorm:"column:notes"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Expense) TableName() string {
	return "expenses"
}

// CategoryTotal is the scan target for the per-category SUM aggregation.
type CategoryTotal struct {
	Category string          `gorm:"column:category"`
	Total    decimal.Decimal `gorm:"column:total"`
}
