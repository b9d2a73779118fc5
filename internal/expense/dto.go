package expense

import (
	"encoding/json"
	"time"

	internal "github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/core/common/validation"
	"github.com/shopspring/decimal"
)

// AmountString carries the raw amount text from the request body. It
// decodes from a JSON string or a bare number without rejecting
// malformed values, so a bad amount surfaces as a field-level
// validation error rather than a body decode failure.
type AmountString string

func (a *AmountString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = AmountString(s)
		return nil
	}
	*a = AmountString(data)
	return nil
}

func (a AmountString) String() string {
	return string(a)
}

// CreateExpenseDTO is the request payload for creating an expense. Any
// "user" value in the payload is ignored; the owner is always the
// requester.
type CreateExpenseDTO struct {
	Title    string       `json:"title"`
	Amount   AmountString `json:"amount"`
	Category string       `json:"category"`
	Date     string       `json:"date"`
	Notes    *string      `json:"notes,omitempty"`
	UserID   *int64       `json:"user,omitempty"`
}

// Validate checks every field and returns the aggregated field errors.
func (dto CreateExpenseDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("title", dto.Title).Required().MaxLength(100)
	v.Field("amount", dto.Amount.String()).Required().DecimalString()
	v.Field("category", dto.Category).Required().CategoryMember()
	v.Field("date", dto.Date).Required().DateString()
	return v.Validate()
}

// ParsedAmount returns the decimal amount. Call only after Validate.
func (dto CreateExpenseDTO) ParsedAmount() decimal.Decimal {
	d, _ := decimal.NewFromString(dto.Amount.String())
	return d
}

// ParsedDate returns the calendar date. Call only after Validate.
func (dto CreateExpenseDTO) ParsedDate() time.Time {
	t, _ := time.Parse(validation.DateLayout, dto.Date)
	return t
}

// UpdateExpenseDTO covers both PUT (full) and PATCH (partial) updates.
// Nil fields are untouched on partial updates and required on full ones.
//
// TODO: "user" in the payload reassigns the record's owner while creation
// forces it to the requester; decide whether updates should lock it down
// the same way.
type UpdateExpenseDTO struct {
	Title    *string       `json:"title"`
	Amount   *AmountString `json:"amount"`
	Category *string       `json:"category"`
	Date     *string       `json:"date"`
	Notes    *string       `json:"notes"`
	UserID   *int64        `json:"user"`
}

// Validate checks supplied fields; when partial is false, the required
// fields must all be present.
func (dto UpdateExpenseDTO) Validate(partial bool) *internal.AppError {
	v := validation.NewValidator()

	title := dto.Title
	if title != nil || !partial {
		fv := v.Field("title", deref(title))
		if !partial {
			fv.Required()
		}
		fv.MaxLength(100)
	}

	if dto.Amount != nil || !partial {
		var raw string
		if dto.Amount != nil {
			raw = dto.Amount.String()
		}
		fv := v.Field("amount", raw)
		if !partial {
			fv.Required()
		}
		fv.DecimalString()
	}

	if dto.Category != nil || !partial {
		fv := v.Field("category", deref(dto.Category))
		if !partial {
			fv.Required()
		}
		fv.CategoryMember()
	}

	if dto.Date != nil || !partial {
		fv := v.Field("date", deref(dto.Date))
		if !partial {
			fv.Required()
		}
		fv.DateString()
	}

	return v.Validate()
}

func (dto UpdateExpenseDTO) ParsedAmount() decimal.Decimal {
	d, _ := decimal.NewFromString(dto.Amount.String())
	return d
}

func (dto UpdateExpenseDTO) ParsedDate() time.Time {
	t, _ := time.Parse(validation.DateLayout, *dto.Date)
	return t
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ListFilter carries the optional query-string filters for listing and
// summary. Nil date bounds mean the filter was absent or unparseable;
// OwnerID is only honored for staff requesters.
type ListFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Category  string
	OwnerID   *int64
}

// ExpenseResponse is the wire representation. Amount marshals as a
// decimal string with two fraction digits, Date as YYYY-MM-DD.
type ExpenseResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Amount    string    `json:"amount"`
	Category  string    `json:"category"`
	Date      string    `json:"date"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    int64     `json:"user"`
}

func (e *Expense) ToResponse() ExpenseResponse {
	return ExpenseResponse{
		ID:        e.ID,
		Title:     e.Title,
		Amount:    e.Amount.StringFixed(2),
		Category:  e.Category,
		Date:      e.Date.Format(validation.DateLayout),
		Notes:     e.Notes,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
		UserID:    e.UserID,
	}
}

func ToResponseSlice(expenses []*Expense) []ExpenseResponse {
	responses := make([]ExpenseResponse, len(expenses))
	for i, e := range expenses {
		responses[i] = e.ToResponse()
	}
	return responses
}

// CategorySummary is one row of the per-category aggregation.
type CategorySummary struct {
	Category string
	Total    decimal.Decimal
}

// CategorySummaryResponse is the wire form of a summary row. Totals
// keep two fraction digits like every other amount on the wire.
type CategorySummaryResponse struct {
	Category string `json:"category"`
	Total    string `json:"total"`
}

func ToSummaryResponse(rows []CategorySummary) []CategorySummaryResponse {
	responses := make([]CategorySummaryResponse, len(rows))
	for i, row := range rows {
		responses[i] = CategorySummaryResponse{
			Category: row.Category,
			Total:    row.Total.StringFixed(2),
		}
	}
	return responses
}
