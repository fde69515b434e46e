package models

import "time"

type ExpenseList struct {
	Expenses []Expense `json:"expenses"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
	Total    int32     `json:"total"`
}

type ExpenseFilter struct {
	CategoryId string `json:"category_id"`
	Search     string `json:"search"`
	MinDate    string `json:"min_date"`
	MaxDate    string `json:"max_date"`
}

type Expense struct {
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Id           string    `json:"id"`
	TenantId     string    `json:"tenant_id"`
	UserId       string    `json:"user_id"`
	CategoryId   string    `json:"category_id,omitempty"`
	CategoryName string    `json:"category_name,omitempty"`
	Description  string    `json:"description,omitempty"`
	Date         string    `json:"date"`
	Currency     string    `json:"currency"`
	Amount       float64   `json:"amount"`
	IsRecurring  bool      `json:"is_recurring"`
	ReceiptId    string    `json:"receipt_id,omitempty"`
}

type UpdateExpenseRequest struct {
	Amount      *float64 `json:"amount"`
	Currency    *string  `json:"currency"`
	CategoryId  *string  `json:"category_id"`
	Description *string  `json:"description"`
	Date        *string  `json:"date"`
	IsRecurring *bool    `json:"is_recurring"`
	ReceiptId   *string  `json:"receipt_id"`
}

type ExpenseTotals struct {
	TotalSpent   float64 `json:"total_spent"`
	MonthlySpent float64 `json:"monthly_spent"`
}
