package models

// ExpenseSummary is rebuilt from stored data on every request, never cached.
// SummaryText is the deterministic block handed to the model as context.
type ExpenseSummary struct {
	SummaryText string             `json:"summary_text"`
	Total       float64            `json:"total"`
	ByCategory  map[string]float64 `json:"by_category"`
	Expenses    []SummaryExpense   `json:"expenses"`
	Currency    string             `json:"currency"`
	Budget      *float64           `json:"budget"`
}

type SummaryExpense struct {
	Id           string  `json:"id"`
	Amount       float64 `json:"amount"`
	CategoryId   string  `json:"category_id,omitempty"`
	CategoryName string  `json:"category_name,omitempty"`
	Description  string  `json:"description,omitempty"`
	Date         string  `json:"date"`
}

// ParsedReceiptData is what the model extracted from a receipt image. It is
// untrusted until the caller validates it (amount > 0, date parses).
type ParsedReceiptData struct {
	Amount      float64  `json:"amount"`
	Currency    string   `json:"currency,omitempty"`
	Merchant    string   `json:"merchant,omitempty"`
	Date        string   `json:"date,omitempty"`
	Items       []string `json:"items,omitempty"`
	Description string   `json:"description,omitempty"`
}

type ParsedExpense struct {
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
	Category    string  `json:"category"`
}

type CategorySuggestion struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

type RecurringPattern struct {
	Description string  `json:"description"`
	AvgAmount   float64 `json:"avg_amount"`
	Frequency   string  `json:"frequency"`
	Count       int     `json:"count"`
	LastDate    string  `json:"last_date"`
}

type Anomaly struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

type CategorizeRequest struct {
	Text       string   `json:"text"`
	Categories []string `json:"categories"`
}

type TextExpenseRequest struct {
	Text          string `json:"text"`
	CreateExpense bool   `json:"create_expense"`
}

type ReceiptToExpenseRequest struct {
	ReceiptData   ParsedReceiptData `json:"receipt_data"`
	ReceiptId     string            `json:"receipt_id"`
	CreateExpense bool              `json:"create_expense"`
}

type ReceiptParseByIdRequest struct {
	ReceiptId string `json:"receipt_id"`
}

type ChatRequest struct {
	Query string `json:"query"`
}

type DuplicateCheckRequest struct {
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
}

type DuplicateExpense struct {
	Id          string  `json:"id"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
	Date        string  `json:"date"`
}
