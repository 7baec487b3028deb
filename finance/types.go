package finance

import "time"

// DateLayout is the calendar date format used on the wire.
const DateLayout = "2006-01-02"

type TransactionType string

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

type Wallet struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Currency string  `json:"currency"`
	Balance  float64 `json:"balance"`
}

type NewWallet struct {
	Name           string  `json:"name"`
	Currency       string  `json:"currency"`
	InitialBalance float64 `json:"initialBalance"`
}

type Category struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Type TransactionType `json:"type"`
}

type Transaction struct {
	ID         string          `json:"id"`
	WalletID   string          `json:"walletId"`
	CategoryID string          `json:"categoryId"`
	Type       TransactionType `json:"type"`
	Amount     float64         `json:"amount"`
	Date       string          `json:"date"`
	Note       string          `json:"note,omitempty"`
}

type NewTransaction struct {
	WalletID   string          `json:"walletId"`
	CategoryID string          `json:"categoryId"`
	Type       TransactionType `json:"type"`
	Amount     float64         `json:"amount"`
	Date       string          `json:"date"`
	Note       string          `json:"note,omitempty"`
}

// AnalyticsQuery selects the period summarised by Analytics. Zero fields are
// left to the backend's defaults.
type AnalyticsQuery struct {
	WalletID string
	From     time.Time
	To       time.Time
}

type CategoryTotal struct {
	CategoryID string          `json:"categoryId"`
	Name       string          `json:"name"`
	Type       TransactionType `json:"type"`
	Total      float64         `json:"total"`
}

type Analytics struct {
	Income     float64         `json:"income"`
	Expense    float64         `json:"expense"`
	Net        float64         `json:"net"`
	ByCategory []CategoryTotal `json:"byCategory"`
}
