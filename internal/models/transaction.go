package models

import "time"

// DateLayout is the storage format of Transaction.Date. Lexical order of
// formatted values equals chronological order.
const DateLayout = "2006-01-02 15:04:05"

// Canonical categories. The store does not enforce them.
const (
	CategoryFood          = "Food"
	CategoryShopping      = "Shopping"
	CategoryTransport     = "Transport"
	CategoryEntertainment = "Entertainment"
	CategoryGroceries     = "Groceries"
	CategoryTransfer      = "Transfer"
)

const (
	MethodUPI    = "UPI"
	MethodCard   = "Card"
	MethodWallet = "Wallet"
)

// Transaction is immutable once stored. Amount is in whole rupees.
type Transaction struct {
	ID          int64     `json:"id"`
	Date        time.Time `json:"date"`
	Beneficiary string    `json:"beneficiary"`
	Amount      int64     `json:"amount"`
	Category    string    `json:"category"`
	Method      string    `json:"method"`
}

type CategorySpend struct {
	Category string  `json:"category"`
	Count    int64   `json:"count"`
	Total    int64   `json:"total"`
	Average  float64 `json:"average"`
	Min      int64   `json:"min"`
	Max      int64   `json:"max"`
}

type DailySpend struct {
	Day   string `json:"day"`
	Total int64  `json:"total"`
	Count int64  `json:"count"`
}

type MerchantSpend struct {
	Beneficiary      string  `json:"beneficiary"`
	TransactionCount int64   `json:"transaction_count"`
	TotalSpent       int64   `json:"total_spent"`
	AvgAmount        float64 `json:"avg_amount"`
	LastTransaction  string  `json:"last_transaction"`
}

type BudgetStatus string

const (
	BudgetGood     BudgetStatus = "good"
	BudgetWarning  BudgetStatus = "warning"
	BudgetCritical BudgetStatus = "critical"
)

type BudgetReport struct {
	Category     string       `json:"category"`
	Budget       int64        `json:"budget"`
	Spent        int64        `json:"spent"`
	Remaining    int64        `json:"remaining"`
	Percentage   string       `json:"percentage"`
	Transactions int64        `json:"transactions"`
	Status       BudgetStatus `json:"status"`
}

type PeriodTotal struct {
	Period string `json:"period"`
	Total  int64  `json:"total"`
	Count  int64  `json:"count"`
}

type Comparison struct {
	Category      string      `json:"category"`
	ThisMonth     PeriodTotal `json:"thisMonth"`
	LastMonth     PeriodTotal `json:"lastMonth"`
	Change        int64       `json:"change"`
	PercentChange string      `json:"percentChange"`
	Trend         string      `json:"trend"`
}
