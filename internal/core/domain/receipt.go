package domain

import "time"

type OperationKind string

const (
	OperationPurchase   OperationKind = "purchase"
	OperationSale       OperationKind = "sale"
	OperationDeposit    OperationKind = "deposit"
	OperationWithdrawal OperationKind = "withdrawal"
)

// Receipt is the result of one accepted store operation, returned to the
// caller and replayed by the idempotency layer.
type Receipt struct {
	Operation   OperationKind `json:"operation"`
	ProductName string        `json:"product_name,omitempty"`
	UnitPrice   Amount        `json:"unit_price,omitempty"`
	Quantity    int           `json:"quantity,omitempty"`
	Total       Amount        `json:"total"`
	Balance     Amount        `json:"balance"`
	ExecutedAt  time.Time     `json:"executed_at"`
}

type StockPurchasedEvent struct {
	ProductName string    `json:"product_name"`
	UnitPrice   int64     `json:"unit_price"`
	Quantity    int       `json:"quantity"`
	Total       int64     `json:"total"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (e *StockPurchasedEvent) GetName() string       { return "stock.purchased" }
func (e *StockPurchasedEvent) GetEntityName() string { return "store" }

type StockSoldEvent struct {
	ProductName string    `json:"product_name"`
	UnitPrice   int64     `json:"unit_price"`
	Quantity    int       `json:"quantity"`
	Total       int64     `json:"total"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (e *StockSoldEvent) GetName() string       { return "stock.sold" }
func (e *StockSoldEvent) GetEntityName() string { return "store" }

type BalanceAdjustedEvent struct {
	Delta      int64     `json:"delta"`
	Comment    string    `json:"comment"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e *BalanceAdjustedEvent) GetName() string       { return "account.adjusted" }
func (e *BalanceAdjustedEvent) GetEntityName() string { return "account" }
