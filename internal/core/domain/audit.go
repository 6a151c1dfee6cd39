package domain

import (
	"fmt"
	"time"
)

// Record is one immutable audit log entry. Seq is the insertion order and
// doubles as the identifier history range queries filter on. Timestamps are
// kept at minute resolution.
type Record struct {
	Seq        int64
	Message    string
	RecordedAt time.Time
}

func NewRecord(message string) *Record {
	return &Record{
		Message:    message,
		RecordedAt: time.Now().Truncate(time.Minute),
	}
}

// Narration for the audit trail. Rejected operations get a record too, so
// the log reads as a history of attempted activity, not just of mutations.

func PurchaseMessage(name string, quantity int, unitPrice Amount) string {
	return fmt.Sprintf("Purchased %d units of product %s at a unit price of %s. Total purchase amount: %s.",
		quantity, name, unitPrice, unitPrice.Multiply(quantity))
}

func PurchaseRejectedMessage() string {
	return "Insufficient funds in the account. The purchase cannot be completed."
}

func SaleMessage(name string, quantity int, unitPrice Amount) string {
	return fmt.Sprintf("Sold %d units of product %s at a unit price of %s. Total sale amount: %s.",
		quantity, name, unitPrice, unitPrice.Multiply(quantity))
}

// SaleRejectedMessage covers both the out-of-stock and the short-stock
// branch; the trail never distinguished the two.
func SaleRejectedMessage(name string) string {
	return fmt.Sprintf("Insufficient quantity of product %s. The sale cannot be completed.", name)
}

func DepositMessage(amount, previousBalance Amount, comment string) string {
	return fmt.Sprintf("Deposit of %s completed successfully. Previous balance: %s. Comment: %s",
		amount, previousBalance, comment)
}

func WithdrawalMessage(amount, previousBalance Amount, comment string) string {
	return fmt.Sprintf("Withdrawal of %s completed successfully. Previous balance: %s. Comment: %s",
		amount.Abs(), previousBalance, comment)
}

func WithdrawalRejectedMessage(amount, balance Amount, comment string) string {
	return fmt.Sprintf("Withdrawal failed. Insufficient funds to withdraw %s. Current balance: %s. Comment: %s",
		amount.Abs(), balance, comment)
}
