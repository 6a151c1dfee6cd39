package domain

import "fmt"

// Amount is a monetary value in cents. Money stays integral so repeated
// credits and debits never accumulate rounding drift.
type Amount int64

func NewAmountFromCents(cents int64) Amount {
	return Amount(cents)
}

func NewAmountFromValue(value int64) Amount {
	return Amount(value * 100)
}

func (a Amount) Add(b Amount) Amount {
	return a + b
}

func (a Amount) Sub(b Amount) Amount {
	return a - b
}

func (a Amount) Multiply(n int) Amount {
	return a * Amount(n)
}

func (a Amount) Abs() Amount {
	if a < 0 {
		return -a
	}
	return a
}

func (a Amount) IsPositive() bool {
	return a > 0
}

func (a Amount) Cents() int64 {
	return int64(a)
}

// String renders the amount as a decimal string, e.g. Amount(150) -> "1.50".
func (a Amount) String() string {
	v := int64(a)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

type Event interface {
	GetName() string
	GetEntityName() string
}
