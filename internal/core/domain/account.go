package domain

// Account is the single cash account backing all store operations. Its
// balance must stay strictly positive after every accepted mutation; a
// change that would bring it to zero or below is rejected, never clamped.
type Account struct {
	Balance Amount
}

// CanApply reports whether a balance change keeps the account solvent.
// The comparison is strict: a delta that would zero the balance fails.
func (a Account) CanApply(delta Amount) bool {
	return a.Balance.Add(delta).IsPositive()
}
