package domain

// StoreView is the read model behind the storefront page: the full catalog
// plus the current balance, cached as one unit.
type StoreView struct {
	Balance  Amount    `json:"balance"`
	Products []Product `json:"products"`
}
