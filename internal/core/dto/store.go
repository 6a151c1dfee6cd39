package dto

// Requests deliberately carry no binding tags: input validation is a
// service concern and comes back as a list of messages, not as a gin
// binding error.

type BuyRequest struct {
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Count     int    `json:"count"`
}

type SellRequest struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type AdjustBalanceRequest struct {
	Delta   int64  `json:"delta"`
	Comment string `json:"comment"`
}
