package document

// AccountID is the fixed _id of the one account row; the ledger is a
// singleton by construction.
const AccountID = "primary"

type AccountDocument struct {
	ID      string `bson:"_id"`
	Balance int64  `bson:"balance"`
}
