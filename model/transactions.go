package model

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType classifies an entry in an account's log.
type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

// AccountLog is one immutable entry of an account's transaction log.
// The log exists solely so the aggregate can enforce its daily debit
// limit; it is never queried on its own.
//
// ID is zero until the repository persists the entry, which is how the
// repository tells fresh entries apart from already-stored ones.
type AccountLog struct {
	ID              int64           `json:"id"`
	AccountID       uuid.UUID       `json:"account_id"`
	TransactionType TransactionType `json:"transaction_type"`
	CreatedAt       time.Time       `json:"created_at"`
}
