// file: model/request.go

package model

// RegisterRequest defines the payload for creating a new user.
// It includes validation tags to ensure data integrity at the entry point.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest defines the payload for user authentication.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// RefreshRequest carries a previously issued refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// CreateAccountRequest opens a ledger account. The identifier is supplied
// by the caller; this API never generates account ids.
type CreateAccountRequest struct {
	ID       string `json:"id" validate:"required,uuid4"`
	Currency string `json:"currency" validate:"required,oneof=PLN EUR"`
}

// DepositRequest credits an account with an amount of minor currency units.
type DepositRequest struct {
	Amount   int64  `json:"amount" validate:"required,gt=0"`
	Currency string `json:"currency" validate:"required,oneof=PLN EUR"`
}

// TransferRequest moves money from the account in the URL to another one.
// The commission is added on top of Amount by the domain layer.
type TransferRequest struct {
	ToAccountID string `json:"to_account_id" validate:"required,uuid4"`
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	Currency    string `json:"currency" validate:"required,oneof=PLN EUR"`
}
