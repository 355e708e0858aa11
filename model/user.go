package model

import "time"

// User is an operator of the API. Users authenticate against /login and
// act on ledger accounts through the protected routes; they do not own
// accounts — account identifiers are supplied by the caller.
type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
