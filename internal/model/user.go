package model

import "time"

// User is an account of the development API server. Login exchanges Email
// and a password for a bearer token; the account endpoint reports the
// billing state.
//
// PasswordHash is a bcrypt hash and is never serialised.
type User struct {
	ID               string    `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	BillingActive    bool      `json:"billingActive"`
	BillingExpiredAt time.Time `json:"billingExpiredAt"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
