package models

import "time"

// Account is one record per user. Messages are owned by the account and
// stored separately (see Message.AccountID).
type Account struct {
	ID                  string    `json:"id"`
	Username            string    `json:"username"`
	Email               string    `json:"email"`
	PasswordHash        string    `json:"-"` // не отдаём наружу
	VerifyCode          string    `json:"-"`
	VerifyCodeExpiry    time.Time `json:"-"`
	VerifyAttempts      int       `json:"-"` // неверные попытки для текущего кода
	IsVerified          bool      `json:"isVerified"`
	IsAcceptingMessages bool      `json:"isAcceptingMessages"`
	CreatedAt           time.Time `json:"createdAt"`
}

// CodeExpired reports whether the pending one-time code is no longer usable at now.
// The code is valid only while now < expiry.
func (a *Account) CodeExpired(now time.Time) bool {
	return !now.Before(a.VerifyCodeExpiry)
}

// Principal is the authenticated identity attached to a request.
type Principal struct {
	ID                  string `json:"id"`
	Username            string `json:"username"`
	Email               string `json:"email"`
	IsVerified          bool   `json:"isVerified"`
	IsAcceptingMessages bool   `json:"isAcceptingMessages"`
}

func (a *Account) Principal() *Principal {
	return &Principal{
		ID:                  a.ID,
		Username:            a.Username,
		Email:               a.Email,
		IsVerified:          a.IsVerified,
		IsAcceptingMessages: a.IsAcceptingMessages,
	}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type VerifyRequest struct {
	Code string `json:"code" binding:"required"`
}

type SignInRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type AcceptMessagesRequest struct {
	AcceptMessages *bool `json:"acceptMessages" binding:"required"`
}
