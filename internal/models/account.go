// internal/models/account.go
package models

import "time"

// DefaultFreeCredits is the credit balance granted to a fresh account.
const DefaultFreeCredits = 5

// Account holds the user account state persisted in the key-value store.
// The API credential is stored under its own key and is not part of the blob.
type Account struct {
	IsPremium   bool      `json:"is_premium"`
	Credits     int       `json:"credits"`
	LastUpdated time.Time `json:"last_updated"`
}

// NewAccount returns an account with the free-tier defaults.
func NewAccount() *Account {
	return &Account{
		IsPremium:   false,
		Credits:     DefaultFreeCredits,
		LastUpdated: time.Now(),
	}
}

// AIEligible reports whether the AI path may be used with this account.
// Premium accounts are always eligible; free accounts need both a positive
// credit balance and a configured API credential.
func (a *Account) AIEligible(hasAPIKey bool) bool {
	if a.IsPremium {
		return true
	}
	return a.Credits > 0 && hasAPIKey
}

// AccountStatus is the API-facing view of the account.
type AccountStatus struct {
	IsPremium  bool `json:"is_premium"`
	Credits    int  `json:"credits"`
	HasAPIKey  bool `json:"has_api_key"`
	AIEligible bool `json:"ai_eligible"`
	AIMode     bool `json:"ai_mode"`
}
