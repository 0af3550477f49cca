package model

import "time"

// Provider identifies the external service a Profile is linked to.
// A single profile entity tagged by provider replaces per-provider
// subtypes; lookups filter by this field.
type Provider string

const (
	ProviderGitHub        Provider = "github"
	ProviderGitLab        Provider = "gitlab"
	ProviderBitbucket     Provider = "bitbucket"
	ProviderStackOverflow Provider = "stackoverflow"
)

// KnownProvider reports whether p is one of the supported providers.
func KnownProvider(p Provider) bool {
	switch p {
	case ProviderGitHub, ProviderGitLab, ProviderBitbucket, ProviderStackOverflow:
		return true
	}
	return false
}

// Profile is a user's linked account with one external provider.
// Created once per successful OAuth connect; (provider, username) is
// unique across the table. The access token is a secret and never leaves
// the backend.
type Profile struct {
	ID          string    `json:"id"`
	Provider    Provider  `json:"provider"`
	Username    string    `json:"username"`    // provider-side login, e.g. "torvalds"
	ProviderUID int64     `json:"providerUid"` // provider-assigned numeric id
	AccessToken string    `json:"-"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// EmailAddress is a provider-reported email linked to a profile.
// Rows are bulk-created right after profile creation.
type EmailAddress struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	ProfileID string `json:"profileId"`
	Primary   bool   `json:"primary"`
	Verified  bool   `json:"verified"`
}
