// Package model defines the data structures used throughout the application.
package model

import "time"

// Setup step domain. A user's onboarding progress is a small integer where
// the zero sentinel means "all steps completed" and 1..4 are live steps:
// 1 signed up, 2 connections done, 3 required info added, 4 repositories
// connected.
const (
	SetupCompletedStep = 0
	MinSetupStep       = 1
	MaxSetupStep       = 4
)

// SupportedSocialLinks is the allow-list of providers that may appear as
// keys in User.SocialLinks. Anything else fails validation.
var SupportedSocialLinks = []string{
	"twitter",
	"facebook",
	"github",
	"stackoverflow",
	"dribble",
	"devto",
	"linkedin",
}

// User represents a registered account.
//
// Username and email are unique case-insensitively (enforced with NOCASE
// indexes in the repository). LoginTypes records which login methods are
// enabled, e.g. {"password": true, "github": true}. SocialLinks maps a
// provider from SupportedSocialLinks to the user's handle there.
type User struct {
	ID                string            `json:"id"` // UUID
	Username          string            `json:"username"`
	Email             string            `json:"email"`
	PasswordHash      string            `json:"-"` // bcrypt hash, never serialized
	FirstName         string            `json:"firstName"`
	LastName          string            `json:"lastName"`
	Tagline           string            `json:"tagline"`
	About             string            `json:"about"`
	ThemeCode         string            `json:"themeCode"`
	ShowAvatar        bool              `json:"showAvatar"`
	UnderConstruction bool              `json:"underConstruction"`
	NewUser           bool              `json:"newUser"`
	SetupStep         int               `json:"setupStep"`
	LoginTypes        map[string]bool   `json:"loginTypes"`
	SocialLinks       map[string]string `json:"socialLinks"`
	RegisteredAt      time.Time         `json:"registeredAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// FullName is the display name used on portfolio pages.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// ValidSetupStep reports whether v is the completed sentinel or a live step.
func ValidSetupStep(v int) bool {
	return v == SetupCompletedStep || (v >= MinSetupStep && v <= MaxSetupStep)
}

// ValidSocialLinks reports the first unsupported provider key, if any.
func ValidSocialLinks(links map[string]string) (string, bool) {
	for key := range links {
		supported := false
		for _, s := range SupportedSocialLinks {
			if key == s {
				supported = true
				break
			}
		}
		if !supported {
			return key, false
		}
	}
	return "", true
}

// ContactInfo is the optional contact record surfaced by the user-info
// read endpoint. A user without one gets a JSON null there.
type ContactInfo struct {
	UserID  string `json:"-"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// DeletedUser is the snapshot row written when an account is removed.
// The live User row is deleted afterwards (cascading to profiles); the
// snapshot keeps the old id so external references stay explainable.
type DeletedUser struct {
	ID           string    `json:"id"`
	OldUserID    string    `json:"oldUserId"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Tagline      string    `json:"tagline"`
	SetupStep    int       `json:"setupStep"`
	RegisteredAt time.Time `json:"registeredAt"`
	DeletedAt    time.Time `json:"deletedAt"`
}
