// internal/domain/models/settings.go
package models

import "time"

// Settings is the single process-wide configuration document.
//
// ForceVerify gates both login (unverified accounts cannot sign in) and the
// visibility of the self-registration routes.
type Settings struct {
	ForceVerify bool       `bson:"forceVerify" json:"forceVerify"`
	UpdatedAt   *time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// DefaultSettings is written on first run when no settings document exists.
func DefaultSettings() Settings {
	return Settings{ForceVerify: false}
}

// SiteInfo holds display values stored under the "name" and "logo" keys.
type SiteInfo struct {
	Name    string
	LogoURL string // empty when no logo is configured
}

// DefaultSiteName is used when the "name" key has never been set.
const DefaultSiteName = "StrataGate"

// DefaultLogoURL is used when "logo" is set to true rather than a URL.
const DefaultLogoURL = "/static/logo.png"
