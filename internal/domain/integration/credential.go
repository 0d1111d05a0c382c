package integration

import "time"

// Credential holds the OAuth token pair for one source platform vendor.
// It is owned exclusively by the token store; refresh for a given vendor is
// serialized so that concurrent callers never race to overwrite each other.
type Credential struct {
	// VendorID identifies the source platform tenant
	VendorID string
	// AccessToken is the bearer token for source API calls
	AccessToken string
	// RefreshToken exchanges for a new token pair when the access token expires
	RefreshToken string
	// IssuedAt is when the current access token was issued
	IssuedAt time.Time
	// ExpiresIn is the access token lifetime in seconds, as issued
	ExpiresIn int
}

// ExpiresAt returns the absolute expiry time of the access token
func (c *Credential) ExpiresAt() time.Time {
	return c.IssuedAt.Add(time.Duration(c.ExpiresIn) * time.Second)
}

// RemainingValidity returns how long the access token is still valid at now
func (c *Credential) RemainingValidity(now time.Time) time.Duration {
	return c.ExpiresAt().Sub(now)
}

// NeedsRefresh returns true if the token is within margin of expiry
func (c *Credential) NeedsRefresh(now time.Time, margin time.Duration) bool {
	return c.RemainingValidity(now) <= margin
}

// CanRefresh returns true if a refresh token is available
func (c *Credential) CanRefresh() bool {
	return c.RefreshToken != ""
}
