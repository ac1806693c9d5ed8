package credstore

import "context"

// Credentials is the persisted token pair. The access token authorizes API
// calls and is short-lived; the refresh token is exchanged for a new access
// token when the old one expires.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Complete reports whether both tokens are present. A login exchange that
// yields anything less is treated as rejected credentials upstream.
func (c Credentials) Complete() bool {
	return c.AccessToken != "" && c.RefreshToken != ""
}

// UserSnapshot is the denormalized profile cache. It mirrors the backend's
// user serializer and doubles as a fallback display value when the profile
// endpoints are unreachable but a token still exists.
type UserSnapshot struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	IsVerified     bool   `json:"is_verified"`
	PhoneNumber    string `json:"phone_number,omitempty"`
	College        string `json:"college,omitempty"`
	Semester       int    `json:"semester,omitempty"`
	ProfilePicture string `json:"profile_picture,omitempty"`
	FacebookURL    string `json:"facebook_url,omitempty"`
	TwitterURL     string `json:"twitter_url,omitempty"`
	LinkedinURL    string `json:"linkedin_url,omitempty"`
	GithubURL      string `json:"github_url,omitempty"`
	Bio            string `json:"bio,omitempty"`
	Interests      string `json:"interests,omitempty"`
	Skills         string `json:"skills,omitempty"`
}

// Store defines credential persistence. Pure storage: no network calls, no
// validation. All writes are whole snapshots so interleaved writers cannot
// leave a half-token state; last write wins.
type Store interface {
	// Credentials returns the stored token pair. Absence is not an error:
	// a zero Credentials value means no tokens are stored.
	Credentials(ctx context.Context) (Credentials, error)

	// SetCredentials replaces the stored token pair.
	SetCredentials(ctx context.Context, creds Credentials) error

	// CachedUser returns the cached profile snapshot, or nil when absent.
	CachedUser(ctx context.Context) (*UserSnapshot, error)

	// SetCachedUser replaces the cached profile snapshot.
	SetCachedUser(ctx context.Context, user *UserSnapshot) error

	// Clear removes the token pair and the cached snapshot.
	Clear(ctx context.Context) error
}
