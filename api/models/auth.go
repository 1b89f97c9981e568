package models

// AuthenticatedUser is handed to the front end after a successful callback.
// Avatar is null when the account has no custom avatar.
type AuthenticatedUser struct {
	ID            string  `json:"id"`
	Username      string  `json:"username"`
	Discriminator string  `json:"discriminator"`
	Avatar        *string `json:"avatar"`
}

// AuthPayload is base64-encoded into the `auth` query parameter.
type AuthPayload struct {
	User  AuthenticatedUser `json:"user"`
	Token string            `json:"token"`
}

// Callback failure markers, sent as `?error=`.
const (
	AuthErrorNoCode       = "no_code"
	AuthErrorNoToken      = "no_token"
	AuthErrorFailed       = "auth_failed"
	AuthErrorInvalidState = "invalid_state"
)
