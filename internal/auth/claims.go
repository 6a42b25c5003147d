package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the only supported JWT claims shape for this service.
// Multi-tenant invariant: ClinicID must be present for all activity.
// DisplayName is carried so the signaling layer can address and label
// participants without a directory lookup on every event.
type Claims struct {
	jwt.RegisteredClaims

	UserID      string    `json:"user_id"`
	ClinicID    string    `json:"clinic_id"`
	Role        string    `json:"role"`
	DisplayName string    `json:"display_name,omitempty"`
	TokenType   TokenType `json:"token_type"`
}
