package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the structure of the JSON Web Token (JWT) claims for MiniChat.
// It includes standard claims required by the JWT specification and the custom
// claims necessary for identifying users within the chat system.
type Payload struct {
	// StandardClaims embeds the necessary JWT standard fields such as Exp (Expiration),
	// Iat (Issued At), and Iss (Issuer). These are crucial for token validity checks.
	jwt.StandardClaims `json:"standard_claims"`

	// ID is the unique identifier of the account the token was issued for.
	ID string `json:"id"`

	// Username is the unique login and display name of the account.
	Username string `json:"username"`
}
