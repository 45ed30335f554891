package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TeamClaims are the claims carried by a team-session token. The context
// fields mirror the X-Context-Type / X-Context-Id headers so clients can
// replay them on subsequent requests.
type TeamClaims struct {
	ContextType string    `json:"context_type"`
	ContextID   uuid.UUID `json:"context_id"`
	jwt.RegisteredClaims
}

// CreateTeamToken issues a signed token for a user acting as a team.
// The token is signed with HS256 and expires after sessionDays.
func CreateTeamToken(userID, teamID uuid.UUID, secret string, sessionDays int) (string, error) {
	expiresAt := time.Now().Add(time.Duration(sessionDays) * 24 * time.Hour)

	claims := &TeamClaims{
		ContextType: string(PrincipalTeam),
		ContextID:   teamID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateTeamToken validates a team-session token and returns the claims.
// Unlike ResolvePrincipal, this verifies the signature: team tokens are
// issued and consumed by this service, not by the upstream provider.
func ValidateTeamToken(tokenString, secret string) (*TeamClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TeamClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*TeamClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}
