package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/pintuan-backend/pkg/enums"
)

// OperatorTokenPayload captures the data available when minting a JWT.
type OperatorTokenPayload struct {
	OperatorID uuid.UUID
	Role       enums.OperatorRole
	JTI        string
}

// OperatorClaims represents the typed JWT presented to the management surface.
type OperatorClaims struct {
	OperatorID uuid.UUID          `json:"operator_id"`
	Role       enums.OperatorRole `json:"role"`
	jwt.RegisteredClaims
}
