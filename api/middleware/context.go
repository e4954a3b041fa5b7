package middleware

import (
	"context"

	"github.com/angelmondragon/pintuan-backend/pkg/enums"
)

type contextKey string

const (
	ctxOperatorID contextKey = "operator_id"
	ctxRole       contextKey = "operator_role"
)

// OperatorIDFromContext returns the authenticated operator, or "".
func OperatorIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxOperatorID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) enums.OperatorRole {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.OperatorRole); ok {
		return v
	}
	return ""
}

// WithOperator injects the operator identity into the context.
func WithOperator(ctx context.Context, operatorID string, role enums.OperatorRole) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxOperatorID, operatorID)
	return context.WithValue(ctx, ctxRole, role)
}
