package auth

import (
	"context"
	"errors"
)

type ctxKey int

const (
	ctxUserID ctxKey = iota
	ctxClinicID
	ctxRole
	ctxDisplayName
)

func WithIdentity(ctx context.Context, id Identity) context.Context {
	ctx = context.WithValue(ctx, ctxUserID, id.UserID)
	ctx = context.WithValue(ctx, ctxClinicID, id.ClinicID)
	ctx = context.WithValue(ctx, ctxRole, id.Role)
	ctx = context.WithValue(ctx, ctxDisplayName, id.DisplayName)
	return ctx
}

func UserID(ctx context.Context) (string, error) {
	v := ctx.Value(ctxUserID)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("user_id not in context")
}

func ClinicID(ctx context.Context) (string, error) {
	v := ctx.Value(ctxClinicID)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("clinic_id not in context")
}

func Role(ctx context.Context) (string, error) {
	v := ctx.Value(ctxRole)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("role not in context")
}

// DisplayName may legitimately be empty; no error variant is offered.
func DisplayName(ctx context.Context) string {
	if s, ok := ctx.Value(ctxDisplayName).(string); ok {
		return s
	}
	return ""
}
