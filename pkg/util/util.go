package util

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type requestIDKey struct{}

// GenerateUUID 生成一个标准的 UUID (v4)
func GenerateUUID() string {
	return uuid.New().String()
}

// GenerateShortUUID 生成一个不带中划线的短 UUID
func GenerateShortUUID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// NormalizeRequestID 合法的 UUID 原样返回，否则生成新的
func NormalizeRequestID(id string) string {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err == nil {
		return id
	}
	return GenerateUUID()
}

// WithRequestID 将请求 ID 放入 context
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext 取请求 ID，不存在时返回空串
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
