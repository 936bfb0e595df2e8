package idempotent

import "context"

// IdempotencyService 幂等标记服务
//
//go:generate mockgen -source=./type.go -destination=./mocks/idempotent.mock.go -package=idempotentmocks -typed IdempotencyService
type IdempotencyService interface {
	// Exists 标记 key 并返回标记前是否已存在
	Exists(ctx context.Context, key string) (bool, error)
	// MExists 批量标记，结果与 keys 顺序一致
	MExists(ctx context.Context, keys ...string) ([]bool, error)
}
