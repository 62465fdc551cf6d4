package repository

import "context"

type Repository[T any] interface {
	Create(ctx context.Context, arg *T) (*T, error)
	GetByID(ctx context.Context, id int64) (*T, error)
	DeleteByID(ctx context.Context, id int64) (int64, error)
}
