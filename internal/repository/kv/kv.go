// Package kv holds key-to-blob stores: the storefront's local store for
// carts, the local catalog and hero slides.
package kv

import (
	"context"
	"errors"
)

var ErrKeyNotFound = errors.New("key not found")

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
