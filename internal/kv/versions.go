package kv

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// VersionStore keeps one monotonic counter per principal. The counter is
// embedded in every issued token; bumping it invalidates all outstanding
// tokens without tracking them individually.
type VersionStore struct {
	store Store
}

// NewVersionStore wraps a key-value backend.
func NewVersionStore(store Store) *VersionStore {
	return &VersionStore{store: store}
}

func versionKey(principalKey string) string {
	return "user:" + principalKey + ":tokenVersion"
}

// Get returns the stored counter, defaulting to 0 when the principal has
// never been revoked.
func (v *VersionStore) Get(ctx context.Context, principalKey string) (int64, error) {
	principalKey = strings.TrimSpace(principalKey)
	if principalKey == "" {
		return 0, fmt.Errorf("principal key is required")
	}
	raw, ok, err := v.store.Get(ctx, versionKey(principalKey))
	if err != nil {
		return 0, fmt.Errorf("get token version: %w", err)
	}
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt token version %q: %w", raw, err)
	}
	return n, nil
}

// Increment bumps the counter and returns the new value.
//
// This is a plain read-increment-write: two concurrent revokes may coalesce
// into a single bump instead of two. That relaxation is acceptable: any
// higher value still invalidates every token issued under the old one.
// Under-invalidation would be a bug; over-invalidation is safe.
func (v *VersionStore) Increment(ctx context.Context, principalKey string) (int64, error) {
	current, err := v.Get(ctx, principalKey)
	if err != nil {
		return 0, err
	}
	next := current + 1
	if err := v.store.Put(ctx, versionKey(principalKey), strconv.FormatInt(next, 10), 0); err != nil {
		return 0, fmt.Errorf("store token version: %w", err)
	}
	return next, nil
}
