package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/vinodhj/cf-jwt-auth/internal/ids"
	"github.com/vinodhj/cf-jwt-auth/internal/kv"
	"github.com/vinodhj/cf-jwt-auth/internal/obs"
)

// defaultRetention bounds how long verification-failure records stay in the
// key-value backend.
const defaultRetention = 30 * 24 * time.Hour

// FailureRecord is the persisted trace of a rejected token verification.
// Tokens are opaque signed blobs, never credentials, so storing them for
// diagnostics is safe.
type FailureRecord struct {
	Token      string    `json:"token"`
	Error      string    `json:"error"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Recorder persists verification failures to the key-value backend, keyed by
// occurrence time so records list chronologically.
type Recorder struct {
	store     kv.Store
	retention time.Duration
	now       func() time.Time
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithRetention overrides the record retention hint.
func WithRetention(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		if d > 0 {
			r.retention = d
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) RecorderOption {
	return func(r *Recorder) {
		if fn != nil {
			r.now = fn
		}
	}
}

// NewRecorder constructs a Recorder over the given backend.
func NewRecorder(store kv.Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:     store,
		retention: defaultRetention,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RecordVerifyFailure writes the failure best-effort. Write errors are
// logged and swallowed: audit persistence must never block or alter the
// error returned to the caller, and an aborted request may legitimately
// leave the write unfinished.
func (r *Recorder) RecordVerifyFailure(ctx context.Context, token string, verifyErr error) {
	if r == nil || r.store == nil {
		return
	}
	occurred := r.now().UTC()
	record := FailureRecord{
		Token:      token,
		Error:      verifyErr.Error(),
		OccurredAt: occurred,
	}
	payload, err := json.Marshal(record)
	if err != nil {
		obs.LogError("audit: marshal failure record", err)
		return
	}
	key := "audit:verify-failure:" + ids.NewAt(occurred)
	if err := r.store.Put(ctx, key, string(payload), r.retention); err != nil {
		obs.LogError("audit: persist failure record", err)
	}
}
