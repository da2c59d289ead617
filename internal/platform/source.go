// Package platform is the ingestion boundary: it pulls raw posts from a
// social platform source and enqueues them for processing. Sources are
// streaming and fallible per item; a bad record never aborts the stream.
package platform

import (
	"context"

	"github.com/emberwatch/emberwatch/internal/domain"
)

// Result carries one post off a source, or the error that replaced it.
type Result struct {
	Post *domain.RawPost
	Err  error
}

// Source streams raw posts for one universe. The channel closes when the
// source is exhausted or the context is cancelled.
type Source interface {
	Posts(ctx context.Context) (<-chan Result, error)
}
