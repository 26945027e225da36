package backend

import (
	"context"

	"github.com/entrhq/pagewise/pkg/metrics"
	"github.com/entrhq/pagewise/pkg/types"
)

type instrumented struct {
	next    Backend
	metrics *metrics.Metrics
}

// Instrumented wraps b so every call is counted in m. A nil m returns b as is.
func Instrumented(b Backend, m *metrics.Metrics) Backend {
	if m == nil {
		return b
	}
	return &instrumented{next: b, metrics: m}
}

func (i *instrumented) Search(ctx context.Context, query string, topN int) (types.Document, error) {
	doc, err := i.next.Search(ctx, query, topN)
	i.metrics.ObserveBackend("search", err)
	return doc, err
}

func (i *instrumented) Fetch(ctx context.Context, url string) (types.Document, error) {
	doc, err := i.next.Fetch(ctx, url)
	i.metrics.ObserveBackend("fetch", err)
	return doc, err
}
