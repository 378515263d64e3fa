// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pdiddy/threadseeker/internal/sources"
	"github.com/pdiddy/threadseeker/pkg/types"
)

type fetchResult struct {
	name    string
	source  types.Source
	records []types.ResultRecord
	err     error
}

// fetch calls every adapter concurrently, each with its own timeout, and
// waits for all of them. Successful sources appear in the returned map, even
// with zero records; failed ones are absent and reported as "<name>: <err>"
// in adapter order.
func (e *Engine) fetch(ctx context.Context, queries types.GeneratedQueries, limit int) (map[types.Source][]types.ResultRecord, []string) {
	ctx, span := e.tracer.Start(ctx, "engine.fetch")
	defer span.End()

	results := make([]fetchResult, len(e.adapters))
	var wg sync.WaitGroup
	for i, a := range e.adapters {
		q := queries.Queries[a.Source()]
		if q == "" {
			q = queries.Queries[types.SourceRepo]
		}
		wg.Add(1)
		go func(i int, a sources.Adapter, q string) {
			defer wg.Done()
			results[i] = e.fetchOne(ctx, a, q, limit)
		}(i, a, q)
	}
	wg.Wait()

	fetched := make(map[types.Source][]types.ResultRecord)
	var errs []string
	for _, r := range results {
		if r.err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", r.name, r.err))
			e.logger.Warn("source fetch failed", "source", r.name, "error", r.err)
			continue
		}
		records := r.records
		if len(records) > limit {
			records = records[:limit]
		}
		fetched[r.source] = append(fetched[r.source], records...)
		if fetched[r.source] == nil {
			fetched[r.source] = []types.ResultRecord{}
		}
	}
	span.SetAttributes(attribute.Int("failed_sources", len(errs)))
	return fetched, errs
}

// fetchOne runs one adapter under the fetch timeout. An adapter that ignores
// its context is abandoned when the timeout fires.
func (e *Engine) fetchOne(ctx context.Context, a sources.Adapter, query string, limit int) fetchResult {
	ctx, span := e.tracer.Start(ctx, "source."+a.Name(), trace.WithAttributes(
		attribute.String("source", string(a.Source())),
		attribute.String("query", query),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
	defer cancel()

	done := make(chan fetchResult, 1)
	go func() {
		records, err := a.Search(ctx, query, limit)
		done <- fetchResult{records: records, err: err}
	}()

	var r fetchResult
	select {
	case r = <-done:
	case <-ctx.Done():
		r.err = fmt.Errorf("timed out after %v: %w", e.fetchTimeout, ctx.Err())
	}
	r.name = a.Name()
	r.source = a.Source()

	if r.err != nil {
		span.RecordError(r.err)
		span.SetStatus(codes.Error, r.err.Error())
	} else {
		span.SetAttributes(attribute.Int("records", len(r.records)))
	}
	return r
}
