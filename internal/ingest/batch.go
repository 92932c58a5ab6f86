package ingest

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BatchResult holds the outcome of fetching one endpoint kind for a city list.
// Responses keep the relative input order of the successful cities.
type BatchResult struct {
	Kind      EndpointKind
	Responses []Response
	Failures  []*FetchError
}

// FetchAll issues one request per city, at most concurrency at a time, and
// normalizes every successful response against its input coordinate. A failed
// city is logged and skipped; it never cancels its siblings.
func FetchAll(ctx context.Context, f Fetcher, kind EndpointKind, refs []CityReference, concurrency int, logger *zap.Logger) BatchResult {
	if concurrency < 1 {
		concurrency = 1
	}

	type slot struct {
		resp Response
		err  *FetchError
	}
	slots := make([]slot, len(refs))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			resp, err := f.Fetch(ctx, kind, ref.Coordinate)
			if err != nil {
				fe := &FetchError{Kind: kind, City: ref.Name, Coordinate: ref.Coordinate, Err: err}
				logger.Warn("fetch failed",
					zap.String("kind", string(kind)),
					zap.String("city", ref.Name),
					zap.Float64("lat", ref.Lat),
					zap.Float64("lon", ref.Lon),
					zap.Error(err))
				slots[i] = slot{err: fe}
				return nil
			}
			logger.Info("fetch succeeded",
				zap.String("kind", string(kind)),
				zap.String("city", ref.Name),
				zap.Float64("lat", ref.Lat),
				zap.Float64("lon", ref.Lon))
			slots[i] = slot{resp: Normalize(resp, ref.Coordinate)}
			return nil
		})
	}
	_ = g.Wait()

	res := BatchResult{Kind: kind, Responses: make([]Response, 0, len(refs))}
	for _, s := range slots {
		if s.err != nil {
			res.Failures = append(res.Failures, s.err)
			continue
		}
		res.Responses = append(res.Responses, s.resp)
	}
	return res
}
