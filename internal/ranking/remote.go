package ranking

import (
	"context"
	"fmt"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/timmy/cinevibe/internal/domain"
	"github.com/timmy/cinevibe/internal/metrics"
	"github.com/timmy/cinevibe/internal/remote"
	"golang.org/x/sync/singleflight"
)

const healthProbeTimeout = 5 * time.Second

// RemoteClient is the subset of remote.Client used by Remote.
type RemoteClient interface {
	Recommend(ctx context.Context, payload *remote.Payload) (*remote.Response, error)
	Health(ctx context.Context) bool
}

// RemoteOptions configures a Remote ranker.
type RemoteOptions struct {
	// HealthTTL is how long a health probe result is reused. Zero probes on
	// every call.
	HealthTTL time.Duration
	Breaker   BreakerSettings
}

// Remote ranks through a remote ranking service. It probes the service's
// health before sending a request and guards calls with a circuit breaker.
// Wrap it in a Fallback; on its own it returns errors.
type Remote struct {
	client    RemoteClient
	cb        *gobreaker.CircuitBreaker[*remote.Response]
	healthTTL time.Duration
	now       func() time.Time
	probes    singleflight.Group

	mu        sync.Mutex
	checkedAt time.Time
	checked   bool
	healthy   bool
}

// NewRemote wraps client as a Ranker.
func NewRemote(client RemoteClient, opts RemoteOptions) *Remote {
	return &Remote{
		client:    client,
		cb:        newBreaker[*remote.Response]("remote-ranker", opts.Breaker),
		healthTTL: opts.HealthTTL,
		now:       time.Now,
	}
}

// Name returns "remote".
func (*Remote) Name() string {
	return StrategyRemote
}

// Available reports the remote's health, probing at most once per HealthTTL.
// Concurrent callers share one in-flight probe; a caller whose ctx ends first
// gets false without waiting for it.
func (r *Remote) Available(ctx context.Context) bool {
	r.mu.Lock()
	if r.checked && r.healthTTL > 0 && r.now().Sub(r.checkedAt) < r.healthTTL {
		healthy := r.healthy
		r.mu.Unlock()
		return healthy
	}
	r.mu.Unlock()

	ch := r.probes.DoChan("health", func() (interface{}, error) {
		// the probe outlives any single waiter
		probeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), healthProbeTimeout)
		defer cancel()
		start := r.now()
		healthy := r.client.Health(probeCtx)
		metrics.RecordHealthCheck(healthy)

		r.mu.Lock()
		r.healthy = healthy
		r.checked = true
		r.checkedAt = start
		r.mu.Unlock()
		return healthy, nil
	})

	select {
	case res := <-ch:
		return res.Val.(bool)
	case <-ctx.Done():
		return false
	}
}

// Rank sends q to the remote service and joins the answer onto catalog by id.
// Remote order is kept.
func (r *Remote) Rank(ctx context.Context, q Query, catalog []domain.Movie) ([]Result, error) {
	payload, err := remote.NewPayload(q.Mood, q.K, q.Metric)
	if err != nil {
		return nil, err
	}
	if !r.Available(ctx) {
		return nil, remote.ErrUnavailable
	}

	resp, err := execute(r.cb, func() (*remote.Response, error) {
		return r.client.Recommend(ctx, payload)
	})
	if err != nil {
		return nil, fmt.Errorf("remote rank: %w", err)
	}
	if len(resp.Recommendations) == 0 {
		return nil, ErrEmptyResult
	}
	return joinRecommendations(resp.Recommendations, catalog), nil
}

// joinRecommendations attaches remote scores to local movies. Ids the catalog
// does not know keep the remote's own fields.
func joinRecommendations(recs []remote.Recommendation, catalog []domain.Movie) []Result {
	byID := make(map[string]int, len(catalog))
	for i, m := range catalog {
		byID[m.ID] = i
	}

	results := make([]Result, 0, len(recs))
	for _, rec := range recs {
		movie := rec.Movie.Clone()
		if i, ok := byID[rec.ID]; ok {
			movie = catalog[i].Clone()
		}
		score := rec.Score
		if score == 0 {
			score = rec.Similarity * 100
		}
		results = append(results, Result{
			Movie:      movie,
			Distance:   rec.Distance,
			Similarity: rec.Similarity,
			Score:      score,
			Strategy:   StrategyRemote,
		})
	}
	return results
}
