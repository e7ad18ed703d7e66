package ranking

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/timmy/cinevibe/internal/domain"
	"github.com/timmy/cinevibe/internal/remote"
	"github.com/timmy/cinevibe/internal/vector"
)

type fakeClient struct {
	healthy     bool
	resp        *remote.Response
	err         error
	healthCalls int
	calls       int
	lastPayload *remote.Payload
}

func (f *fakeClient) Recommend(_ context.Context, p *remote.Payload) (*remote.Response, error) {
	f.calls++
	f.lastPayload = p
	return f.resp, f.err
}

func (f *fakeClient) Health(context.Context) bool {
	f.healthCalls++
	return f.healthy
}

func rec(id string, distance, similarity, score float64) remote.Recommendation {
	return remote.Recommendation{Movie: domain.Movie{ID: id, Title: "remote " + id}, Distance: distance, Similarity: similarity, Score: score}
}

func TestRemoteJoinsByID(t *testing.T) {
	client := &fakeClient{healthy: true, resp: &remote.Response{
		Success: true,
		Recommendations: []remote.Recommendation{
			rec("baby-driver", 0.2, 0.8, 0),
			rec("unknown-film", 0.3, 0.7, 70),
			rec("la-la-land", 0.4, 0.6, 61),
		},
	}}
	r := NewRemote(client, RemoteOptions{Breaker: DefaultBreakerSettings()})
	q := Query{Mood: domain.DefaultMood().ToggleDescriptor("upbeat"), K: 3, Metric: vector.MetricCosine}

	results, err := r.Rank(context.Background(), q, testCatalog())
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if got := ids(results); !reflect.DeepEqual(got, []string{"baby-driver", "unknown-film", "la-la-land"}) {
		t.Fatalf("order = %v", got)
	}
	if results[0].Title != "baby-driver" || len(results[0].Tags) != 2 {
		t.Fatalf("known id should carry catalog fields: %+v", results[0].Movie)
	}
	if results[1].Title != "remote unknown-film" {
		t.Fatalf("unknown id should keep remote fields: %+v", results[1].Movie)
	}
	if results[0].Score != 80 || results[2].Score != 61 {
		t.Fatalf("scores = %v, %v", results[0].Score, results[2].Score)
	}
	if client.lastPayload.K != 3 || client.lastPayload.DistanceMetric != "cosine" || client.lastPayload.Descriptors[2] != 1 {
		t.Fatalf("payload = %+v", client.lastPayload)
	}
}

func TestRemoteErrors(t *testing.T) {
	tests := []struct {
		name    string
		client  *fakeClient
		q       Query
		wantErr error
		calls   int
	}{
		{
			name:    "unhealthy",
			client:  &fakeClient{healthy: false},
			q:       Query{Mood: domain.DefaultMood(), K: 3},
			wantErr: remote.ErrUnavailable,
		},
		{
			name:    "request failure",
			client:  &fakeClient{healthy: true, err: remote.ErrRequestFailed},
			q:       Query{Mood: domain.DefaultMood(), K: 3},
			wantErr: remote.ErrRequestFailed,
			calls:   1,
		},
		{
			name:    "empty result",
			client:  &fakeClient{healthy: true, resp: &remote.Response{Success: true}},
			q:       Query{Mood: domain.DefaultMood(), K: 3},
			wantErr: ErrEmptyResult,
			calls:   1,
		},
		{
			name:    "invalid payload is not sent",
			client:  &fakeClient{healthy: true},
			q:       Query{Mood: domain.DefaultMood(), K: 0},
			wantErr: remote.ErrInvalidPayload,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRemote(tt.client, RemoteOptions{Breaker: DefaultBreakerSettings()})
			_, err := r.Rank(context.Background(), tt.q, testCatalog())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Rank() error = %v, want %v", err, tt.wantErr)
			}
			if tt.client.calls != tt.calls {
				t.Fatalf("Recommend calls = %d, want %d", tt.client.calls, tt.calls)
			}
		})
	}
}

func TestRemoteHealthIsCached(t *testing.T) {
	client := &fakeClient{healthy: false}
	r := NewRemote(client, RemoteOptions{HealthTTL: time.Minute, Breaker: DefaultBreakerSettings()})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if r.Available(context.Background()) {
			t.Fatal("Available() = true")
		}
	}
	if client.healthCalls != 1 {
		t.Fatalf("health probes = %d, want 1", client.healthCalls)
	}

	client.healthy = true
	now = now.Add(2 * time.Minute)
	if !r.Available(context.Background()) {
		t.Fatal("Available() = false after TTL expiry")
	}
	if client.healthCalls != 2 {
		t.Fatalf("health probes = %d, want 2", client.healthCalls)
	}
}

func TestRemoteHealthWithoutTTLProbesEveryCall(t *testing.T) {
	client := &fakeClient{healthy: true}
	r := NewRemote(client, RemoteOptions{Breaker: DefaultBreakerSettings()})
	r.Available(context.Background())
	r.Available(context.Background())
	if client.healthCalls != 2 {
		t.Fatalf("health probes = %d, want 2", client.healthCalls)
	}
}

type slowHealthClient struct {
	fakeClient
	delay  time.Duration
	probes atomic.Int32
}

func (c *slowHealthClient) Health(context.Context) bool {
	c.probes.Add(1)
	time.Sleep(c.delay)
	return true
}

func TestRemoteHealthProbesDoNotSerialize(t *testing.T) {
	client := &slowHealthClient{delay: 200 * time.Millisecond}
	r := NewRemote(client, RemoteOptions{Breaker: DefaultBreakerSettings()})

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !r.Available(context.Background()) {
				t.Error("Available() = false")
			}
		}()
	}
	wg.Wait()

	// five probes back to back would take a full second
	if elapsed := time.Since(start); elapsed > 700*time.Millisecond {
		t.Fatalf("5 concurrent health checks took %v", elapsed)
	}
	if n := client.probes.Load(); n < 1 || n > 5 {
		t.Fatalf("health probes = %d", n)
	}
}

func TestRemoteHealthHonoursCallerDeadline(t *testing.T) {
	client := &slowHealthClient{delay: 300 * time.Millisecond}
	r := NewRemote(client, RemoteOptions{HealthTTL: time.Minute, Breaker: DefaultBreakerSettings()})

	go r.Available(context.Background())
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	if r.Available(ctx) {
		t.Fatal("Available() = true after the deadline")
	}
	if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
		t.Fatalf("caller with a 20ms deadline waited %v", elapsed)
	}

	// the shared probe still completes and fills the cache
	time.Sleep(400 * time.Millisecond)
	if !r.Available(context.Background()) {
		t.Fatal("Available() = false after the probe finished")
	}
	if n := client.probes.Load(); n != 1 {
		t.Fatalf("health probes = %d, want 1", n)
	}
}

func TestRemoteBreakerOpens(t *testing.T) {
	client := &fakeClient{healthy: true, err: remote.ErrUnavailable}
	r := NewRemote(client, RemoteOptions{Breaker: BreakerSettings{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		FailureRatio: 0.5,
		MinRequests:  2,
	}})
	q := Query{Mood: domain.DefaultMood(), K: 2}

	for i := 0; i < 2; i++ {
		if _, err := r.Rank(context.Background(), q, testCatalog()); err == nil {
			t.Fatal("expected failure")
		}
	}
	_, err := r.Rank(context.Background(), q, testCatalog())
	if err == nil {
		t.Fatal("expected rejection")
	}
	if client.calls != 2 {
		t.Fatalf("Recommend calls = %d, want 2 (third call rejected by breaker)", client.calls)
	}
}
