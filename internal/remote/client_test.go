package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/timmy/cinevibe/internal/domain"
	"github.com/timmy/cinevibe/internal/vector"
)

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(ClientConfig{BaseURL: srv.URL + "/", Timeout: 2 * time.Second})
}

func testPayload(t *testing.T) *Payload {
	t.Helper()
	mood := domain.DefaultMood().ToggleDescriptor("upbeat")
	p, err := NewPayload(mood, 3, vector.MetricCosine)
	if err != nil {
		t.Fatalf("NewPayload: %v", err)
	}
	return p
}

func TestRecommendSuccess(t *testing.T) {
	var got Payload
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/recommendations/mood" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		writeJSON(w, http.StatusOK, `{"success":true,"k":3,"distance_metric":"cosine",
			"recommendations":[{"id":"la-la-land","title":"La La Land","distance":0.1,"similarity":0.9,"score":90}]}`)
	})

	resp, err := c.Recommend(context.Background(), testPayload(t))
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(resp.Recommendations) != 1 || resp.Recommendations[0].ID != "la-la-land" || resp.Recommendations[0].Score != 90 {
		t.Fatalf("Recommend() = %+v", resp)
	}
	if got.DistanceMetric != "cosine" || got.K != 3 || len(got.Descriptors) != 8 || got.Descriptors[2] != 1 {
		t.Fatalf("server saw payload %+v", got)
	}
	if got.Intensity != 0.5 || got.Pacing != 0.5 || got.ColorHue != 0.5 {
		t.Fatalf("server saw sliders %+v", got)
	}
}

func TestRecommendFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error with message", http.StatusBadRequest, `{"success":false,"error":"bad k"}`, ErrRequestFailed},
		{"server error without body", http.StatusInternalServerError, `{}`, ErrRequestFailed},
		{"success false", http.StatusOK, `{"success":false,"error":"model not loaded"}`, ErrRequestFailed},
		{"malformed body", http.StatusOK, `{"success":`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})
			_, err := c.Recommend(context.Background(), testPayload(t))
			if err == nil {
				t.Fatal("Recommend() error = nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Recommend() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRecommendUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(ClientConfig{BaseURL: url, Timeout: time.Second})
	_, err := c.Recommend(context.Background(), testPayload(t))
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Recommend() error = %v, want ErrUnavailable", err)
	}
	if c.Health(context.Background()) {
		t.Fatal("Health() = true for closed server")
	}
}

func TestHealth(t *testing.T) {
	healthy := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"status":"healthy","movies_loaded":5}`)
	})
	if !healthy.Health(context.Background()) {
		t.Fatal("Health() = false for 200")
	}
	sick := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, `{}`)
	})
	if sick.Health(context.Background()) {
		t.Fatal("Health() = true for 503")
	}
}

func TestNewPayloadValidation(t *testing.T) {
	tests := []struct {
		name    string
		mood    domain.Mood
		k       int
		metric  vector.Metric
		wantErr error
	}{
		{"default", domain.DefaultMood(), 5, "", nil},
		{"zero k", domain.DefaultMood(), 0, vector.MetricEuclidean, ErrInvalidPayload},
		{"intensity out of range", domain.DefaultMood().WithIntensity(1.2), 5, vector.MetricEuclidean, ErrInvalidPayload},
		{"unknown metric", domain.DefaultMood(), 5, "manhattan", vector.ErrUnknownMetric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPayload(tt.mood, tt.k, tt.metric)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("NewPayload() error = %v", err)
				}
				if p.DistanceMetric != "euclidean" || len(p.Vector()) != vector.Dimensions {
					t.Fatalf("NewPayload() = %+v", p)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewPayload() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPayloadValidateDescriptorLength(t *testing.T) {
	p := &Payload{ColorHue: 0.5, Intensity: 0.5, Pacing: 0.5, Descriptors: []float64{1, 0}, K: 5, DistanceMetric: "euclidean"}
	if err := p.Validate(); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("Validate() = %v", err)
	}
}
