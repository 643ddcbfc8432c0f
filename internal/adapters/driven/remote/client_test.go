package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/gridsync/internal/core/domain"
)

type failingTokenSource struct{}

func (failingTokenSource) Token() (*oauth2.Token, error) {
	return nil, domain.ErrAuthRequired
}

func newTestClient(t *testing.T, srv *httptest.Server, ts oauth2.TokenSource) *Client {
	t.Helper()
	client, err := NewClient(Config{BaseURL: srv.URL + "/api/v1/", TokenSource: ts, UserAgent: "gridsync-test"})
	require.NoError(t, err)
	return client
}

func testBatch() domain.SyncBatch {
	return domain.SyncBatch{
		BatchID:   "batch-1",
		Timestamp: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
		Records: []domain.SyncRecord{
			{
				ID:         "r1",
				EntityType: domain.EntityPole,
				Action:     domain.ActionCreate,
				Data:       domain.PolePayload{PowerLineID: domain.IntID(4), PoleNumber: "12", PoleType: "anchor"},
				Timestamp:  time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
				Status:     domain.StatusPending,
			},
		},
	}
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, domain.ErrRemoteNotConfigured)

	_, err = NewClient(Config{BaseURL: "ftp://grid.example.com"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = NewClient(Config{BaseURL: "grid.example.com"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	client, err := NewClient(Config{BaseURL: "https://grid.example.com/api/"})
	require.NoError(t, err)
	assert.Equal(t, "https://grid.example.com/api", client.BaseURL())
}

func TestClient_UploadBatch(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/sync/upload", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "gridsync-test", r.Header.Get("User-Agent"))

		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":false,"processed_count":0,"failed_count":1,
			"errors":[{"record_id":"r1","error":"unknown power line"}],
			"batch_id":"batch-1","timestamp":"2026-05-01T10:00:01.5"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "secret-token"}))

	result, err := client.UploadBatch(context.Background(), testBatch())
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, 1, result.FailedCount)
	assert.Equal(t, []domain.RecordError{{RecordID: "r1", Error: "unknown power line"}}, result.Errors)
	assert.Equal(t, "batch-1", result.BatchID)

	assert.Equal(t, "batch-1", gotBody["batch_id"])
	records := gotBody["records"].([]any)
	require.Len(t, records, 1)
	record := records[0].(map[string]any)
	assert.Equal(t, "pole", record["entity_type"])
	assert.Equal(t, "pending", record["status"])
	assert.Equal(t, float64(4), record["data"].(map[string]any)["power_line_id"])
}

func TestClient_DownloadChanges(t *testing.T) {
	since := time.Date(2026, 5, 1, 8, 30, 0, 250000000, time.FixedZone("MSK", 3*3600))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/sync/download", r.URL.Path)
		assert.Equal(t, "2026-05-01T05:30:00.250Z", r.URL.Query().Get("last_sync"))
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))

		_, _ = w.Write([]byte(`{"records":[
			{"id":"s1","entity_type":"span","action":"update","data":{"id":"sp-1","length":88.5},"timestamp":"2026-05-01T07:00:00Z"}
		],"timestamp":"2026-05-01T10:00:00Z"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "abc"}))

	result, err := client.DownloadChanges(context.Background(), since)
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	span, ok := result.Records[0].Data.(domain.SpanPayload)
	require.True(t, ok)
	assert.Equal(t, "sp-1", span.ID.String())
	require.NotNil(t, span.Length)
	assert.InDelta(t, 88.5, *span.Length, 0.001)
	assert.True(t, time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC).Equal(result.Timestamp))
}

func TestClient_DownloadChangesKeepsGoodRecordsBesideBadOnes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"records":[
			{"id":"ok","entity_type":"tap","action":"create","data":{"id":9,"tap_number":"T-1"},"timestamp":"2026-05-01T07:00:00Z"},
			{"id":"odd","entity_type":"pole","action":"update","data":{"id":3,"latitude":"n/a"},"timestamp":"2026-05-01T07:05:00"},
			{"id":"lost","action":"update","data":{"id":4}}
		],"timestamp":"2026-05-01T10:00:00"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv, nil)

	result, err := client.DownloadChanges(context.Background(), time.Time{})
	require.NoError(t, err)

	require.Len(t, result.Records, 2)
	assert.Equal(t, "ok", result.Records[0].ID)
	_, ok := result.Records[0].Data.(domain.TapPayload)
	assert.True(t, ok)

	assert.Equal(t, "odd", result.Records[1].ID)
	generic, ok := result.Records[1].Data.(domain.GenericPayload)
	require.True(t, ok)
	assert.Equal(t, "n/a", generic.Fields["latitude"])
	assert.True(t, time.Date(2026, 5, 1, 7, 5, 0, 0, time.UTC).Equal(result.Records[1].Timestamp))

	require.Len(t, result.Skipped, 1)
	assert.Contains(t, result.Skipped[0].Error(), "record 2")
	assert.True(t, time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC).Equal(result.Timestamp))
}

func TestClient_NoTokenSourceSendsNoAuthorization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"records":[],"timestamp":"2026-05-01T10:00:00Z"}`))
	}))
	defer srv.Close()

	result, err := newTestClient(t, srv, nil).DownloadChanges(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, result.Records)
}

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantMsg string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"detail":"Not authenticated"}`, domain.ErrAuthRequired, "401"},
		{"forbidden", http.StatusForbidden, ``, domain.ErrAuthRequired, "403"},
		{"server error", http.StatusInternalServerError, `{"detail":"database unavailable"}`, domain.ErrTransport, "database unavailable"},
		{"validation error", http.StatusUnprocessableEntity, `{"detail":[{"loc":["query","last_sync"]}]}`, domain.ErrTransport, "last_sync"},
		{"bad gateway", http.StatusBadGateway, `upstream down`, domain.ErrTransport, "upstream down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv, nil).UploadBatch(context.Background(), testBatch())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestClient_UndecodableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, nil).UploadBatch(context.Background(), testBatch())
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	client := newTestClient(t, srv, nil)
	srv.Close()

	_, err := client.DownloadChanges(context.Background(), time.Now())
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestClient_TokenSourceFailure(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, failingTokenSource{}).UploadBatch(context.Background(), testBatch())
	assert.ErrorIs(t, err, domain.ErrAuthRequired)
	assert.False(t, errors.Is(err, domain.ErrTransport))
	assert.Equal(t, int32(0), hits.Load())
}

func TestClient_RateLimitedBlocksUntilRetryAfter(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set(HeaderRetryAfter, "120")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := newTestClient(t, srv, nil)
	before := time.Now()

	_, err := client.UploadBatch(context.Background(), testBatch())
	require.ErrorIs(t, err, domain.ErrRateLimited)

	var rle *RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.WithinDuration(t, before.Add(120*time.Second), rle.ResetAt, 5*time.Second)

	// The next request fails fast without reaching the server.
	_, err = client.DownloadChanges(context.Background(), time.Now())
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, int32(1), hits.Load())
}
