package loki

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewClient_EmptyURL(t *testing.T) {
	_, err := NewClient("  ", nil)
	require.Error(t, err)
}

func TestPushEventJSON(t *testing.T) {
	var got PushRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/loki/api/v1/push", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL+"/", srv.Client())
	require.NoError(t, err)

	raw := []byte(`{"event_type":"note_added","source":"ledger","created_at":"2024-05-01T12:00:00Z"}`)
	require.NoError(t, c.PushEventJSON(context.Background(), raw))

	require.Len(t, got.Streams, 1)
	s := got.Streams[0]
	require.Equal(t, "device-maintenance", s.Stream["job"])
	require.Equal(t, "note_added", s.Stream["event_type"])
	require.Equal(t, "ledger", s.Stream["source"])
	require.Len(t, s.Values, 1)
	wantTS := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC).UnixNano()
	require.Equal(t, string(raw), s.Values[0][1])
	require.Equal(t, itoa(wantTS), s.Values[0][0])
}

func TestPushEvent_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)
	err = c.PushEventJSON(context.Background(), []byte("not json"))
	require.Error(t, err)
}

func TestBuildRequest_SanitizesLabels(t *testing.T) {
	req := buildRequest(time.Unix(0, 42), "line", map[string]string{"event_type": "weird type!", "empty": "  "})
	labels := req.Streams[0].Stream
	require.Equal(t, "weird_type_", labels["event_type"])
	_, ok := labels["empty"]
	require.False(t, ok)
	require.Equal(t, "42", req.Streams[0].Values[0][0])
}

func itoa(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
