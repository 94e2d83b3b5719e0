package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gen-labs/gen-assistant/pkg/cache"
)

const quotesBody = `{
	"USDBRL": {"bid": "5.43", "create_date": "2025-06-10 14:00:00"},
	"BTCBRL": {"bid": "540000.10", "create_date": "2025-06-10 14:00:00"},
	"EURBRL": {"bid": "5.90", "create_date": "2025-06-10 14:00:00"}
}`

func TestSnapshotFormatsIndicators(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(quotesBody))
	}))
	defer srv.Close()

	s := NewService(cache.New(), nil)
	s.URL = srv.URL

	got := s.Snapshot(context.Background())
	require.NotEmpty(t, got)
	assert.Contains(t, got, "INDICADORES FINANCEIROS")
	assert.Contains(t, got, "Dólar Comercial: R$ 5.43")
	assert.Contains(t, got, "Bitcoin: R$ 540000.10")
	assert.Contains(t, got, "Euro: R$ 5.90")
}

func TestSnapshotCachesWithinTTL(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(quotesBody))
	}))
	defer srv.Close()

	s := NewService(cache.New(), nil)
	s.URL = srv.URL
	s.TTL = time.Minute

	first := s.Snapshot(context.Background())
	second := s.Snapshot(context.Background())
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSnapshotDegradesOnUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewService(cache.New(), nil)
	s.URL = srv.URL

	assert.Empty(t, s.Snapshot(context.Background()))
}

func TestSnapshotReportsLookupOutcome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(quotesBody))
	}))
	defer srv.Close()

	s := NewService(cache.New(), nil)
	s.URL = srv.URL

	var outcomes []string
	s.OnLookup = func(o string) { outcomes = append(outcomes, o) }

	s.Snapshot(context.Background())
	s.Snapshot(context.Background())
	assert.Equal(t, []string{"miss", "hit"}, outcomes)
}
