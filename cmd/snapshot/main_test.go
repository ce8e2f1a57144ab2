package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/reservoir-levels-service/internal/domain"
)

func fakeUpstream(t *testing.T, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func freeze(t *testing.T) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })
}

func TestRun_WritesSnapshotToStdout(t *testing.T) {
	freeze(t)
	url := fakeUpstream(t, `[{"date":"2026-10-16","Mornos":100},{"date":"2026-10-17","Mornos":110}]`)

	var stdout bytes.Buffer
	require.NoError(t, run([]string{"-years", "1", "-base-url", url, "-tz", "UTC"}, &stdout))

	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &snap))
	assert.Equal(t, 1, snap.Years)
	assert.Len(t, snap.Points, 2)
	assert.Equal(t, "Oct 2026 - Oct 2026", snap.RangeLabel)
}

func TestRun_WritesFile(t *testing.T) {
	freeze(t)
	url := fakeUpstream(t, `{"date":"2026-10-16","Mornos":100}`)
	out := filepath.Join(t.TempDir(), "snapshot.json")

	require.NoError(t, run([]string{"-base-url", url, "-tz", "UTC", "-out", out}, &bytes.Buffer{}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"range_label": "Oct 2026 - Oct 2026"`)
}

func TestRun_NoData(t *testing.T) {
	freeze(t)
	url := fakeUpstream(t, `[]`)

	err := run([]string{"-years", "2", "-base-url", url, "-tz", "UTC"}, &bytes.Buffer{})
	require.ErrorIs(t, err, domain.ErrNoData)
}

func TestRun_InvalidFlags(t *testing.T) {
	assert.Error(t, run([]string{"-years", "0"}, &bytes.Buffer{}))
	assert.Error(t, run([]string{"-tz", "Nowhere/Special"}, &bytes.Buffer{}))
	assert.Error(t, run([]string{"-unknown"}, &bytes.Buffer{}))
}
