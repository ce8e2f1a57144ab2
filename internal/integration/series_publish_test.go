//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/reservoir-levels-service/internal/adapter/eydap"
	"github.com/couchcryptid/reservoir-levels-service/internal/adapter/kafka"
	"github.com/couchcryptid/reservoir-levels-service/internal/config"
	"github.com/couchcryptid/reservoir-levels-service/internal/domain"
	"github.com/couchcryptid/reservoir-levels-service/internal/observability"
	"github.com/couchcryptid/reservoir-levels-service/internal/pipeline"
)

const testSeriesTopic = "test-reservoir-series"

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	ctr, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("reservoirs-test"))
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err, "start kafka container")

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// upstream serves one Friday and one Saturday reading for every requested year.
func upstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		anchor, err := time.Parse("02-01-2006", r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:])
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		// Years before 2025 are unavailable upstream.
		if anchor.Year() < 2025 {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		body := []map[string]any{
			{"date": anchor.AddDate(0, 0, -1).Format("2006-01-02"), "Mornos": anchor.Year(), "Evinos": "10", "Yliki": 20, "Marathon": 30},
			{"Date": anchor.Format("02/01/2006"), "mornos": "", "evinos": 11, "yliko": 21, "marathonas": 31},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// TestSeriesPublishedToKafka runs a full load against a fake upstream and
// reads the published snapshot back from a real broker.
func TestSeriesPublishedToKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSeriesTopic)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	cfg := &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaSeriesTopic: testSeriesTopic,
		Location:         time.UTC,
	}

	writer := kafka.NewWriter(cfg, logger)
	t.Cleanup(func() { _ = writer.Close() })

	client := eydap.NewClient(upstream(t).URL, 5*time.Second, metrics, logger)
	orch := pipeline.NewOrchestrator(client, 0, time.UTC, logger)
	svc := pipeline.NewService(orch, pipeline.NewSeriesCache(), writer,
		pipeline.ServiceConfig{MaxYears: 10, Location: time.UTC}, logger, metrics)

	res, err := svc.Load(ctx, 3, pipeline.LoadOptions{})
	require.NoError(t, err)
	// 2025-10-17 (Friday), 2026-10-16 (Friday), 2026-10-17 (latest).
	require.Equal(t, 3, res.Series.Len())

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testSeriesTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	t.Cleanup(func() { _ = reader.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := reader.ReadMessage(readCtx)
	require.NoError(t, err, "read snapshot")

	assert.Equal(t, "years-3", string(msg.Key))
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "3", headers["years"])
	assert.Equal(t, "2026-10-17T08:00:00Z", headers["generated_at"])

	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal(msg.Value, &snap))
	assert.Equal(t, 3, snap.Years)
	assert.Equal(t, "Oct 2025 - Oct 2026", snap.RangeLabel)
	require.Len(t, snap.Points, 3)

	last := snap.Points[2]
	assert.InDelta(t, 2026, last.Mornos, 0, "empty reading forward-filled")
	assert.InDelta(t, 2026+11+21+31, last.Total, 0)
}
