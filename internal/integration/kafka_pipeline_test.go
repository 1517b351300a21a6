//go:build integration

package integration_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/radiance-dashboard/internal/adapter/kafka"
	"github.com/couchcryptid/radiance-dashboard/internal/config"
	"github.com/couchcryptid/radiance-dashboard/internal/domain"
	"github.com/couchcryptid/radiance-dashboard/internal/observability"
	"github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testSelectionTopic = "test-selection-events"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("radiance-test"))
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
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
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// TestSelectionEventRoundTrip publishes through kafka.Writer and reads the
// message back with a plain consumer.
func TestSelectionEventRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSelectionTopic)

	cfg := &config.Config{
		KafkaBrokers:        []string{broker},
		KafkaSelectionTopic: testSelectionTopic,
	}
	metrics := observability.NewMetricsForTesting()
	writer := kafka.NewWriter(cfg, discardLogger(), metrics)
	t.Cleanup(func() { _ = writer.Close() })

	year := 2023
	sel := domain.Selection{
		Municipalities: []string{"Coyoacán", "Tlalpan"},
		Metrics:        []domain.Metric{domain.MetricMean, domain.MetricMax},
		Year:           &year,
	}
	events := []domain.SelectionEvent{
		domain.NewSelectionEvent(domain.EventMunicipalities, sel),
		domain.NewSelectionEvent(domain.EventYear, sel),
	}
	for _, ev := range events {
		require.NoError(t, writer.Publish(ctx, ev))
	}

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSelectionTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	for _, want := range events {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from selection topic")

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, want.ID, string(msg.Key))
		assert.Equal(t, string(want.Kind), headers["kind"])
		_, err = time.Parse(time.RFC3339, headers["at"])
		assert.NoError(t, err, "at should be valid RFC3339")

		var got domain.SelectionEvent
		require.NoError(t, json.Unmarshal(msg.Value, &got))
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, sel.Municipalities, got.Municipalities)
		assert.Equal(t, sel.Metrics, got.Metrics)
		require.NotNil(t, got.Year)
		assert.Equal(t, 2023, *got.Year)
	}
}
