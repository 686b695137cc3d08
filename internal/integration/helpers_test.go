//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/irrigation-decision-service/internal/domain"
)

const kafkaImage = "confluentinc/confluent-local:7.5.0"

var testdata = filepath.Join("..", "pipeline", "testdata")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node KRaft broker for the duration of the test
// and returns its bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	kc, err := tckafka.Run(ctx, kafkaImage, tckafka.WithClusterID("irrigation-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = kc.Terminate(context.Background()) })

	brokers, err := kc.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
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

type observationFixture struct {
	Name     string          `json:"name"`
	Strategy string          `json:"strategy"`
	Trigger  string          `json:"trigger"`
	Request  json.RawMessage `json:"request"`
}

func loadFixtures(t *testing.T) []observationFixture {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(testdata, "observations.json"))
	require.NoError(t, err)
	var fixtures []observationFixture
	require.NoError(t, json.Unmarshal(data, &fixtures))
	require.NotEmpty(t, fixtures)
	return fixtures
}

// withID sets the request id so the decision key is predictable.
func withID(t *testing.T, request json.RawMessage, id string) []byte {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(request, &body))
	body["id"] = id
	out, err := json.Marshal(body)
	require.NoError(t, err)
	return out
}

// decisionMessage is one message read back from the sink topic.
type decisionMessage struct {
	Decision domain.Decision
	Key      string
	Headers  map[string]string
}

func readDecision(ctx context.Context, t *testing.T, consumer *kafkago.Reader) decisionMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var d domain.Decision
	require.NoError(t, json.Unmarshal(msg.Value, &d), "unmarshal sink message")
	return decisionMessage{Decision: d, Key: string(msg.Key), Headers: headers}
}
