package kafka

import (
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/irrigation-decision-service/internal/domain"
)

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("field-7"),
		Value:     []byte(`{"area":100}`),
		Topic:     "weather-observations",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("station-12")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("field-7"), raw.Key)
	assert.JSONEq(t, `{"area":100}`, string(raw.Value))
	assert.Equal(t, "weather-observations", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "station-12", raw.Headers["source"])
	assert.Nil(t, raw.Commit)
}

func TestToMessage(t *testing.T) {
	d := domain.Decision{
		ID:          "dec-1",
		Strategy:    domain.StrategyDecision{Strategy: domain.StrategyWaterSaving},
		GeneratedAt: time.Date(2024, 7, 1, 6, 0, 0, 0, time.UTC),
	}
	out, err := domain.SerializeDecision(d)
	require.NoError(t, err)

	msg := toMessage(out)

	assert.Equal(t, []byte("dec-1"), msg.Key)
	assert.Contains(t, string(msg.Value), `"strategy":"water_saving"`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "generated_at", msg.Headers[0].Key)
	assert.Equal(t, []byte("2024-07-01T06:00:00Z"), msg.Headers[0].Value)
	assert.Equal(t, "strategy", msg.Headers[1].Key)
	assert.Equal(t, []byte("water_saving"), msg.Headers[1].Value)
}

func TestToMessage_NoHeaders(t *testing.T) {
	msg := toMessage(domain.OutputEvent{Key: []byte("k"), Value: []byte("{}")})

	assert.Empty(t, msg.Headers)
}
