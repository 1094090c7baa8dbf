package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/ytclipper/pkg/models"
)

func TestEncode(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	evt := &models.Event{
		Type:      models.EventClipCreated,
		VideoID:   "dQw4w9WgXcQ",
		ClipID:    "c1",
		Timestamp: ts,
		Data:      map[string]interface{}{"method": models.ExtractMethodCopy},
	}

	msg, err := encode(evt)
	require.NoError(t, err)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, uint8(amqp.Persistent), msg.DeliveryMode)
	assert.Equal(t, models.EventClipCreated, msg.Type)
	assert.Equal(t, ts, msg.Timestamp)

	var decoded models.Event
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, "dQw4w9WgXcQ", decoded.VideoID)
	assert.Equal(t, "c1", decoded.ClipID)
	assert.Equal(t, "stream_copy", decoded.Data["method"])
}

func TestEncodeStampsTimestamp(t *testing.T) {
	evt := &models.Event{Type: models.EventVideoAcquired, VideoID: "dQw4w9WgXcQ"}

	msg, err := encode(evt)
	require.NoError(t, err)
	assert.False(t, evt.Timestamp.IsZero())
	assert.Equal(t, evt.Timestamp, msg.Timestamp)
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), &models.Event{Type: models.EventClipExpired}))
	assert.NoError(t, p.Close())
}

type recordingPublisher struct {
	got    []string
	err    error
	closed bool
}

func (r *recordingPublisher) Publish(_ context.Context, evt *models.Event) error {
	r.got = append(r.got, evt.Type)
	return r.err
}

func (r *recordingPublisher) Close() error {
	r.closed = true
	return nil
}

func TestMultiFansOut(t *testing.T) {
	failing := &recordingPublisher{err: assert.AnError}
	ok := &recordingPublisher{}
	m := Multi{failing, ok}

	err := m.Publish(context.Background(), &models.Event{Type: models.EventClipExpired})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, []string{models.EventClipExpired}, ok.got)

	require.NoError(t, m.Close())
	assert.True(t, failing.closed)
	assert.True(t, ok.closed)
}
