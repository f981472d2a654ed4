package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/dmitrijs2005/branchkeeper/internal/server/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	declared   string
	key        string
	msg        amqp.Publishing
	declareErr error
	publishErr error
	closed     bool
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	f.declared = name
	return amqp.Queue{Name: name}, f.declareErr
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.key = key
	f.msg = msg
	return f.publishErr
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func withChannel(t *testing.T, ch *fakeChannel, dialErr error) *bool {
	t.Helper()
	orig := openChannel
	t.Cleanup(func() { openChannel = orig })
	connClosed := false
	openChannel = func(url string) (channel, func() error, error) {
		if dialErr != nil {
			return nil, nil, dialErr
		}
		return ch, func() error { connClosed = true; return nil }, nil
	}
	return &connClosed
}

func TestPublish(t *testing.T) {
	ch := &fakeChannel{}
	connClosed := withChannel(t, ch, nil)

	p := NewAMQPPublisher("amqp://x", "")
	err := p.Publish(context.Background(), Event{
		Type: EventDeleted, AccountID: "acc", Kind: models.KindTask, ID: "t1", Removed: 3,
	})
	require.NoError(t, err)

	assert.Equal(t, DefaultQueue, ch.declared)
	assert.Equal(t, DefaultQueue, ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)
	assert.True(t, ch.closed)
	assert.True(t, *connClosed)

	var got map[string]any
	require.NoError(t, json.Unmarshal(ch.msg.Body, &got))
	assert.Equal(t, "task", got["kind"])
	assert.Equal(t, float64(3), got["removed"])
	assert.NotEmpty(t, got["at"])
}

func TestPublish_Errors(t *testing.T) {
	withChannel(t, nil, errors.New("refused"))
	err := NewAMQPPublisher("amqp://x", "q").Publish(context.Background(), Event{Type: EventMoved, Kind: models.KindNote})
	assert.ErrorContains(t, err, "refused")

	ch := &fakeChannel{publishErr: errors.New("blocked")}
	withChannel(t, ch, nil)
	err = NewAMQPPublisher("amqp://x", "q").Publish(context.Background(), Event{Type: EventMoved, Kind: models.KindNote})
	assert.ErrorContains(t, err, "blocked")
	assert.Equal(t, "q", ch.declared)
	assert.True(t, ch.closed)

	ch = &fakeChannel{declareErr: errors.New("no perms")}
	withChannel(t, ch, nil)
	err = NewAMQPPublisher("amqp://x", "q").Publish(context.Background(), Event{Type: EventMoved, Kind: models.KindNote})
	assert.ErrorContains(t, err, "no perms")
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), Event{}))
}
