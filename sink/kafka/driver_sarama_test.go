package kafka

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"actionkit/sink"
)

func withMockProducer(t *testing.T) *mocks.SyncProducer {
	t.Helper()
	mp := mocks.NewSyncProducer(t, nil)
	prev := newProducer
	newProducer = func([]string, *sarama.Config) (sarama.SyncProducer, error) { return mp, nil }
	t.Cleanup(func() { newProducer = prev })
	return mp
}

func TestDriver_PublishesOneMessagePerAction(t *testing.T) {
	mp := withMockProducer(t)
	var got []message
	check := func(val []byte) error {
		var m message
		if err := json.Unmarshal(val, &m); err != nil {
			return err
		}
		got = append(got, m)
		return nil
	}
	mp.ExpectSendMessageWithCheckerFunctionAndSucceed(check)
	mp.ExpectSendMessageWithCheckerFunctionAndSucceed(check)

	d := &driver{}
	require.NoError(t, d.Configure(map[string]any{"brokers": []any{"localhost:9092"}, "topic": "actions", "required_acks": 1}))
	require.NoError(t, d.Push(sink.Record{Path: "/src/a.js", Target: "Server", Key: "/src/a.js_Server",
		Actions: []sink.Action{{ID: "1", Name: "save"}, {ID: "2", Name: "drop"}}}))
	require.NoError(t, d.Push(sink.Record{Path: "/src/b.js", Target: "Server"}))
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())

	require.Len(t, got, 2)
	assert.Equal(t, message{ID: "1", Name: "save", Path: "/src/a.js", Target: "Server", Key: "/src/a.js_Server"}, got[0])
	assert.Equal(t, "drop", got[1].Name)
}

func TestDriver_PropagatesProducerFailure(t *testing.T) {
	mp := withMockProducer(t)
	boom := errors.New("broker down")
	mp.ExpectSendMessageAndFail(boom)

	d := &driver{}
	require.NoError(t, d.Configure(Config{Brokers: []string{"x:9092"}, Topic: "actions"}))
	err := d.Push(sink.Record{Path: "/a.js", Target: "Client", Actions: []sink.Action{{ID: "1"}}})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	require.NoError(t, d.Close())
}

func TestDriver_RequiresBrokersAndTopic(t *testing.T) {
	d := &driver{}
	assert.Error(t, d.Configure(Config{Topic: "t"}))
	assert.Error(t, d.Configure(nil))
}
