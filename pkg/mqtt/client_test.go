package mqtt

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicsMatch(t *testing.T) {
	tests := []struct {
		filter, topic string
		want          bool
	}{
		{"iov/v1/state/VIN1", "iov/v1/state/VIN1", true},
		{"iov/v1/state/+", "iov/v1/state/VIN1", true},
		{"iov/v1/state/+", "iov/v1/state/VIN1/extra", false},
		{"iov/v1/state/+", "iov/v1/report/VIN1", false},
		{"iov/v1/#", "iov/v1/state/VIN1", true},
		{"iov/v1/state/VIN1", "iov/v1/state/VIN2", false},
		{"iov/+/state/+/x", "iov/v1/state", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, topicsMatch(tt.filter, tt.topic), "%s vs %s", tt.filter, tt.topic)
	}
}

func TestTopicFilter(t *testing.T) {
	assert.Equal(t, "iov/v1/state/+", topicFilter("$share/cpeer-report/iov/v1/state/+"))
	assert.Equal(t, "iov/v1/state/+", topicFilter("iov/v1/state/+"))
}

func TestNewClientValidates(t *testing.T) {
	_, err := NewClient(nil)
	assert.Error(t, err)

	_, err = NewClient(&ClientConfig{BrokerURL: "tcp://localhost:1883"})
	assert.Error(t, err, "client id is required")

	c, err := NewClient(&ClientConfig{BrokerURL: "tcp://localhost:1883", ClientID: "cpeer-report-test"})
	require.NoError(t, err)
	assert.False(t, c.IsConnected())
	assert.Error(t, c.Publish(context.Background(), "t", 1, false, nil), "not started")
}

func TestRouterRoutesToMatchingHandlers(t *testing.T) {
	r := newRouter()
	got := make(chan string, 2)

	r.add("$share/g/iov/v1/state/+", 1, func(_ context.Context, topic string, payload []byte) {
		got <- topic + "=" + string(payload)
	})
	r.add("iov/v1/report/+", 1, func(context.Context, string, []byte) { got <- "wrong" })

	assert.Equal(t, 1, r.route("iov/v1/state/VIN1", []byte("{}")))
	select {
	case msg := <-got:
		assert.Equal(t, "iov/v1/state/VIN1={}", msg)
	case <-time.After(time.Second):
		t.Fatal("handler not called")
	}

	assert.Equal(t, 0, r.route("iov/v1/other/VIN1", nil))

	r.remove("$share/g/iov/v1/state/+")
	assert.Equal(t, 0, r.route("iov/v1/state/VIN1", nil))
}

func TestRouterKeepsOrderPerTopic(t *testing.T) {
	r := newRouter()

	var (
		mu  sync.Mutex
		got = map[string][]int{}
	)
	r.add("iov/v1/state/+", 1, func(_ context.Context, topic string, payload []byte) {
		n, err := strconv.Atoi(string(payload))
		if err != nil {
			t.Error(err)
			return
		}
		mu.Lock()
		got[topic] = append(got[topic], n)
		mu.Unlock()
	})

	const n = 2000
	for i := 0; i < n; i++ {
		r.route("iov/v1/state/VIN1", []byte(strconv.Itoa(i)))
		r.route("iov/v1/state/VIN2", []byte(strconv.Itoa(i)))
	}
	r.wait()

	for _, topic := range []string{"iov/v1/state/VIN1", "iov/v1/state/VIN2"} {
		require.Len(t, got[topic], n)
		for i, v := range got[topic] {
			require.Equal(t, i, v, "topic %s out of order at %d", topic, i)
		}
	}

	r.mu.Lock()
	assert.Empty(t, r.queues)
	r.mu.Unlock()
}

func TestRouterRecoversHandlerPanic(t *testing.T) {
	r := newRouter()
	calls := 0
	r.add("t", 0, func(_ context.Context, _ string, payload []byte) {
		calls++
		if string(payload) == "boom" {
			panic("boom")
		}
	})

	r.route("t", []byte("boom"))
	r.route("t", []byte("ok"))
	r.wait()

	assert.Equal(t, 2, calls)
}
