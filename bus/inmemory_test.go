package bus

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryTransport_SendOrder(t *testing.T) {
	tr := NewInMemoryTransport()

	var mu sync.Mutex
	var order []string
	require.NoError(t, tr.Subscribe("r", func(msg Message) {
		mu.Lock()
		order = append(order, msg.ID)
		mu.Unlock()
	}))

	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, tr.Send(Message{ID: id, To: "r"}))
	}

	assert.Equal(t, []string{"1", "2", "3"}, order)
}

func TestInMemoryTransport_MultipleHandlersRegistrationOrder(t *testing.T) {
	tr := NewInMemoryTransport()

	var order []string
	require.NoError(t, tr.Subscribe("r", func(msg Message) { order = append(order, "first") }))
	require.NoError(t, tr.Subscribe("r", func(msg Message) { order = append(order, "second") }))

	require.NoError(t, tr.Send(Message{ID: "1", To: "r"}))

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestInMemoryTransport_Receive_Drains(t *testing.T) {
	tr := NewInMemoryTransport()
	require.NoError(t, tr.Send(Message{ID: "1", To: "r"}))
	require.NoError(t, tr.Send(Message{ID: "2", To: "r"}))

	msgs, err := tr.Receive("r")
	require.NoError(t, err)
	assert.Len(t, msgs, 2)

	msgs, err = tr.Receive("r")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestInMemoryTransport_Unsubscribe(t *testing.T) {
	tr := NewInMemoryTransport()
	calls := 0
	require.NoError(t, tr.Subscribe("r", func(msg Message) { calls++ }))

	require.NoError(t, tr.Send(Message{ID: "1", To: "r"}))
	require.NoError(t, tr.Unsubscribe("r"))
	require.NoError(t, tr.Send(Message{ID: "2", To: "r"}))

	assert.Equal(t, 1, calls)
}

func TestInMemoryTransport_HandlerCanSendWithoutDeadlock(t *testing.T) {
	tr := NewInMemoryTransport()
	require.NoError(t, tr.Subscribe("a", func(msg Message) {
		_ = tr.Send(Message{ID: "reply", To: "b", From: "a"})
	}))

	done := make(chan struct{})
	go func() {
		_ = tr.Send(Message{ID: "1", To: "a"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Send deadlocked when handler sent back into the transport")
	}
}
