package channel_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lemunozm/service-io/channel"
)

func TestSendRecvFIFO(t *testing.T) {
	sender, receiver := channel.New[int](4)

	for i := 0; i < 3; i++ {
		require.NoError(t, sender.Send(t.Context(), i))
	}

	for i := 0; i < 3; i++ {
		v, err := receiver.Recv(t.Context())
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
}

func TestClosedAfterAllSendersDropped(t *testing.T) {
	sender, receiver := channel.New[string](1)

	clone := sender.Clone()
	sender.Close()

	// still open: clone is alive
	require.NoError(t, clone.Send(t.Context(), "hello"))

	clone.Close()

	v, err := receiver.Recv(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "hello", v)

	_, err = receiver.Recv(t.Context())
	assert.ErrorIs(t, err, channel.ErrClosed)
}

func TestSendReturnsClosedAfterAllSendersClosed(t *testing.T) {
	sender, receiver := channel.New[int](1)
	_ = receiver

	// drop every sender handle without ever being consumed: a receiver
	// that stops reading is irrelevant to Send, which only observes the
	// shared "closed" signal set by Sender.Close, not receiver liveness.
	// Fill the buffer, then close every sender; a further Send returns
	// ErrClosed.
	require.NoError(t, sender.Send(t.Context(), 1))
	sender.Close()

	err := sender.Send(t.Context(), 2)
	assert.ErrorIs(t, err, channel.ErrClosed)
}

func TestBlockingSend(t *testing.T) {
	sender, receiver := channel.New[int](1)

	require.NoError(t, sender.BlockingSend(42))

	v, err := receiver.Recv(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestBackpressureBlocksSender(t *testing.T) {
	sender, receiver := channel.New[int](2)

	var sent atomic
	sent.n = 0

	go func() {
		for i := 0; i < 5; i++ {
			_ = sender.Send(t.Context(), i)
			sent.add(1)
		}
	}()

	time.Sleep(20 * time.Millisecond)
	assert.LessOrEqual(t, sent.get(), 3) // capacity(2) + 1 in-flight send

	for i := 0; i < 5; i++ {
		_, err := receiver.Recv(t.Context())
		require.NoError(t, err)
	}
}

type atomic struct {
	mu sync.Mutex
	n  int
}

func (a *atomic) add(d int) {
	a.mu.Lock()
	a.n += d
	a.mu.Unlock()
}

func (a *atomic) get() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.n
}

func TestRecvRespectsContextCancellation(t *testing.T) {
	_, receiver := channel.New[int](1)

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()

	_, err := receiver.Recv(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCloseIsIdempotent(t *testing.T) {
	sender, receiver := channel.New[int](1)

	sender.Close()
	sender.Close()

	_, err := receiver.Recv(t.Context())
	assert.ErrorIs(t, err, channel.ErrClosed)
}
