package port

import (
	"testing"
	"time"

	"github.com/loomrun/loom/pkg/port/internal/fifo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputQueueMode_FIFO(t *testing.T) {
	q := fifo.New()
	in := NewInput("n.in")
	in.Feed(q)

	q.Put("a")
	q.Put("b")
	q.Put(EOF)

	assert.Equal(t, "a", in.Get())
	assert.Equal(t, "b", in.Get())
	assert.True(t, IsEOF(in.Get()))
}

func TestInputStickyMode_LatchesAndIgnoresEOF(t *testing.T) {
	q := fifo.New()
	in := NewInput("n.n", WithMode(ModeSticky), WithInitialValue(1))
	in.Feed(q)

	// Nothing written yet: returns the latched initial value without blocking.
	assert.Equal(t, 1, in.Get())
	assert.Equal(t, 1, in.Get())

	q.Put(2)
	assert.Equal(t, 2, in.Get())

	// EOF never terminates a sticky input; it keeps the last latched value.
	q.Put(EOF)
	assert.Equal(t, 2, in.Get())
}

func TestInputStickyMode_BlocksUntilFirstValue(t *testing.T) {
	q := fifo.New()
	in := NewInput("n.n", WithMode(ModeSticky))
	in.Feed(q)

	done := make(chan Value, 1)
	go func() { done <- in.Get() }()

	select {
	case <-done:
		require.Fail(t, "sticky Get returned before any value was written")
	case <-time.After(50 * time.Millisecond):
		// ok, still blocked
	}

	q.Put("first")
	select {
	case v := <-done:
		assert.Equal(t, "first", v)
	case <-time.After(2 * time.Second):
		require.Fail(t, "timed out waiting for sticky Get to unblock")
	}

	assert.Equal(t, "first", in.Get())
}

func TestInputStaticMode_NeverBlocksOrTerminates(t *testing.T) {
	q := fifo.New()
	in := NewInput("n.n", WithMode(ModeStatic), WithInitialValue(42))
	in.Feed(q)

	q.Put(EOF)
	assert.Equal(t, 42, in.Get())
	assert.Equal(t, 42, in.Get())
	assert.Equal(t, 1, q.Len(), "static mode must never consume the queue")
}

func TestInputUnconnectedOptional_ReturnsZeroWithoutBlocking(t *testing.T) {
	intType, err := ParseTypeTag("int")
	require.NoError(t, err)
	in := NewInput("n.n", WithType(intType), WithRequiredness(Optional))

	assert.False(t, in.IsConnected())
	assert.Equal(t, 0, in.Get())
}

func TestInputSet_TypeMismatch(t *testing.T) {
	strType, err := ParseTypeTag("string")
	require.NoError(t, err)
	in := NewInput("n.n", WithType(strType))

	err = in.Set(123)
	var mismatch *TypeMismatchError
	assert.ErrorAs(t, err, &mismatch)

	assert.NoError(t, in.Set(EOF), "EOF always bypasses the type check")
}
