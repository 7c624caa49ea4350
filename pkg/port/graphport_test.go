package port

import (
	"testing"
	"time"

	"github.com/loomrun/loom/pkg/port/internal/fifo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, q *fifo.Queue, n int, timeout time.Duration) []any {
	t.Helper()
	out := make([]any, 0, n)
	deadline := time.Now().Add(timeout)
	for len(out) < n {
		if v, ok := q.TryGet(); ok {
			out = append(out, v)
			continue
		}
		if time.Now().After(deadline) {
			require.Fail(t, "timed out draining queue")
		}
		time.Sleep(time.Millisecond)
	}
	return out
}

func TestGraphPort_RefcountGatesEOF(t *testing.T) {
	p := NewGraphPort("g.in", "", AnyType, ModeRef)
	down := fifo.New()
	p.Connect(down)

	producers := []*fifo.Queue{fifo.New(), fifo.New(), fifo.New()}
	for _, q := range producers {
		p.Feed(q)
	}
	require.Equal(t, 3, p.RefCount())

	producers[0].Put("a")
	producers[0].Put(EOF)
	producers[1].Put(EOF)

	got := drain(t, down, 1, time.Second)
	assert.Equal(t, []any{"a"}, got)
	assert.Equal(t, 0, down.Len(), "EOF must not be forwarded before every producer has delivered it")

	producers[2].Put(EOF)
	eof := drain(t, down, 1, time.Second)
	assert.True(t, IsEOF(eof[0]))
}

func TestGraphPort_DirectDriveViaQueue(t *testing.T) {
	p := NewGraphPort("g.in", "", AnyType, ModeRef)
	down := fifo.New()
	p.Connect(down)

	q := p.Queue()
	q.Put("hello")
	q.Put(EOF)

	got := drain(t, down, 2, time.Second)
	assert.Equal(t, "hello", got[0])
	assert.True(t, IsEOF(got[1]))
}
