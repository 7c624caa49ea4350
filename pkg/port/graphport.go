package port

import (
	"sync"

	"github.com/loomrun/loom/pkg/port/internal/fifo"
)

// GraphPort is the dual-role port a visual graph exposes to the outside:
// as an exposed input it is the producer feeding the graph's interior; as
// an exposed output it is the consumer collecting from the interior and
// forwarding outward. Internally it is always the same shape — a
// reference-counted merge of N upstream producer queues forwarding into a
// real Output — so the same type serves both roles.
type GraphPort struct {
	ID          string
	Description string
	Type        TypeTag

	out *Output

	mu       sync.Mutex
	refCount int
	eofCount int

	queueOnce    sync.Once
	defaultQueue *fifo.Queue
}

// NewGraphPort builds a GraphPort whose interior/exterior fan-out uses mode.
func NewGraphPort(id, description string, typ TypeTag, mode OutputMode) *GraphPort {
	return &GraphPort{
		ID:          id,
		Description: description,
		Type:        typ,
		out:         NewOutput(id, description, typ, mode),
	}
}

// Queue lazily attaches a default producer queue and returns it, for direct
// external driving of an exposed graph input. Each call returns the same
// queue.
func (p *GraphPort) Queue() *fifo.Queue {
	p.queueOnce.Do(func() {
		p.defaultQueue = fifo.New()
		p.Feed(p.defaultQueue)
	})
	return p.defaultQueue
}

// Feed registers q as an upstream producer (InputSink). Values read from q
// are forwarded immediately; EOF is forwarded downstream only once every
// attached producer has delivered its own EOF.
func (p *GraphPort) Feed(q *fifo.Queue) {
	p.mu.Lock()
	p.refCount++
	p.mu.Unlock()
	go p.forward(q)
}

func (p *GraphPort) forward(q *fifo.Queue) {
	for {
		v := q.Get()
		if IsEOF(v) {
			p.mu.Lock()
			p.eofCount++
			done := p.eofCount >= p.refCount
			p.mu.Unlock()
			if done {
				_ = p.out.Send(EOF)
			}
			return
		}
		_ = p.out.Send(v)
	}
}

// Connect registers q as a downstream reader (OutputSource), the external
// driver contract for an exposed graph output.
func (p *GraphPort) Connect(q *fifo.Queue) {
	p.out.Connect(q)
}

// RefCount returns the number of producers currently attached via Feed.
func (p *GraphPort) RefCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refCount
}

// ConnectedCount reports how many downstream readers are attached via
// Connect.
func (p *GraphPort) ConnectedCount() int {
	return p.out.ConnectedCount()
}

// Send pushes v directly to every downstream reader, bypassing the
// producer merge. A Graph uses this to broadcast its own terminal EOF on
// finish, exactly like a leaf Component broadcasts EOF on its outputs,
// regardless of whether every interior producer already closed this port
// through the refcounted merge.
func (p *GraphPort) Send(v Value) error {
	return p.out.Send(v)
}
