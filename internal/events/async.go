package events

import (
	"context"
	"sync"
	"time"

	"github.com/nicolasdagostino/a615-sub000/internal/logger"
)

// AsyncPublisher hands events to a background goroutine so request handlers
// never wait on the broker. Events are dropped when the buffer is full.
type AsyncPublisher struct {
	next    Publisher
	logger  logger.Logger
	queue   chan Event
	timeout time.Duration
	wg      sync.WaitGroup
	once    sync.Once

	mu     sync.RWMutex
	closed bool
}

func NewAsyncPublisher(next Publisher, log logger.Logger, buffer int) *AsyncPublisher {
	if buffer <= 0 {
		buffer = 256
	}
	p := &AsyncPublisher{
		next:    next,
		logger:  log,
		queue:   make(chan Event, buffer),
		timeout: 5 * time.Second,
	}
	p.wg.Add(1)
	go p.run()
	return p
}

func (p *AsyncPublisher) run() {
	defer p.wg.Done()
	for event := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		if err := p.next.Publish(ctx, event); err != nil {
			p.logger.Errorw("event publish failed", "event_type", event.Type, "event_id", event.ID, "err", err)
		}
		cancel()
	}
}

// Publish never blocks. Events published after Close are dropped.
func (p *AsyncPublisher) Publish(_ context.Context, event Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logger.Warnw("event publisher closed, dropping event", "event_type", event.Type, "event_id", event.ID)
		return nil
	}
	select {
	case p.queue <- event:
	default:
		p.logger.Warnw("event buffer full, dropping event", "event_type", event.Type, "event_id", event.ID)
	}
	return nil
}

// Close drains queued events and closes the wrapped publisher.
func (p *AsyncPublisher) Close() error {
	var err error
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.queue)
		p.mu.Unlock()
		p.wg.Wait()
		err = p.next.Close()
	})
	return err
}
