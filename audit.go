package ocrauth

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// AuditEvent defines a public type used by ocrauth APIs.
//
// Events carry identifiers only. Challenges, responses, and secrets must
// never appear in an event, including metadata.
type AuditEvent struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	UserID    string            `json:"user_id,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	IP        string            `json:"ip,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// AuditSink defines a public type used by ocrauth APIs.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

// NoOpSink defines a public type used by ocrauth APIs.
type NoOpSink struct{}

// Emit describes the emit operation and its observable behavior.
func (NoOpSink) Emit(context.Context, AuditEvent) {}

// ChannelSink defines a public type used by ocrauth APIs.
type ChannelSink struct {
	events chan AuditEvent
}

// NewChannelSink describes the newchannelsink operation and its observable behavior.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan AuditEvent, buffer),
	}
}

// Emit describes the emit operation and its observable behavior.
func (s *ChannelSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events describes the events operation and its observable behavior.
func (s *ChannelSink) Events() <-chan AuditEvent {
	return s.events
}

// JSONWriterSink defines a public type used by ocrauth APIs.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterSink describes the newjsonwritersink operation and its observable behavior.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

// Emit describes the emit operation and its observable behavior.
func (s *JSONWriterSink) Emit(ctx context.Context, event AuditEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}

// auditPipeline keeps sink latency out of engine flows. Events queue on a
// buffered channel and a single worker hands them to the sink.
type auditPipeline struct {
	sink       AuditSink
	dropIfFull bool
	queue      chan AuditEvent
	quit       chan struct{}
	idle       chan struct{}
	stop       sync.Once
	stopping   atomic.Bool
	dropped    atomic.Uint64
}

func startAuditPipeline(cfg AuditConfig, sink AuditSink) *auditPipeline {
	if !cfg.Enabled {
		return nil
	}
	buffer := cfg.BufferSize
	if buffer <= 0 {
		buffer = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	p := &auditPipeline{
		sink:       sink,
		dropIfFull: cfg.DropIfFull,
		queue:      make(chan AuditEvent, buffer),
		quit:       make(chan struct{}),
		idle:       make(chan struct{}),
	}
	go p.deliver()
	return p
}

// deliver is the worker loop. It closes idle once the queue has been
// flushed after a stop request.
func (p *auditPipeline) deliver() {
	defer close(p.idle)

	for {
		select {
		case event := <-p.queue:
			p.sink.Emit(context.Background(), event)
		case <-p.quit:
			p.flush()
			return
		}
	}
}

func (p *auditPipeline) flush() {
	for {
		select {
		case event := <-p.queue:
			p.sink.Emit(context.Background(), event)
		default:
			return
		}
	}
}

// Emit queues an event. With DropIfFull set a full queue increments the
// drop counter instead of blocking the caller.
func (p *auditPipeline) Emit(ctx context.Context, event AuditEvent) {
	if p == nil || p.stopping.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if p.dropIfFull {
		select {
		case p.queue <- event:
		case <-p.quit:
		default:
			p.dropped.Add(1)
		}
		return
	}

	select {
	case p.queue <- event:
	case <-ctx.Done():
	case <-p.quit:
	}
}

// Close stops the worker and waits until queued events are delivered.
func (p *auditPipeline) Close() {
	if p == nil {
		return
	}
	p.stop.Do(func() {
		p.stopping.Store(true)
		close(p.quit)
		<-p.idle
	})
}

// Dropped reports how many events were discarded because the queue was full.
func (p *auditPipeline) Dropped() uint64 {
	if p == nil {
		return 0
	}
	return p.dropped.Load()
}
