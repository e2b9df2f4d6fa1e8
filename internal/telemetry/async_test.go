package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"device-maintenance/backend/internal/telemetry/domain"
)

// mockEventEmitter implements EventEmitter for tests.
type mockEventEmitter struct {
	mu      sync.Mutex
	events  []*domain.Event
	emitErr error
	delay   time.Duration
	done    chan struct{}
}

func (m *mockEventEmitter) Emit(ctx context.Context, event *domain.Event) error {
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.delay):
		}
	}
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	if m.done != nil {
		m.done <- struct{}{}
	}
	return m.emitErr
}

func (m *mockEventEmitter) getEvents() []*domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.Event(nil), m.events...)
}

func TestEmitAsync_NilEmitterOrEvent(t *testing.T) {
	EmitAsync(nil, domain.New("test", "test", "", "", nil))

	emitter := &mockEventEmitter{}
	EmitAsync(emitter, nil)
	time.Sleep(10 * time.Millisecond)
	if n := len(emitter.getEvents()); n != 0 {
		t.Errorf("expected 0 events, got %d", n)
	}
}

func TestEmitAsync_SuccessfulEmit(t *testing.T) {
	emitter := &mockEventEmitter{done: make(chan struct{}, 1)}
	event := domain.New(domain.EventNoteAdded, "ledger", "maria", "dev-1", map[string]string{"note_id": "n1"})

	EmitAsync(emitter, event)

	select {
	case <-emitter.done:
	case <-time.After(time.Second):
		t.Fatal("emit did not complete")
	}
	events := emitter.getEvents()
	if len(events) != 1 || events[0].EventType != domain.EventNoteAdded {
		t.Fatalf("events = %+v", events)
	}
}

func TestEmitAsync_ErrorIsSwallowed(t *testing.T) {
	emitter := &mockEventEmitter{emitErr: errors.New("kafka down"), done: make(chan struct{}, 1)}
	EmitAsync(emitter, domain.New("test", "test", "", "", nil))
	select {
	case <-emitter.done:
	case <-time.After(time.Second):
		t.Fatal("emit did not complete")
	}
}

func TestMulti_FansOutAndJoinsErrors(t *testing.T) {
	ok := &mockEventEmitter{}
	failing := &mockEventEmitter{emitErr: errors.New("boom")}
	m := Multi(ok, nil, failing)

	err := m.Emit(context.Background(), domain.New("test", "test", "", "", nil))
	if err == nil || err.Error() != "boom" {
		t.Errorf("Emit error = %v, want boom", err)
	}
	if len(ok.getEvents()) != 1 || len(failing.getEvents()) != 1 {
		t.Error("both emitters should receive the event")
	}

	if err := Multi().Emit(context.Background(), domain.New("test", "test", "", "", nil)); err != nil {
		t.Errorf("empty Multi should not fail: %v", err)
	}
}

func TestShutdownDrainDuration(t *testing.T) {
	if ShutdownDrainDuration < emitTimeout {
		t.Errorf("ShutdownDrainDuration %v < emitTimeout %v", ShutdownDrainDuration, emitTimeout)
	}
}
