package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type gateSink struct {
	gate chan struct{}
	seen atomic.Int64
}

func (s *gateSink) Emit(context.Context, Event) {
	<-s.gate
	s.seen.Add(1)
}

type panicSink struct{}

func (panicSink) Emit(context.Context, Event) { panic("sink exploded") }

func TestDisabledDispatcherIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, NoOpSink{})
	if d != nil {
		t.Fatal("disabled config must yield a nil dispatcher")
	}
	d.Emit(context.Background(), Event{EventType: "x"})
	d.Close()
	if d.Dropped() != 0 || d.Stats() != (Stats{}) {
		t.Fatal("nil dispatcher must report zero stats")
	}
}

func TestDispatcherDeliversAndDrainsOnClose(t *testing.T) {
	sink := NewChannelSink(8)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), Event{EventType: "issue"})
	}
	d.Close()

	if got := len(sink.Events()); got != 5 {
		t.Fatalf("delivered = %d, want 5", got)
	}
	if st := d.Stats(); st.Delivered != 5 || st.Dropped != 0 {
		t.Fatalf("stats = %+v", st)
	}

	d.Emit(context.Background(), Event{EventType: "late"})
	if got := len(sink.Events()); got != 5 {
		t.Fatal("emit after close must be ignored")
	}
}

func TestDispatcherDropIfFull(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// First event is picked up by the worker and blocks in the sink, the
	// second fills the buffer, the rest are dropped.
	d.Emit(context.Background(), Event{EventType: "a"})
	deadline := time.Now().Add(time.Second)
	for len(d.ch) != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	d.Emit(context.Background(), Event{EventType: "b"})
	d.Emit(context.Background(), Event{EventType: "c"})
	d.Emit(context.Background(), Event{EventType: "d"})

	if got := d.Dropped(); got != 2 {
		t.Fatalf("dropped = %d, want 2", got)
	}
	close(sink.gate)
	d.Close()
	if got := sink.seen.Load(); got != 2 {
		t.Fatalf("delivered = %d, want 2", got)
	}
}

func TestDispatcherSurvivesPanickingSink(t *testing.T) {
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4}, panicSink{})
	d.Emit(context.Background(), Event{EventType: "a"})
	d.Emit(context.Background(), Event{EventType: "b"})
	d.Close()

	if st := d.Stats(); st.Panicked != 2 || st.Delivered != 0 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestJSONWriterSinkWritesOneObjectPerLine(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), Event{EventType: "issue", UserID: "u1", Success: true})
	sink.Emit(context.Background(), Event{EventType: "verify", Error: "session_not_found"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	var ev Event
	if err := json.Unmarshal([]byte(lines[1]), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.EventType != "verify" || ev.Error != "session_not_found" || ev.Success {
		t.Fatalf("decoded event = %+v", ev)
	}
}

func TestSlogSinkLevels(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sink := NewSlogSink(log)

	sink.Emit(context.Background(), Event{EventType: "refresh", Success: false, Error: "session_not_found"})

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec["level"] != "WARN" || rec["event_type"] != "refresh" || rec["component"] != "audit" {
		t.Fatalf("record = %v", rec)
	}
}
