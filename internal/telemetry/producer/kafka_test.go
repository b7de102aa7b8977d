package producer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"

	"traccar-client/internal/telemetry"
)

type fakeWriter struct {
	msgs     []kafka.Message
	writeErr error
	closed   bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestNewKafkaProducer_Disabled(t *testing.T) {
	if p := NewKafkaProducer(nil, "topic"); p != nil {
		t.Error("no brokers should disable the producer")
	}
	if p := NewKafkaProducer([]string{"localhost:9092"}, ""); p != nil {
		t.Error("empty topic should disable the producer")
	}
}

func TestNewKafkaProducer_Enabled(t *testing.T) {
	p := NewKafkaProducer([]string{"localhost:9092"}, "traccar-client-telemetry")
	if p == nil {
		t.Fatal("producer should be created")
	}
	if p.topic != "traccar-client-telemetry" {
		t.Errorf("topic = %q", p.topic)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestKafkaProducer_Emit(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaProducer{writer: w, topic: "t"}
	event := telemetry.NewEvent(telemetry.EventAPIRequest, "traccar_client", map[string]string{"path": "/devices"})
	event.SessionFingerprint = "fp-1"

	if err := p.Emit(context.Background(), event); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("wrote %d messages, want 1", len(w.msgs))
	}
	if string(w.msgs[0].Key) != "fp-1" {
		t.Errorf("key = %q, want fp-1", w.msgs[0].Key)
	}
	var got telemetry.Event
	if err := json.Unmarshal(w.msgs[0].Value, &got); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if got.ID != event.ID || got.Type != telemetry.EventAPIRequest {
		t.Errorf("payload = %+v", got)
	}
}

func TestKafkaProducer_Emit_NoKeyWithoutSession(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaProducer{writer: w, topic: "t"}
	_ = p.Emit(context.Background(), telemetry.NewEvent(telemetry.EventAPIRequest, "x", nil))
	if len(w.msgs) != 1 || w.msgs[0].Key != nil {
		t.Errorf("messages = %+v, want one unkeyed message", w.msgs)
	}
}

func TestKafkaProducer_Emit_WriteError(t *testing.T) {
	p := &KafkaProducer{writer: &fakeWriter{writeErr: errors.New("broker down")}, topic: "t"}
	if err := p.Emit(context.Background(), telemetry.NewEvent("x", "y", nil)); err == nil {
		t.Fatal("Emit should return write errors")
	}
}

func TestKafkaProducer_NilSafe(t *testing.T) {
	var p *KafkaProducer
	if err := p.Emit(context.Background(), telemetry.NewEvent("x", "y", nil)); err != nil {
		t.Errorf("nil Emit: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("nil Close: %v", err)
	}
	w := &fakeWriter{}
	p = &KafkaProducer{writer: w}
	if err := p.Emit(context.Background(), nil); err != nil || len(w.msgs) != 0 {
		t.Errorf("nil event should be skipped")
	}
	_ = p.Close()
	if !w.closed {
		t.Error("Close should close the writer")
	}
}
