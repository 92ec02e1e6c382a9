package sink

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type recordSink struct {
	frames []Frame
	err    error
	closed bool
}

func (r *recordSink) Submit(f Frame) error {
	r.frames = append(r.frames, f)
	return r.err
}

func (r *recordSink) Close() error {
	r.closed = true
	return nil
}

func TestMulti_DeliversToAllSinks(t *testing.T) {
	failing := &recordSink{err: errors.New("boom")}
	ok := &recordSink{}
	m := Multi{failing, ok}

	err := m.Submit(Frame{Seq: 7})
	if err == nil {
		t.Fatalf("expected joined error")
	}
	if len(ok.frames) != 1 || ok.frames[0].Seq != 7 {
		t.Fatalf("second sink should still receive the frame, got %+v", ok.frames)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !failing.closed || !ok.closed {
		t.Fatalf("every sink should be closed")
	}
}

func TestHub_BroadcastAndAck(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	acks := make(chan string, 1)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := NewHub(logger, HubConfig{OnFrameDone: func(m string) { acks <- m }})

	addr, err := hub.Serve(ctx, "127.0.0.1:0", "/frames")
	if err != nil {
		t.Fatalf("Serve: %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr.String()+"/frames", nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	frame := Frame{Seq: 3, Layers: []LayerView{{ID: 1, OffsetX: 150}}}
	if err := hub.Submit(frame); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var got struct {
		Type string `json:"type"`
		Data Frame  `json:"data"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Type != MessageFrame || got.Data.Seq != 3 || got.Data.Layers[0].OffsetX != 150 {
		t.Fatalf("unexpected message %s", data)
	}

	if err := conn.WriteJSON(map[string]string{"type": MessageFrameDone, "monitor": "DP-1"}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	select {
	case m := <-acks:
		if m != "DP-1" {
			t.Fatalf("ack monitor = %q", m)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no frame_done ack delivered")
	}
}
