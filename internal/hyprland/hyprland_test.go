package hyprland

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"testing"
)

func serveOnce(t *testing.T, replies map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "h.sock")
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			buf := make([]byte, 256)
			n, _ := conn.Read(buf)
			_, _ = conn.Write([]byte(replies[string(buf[:n])]))
			conn.Close()
		}
	}()
	return path
}

func TestFindSockets(t *testing.T) {
	env := map[string]string{
		"HYPRLAND_INSTANCE_SIGNATURE": "abc",
		"XDG_RUNTIME_DIR":             "/run/user/1000",
	}
	getenv := func(k string) string { return env[k] }

	s, err := findSockets(getenv, func(p string) bool { return p == "/run/user/1000/hypr/abc/.socket2.sock" })
	if err != nil {
		t.Fatalf("findSockets: %v", err)
	}
	if s.Request != "/run/user/1000/hypr/abc/.socket.sock" {
		t.Fatalf("request socket = %q", s.Request)
	}

	s, err = findSockets(getenv, func(p string) bool { return p == "/tmp/hypr/abc/.socket2.sock" })
	if err != nil || s.Events != "/tmp/hypr/abc/.socket2.sock" {
		t.Fatalf("legacy location: %+v, %v", s, err)
	}

	if _, err := findSockets(func(string) string { return "" }, fileExists); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("err = %v, want ErrNotRunning", err)
	}
}

func TestClient_MonitorsSkipsDisabled(t *testing.T) {
	path := serveOnce(t, map[string]string{
		"j/monitors": `[
			{"id":0,"name":"DP-1","width":2560,"height":1440,"x":0,"y":0,"scale":1,"focused":true,"activeWorkspace":{"id":3,"name":"3"}},
			{"id":1,"name":"HDMI-A-1","width":1920,"height":1080,"disabled":true}
		]`,
	})
	mons, err := NewClient(path).Monitors(context.Background())
	if err != nil {
		t.Fatalf("Monitors: %v", err)
	}
	if len(mons) != 1 || mons[0].Name != "DP-1" || mons[0].ActiveWorkspace.ID != 3 {
		t.Fatalf("monitors = %+v", mons)
	}
}

func TestClient_CursorPos(t *testing.T) {
	path := serveOnce(t, map[string]string{"j/cursorpos": `{"x":1280,"y":720}`})
	x, y, err := NewClient(path).CursorPos(context.Background())
	if err != nil {
		t.Fatalf("CursorPos: %v", err)
	}
	if x != 1280 || y != 720 {
		t.Fatalf("pos = (%v,%v)", x, y)
	}
}
