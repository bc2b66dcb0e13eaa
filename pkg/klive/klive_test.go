package klive

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/matzehuels/picforge/pkg/errors"
)

// fakeViewer accepts one connection, records the request and writes reply.
func fakeViewer(t *testing.T, reply string) (string, <-chan Request) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })
	got := make(chan Request, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		line, err := bufio.NewReader(conn).ReadBytes('\n')
		if err != nil {
			return
		}
		var req Request
		_ = json.Unmarshal(line, &req)
		got <- req
		if reply != "" {
			_, _ = conn.Write([]byte(reply + "\n"))
		}
	}()
	return ln.Addr().String(), got
}

func TestShow(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		status  string
		wantErr bool
	}{
		{"ok", `{"status":"ok","version":"0.29.0"}`, "ok", false},
		{"silent", "", "ok", false},
		{"rejected", `{"status":"error","message":"no such file"}`, "error", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, got := fakeViewer(t, tt.reply)
			c := New(addr)
			reply, err := c.Show(context.Background(), Request{GDS: "/tmp/mzi.gds", Lyrdb: "/tmp/mzi.lyrdb", Technology: "EBeam"})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, errors.ErrCodeViewer) {
				t.Errorf("err code = %v", errors.GetCode(err))
			}
			if reply == nil || reply.Status != tt.status {
				t.Errorf("reply = %+v", reply)
			}
			select {
			case req := <-got:
				if req.GDS != "/tmp/mzi.gds" || req.Lyrdb != "/tmp/mzi.lyrdb" || req.Technology != "EBeam" {
					t.Errorf("request = %+v", req)
				}
			case <-time.After(time.Second):
				t.Fatal("viewer received nothing")
			}
		})
	}
}

func TestShowNoViewer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	_, err = New(addr).Show(context.Background(), Request{GDS: "mzi.gds"})
	if !errors.Is(err, errors.ErrCodeViewer) {
		t.Errorf("err = %v, want VIEWER_UNAVAILABLE", err)
	}
}

func TestShowNoFile(t *testing.T) {
	if _, err := New("").Show(context.Background(), Request{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v", err)
	}
	if New("").Addr != DefaultAddr {
		t.Error("default address not applied")
	}
}
