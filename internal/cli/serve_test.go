package cli

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestListenAndServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hs := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

	done := make(chan error, 1)
	go func() { done <- listenAndServe(ctx, hs) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("listenAndServe: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestListenAndServeBadAddr(t *testing.T) {
	hs := &http.Server{Addr: "256.0.0.1:bad", Handler: http.NotFoundHandler()}
	if err := listenAndServe(context.Background(), hs); err == nil {
		t.Error("expected listen error")
	}
}
