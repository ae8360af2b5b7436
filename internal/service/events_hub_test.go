package service

import (
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
)

func TestDropAfterStopDoesNotBlock(t *testing.T) {
	// No connection ever reaches this address; the test exercises only the
	// hub's channel lifecycle.
	hub := NewEventsHub(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}))
	hub.Stop()

	done := make(chan struct{})
	go func() {
		hub.drop(&EventClient{Hub: hub, UserKey: "alice"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("drop blocked after the hub stopped")
	}
}
