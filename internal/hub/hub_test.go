package hub

import (
	"encoding/json"
	"testing"
	"time"

	"delivtrack/internal/domain"
)

func recv(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case b := <-c.Send:
		var m struct {
			Type    string               `json:"type"`
			Payload domain.RouteSnapshot `json:"payload"`
		}
		if err := json.Unmarshal(b, &m); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return Message{Type: m.Type, Payload: m.Payload}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for message")
	}
	return Message{}
}

func TestPublishReachesClients(t *testing.T) {
	h := New()
	a := NewClient("a", 4)
	b := NewClient("b", 4)
	h.Register(a)
	h.Register(b)
	defer h.Unregister(a)
	defer h.Unregister(b)

	h.Publish(domain.RouteSnapshot{Metrics: domain.RouteMetrics{TotalTime: 42}})

	for _, c := range []*Client{a, b} {
		m := recv(t, c)
		if m.Type != MessageRoute {
			t.Fatalf("type = %q", m.Type)
		}
		if snap := m.Payload.(domain.RouteSnapshot); snap.Metrics.TotalTime != 42 {
			t.Fatalf("total time = %d", snap.Metrics.TotalTime)
		}
	}
}

func TestRegisterReplaysLatestRoute(t *testing.T) {
	h := New()
	h.Publish(domain.RouteSnapshot{Metrics: domain.RouteMetrics{TotalTime: 7}})

	c := NewClient("late", 4)
	h.Register(c)
	defer h.Unregister(c)

	if snap := recv(t, c).Payload.(domain.RouteSnapshot); snap.Metrics.TotalTime != 7 {
		t.Fatalf("total time = %d", snap.Metrics.TotalTime)
	}
}

func TestUnregisterCloses(t *testing.T) {
	h := New()
	c := NewClient("c", 1)
	h.Register(c)
	h.Unregister(c)
	h.Unregister(c)

	if _, ok := <-c.Send; ok {
		t.Fatalf("expected channel closed")
	}
	if h.ClientCount() != 0 {
		t.Fatalf("client count = %d", h.ClientCount())
	}
}

func TestPublishDropsForFullClient(t *testing.T) {
	h := New()
	c := NewClient("slow", 1)
	h.Register(c)
	defer h.Unregister(c)

	h.Publish(domain.RouteSnapshot{})
	h.Publish(domain.RouteSnapshot{})

	if len(c.Send) != 1 {
		t.Fatalf("buffered = %d, want 1", len(c.Send))
	}
}

func TestPublishDropsOlderVersions(t *testing.T) {
	h := New()
	c := NewClient("c", 4)
	h.Register(c)
	defer h.Unregister(c)

	h.Publish(domain.RouteSnapshot{Version: 2, Metrics: domain.RouteMetrics{TotalTime: 20}})
	h.Publish(domain.RouteSnapshot{Version: 1, Metrics: domain.RouteMetrics{TotalTime: 10}})

	if snap := recv(t, c).Payload.(domain.RouteSnapshot); snap.Version != 2 {
		t.Fatalf("version = %d, want 2", snap.Version)
	}
	select {
	case <-c.Send:
		t.Fatalf("stale snapshot was delivered")
	default:
	}

	late := NewClient("late", 4)
	h.Register(late)
	defer h.Unregister(late)
	if snap := recv(t, late).Payload.(domain.RouteSnapshot); snap.Metrics.TotalTime != 20 {
		t.Fatalf("replayed total time = %d, want 20", snap.Metrics.TotalTime)
	}
}
