package alert

import (
	"testing"
	"time"
)

type captureChannel struct {
	alerts []Alert
}

func (c *captureChannel) Send(a Alert) error {
	c.alerts = append(c.alerts, a)
	return nil
}

func (c *captureChannel) Name() string { return "capture" }

func TestManagerBroadcastsToAllChannels(t *testing.T) {
	a := &captureChannel{}
	b := &captureChannel{}
	m := NewManager(time.Minute, a, b)

	m.Notify("ERROR", "sell failed", map[string]interface{}{"symbol": "NANOUSDT"})

	if len(a.alerts) != 1 || len(b.alerts) != 1 {
		t.Fatalf("expected both channels to receive the alert, got %d/%d", len(a.alerts), len(b.alerts))
	}
	if a.alerts[0].Level != "ERROR" || a.alerts[0].Fields["symbol"] != "NANOUSDT" {
		t.Fatalf("unexpected alert %+v", a.alerts[0])
	}
}

func TestManagerThrottlesSameMessage(t *testing.T) {
	c := &captureChannel{}
	m := NewManager(time.Minute, c)

	m.Notify("ERROR", "market buy failed", nil)
	m.Notify("ERROR", "market buy failed", nil)
	m.Notify("ERROR", "different message", nil)

	if len(c.alerts) != 2 {
		t.Fatalf("expected throttle to drop the duplicate, got %d alerts", len(c.alerts))
	}
}

func TestThrottlerAllowsAfterInterval(t *testing.T) {
	th := NewThrottler(10 * time.Millisecond)
	if !th.Allow("k") {
		t.Fatalf("first send must pass")
	}
	if th.Allow("k") {
		t.Fatalf("immediate duplicate must be throttled")
	}
	time.Sleep(15 * time.Millisecond)
	if !th.Allow("k") {
		t.Fatalf("send after interval must pass")
	}
}
