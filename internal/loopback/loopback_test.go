package loopback_test

import (
	"errors"
	"fmt"
	"testing"

	"go.klb.dev/cbview/internal/chain"
	"go.klb.dev/cbview/internal/loopback"
	"go.klb.dev/cbview/internal/message"
	"go.klb.dev/cbview/internal/router"
	"go.klb.dev/cbview/internal/viewer"
)

type staticFetcher struct{ text string }

func (f staticFetcher) Fetch() (message.Content, error) { return message.NewText(f.text), nil }

type countingDisplay struct{ n int }

func (d *countingDisplay) Append(string) { d.n++ }

type member struct {
	name    string
	handle  chain.Handle
	viewer  *viewer.Viewer
	display *countingDisplay
}

func join(t *testing.T, host *loopback.Host, name string) *member {
	t.Helper()
	m := &member{name: name, display: &countingDisplay{}}
	m.viewer = viewer.New(host, staticFetcher{text: name}, m.display)
	m.handle = host.Attach(m.viewer)
	if err := m.viewer.Attach(m.handle); err != nil {
		t.Fatalf("%s: Attach: %v", name, err)
	}
	return m
}

func leave(t *testing.T, host *loopback.Host, m *member) {
	t.Helper()
	if err := m.viewer.Detach(); err != nil {
		t.Fatalf("%s: Detach: %v", m.name, err)
	}
	host.Detach(m.handle)
}

func expectCounts(t *testing.T, step string, want map[*member]int) {
	t.Helper()
	for m, n := range want {
		if m.display.n != n {
			t.Errorf("%s: %s captured %d times, want %d", step, m.name, m.display.n, n)
		}
	}
}

func TestRegisterReturnsPriorHead(t *testing.T) {
	host := loopback.New()
	a := host.Attach(nil)
	b := host.Attach(nil)

	if prior, err := host.Register(a); err != nil || prior != chain.None {
		t.Fatalf("Register(a) = %s, %v; want none, nil", prior, err)
	}
	if prior, err := host.Register(b); err != nil || prior != a {
		t.Fatalf("Register(b) = %s, %v; want %s, nil", prior, err, a)
	}
	if host.Head() != b {
		t.Errorf("Head() = %s, want %s", host.Head(), b)
	}
}

func TestRegisterUnknownHandle(t *testing.T) {
	host := loopback.New()
	if _, err := host.Register(0x1234); !errors.Is(err, loopback.ErrNoSuchObserver) {
		t.Fatalf("Register err = %v, want ErrNoSuchObserver", err)
	}
}

func TestPublishOnEmptyChain(t *testing.T) {
	if loopback.New().Publish() {
		t.Fatal("Publish on an empty chain reported delivery")
	}
}

func TestRelayToDetachedHandle(t *testing.T) {
	host := loopback.New()
	h := host.Attach(nil)
	host.Detach(h)

	if err := host.Relay(h, router.ContentChanged()); !errors.Is(err, loopback.ErrNoSuchObserver) {
		t.Fatalf("Relay err = %v, want ErrNoSuchObserver", err)
	}
}

func TestEveryViewerSeesEveryChange(t *testing.T) {
	host := loopback.New()
	a := join(t, host, "a")
	b := join(t, host, "b")
	c := join(t, host, "c")

	host.Publish()
	expectCounts(t, "initial", map[*member]int{a: 1, b: 1, c: 1})

	// Middle viewer leaves: head c must splice to a.
	leave(t, host, b)
	host.Publish()
	expectCounts(t, "after b left", map[*member]int{a: 2, b: 1, c: 2})
	if st := c.viewer.Status(); st.Next != a.handle.String() {
		t.Errorf("c next = %s, want %s", st.Next, a.handle)
	}

	// Head leaves: host moves the head.
	leave(t, host, c)
	host.Publish()
	expectCounts(t, "after c left", map[*member]int{a: 3, c: 2})

	d := join(t, host, "d")
	host.Publish()
	expectCounts(t, "after d joined", map[*member]int{a: 4, d: 1})

	// Tail leaves: d becomes the end of the chain.
	leave(t, host, a)
	host.Publish()
	expectCounts(t, "after a left", map[*member]int{a: 4, d: 2})
	if st := d.viewer.Status(); st.Next != "none" {
		t.Errorf("d next = %s, want none", st.Next)
	}
	if st := d.viewer.Status(); st.Counters.RelayFailures != 0 {
		t.Errorf("d relay failures = %d, want 0", st.Counters.RelayFailures)
	}
}

func TestChainSurvivesArbitraryDepartures(t *testing.T) {
	host := loopback.New()
	members := make([]*member, 6)
	for i := range members {
		members[i] = join(t, host, fmt.Sprintf("v%d", i))
	}

	live := map[*member]int{}
	for _, m := range members {
		live[m] = 0
	}
	publish := func(step string) {
		host.Publish()
		for m := range live {
			live[m]++
		}
		expectCounts(t, step, live)
	}

	publish("all joined")
	for _, i := range []int{2, 4, 5, 0} {
		m := members[i]
		leave(t, host, m)
		delete(live, m)
		publish("after " + m.name + " left")
	}

	for m := range live {
		if st := m.viewer.Status(); st.Counters.RelayFailures != 0 {
			t.Errorf("%s: relay failures = %d", m.name, st.Counters.RelayFailures)
		}
	}
}

func TestCrashedViewerOnlyCostsRelays(t *testing.T) {
	host := loopback.New()
	a := join(t, host, "a")
	b := join(t, host, "b")

	// a vanishes without leaving the chain.
	host.Detach(a.handle)

	host.Publish()
	expectCounts(t, "after crash", map[*member]int{a: 0, b: 1})
	if st := b.viewer.Status(); st.Counters.RelayFailures != 1 {
		t.Errorf("b relay failures = %d, want 1", st.Counters.RelayFailures)
	}
}

func TestDetachedViewerIgnoresNotifications(t *testing.T) {
	host := loopback.New()
	a := join(t, host, "a")
	if err := a.viewer.Detach(); err != nil {
		t.Fatalf("Detach: %v", err)
	}
	if err := a.viewer.Detach(); err != nil {
		t.Fatalf("second Detach: %v", err)
	}

	if a.viewer.Handle(router.ContentChanged()) {
		t.Fatal("detached viewer handled a notification")
	}
	if st := a.viewer.Status(); st.Registered {
		t.Error("detached viewer reports registered")
	}
}
