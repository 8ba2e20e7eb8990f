package bridge

import (
	"testing"
)

type recordingPublisher struct {
	bound    bool
	payloads [][]byte
}

func (p *recordingPublisher) IsBound() bool { return p.bound }
func (p *recordingPublisher) Publish(payload []byte) {
	p.payloads = append(p.payloads, payload)
}

func goblinWorld() *fakeWorld {
	return &fakeWorld{entities: []Entity{
		fakeEntity{id: 1, name: "Goblin", pos: &WorldPoint{X: 10, Y: 20, Plane: 0}},
		fakeEntity{id: 2, name: "Rat"},
	}}
}

func TestOnTickSkipsWhenNotBound(t *testing.T) {
	world := goblinWorld()
	pub := &recordingPublisher{}
	m := NewMetrics()
	d := NewDriver(world, pub, m)

	d.OnTick(1)

	if len(pub.payloads) != 0 {
		t.Fatalf("expected no publish while unbound, got %d", len(pub.payloads))
	}
	if len(world.queried) != 0 {
		t.Fatalf("world should not be queried while unbound")
	}
	if m.Skipped != 1 {
		t.Fatalf("expected one skipped tick, got %d", m.Skipped)
	}
}

func TestOnTickWithNilPublisherPointer(t *testing.T) {
	// 接口里装的是 (*Publisher)(nil)，接口本身不为 nil
	var pub *Publisher
	world := goblinWorld()
	m := NewMetrics()
	d := NewDriver(world, pub, m)

	d.OnTick(1)
	d.OnTick(2)

	if m.Skipped != 2 {
		t.Fatalf("expected both ticks skipped, got %d", m.Skipped)
	}
	if len(world.queried) != 0 {
		t.Fatalf("world should not be queried without a publisher")
	}
	if pub.State() != StateUnbound || pub.Addr() != "" || pub.Subscribers() != 0 {
		t.Fatalf("nil publisher should read as unbound and empty")
	}
	pub.Publish([]byte("[]"))
	if err := pub.Close(); err != nil {
		t.Fatalf("close nil publisher: %v", err)
	}
	if err := pub.Start("tcp://127.0.0.1:0"); err == nil {
		t.Fatalf("expected start on nil publisher to fail")
	}
}

func TestOnTickPublishesOncePerTick(t *testing.T) {
	pub := &recordingPublisher{bound: true}
	m := NewMetrics()
	d := NewDriver(goblinWorld(), pub, m)

	for tick := int64(1); tick <= 1000; tick++ {
		d.OnTick(tick)
	}

	if len(pub.payloads) != 1000 {
		t.Fatalf("expected 1000 publishes, got %d", len(pub.payloads))
	}
	snap, err := Decode(pub.payloads[999])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snap) != 1 || snap[0].ID != 1 || snap[0].BBox != (BBox{}) {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if m.TickCount != 1000 {
		t.Fatalf("expected 1000 ticks counted, got %d", m.TickCount)
	}
}

func TestOnTickPublishesEmptyWorld(t *testing.T) {
	pub := &recordingPublisher{bound: true}
	d := NewDriver(&fakeWorld{}, pub, nil)

	d.OnTick(1)

	if len(pub.payloads) != 1 {
		t.Fatalf("empty snapshot must still be published, got %d publishes", len(pub.payloads))
	}
	if string(pub.payloads[0]) != "[]" {
		t.Fatalf("expected empty array payload, got %s", pub.payloads[0])
	}
}

func TestOnTickRecoversFromWorldFailure(t *testing.T) {
	logs := observeLogs(t)
	world := &flakyWorld{
		panicOn:  map[int]bool{2: true},
		entities: []Entity{fakeEntity{id: 9, name: "Cow", pos: &WorldPoint{Plane: 1}}},
	}
	pub := &recordingPublisher{bound: true}
	m := NewMetrics()
	d := NewDriver(world, pub, m)

	for tick := int64(1); tick <= 3; tick++ {
		d.OnTick(tick)
	}

	if len(pub.payloads) != 2 {
		t.Fatalf("expected the failing tick to be skipped, got %d publishes", len(pub.payloads))
	}
	if m.BuildFailures != 1 {
		t.Fatalf("expected one build failure, got %d", m.BuildFailures)
	}
	entries := logs.FilterMessage("snapshot skipped").All()
	if len(entries) != 1 {
		t.Fatalf("expected one logged failure, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["tick"]; got != int64(2) {
		t.Fatalf("expected failure logged for tick 2, got %v", got)
	}
}

func TestOnTickDisabled(t *testing.T) {
	pub := &recordingPublisher{bound: true}
	d := NewDriver(goblinWorld(), pub, nil)

	d.SetEnabled(false)
	d.OnTick(1)
	if len(pub.payloads) != 0 {
		t.Fatalf("expected no publish while disabled")
	}

	d.SetEnabled(true)
	d.OnTick(2)
	if len(pub.payloads) != 1 {
		t.Fatalf("expected publish after re-enabling, got %d", len(pub.payloads))
	}
}

func TestDriverWithBoundPublisherAndNoSubscribers(t *testing.T) {
	p, m := startPublisher(t, PublisherConfig{})
	d := NewDriver(goblinWorld(), p, m)

	for tick := int64(1); tick <= 1000; tick++ {
		d.OnTick(tick)
	}

	if m.Published != 1000 || m.NoSubscriber != 1000 {
		t.Fatalf("unexpected metrics: %+v", m.Snapshot())
	}
	if m.Skipped != 0 || m.BuildFailures != 0 {
		t.Fatalf("no tick should be skipped: %+v", m.Snapshot())
	}

	_ = p.Close()
	d.OnTick(1001)
	if m.Published != 1000 {
		t.Fatalf("expected no publish after close, got %d", m.Published)
	}
	if m.Skipped != 1 {
		t.Fatalf("expected tick after close to be skipped, got %d", m.Skipped)
	}
}
