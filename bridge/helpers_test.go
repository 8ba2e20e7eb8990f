package bridge

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeEntity struct {
	id   int
	name string
	pos  *WorldPoint
}

func (e fakeEntity) ID() int                    { return e.id }
func (e fakeEntity) Name() string               { return e.name }
func (e fakeEntity) WorldLocation() *WorldPoint { return e.pos }

type fakeWorld struct {
	entities []Entity
	queried  []EntityKind
}

func (w *fakeWorld) Entities(kind EntityKind) []Entity {
	w.queried = append(w.queried, kind)
	return w.entities
}

// flakyWorld panics on the listed calls (1-based) and otherwise returns entities.
type flakyWorld struct {
	calls    int
	panicOn  map[int]bool
	entities []Entity
}

func (w *flakyWorld) Entities(EntityKind) []Entity {
	w.calls++
	if w.panicOn[w.calls] {
		panic("entity list not loaded")
	}
	return w.entities
}

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prev := Log
	Log = zap.New(core).Sugar()
	t.Cleanup(func() { Log = prev })
	return logs
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
