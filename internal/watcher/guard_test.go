package watcher

import (
	"testing"
	"time"
)

func TestWriteGuard(t *testing.T) {
	t.Run("inactive with no leases", func(t *testing.T) {
		g := NewWriteGuard(time.Second)
		if g.Active() {
			t.Error("expected fresh guard to be inactive")
		}
	})

	t.Run("active while lease held", func(t *testing.T) {
		g := NewWriteGuard(time.Second)
		token := g.Acquire()
		if !g.Active() {
			t.Error("expected guard to be active after Acquire")
		}
		g.Release(token)
		if g.Active() {
			t.Error("expected guard to be inactive after Release")
		}
	})

	t.Run("tokens are distinct", func(t *testing.T) {
		g := NewWriteGuard(time.Second)
		t1 := g.Acquire()
		t2 := g.Acquire()
		if t1 == t2 {
			t.Error("expected distinct lease tokens")
		}
		g.Release(t1)
		if !g.Active() {
			t.Error("expected guard to stay active while second lease held")
		}
		g.Release(t2)
		if g.Active() {
			t.Error("expected guard inactive after all leases released")
		}
	})

	t.Run("leases expire on their own", func(t *testing.T) {
		g := NewWriteGuard(20 * time.Millisecond)
		g.Acquire()
		time.Sleep(40 * time.Millisecond)
		if g.Active() {
			t.Error("expected leaked lease to expire")
		}
	})

	t.Run("releasing unknown token is a no-op", func(t *testing.T) {
		g := NewWriteGuard(time.Second)
		g.Release("not-a-token")
		if g.Active() {
			t.Error("expected guard to stay inactive")
		}
	})
}
