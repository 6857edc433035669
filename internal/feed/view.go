package feed

import (
	"sync"

	"party-trivia/internal/game"
)

// View is one client's local copy of a game. Local results are applied
// tentatively and are always replaced, never merged, by the next fetched
// snapshot.
type View struct {
	mu        sync.Mutex
	snap      game.Snapshot
	loaded    bool
	tentative bool
}

// ApplyLocal installs the state an action of this client produced, ahead of
// the next observation cycle. It reports whether the view changed.
func (v *View) ApplyLocal(snap game.Snapshot) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.loaded && snap.Revision() <= v.snap.Revision() {
		return false
	}
	v.snap = snap
	v.loaded = true
	v.tentative = true
	return true
}

// Reconcile replaces the view with a fetched snapshot. A fetch older than
// the view is dropped so a slow read cannot roll the client back. It
// reports whether the visible state changed.
func (v *View) Reconcile(snap game.Snapshot) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.loaded && snap.Revision() < v.snap.Revision() {
		return false
	}
	changed := !v.loaded || snap.Revision() != v.snap.Revision()
	v.snap = snap
	v.loaded = true
	v.tentative = false
	return changed
}

func (v *View) Current() (game.Snapshot, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snap, v.loaded
}

// Tentative reports whether the view still holds an unconfirmed local result.
func (v *View) Tentative() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.tentative
}
