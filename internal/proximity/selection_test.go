package proximity

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func selectionFixture(t *testing.T) (*Service, *fakeDirectory) {
	t.Helper()

	a := boxAt("box-a", 48.8606, 2.3376)
	a.CreatorID = "user-a"
	b := boxAt("box-b", 48.9000, 2.4000)
	b.CreatorID = "user-b"

	dir := newFakeDirectory(a, b)
	dir.names["user-a"] = "Alice"
	dir.names["user-b"] = "Bob"
	dir.visits["box-a"] = 3
	dir.visits["box-b"] = 7

	svc := NewService(dir, StaticLocation{Coord: &paris}, testMapConfig())
	svc.SetReference(paris)
	svc.Refresh(context.Background())
	return svc, dir
}

// TestSelectAndDismiss covers the basic selection transitions: none →
// selected → none.
func TestSelectAndDismiss(t *testing.T) {
	svc, _ := selectionFixture(t)

	if _, ok := svc.Selection(); ok {
		t.Error("fresh service has a selection")
	}

	sel, err := svc.Select("box-a")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if sel.Box.ID != "box-a" {
		t.Errorf("selected %s, want box-a", sel.Box.ID)
	}
	if sel.DistanceMeters == nil || *sel.DistanceMeters < 1000 || *sel.DistanceMeters > 1300 {
		t.Errorf("distance = %v, want ~1130 m", sel.DistanceMeters)
	}

	svc.Dismiss()
	if _, ok := svc.Selection(); ok {
		t.Error("selection survived Dismiss")
	}
}

// TestSelectDirectSwitch verifies Selected(A) → Selected(B) without an
// intermediate dismissal.
func TestSelectDirectSwitch(t *testing.T) {
	svc, _ := selectionFixture(t)

	if _, err := svc.Select("box-a"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Select("box-b"); err != nil {
		t.Fatal(err)
	}

	sel, ok := svc.Selection()
	if !ok || sel.Box.ID != "box-b" {
		t.Errorf("selection = %+v, want box-b", sel)
	}
}

// TestSelectUnknownBox verifies selecting an id outside the fetched
// collection fails cleanly.
func TestSelectUnknownBox(t *testing.T) {
	svc, _ := selectionFixture(t)

	if _, err := svc.Select("no-such-box"); err != ErrBoxNotFound {
		t.Errorf("err = %v, want ErrBoxNotFound", err)
	}
}

// TestSelectionBackfill verifies the auxiliary lookups land on the
// selection asynchronously.
func TestSelectionBackfill(t *testing.T) {
	svc, _ := selectionFixture(t)

	if _, err := svc.Select("box-a"); err != nil {
		t.Fatal(err)
	}

	waitFor(t, 2*time.Second, func() bool {
		sel, ok := svc.Selection()
		return ok && sel.CreatorName == "Alice" && sel.VisitCount != nil
	})

	sel, _ := svc.Selection()
	if *sel.VisitCount != 3 {
		t.Errorf("visit count = %d, want 3", *sel.VisitCount)
	}
}

// TestStaleResponseGuard selects A whose creator lookup is slow, switches
// to B before it resolves, then releases A's lookup. A's late result must
// not overwrite B's displayed data.
func TestStaleResponseGuard(t *testing.T) {
	svc, dir := selectionFixture(t)

	gateA := make(chan struct{})
	dir.mu.Lock()
	dir.nameGates["user-a"] = gateA
	dir.mu.Unlock()

	if _, err := svc.Select("box-a"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Select("box-b"); err != nil {
		t.Fatal(err)
	}

	// B's lookups are unblocked; wait for them.
	waitFor(t, 2*time.Second, func() bool {
		sel, ok := svc.Selection()
		return ok && sel.CreatorName == "Bob"
	})

	// Now let A's slow lookup resolve and give it a moment to (wrongly)
	// apply itself.
	close(gateA)
	time.Sleep(100 * time.Millisecond)

	sel, ok := svc.Selection()
	if !ok {
		t.Fatal("selection lost")
	}
	if sel.Box.ID != "box-b" || sel.CreatorName != "Bob" {
		t.Errorf("stale result overwrote selection: %+v", sel)
	}
}

// TestCreatorNameCached verifies the creator name is looked up once per
// service instance and served from cache on reselection.
func TestCreatorNameCached(t *testing.T) {
	svc, dir := selectionFixture(t)

	svc.Select("box-a")
	waitFor(t, 2*time.Second, func() bool {
		sel, ok := svc.Selection()
		return ok && sel.CreatorName == "Alice"
	})

	svc.Dismiss()
	sel, err := svc.Select("box-a")
	if err != nil {
		t.Fatal(err)
	}
	if sel.CreatorName != "Alice" {
		t.Error("cached creator name not applied on reselection")
	}

	// The backfill goroutine may still run for visits; give it a beat, then
	// check the username store was hit only once.
	waitFor(t, 2*time.Second, func() bool {
		sel, ok := svc.Selection()
		return ok && sel.VisitCount != nil
	})
	dir.mu.Lock()
	calls := dir.nameCalls["user-a"]
	dir.mu.Unlock()
	if calls != 1 {
		t.Errorf("username lookups = %d, want 1 (cache hit)", calls)
	}
}

// TestSelectionAfterRefresh verifies selection works against the most
// recent fetch, including boxes outside the visible radius.
func TestSelectionAfterRefresh(t *testing.T) {
	far := boxAt("box-far", 49.5, 3.0)
	dir := newFakeDirectory(far)
	svc := NewService(dir, StaticLocation{Coord: &paris}, testMapConfig())
	svc.SetReference(paris)
	svc.Refresh(context.Background())

	if snap := svc.Snapshot(); len(snap.Boxes) != 0 {
		t.Fatalf("far box unexpectedly within radius")
	}

	// Still selectable: it exists in the full collection.
	if _, err := svc.Select("box-far"); err != nil {
		t.Errorf("Select far box: %v", err)
	}

	if calls := atomic.LoadInt32(&dir.listCalls); calls != 1 {
		t.Errorf("selection triggered extra collection fetches: %d", calls)
	}
}
