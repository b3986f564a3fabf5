package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/five82/docwatch/internal/docsops"
)

func newDocCell() *Cell[[]docsops.Document] {
	return NewCell(CloneSlice[docsops.Document], EmptySlice[docsops.Document])
}

func TestCell_PublishAndSnapshotClone(t *testing.T) {
	c := newDocCell()

	snap := c.Snapshot()
	if snap.Data == nil || len(snap.Data) != 0 || snap.Loaded {
		t.Fatalf("initial snapshot = %#v, want empty non-nil and not loaded", snap)
	}

	now := time.Now()
	c.Publish([]docsops.Document{{ID: "d1"}, {ID: "d2"}}, now)

	snap = c.Snapshot()
	if len(snap.Data) != 2 || snap.Data[0].ID != "d1" {
		t.Fatalf("snapshot data = %#v, want 2 docs", snap.Data)
	}
	if !snap.Loaded || snap.Version != 1 || !snap.LastUpdated.Equal(now) {
		t.Fatalf("snapshot meta = %#v", snap)
	}

	// Returned snapshot should be independent of the stored one.
	snap.Data[0].ID = "x"
	if got := c.Snapshot().Data[0].ID; got != "d1" {
		t.Fatalf("Snapshot should clone data; got id %q want d1", got)
	}
	ref := c.Reference()
	ref[0].ID = "y"
	if got := c.Reference()[0].ID; got != "d1" {
		t.Fatalf("Reference should clone data; got id %q want d1", got)
	}
}

func TestCell_ClearEmptiesDataAndReference(t *testing.T) {
	c := newDocCell()
	c.Publish([]docsops.Document{{ID: "d1"}}, time.Now())

	origErr := errors.New("boom")
	c.Clear(origErr, time.Now())

	snap := c.Snapshot()
	if len(snap.Data) != 0 || len(c.Reference()) != 0 {
		t.Fatalf("Clear kept data: %#v ref %#v", snap.Data, c.Reference())
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" || !errors.Is(snap.LastError, origErr) {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should wrap error instance")
	}
	if snap.Version != 2 {
		t.Fatalf("Version = %d, want 2", snap.Version)
	}
}

func TestCell_RecordFailureKeepsPreviousData(t *testing.T) {
	c := newDocCell()
	c.Publish([]docsops.Document{{ID: "d1"}}, time.Now())
	prev := c.Snapshot()

	c.RecordFailure()
	snap := c.Snapshot()
	if len(snap.Data) != 1 || snap.Version != prev.Version || snap.LastError != nil {
		t.Fatalf("RecordFailure changed published data: %#v", snap)
	}
	if snap.ConsecutiveFailures != 1 || snap.IsOffline() {
		t.Fatalf("ConsecutiveFailures = %d offline=%v, want 1 and online", snap.ConsecutiveFailures, snap.IsOffline())
	}

	c.RecordFailure()
	if !c.Snapshot().IsOffline() {
		t.Fatal("IsOffline() = false, want true with 2 failures")
	}

	c.Publish([]docsops.Document{{ID: "d2"}}, time.Now())
	if snap := c.Snapshot(); snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("success did not reset failures: %#v", snap)
	}
}

func TestCell_ResetReturnsToNeverLoaded(t *testing.T) {
	c := newDocCell()
	c.SetLoading(true)
	c.Publish([]docsops.Document{{ID: "d1"}}, time.Now())
	c.Reset()

	snap := c.Snapshot()
	if snap.Loaded || snap.Loading || snap.Version != 0 || len(snap.Data) != 0 || snap.Data == nil {
		t.Fatalf("Reset snapshot = %#v", snap)
	}
}

func TestCell_HasReferenceTracksPresence(t *testing.T) {
	c := NewCell[docsops.DashboardStats](nil, nil)
	if c.HasReference() {
		t.Fatal("new cell reports a reference")
	}

	c.Publish(docsops.DashboardStats{}, time.Now())
	if !c.HasReference() {
		t.Fatal("published zero value should count as a reference")
	}

	c.Clear(errors.New("boom"), time.Now())
	if c.HasReference() {
		t.Fatal("Clear should drop the reference")
	}

	c.Publish(docsops.DashboardStats{}, time.Now())
	c.Reset()
	if c.HasReference() {
		t.Fatal("Reset should drop the reference")
	}
}

func TestCloneFolderStats_Deep(t *testing.T) {
	orig := docsops.FolderStats{"legal": float64(1), "nested": map[string]any{"x": []any{float64(1)}}}
	dup := CloneFolderStats(orig)
	dup["nested"].(map[string]any)["x"].([]any)[0] = float64(9)
	if orig["nested"].(map[string]any)["x"].([]any)[0] != float64(1) {
		t.Fatalf("CloneFolderStats shared nested values")
	}
	if CloneFolderStats(nil) != nil {
		t.Fatalf("CloneFolderStats(nil) should stay nil")
	}
}

func TestDashboard_Helpers(t *testing.T) {
	older := time.Now().Add(-time.Minute)
	newer := time.Now()
	d := Dashboard{
		Documents: Resource[[]docsops.Document]{
			Data:        []docsops.Document{{ID: "a"}, {ID: "b", Status: "deleted"}},
			LastUpdated: older,
		},
		Notifications: Resource[[]docsops.Notification]{
			Data:        []docsops.Notification{{ID: "1", Processing: "sent"}, {ID: "2", Processing: "read"}},
			LastUpdated: newer,
			LastError:   errors.New("late"),
		},
	}
	if got := d.ActiveDocuments(); len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("ActiveDocuments = %#v", got)
	}
	if d.UnreadCount() != 1 || !d.HasUnread() {
		t.Fatalf("UnreadCount = %d", d.UnreadCount())
	}
	if !d.LastUpdated().Equal(newer) {
		t.Fatalf("LastUpdated = %v, want %v", d.LastUpdated(), newer)
	}
	if d.LastError() == nil || d.LastError().Error() != "late" {
		t.Fatalf("LastError = %v", d.LastError())
	}
}
