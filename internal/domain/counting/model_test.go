package counting

import (
	"testing"

	"stocktake/internal/core/apperror"
	"stocktake/internal/core/id"
	"stocktake/internal/core/types"
)

func newTestSession(areaNames ...string) *CountSession {
	if len(areaNames) == 0 {
		areaNames = []string{"Main Bar", "Storage"}
	}
	return NewCountSession(id.New(), "Friday count", CountFull, areaNames)
}

func TestNewCountSession(t *testing.T) {
	s := newTestSession("Bar", "Cellar", "Dry Storage")

	if s.Status != SessionDraft {
		t.Errorf("status = %s, want %s", s.Status, SessionDraft)
	}
	if len(s.Areas) != 3 {
		t.Fatalf("areas = %d, want 3", len(s.Areas))
	}
	for i, a := range s.Areas {
		if a.Status != AreaPending {
			t.Errorf("area %d status = %s, want %s", i, a.Status, AreaPending)
		}
		if a.SortOrder != i {
			t.Errorf("area %d sort order = %d, want %d", i, a.SortOrder, i)
		}
		if a.SessionID != s.ID {
			t.Errorf("area %d session id mismatch", i)
		}
	}
}

func TestSessionStart(t *testing.T) {
	s := newTestSession()

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if s.Status != SessionInProgress {
		t.Errorf("status = %s, want %s", s.Status, SessionInProgress)
	}
	if s.StartedAt == nil {
		t.Error("StartedAt not set")
	}

	// Starting twice is an invalid transition.
	err := s.Start()
	if !apperror.IsInvalidTransition(err) {
		t.Errorf("second Start() = %v, want InvalidTransition", err)
	}
}

func TestRecordItemComputesTotalQuantity(t *testing.T) {
	tests := []struct {
		name        string
		fullUnits   int64
		partialUnit types.Quantity
		wantTotal   types.Quantity
	}{
		{"whole units only", 6, 0, types.NewQuantityFromInt(6)},
		{"partial only", 0, 3 * types.QuantityTenth, 3 * types.QuantityTenth},
		{"mixed", 2, 7 * types.QuantityTenth, types.NewQuantityFromInt(2) + 7*types.QuantityTenth},
		{"zero count", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession()
			item, err := s.RecordItem(s.Areas[0].ID, id.New(), tt.fullUnits, tt.partialUnit, "user-1", "")
			if err != nil {
				t.Fatalf("RecordItem() error: %v", err)
			}
			if item.TotalQuantity != tt.wantTotal {
				t.Errorf("totalQuantity = %s, want %s", item.TotalQuantity, tt.wantTotal)
			}
			want := types.NewQuantityFromInt(item.FullUnits) + item.PartialUnit
			if item.TotalQuantity != want {
				t.Errorf("totalQuantity invariant broken: %s != fullUnits+partialUnit %s",
					item.TotalQuantity, want)
			}
		})
	}
}

func TestRecordItemRejectsInvalidQuantities(t *testing.T) {
	tests := []struct {
		name        string
		fullUnits   int64
		partialUnit types.Quantity
	}{
		{"negative full units", -1, 0},
		{"partial equal to one", 0, types.QuantityOne},
		{"partial above one", 2, types.QuantityOne + types.QuantityTenth},
		{"negative partial", 1, -types.QuantityTenth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession()
			_, err := s.RecordItem(s.Areas[0].ID, id.New(), tt.fullUnits, tt.partialUnit, "user-1", "")
			appErr, ok := apperror.AsAppError(err)
			if !ok || appErr.Code != apperror.CodeInvalidQuantity {
				t.Errorf("RecordItem() = %v, want INVALID_QUANTITY", err)
			}
			if len(s.Areas[0].Items) != 0 {
				t.Error("rejected write mutated area items")
			}
		})
	}
}

func TestRecordItemStartsSessionAndArea(t *testing.T) {
	s := newTestSession()

	if _, err := s.RecordItem(s.Areas[0].ID, id.New(), 1, 0, "user-1", ""); err != nil {
		t.Fatalf("RecordItem() error: %v", err)
	}
	if s.Status != SessionInProgress {
		t.Errorf("session status = %s, want %s", s.Status, SessionInProgress)
	}
	if s.Areas[0].Status != AreaInProgress {
		t.Errorf("area status = %s, want %s", s.Areas[0].Status, AreaInProgress)
	}
	if s.Areas[1].Status != AreaPending {
		t.Errorf("untouched area status = %s, want %s", s.Areas[1].Status, AreaPending)
	}
}

func TestRecordItemOverwritesExistingEntry(t *testing.T) {
	s := newTestSession()
	productID := id.New()
	areaID := s.Areas[0].ID

	if _, err := s.RecordItem(areaID, productID, 3, 0, "user-1", ""); err != nil {
		t.Fatalf("first RecordItem() error: %v", err)
	}
	item, err := s.RecordItem(areaID, productID, 5, 5*types.QuantityTenth, "user-2", "recount")
	if err != nil {
		t.Fatalf("second RecordItem() error: %v", err)
	}

	if len(s.Areas[0].Items) != 1 {
		t.Fatalf("items = %d, want 1 (overwrite, not append)", len(s.Areas[0].Items))
	}
	want := types.NewQuantityFromInt(5) + 5*types.QuantityTenth
	if item.TotalQuantity != want {
		t.Errorf("totalQuantity = %s, want %s", item.TotalQuantity, want)
	}
	if item.CountedBy != "user-2" {
		t.Errorf("countedBy = %s, want user-2", item.CountedBy)
	}
}

func TestRecordItemOnCompletedArea(t *testing.T) {
	s := newTestSession()
	areaID := s.Areas[0].ID

	if _, err := s.RecordItem(areaID, id.New(), 2, 0, "user-1", ""); err != nil {
		t.Fatalf("RecordItem() error: %v", err)
	}
	if _, err := s.CompleteArea(areaID); err != nil {
		t.Fatalf("CompleteArea() error: %v", err)
	}

	_, err := s.RecordItem(areaID, id.New(), 1, 0, "user-1", "")
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeAreaCompleted {
		t.Errorf("RecordItem() on completed area = %v, want AREA_COMPLETED", err)
	}
	if len(s.Areas[0].Items) != 1 {
		t.Error("rejected write changed completed area state")
	}
}

func TestCompleteAreaAdvancesSession(t *testing.T) {
	s := newTestSession("Bar", "Storage")

	done, err := s.CompleteArea(s.Areas[0].ID)
	if err != nil {
		t.Fatalf("CompleteArea() error: %v", err)
	}
	if done {
		t.Error("session completed with one area still open")
	}
	if s.Status != SessionInProgress {
		t.Errorf("session status = %s, want %s", s.Status, SessionInProgress)
	}
	if cur := s.CurrentArea(); cur == nil || cur.ID != s.Areas[1].ID {
		t.Error("current area should advance to the next open area")
	}

	done, err = s.CompleteArea(s.Areas[1].ID)
	if err != nil {
		t.Fatalf("CompleteArea() error: %v", err)
	}
	if !done {
		t.Error("completing the last area should complete the session")
	}
	if s.Status != SessionCompleted {
		t.Errorf("session status = %s, want %s", s.Status, SessionCompleted)
	}
	if s.CompletedAt == nil {
		t.Error("CompletedAt not set")
	}
}

func TestCompleteAreaEmptyAreaIsValid(t *testing.T) {
	s := newTestSession("Bar")

	done, err := s.CompleteArea(s.Areas[0].ID)
	if err != nil {
		t.Fatalf("CompleteArea() on empty area error: %v", err)
	}
	if !done || s.Status != SessionCompleted {
		t.Error("completing the only (empty) area should complete the session")
	}
}

func TestCompleteAreaErrors(t *testing.T) {
	s := newTestSession()

	if _, err := s.CompleteArea(id.New()); !apperror.IsNotFound(err) {
		t.Errorf("unknown area = %v, want NotFound", err)
	}

	if _, err := s.CompleteArea(s.Areas[0].ID); err != nil {
		t.Fatalf("CompleteArea() error: %v", err)
	}
	if _, err := s.CompleteArea(s.Areas[0].ID); !apperror.IsInvalidTransition(err) {
		t.Errorf("double complete = %v, want InvalidTransition", err)
	}
}

func TestSessionCompletedIffAllAreasCompleted(t *testing.T) {
	s := newTestSession("A", "B", "C")

	for i := range s.Areas {
		if _, err := s.CompleteArea(s.Areas[i].ID); err != nil {
			t.Fatalf("CompleteArea(%d) error: %v", i, err)
		}
		allDone := i == len(s.Areas)-1
		if (s.Status == SessionCompleted) != allDone {
			t.Errorf("after completing %d areas: status = %s", i+1, s.Status)
		}
	}
}

func TestCurrentAreaAfterRestart(t *testing.T) {
	// Current area is derived from persisted statuses only.
	s := newTestSession("A", "B", "C")
	s.Areas[0].Status = AreaCompleted
	s.Areas[1].Status = AreaCompleted

	if cur := s.CurrentArea(); cur.ID != s.Areas[2].ID {
		t.Errorf("current area = %s, want third area", cur.Name)
	}

	s.Areas[2].Status = AreaCompleted
	if cur := s.CurrentArea(); cur.ID != s.Areas[2].ID {
		t.Error("all completed: current area should be the last for review")
	}
}

func TestReopenArea(t *testing.T) {
	s := newTestSession("Bar", "Storage")
	areaID := s.Areas[0].ID

	if _, err := s.CompleteArea(areaID); err != nil {
		t.Fatalf("CompleteArea() error: %v", err)
	}
	if err := s.ReopenArea(areaID); err != nil {
		t.Fatalf("ReopenArea() error: %v", err)
	}
	if s.Areas[0].Status != AreaInProgress {
		t.Errorf("area status = %s, want %s", s.Areas[0].Status, AreaInProgress)
	}
	if s.Areas[0].CompletedAt != nil {
		t.Error("CompletedAt should be cleared on reopen")
	}

	// Reopening a non-completed area is invalid.
	if err := s.ReopenArea(areaID); !apperror.IsInvalidTransition(err) {
		t.Errorf("reopen open area = %v, want InvalidTransition", err)
	}
}

func TestReopenAreaOnCompletedSession(t *testing.T) {
	s := newTestSession("Bar")
	if _, err := s.CompleteArea(s.Areas[0].ID); err != nil {
		t.Fatalf("CompleteArea() error: %v", err)
	}
	if err := s.ReopenArea(s.Areas[0].ID); !apperror.IsInvalidTransition(err) {
		t.Errorf("reopen on completed session = %v, want InvalidTransition", err)
	}
}

func TestApprove(t *testing.T) {
	s := newTestSession("Bar")

	if err := s.Approve("manager-1"); !apperror.IsInvalidTransition(err) {
		t.Errorf("approve draft session = %v, want InvalidTransition", err)
	}

	if _, err := s.CompleteArea(s.Areas[0].ID); err != nil {
		t.Fatalf("CompleteArea() error: %v", err)
	}
	if err := s.Approve("manager-1"); err != nil {
		t.Fatalf("Approve() error: %v", err)
	}
	if s.Status != SessionApproved {
		t.Errorf("status = %s, want %s", s.Status, SessionApproved)
	}
	if s.ApprovedBy == nil || *s.ApprovedBy != "manager-1" {
		t.Error("ApprovedBy not recorded")
	}

	// Approved sessions accept no further writes.
	if _, err := s.RecordItem(s.Areas[0].ID, id.New(), 1, 0, "u", ""); !apperror.IsInvalidTransition(err) {
		t.Errorf("record on approved session = %v, want InvalidTransition", err)
	}
}

func TestItemsCountedTotal(t *testing.T) {
	s := newTestSession("Bar", "Storage")

	productA, productB := id.New(), id.New()
	mustRecord(t, s, s.Areas[0].ID, productA, 1, 0)
	mustRecord(t, s, s.Areas[0].ID, productB, 2, 0)
	mustRecord(t, s, s.Areas[1].ID, productA, 3, 0)

	if s.ItemsCounted != 3 {
		t.Errorf("itemsCounted = %d, want 3", s.ItemsCounted)
	}

	// Overwriting does not inflate the total.
	mustRecord(t, s, s.Areas[0].ID, productA, 4, 0)
	if s.ItemsCounted != 3 {
		t.Errorf("itemsCounted after overwrite = %d, want 3", s.ItemsCounted)
	}
}

func mustRecord(t *testing.T, s *CountSession, areaID, productID id.ID, fullUnits int64, partial types.Quantity) *CountItem {
	t.Helper()
	item, err := s.RecordItem(areaID, productID, fullUnits, partial, "tester", "")
	if err != nil {
		t.Fatalf("RecordItem() error: %v", err)
	}
	return item
}
