package adjustment

import (
	"context"
	"testing"
	"time"

	"stocktake/internal/core/entity"
	"stocktake/internal/core/id"
	"stocktake/internal/core/types"
	"stocktake/internal/domain/counting"
)

type memRepo struct {
	movements    []entity.StockAdjustment
	staleDeletes int
}

func (r *memRepo) InsertMovements(ctx context.Context, movements []entity.StockAdjustment) error {
	r.movements = append(r.movements, movements...)
	return nil
}

func (r *memRepo) DeleteStaleByRecorder(ctx context.Context, recorderID id.ID, currentVersion int) error {
	r.staleDeletes++
	kept := r.movements[:0]
	for _, m := range r.movements {
		if m.RecorderID == recorderID && m.RecorderVersion < currentVersion {
			continue
		}
		kept = append(kept, m)
	}
	r.movements = kept
	return nil
}

func (r *memRepo) ListByRecorder(ctx context.Context, recorderID id.ID) ([]entity.StockAdjustment, error) {
	var out []entity.StockAdjustment
	for _, m := range r.movements {
		if m.RecorderID == recorderID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memRepo) GetBalances(ctx context.Context, locationID id.ID, from, to time.Time) ([]Balance, error) {
	sums := make(map[id.ID]types.Quantity)
	for _, m := range r.movements {
		if m.LocationID == locationID {
			sums[m.ProductID] += m.SignedQuantity()
		}
	}
	var out []Balance
	for productID, qty := range sums {
		out = append(out, Balance{LocationID: locationID, ProductID: productID, Quantity: qty})
	}
	return out, nil
}

func completedSession() *counting.CountSession {
	s := counting.NewCountSession(id.New(), "count", counting.CountFull, []string{"Bar"})
	s.MarkPosted()
	now := time.Now().UTC()
	s.CompletedAt = &now
	return s
}

func TestRecordAdjustmentsDirections(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo)
	session := completedSession()

	surplus, shortage, exact := id.New(), id.New(), id.New()
	report := &counting.VarianceReport{
		SessionID: session.ID,
		Items: []counting.ItemVariance{
			{ProductID: surplus, Variance: types.NewQuantityFromInt(2)},
			{ProductID: shortage, Variance: -types.NewQuantityFromInt(3)},
			{ProductID: exact, Variance: 0},
		},
	}

	if err := svc.RecordAdjustments(context.Background(), session, report); err != nil {
		t.Fatalf("RecordAdjustments() error: %v", err)
	}

	if len(repo.movements) != 2 {
		t.Fatalf("movements = %d, want 2 (zero variance skipped)", len(repo.movements))
	}

	byProduct := make(map[id.ID]entity.StockAdjustment)
	for _, m := range repo.movements {
		byProduct[m.ProductID] = m
	}

	m := byProduct[surplus]
	if m.RecordType != entity.RecordTypeReceipt {
		t.Errorf("surplus record type = %s, want receipt", m.RecordType)
	}
	if m.Quantity != types.NewQuantityFromInt(2) {
		t.Errorf("surplus quantity = %s, want 2", m.Quantity)
	}

	m = byProduct[shortage]
	if m.RecordType != entity.RecordTypeExpense {
		t.Errorf("shortage record type = %s, want expense", m.RecordType)
	}
	if m.Quantity != types.NewQuantityFromInt(3) {
		t.Errorf("shortage quantity = %s, want 3 (absolute)", m.Quantity)
	}
	if m.SignedQuantity() != -types.NewQuantityFromInt(3) {
		t.Errorf("shortage signed quantity = %s, want -3", m.SignedQuantity())
	}

	for _, m := range repo.movements {
		if m.RecorderID != session.ID || m.RecorderType != counting.DocumentType {
			t.Error("movement recorder attribution wrong")
		}
		if m.RecorderVersion != session.PostedVersion {
			t.Errorf("recorder version = %d, want %d", m.RecorderVersion, session.PostedVersion)
		}
		if !m.Period.Equal(*session.CompletedAt) {
			t.Error("movement period should be the session completion time")
		}
	}
}

func TestRecordAdjustmentsReplacesStaleVersions(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo)
	session := completedSession()
	productID := id.New()

	report := &counting.VarianceReport{
		SessionID: session.ID,
		Items:     []counting.ItemVariance{{ProductID: productID, Variance: types.NewQuantityFromInt(1)}},
	}
	if err := svc.RecordAdjustments(context.Background(), session, report); err != nil {
		t.Fatalf("first RecordAdjustments() error: %v", err)
	}

	// A reposting bumps the version; old movements must be replaced.
	session.MarkPosted()
	report.Items[0].Variance = -types.NewQuantityFromInt(2)
	if err := svc.RecordAdjustments(context.Background(), session, report); err != nil {
		t.Fatalf("second RecordAdjustments() error: %v", err)
	}

	movements, _ := svc.ListBySession(context.Background(), session.ID)
	if len(movements) != 1 {
		t.Fatalf("movements = %d, want 1 after repost", len(movements))
	}
	if movements[0].RecorderVersion != session.PostedVersion {
		t.Errorf("kept version = %d, want %d", movements[0].RecorderVersion, session.PostedVersion)
	}
	if movements[0].RecordType != entity.RecordTypeExpense {
		t.Error("repost should carry the new movement direction")
	}
}

func TestRecordAdjustmentsNoMovements(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo)
	session := completedSession()

	report := &counting.VarianceReport{SessionID: session.ID}
	if err := svc.RecordAdjustments(context.Background(), session, report); err != nil {
		t.Fatalf("RecordAdjustments() error: %v", err)
	}
	if len(repo.movements) != 0 {
		t.Errorf("movements = %d, want 0", len(repo.movements))
	}
}
