package counting

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"stocktake/internal/core/apperror"
	appctx "stocktake/internal/core/context"
	"stocktake/internal/core/id"
	"stocktake/internal/core/types"
	"stocktake/internal/domain"
)

// --- in-memory collaborators ---

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memRepo struct {
	mu       sync.Mutex
	sessions map[id.ID]*CountSession
}

func newMemRepo() *memRepo {
	return &memRepo{sessions: make(map[id.ID]*CountSession)}
}

func cloneSession(s *CountSession) *CountSession {
	clone := *s
	clone.Areas = make([]CountArea, len(s.Areas))
	for i := range s.Areas {
		clone.Areas[i] = s.Areas[i]
		clone.Areas[i].Items = append([]CountItem(nil), s.Areas[i].Items...)
	}
	return &clone
}

func (r *memRepo) Create(ctx context.Context, session *CountSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = cloneSession(session)
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, sessionID id.ID) (*CountSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, apperror.NewNotFound("count session", sessionID)
	}
	return cloneSession(s), nil
}

func (r *memRepo) GetForUpdate(ctx context.Context, sessionID id.ID) (*CountSession, error) {
	return r.GetByID(ctx, sessionID)
}

func (r *memRepo) Update(ctx context.Context, session *CountSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.sessions[session.ID]
	if !ok {
		return apperror.NewNotFound("count session", session.ID)
	}
	if stored.Version != session.Version {
		return apperror.NewConcurrentModification("count session", session.ID)
	}
	updated := cloneSession(session)
	updated.Version++
	r.sessions[session.ID] = updated
	session.Version = updated.Version
	return nil
}

func (r *memRepo) List(ctx context.Context, filter SessionFilter) (domain.ListResult[*CountSession], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := domain.ListResult[*CountSession]{Limit: filter.Limit, Offset: filter.Offset}
	for _, s := range r.sessions {
		result.Items = append(result.Items, cloneSession(s))
		result.TotalCount++
	}
	return result, nil
}

type fakeCatalog struct {
	pars  map[id.ID]types.Quantity
	costs map[id.ID]types.Money
}

func (c *fakeCatalog) GetParLevels(ctx context.Context, locationID id.ID) (map[id.ID]types.Quantity, error) {
	return c.pars, nil
}

func (c *fakeCatalog) GetUnitCosts(ctx context.Context, productIDs []id.ID) (map[id.ID]types.Money, error) {
	return c.costs, nil
}

type fakeAreaProvider struct{ names []string }

func (p *fakeAreaProvider) GetAreaTemplates(ctx context.Context, locationID id.ID) ([]string, error) {
	return p.names, nil
}

type countingAdjustments struct {
	calls atomic.Int32
}

func (a *countingAdjustments) RecordAdjustments(ctx context.Context, session *CountSession, report *VarianceReport) error {
	a.calls.Add(1)
	return nil
}

type fakeNumerator struct{ n atomic.Int32 }

func (f *fakeNumerator) Next(ctx context.Context, documentType string) (string, error) {
	return "CNT-2026-0000" + string(rune('0'+f.n.Add(1))), nil
}

type countingObserver struct {
	calls   atomic.Int32
	lastPct types.Money
}

func (o *countingObserver) VarianceComputed(ctx context.Context, session *CountSession, report *VarianceReport) error {
	o.calls.Add(1)
	o.lastPct = report.VariancePercent
	return nil
}

type fixture struct {
	svc         *Service
	repo        *memRepo
	catalog     *fakeCatalog
	adjustments *countingAdjustments
	observer    *countingObserver
}

func newFixture(areaNames ...string) *fixture {
	if len(areaNames) == 0 {
		areaNames = []string{"Bar", "Storage"}
	}
	f := &fixture{
		repo:        newMemRepo(),
		catalog:     &fakeCatalog{pars: map[id.ID]types.Quantity{}, costs: map[id.ID]types.Money{}},
		adjustments: &countingAdjustments{},
		observer:    &countingObserver{},
	}
	f.svc = NewService(
		f.repo, fakeTxManager{}, f.catalog,
		&fakeAreaProvider{names: areaNames},
		f.adjustments, &fakeNumerator{}, nil,
	)
	f.svc.AddObserver(f.observer)
	return f
}

func userCtx(userID string) context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{UserID: userID})
}

// --- tests ---

func TestServiceCreatePopulatesAreas(t *testing.T) {
	f := newFixture("Bar", "Cellar", "Dry Storage")
	ctx := userCtx("user-1")

	session, err := f.svc.Create(ctx, id.New(), "Friday count", CountFull)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if session.Number == "" {
		t.Error("number not assigned")
	}
	if len(session.Areas) != 3 {
		t.Errorf("areas = %d, want 3", len(session.Areas))
	}
	if session.CreatedBy != "user-1" {
		t.Errorf("createdBy = %s, want user-1", session.CreatedBy)
	}

	stored, err := f.svc.GetByID(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if stored.Status != SessionDraft {
		t.Errorf("stored status = %s, want draft", stored.Status)
	}
}

func TestServiceCreateNoAreasConfigured(t *testing.T) {
	f := newFixture()
	f.svc.areas = &fakeAreaProvider{names: nil}

	_, err := f.svc.Create(userCtx("u"), id.New(), "count", CountFull)
	if appErr, ok := apperror.AsAppError(err); !ok || appErr.Code != apperror.CodeBusinessRule {
		t.Errorf("Create() = %v, want BUSINESS_RULE_VIOLATION", err)
	}
}

func TestServiceRecordItemAttribution(t *testing.T) {
	f := newFixture()
	ctx := userCtx("counter-7")

	session, err := f.svc.Create(ctx, id.New(), "count", CountSpot)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	item, err := f.svc.RecordItem(ctx, session.ID, session.Areas[0].ID, id.New(), 3, 5*types.QuantityTenth, "dusty shelf")
	if err != nil {
		t.Fatalf("RecordItem() error: %v", err)
	}
	if item.CountedBy != "counter-7" {
		t.Errorf("countedBy = %s, want counter-7", item.CountedBy)
	}
	want := types.NewQuantityFromInt(3) + 5*types.QuantityTenth
	if item.TotalQuantity != want {
		t.Errorf("totalQuantity = %s, want %s", item.TotalQuantity, want)
	}

	// The write is persisted, not just in-memory.
	stored, _ := f.svc.GetByID(ctx, session.ID)
	if stored.ItemsCounted != 1 {
		t.Errorf("persisted itemsCounted = %d, want 1", stored.ItemsCounted)
	}
	if stored.Status != SessionInProgress {
		t.Errorf("persisted status = %s, want in_progress", stored.Status)
	}
}

func TestServiceCompleteLastAreaAggregates(t *testing.T) {
	f := newFixture("Bar", "Storage")
	ctx := userCtx("user-1")
	vodka := id.New()
	f.catalog.pars[vodka] = types.NewQuantityFromInt(10)
	f.catalog.costs[vodka] = types.MustMoney("20")

	session, err := f.svc.Create(ctx, id.New(), "count", CountFull)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if _, err := f.svc.RecordItem(ctx, session.ID, session.Areas[0].ID, vodka, 6, 0, ""); err != nil {
		t.Fatalf("RecordItem() error: %v", err)
	}
	if _, report, err := f.svc.CompleteArea(ctx, session.ID, session.Areas[0].ID); err != nil || report != nil {
		t.Fatalf("first CompleteArea() = report %v, err %v", report, err)
	}

	// Remaining expected for the open area reflects the completed bar count.
	remaining, err := f.svc.RemainingExpected(ctx, session.ID, vodka, session.Areas[1].ID)
	if err != nil {
		t.Fatalf("RemainingExpected() error: %v", err)
	}
	if want := types.NewQuantityFromInt(4); remaining != want {
		t.Errorf("remainingExpected = %s, want %s", remaining, want)
	}

	if _, err := f.svc.RecordItem(ctx, session.ID, session.Areas[1].ID, vodka, 3, 0, ""); err != nil {
		t.Fatalf("RecordItem() error: %v", err)
	}
	updated, report, err := f.svc.CompleteArea(ctx, session.ID, session.Areas[1].ID)
	if err != nil {
		t.Fatalf("final CompleteArea() error: %v", err)
	}
	if report == nil {
		t.Fatal("final CompleteArea() returned no report")
	}
	if updated.Status != SessionCompleted {
		t.Errorf("status = %s, want completed", updated.Status)
	}
	if !updated.Posted || updated.PostedVersion != 1 {
		t.Errorf("posted = %v/%d, want true/1", updated.Posted, updated.PostedVersion)
	}

	v := findVariance(t, report, vodka)
	if want := -types.NewQuantityFromInt(1); v.Variance != want {
		t.Errorf("variance = %s, want %s", v.Variance, want)
	}
	if got := f.adjustments.calls.Load(); got != 1 {
		t.Errorf("adjustment runs = %d, want 1", got)
	}
	if got := f.observer.calls.Load(); got != 1 {
		t.Errorf("observer calls = %d, want 1", got)
	}
	// 9 counted at $20.
	if !updated.TotalValue.Equal(types.MustMoney("180")) {
		t.Errorf("totalValue = %s, want 180", updated.TotalValue)
	}
}

func TestServiceConcurrentCompleteLastTwoAreas(t *testing.T) {
	// Two racing completions of the last two open areas: exactly one of
	// them performs the session-level completion and aggregation.
	f := newFixture("Bar", "Storage")
	ctx := userCtx("user-1")

	session, err := f.svc.Create(ctx, id.New(), "count", CountFull)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	var wg sync.WaitGroup
	var completions atomic.Int32
	for _, areaID := range []id.ID{session.Areas[0].ID, session.Areas[1].ID} {
		wg.Add(1)
		go func(areaID id.ID) {
			defer wg.Done()
			_, report, err := f.svc.CompleteArea(ctx, session.ID, areaID)
			if err != nil {
				t.Errorf("CompleteArea(%s) error: %v", areaID, err)
				return
			}
			if report != nil {
				completions.Add(1)
			}
		}(areaID)
	}
	wg.Wait()

	if got := completions.Load(); got != 1 {
		t.Errorf("session-level completions = %d, want exactly 1", got)
	}
	if got := f.adjustments.calls.Load(); got != 1 {
		t.Errorf("adjustment runs = %d, want exactly 1", got)
	}

	stored, _ := f.svc.GetByID(ctx, session.ID)
	if stored.Status != SessionCompleted {
		t.Errorf("status = %s, want completed", stored.Status)
	}
}

func TestServiceVarianceIdempotentReRun(t *testing.T) {
	f := newFixture("Bar")
	ctx := userCtx("user-1")
	gin := id.New()
	f.catalog.pars[gin] = types.NewQuantityFromInt(4)
	f.catalog.costs[gin] = types.MustMoney("25")

	session, err := f.svc.Create(ctx, id.New(), "count", CountFull)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	// Variance before completion is rejected.
	if _, err := f.svc.Variance(ctx, session.ID); err == nil {
		t.Error("Variance() on open session should fail")
	}

	if _, err := f.svc.RecordItem(ctx, session.ID, session.Areas[0].ID, gin, 4, 0, ""); err != nil {
		t.Fatalf("RecordItem() error: %v", err)
	}
	_, completionReport, err := f.svc.CompleteArea(ctx, session.ID, session.Areas[0].ID)
	if err != nil {
		t.Fatalf("CompleteArea() error: %v", err)
	}

	rerun, err := f.svc.Variance(ctx, session.ID)
	if err != nil {
		t.Fatalf("Variance() error: %v", err)
	}
	if len(rerun.Items) != len(completionReport.Items) {
		t.Fatalf("re-run items = %d, want %d", len(rerun.Items), len(completionReport.Items))
	}
	for i := range rerun.Items {
		if rerun.Items[i] != completionReport.Items[i] {
			t.Errorf("re-run item %d differs from completion report", i)
		}
	}
}

func TestServiceApproveFlow(t *testing.T) {
	f := newFixture("Bar")
	ctx := userCtx("manager-1")

	session, err := f.svc.Create(ctx, id.New(), "count", CountCycle)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if _, _, err := f.svc.CompleteArea(ctx, session.ID, session.Areas[0].ID); err != nil {
		t.Fatalf("CompleteArea() error: %v", err)
	}

	approved, err := f.svc.Approve(ctx, session.ID)
	if err != nil {
		t.Fatalf("Approve() error: %v", err)
	}
	if approved.Status != SessionApproved {
		t.Errorf("status = %s, want approved", approved.Status)
	}
	if approved.ApprovedBy == nil || *approved.ApprovedBy != "manager-1" {
		t.Error("approvedBy not attributed from context")
	}

	// Variance stays readable after approval.
	if _, err := f.svc.Variance(ctx, session.ID); err != nil {
		t.Errorf("Variance() after approve error: %v", err)
	}
}

func TestServiceCurrentArea(t *testing.T) {
	f := newFixture("Bar", "Storage")
	ctx := userCtx("user-1")

	session, err := f.svc.Create(ctx, id.New(), "count", CountFull)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	area, err := f.svc.CurrentArea(ctx, session.ID)
	if err != nil {
		t.Fatalf("CurrentArea() error: %v", err)
	}
	if area.ID != session.Areas[0].ID {
		t.Errorf("current area = %s, want first", area.Name)
	}

	if _, _, err := f.svc.CompleteArea(ctx, session.ID, session.Areas[0].ID); err != nil {
		t.Fatalf("CompleteArea() error: %v", err)
	}
	area, err = f.svc.CurrentArea(ctx, session.ID)
	if err != nil {
		t.Fatalf("CurrentArea() error: %v", err)
	}
	if area.ID != session.Areas[1].ID {
		t.Errorf("current area = %s, want second", area.Name)
	}
}

func TestServiceSessionNotFound(t *testing.T) {
	f := newFixture()
	ctx := userCtx("user-1")
	missing := id.New()

	if _, err := f.svc.GetByID(ctx, missing); !apperror.IsNotFound(err) {
		t.Errorf("GetByID() = %v, want NotFound", err)
	}
	if _, err := f.svc.Start(ctx, missing); !apperror.IsNotFound(err) {
		t.Errorf("Start() = %v, want NotFound", err)
	}
	if _, _, err := f.svc.CompleteArea(ctx, missing, id.New()); !apperror.IsNotFound(err) {
		t.Errorf("CompleteArea() = %v, want NotFound", err)
	}
}
