package controller

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alquimia/consola/internal/domain/models"
	"github.com/alquimia/consola/internal/session"
	"github.com/alquimia/consola/pkg/clients/alquimia"
)

// fakeAPI emulates the backend's pagination and filtering semantics in
// memory so the controller can be exercised without a network.
type fakeAPI struct {
	mu      sync.Mutex
	records []models.Material
	nextID  uint

	listErr   error
	createErr error
	updateErr error
	deleteErr error
	adjustErr error

	listCalls   int
	createCalls int
	adjustCalls int

	// When set, List blocks until the matching channel is closed. Keyed by
	// the requested page number.
	listGate map[int]chan struct{}
}

func newFakeAPI(n int) *fakeAPI {
	f := &fakeAPI{nextID: 1}
	for i := 0; i < n; i++ {
		f.records = append(f.records, models.Material{
			ID:       f.nextID,
			Nombre:   fmt.Sprintf("material-%03d", i+1),
			Unidad:   "kg",
			Cantidad: 10,
		})
		f.nextID++
	}
	return f
}

func (f *fakeAPI) List(_ context.Context, params alquimia.ListParams) (*alquimia.Page[models.Material], error) {
	f.mu.Lock()
	f.listCalls++
	var gate chan struct{}
	if f.listGate != nil {
		gate = f.listGate[params.Page]
	}
	err := f.listErr
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []models.Material
	for _, r := range f.records {
		if params.Query == "" || strings.Contains(r.Nombre, params.Query) || strings.Contains(r.Unidad, params.Query) {
			matched = append(matched, r)
		}
	}

	start := (params.Page - 1) * params.Limit
	end := start + params.Limit
	if start > len(matched) {
		start = len(matched)
	}
	if end > len(matched) {
		end = len(matched)
	}

	return &alquimia.Page[models.Material]{
		Items: append([]models.Material(nil), matched[start:end]...),
		Page:  params.Page,
		Limit: params.Limit,
		Total: int64(len(matched)),
	}, nil
}

func (f *fakeAPI) Create(_ context.Context, record models.Material) (*models.Material, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}

	record.ID = f.nextID
	f.nextID++
	f.records = append(f.records, record)
	return &record, nil
}

func (f *fakeAPI) Update(_ context.Context, id uint, record models.Material) (*models.Material, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		return nil, f.updateErr
	}
	for i := range f.records {
		if f.records[i].ID == id {
			record.ID = id
			f.records[i] = record
			return &record, nil
		}
	}
	return nil, &alquimia.ServerError{Op: "update", Status: 404, Message: "Material no encontrado"}
}

func (f *fakeAPI) Delete(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i := range f.records {
		if f.records[i].ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return &alquimia.ServerError{Op: "delete", Status: 404, Message: "Material no encontrado"}
}

func (f *fakeAPI) Adjust(_ context.Context, id uint, adj models.AjusteRequest) (*models.Material, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.adjustCalls++
	if f.adjustErr != nil {
		return nil, f.adjustErr
	}
	for i := range f.records {
		if f.records[i].ID == id {
			if f.records[i].Cantidad+adj.Delta < 0 {
				return nil, &alquimia.ServerError{Op: "adjust", Status: 400, Message: "Stock insuficiente para el ajuste"}
			}
			f.records[i].Cantidad += adj.Delta
			out := f.records[i]
			return &out, nil
		}
	}
	return nil, &alquimia.ServerError{Op: "adjust", Status: 404, Message: "Material no encontrado"}
}

func supervisorStore(t *testing.T) *session.Store {
	t.Helper()
	store, err := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatalf("failed to create session store: %v", err)
	}
	if err := store.Set(session.Session{Token: "tok", Role: "supervisor", Email: "s@guild.test", UserID: 7}); err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}
	return store
}

func newController(t *testing.T, api *fakeAPI, opts ...Option[models.Material]) *ResourceController[models.Material] {
	t.Helper()
	base := []Option[models.Material]{WithConfirm[models.Material](func(models.Material) bool { return true })}
	return New[models.Material](api, supervisorStore(t), nil, append(base, opts...)...)
}

func TestLoadEmptyCollection(t *testing.T) {
	c := newController(t, newFakeAPI(0))

	if err := c.Load(context.Background(), 1); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	st := c.Snapshot()
	if len(st.Items) != 0 {
		t.Errorf("expected no items, got %d", len(st.Items))
	}
	if st.TotalPages != 1 {
		t.Errorf("expected totalPages floor of 1, got %d", st.TotalPages)
	}
}

func TestPaginationMath(t *testing.T) {
	c := newController(t, newFakeAPI(25))

	if err := c.Load(context.Background(), 1); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	st := c.Snapshot()
	if st.Total != 25 || st.TotalPages != 3 {
		t.Fatalf("expected total=25 totalPages=3, got total=%d totalPages=%d", st.Total, st.TotalPages)
	}

	// Creating a 26th record keeps ceil(total/limit) in step.
	err := c.Create(context.Background(), models.Material{Nombre: "nuevo", Unidad: "g", Cantidad: 1})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	st = c.Snapshot()
	if st.Total != 26 || st.TotalPages != 3 {
		t.Errorf("expected total=26 totalPages=3, got total=%d totalPages=%d", st.Total, st.TotalPages)
	}
	if st.Page != 1 {
		t.Errorf("create must jump the view to page 1, got %d", st.Page)
	}
}

func TestRemovePageRecalculation(t *testing.T) {
	t.Run("emptying the last page steps back", func(t *testing.T) {
		api := newFakeAPI(11)
		c := newController(t, api)

		if err := c.Load(context.Background(), 2); err != nil {
			t.Fatalf("load failed: %v", err)
		}
		st := c.Snapshot()
		if len(st.Items) != 1 || st.Page != 2 {
			t.Fatalf("expected lone item on page 2, got %d items on page %d", len(st.Items), st.Page)
		}

		if err := c.Remove(context.Background(), st.Items[0].ID); err != nil {
			t.Fatalf("remove failed: %v", err)
		}

		st = c.Snapshot()
		if st.Page != 1 {
			t.Errorf("expected step back to page 1, got %d", st.Page)
		}
		if st.Total != 10 || st.TotalPages != 1 {
			t.Errorf("expected total=10 totalPages=1, got total=%d totalPages=%d", st.Total, st.TotalPages)
		}
	})

	t.Run("partial page stays put", func(t *testing.T) {
		// limit=10, total=25: deleting on page 3 with 5 items keeps page 3.
		api := newFakeAPI(25)
		c := newController(t, api)

		if err := c.Load(context.Background(), 3); err != nil {
			t.Fatalf("load failed: %v", err)
		}
		st := c.Snapshot()
		if len(st.Items) != 5 {
			t.Fatalf("expected 5 items on page 3, got %d", len(st.Items))
		}

		if err := c.Remove(context.Background(), st.Items[0].ID); err != nil {
			t.Fatalf("remove failed: %v", err)
		}

		st = c.Snapshot()
		if st.Page != 3 || st.Total != 24 || st.TotalPages != 3 {
			t.Errorf("expected page=3 total=24 totalPages=3, got page=%d total=%d totalPages=%d",
				st.Page, st.Total, st.TotalPages)
		}
	})

	t.Run("deleting the sole record floors at page 1", func(t *testing.T) {
		api := newFakeAPI(1)
		c := newController(t, api)

		if err := c.Load(context.Background(), 1); err != nil {
			t.Fatalf("load failed: %v", err)
		}

		if err := c.Remove(context.Background(), c.Snapshot().Items[0].ID); err != nil {
			t.Fatalf("remove failed: %v", err)
		}

		st := c.Snapshot()
		if st.Page != 1 || st.Total != 0 || st.TotalPages != 1 {
			t.Errorf("expected page=1 total=0 totalPages=1, got page=%d total=%d totalPages=%d",
				st.Page, st.Total, st.TotalPages)
		}
	})
}

func TestFailuresLeaveDisplayedPageUnchanged(t *testing.T) {
	serverErr := &alquimia.ServerError{Op: "x", Status: 500, Message: "boom"}

	api := newFakeAPI(15)
	c := newController(t, api)
	if err := c.Load(context.Background(), 1); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	before := c.Snapshot()

	cases := []struct {
		name string
		arm  func()
		run  func() error
	}{
		{
			name: "create",
			arm:  func() { api.createErr = serverErr },
			run: func() error {
				return c.Create(context.Background(), models.Material{Nombre: "x", Unidad: "g"})
			},
		},
		{
			name: "update",
			arm:  func() { api.updateErr = serverErr },
			run: func() error {
				if err := c.StartEdit(before.Items[0].ID); err != nil {
					return err
				}
				defer c.CancelEdit()
				return c.SaveEdit(context.Background())
			},
		},
		{
			name: "remove",
			arm:  func() { api.deleteErr = serverErr },
			run: func() error {
				return c.Remove(context.Background(), before.Items[0].ID)
			},
		},
		{
			name: "adjust",
			arm:  func() { api.adjustErr = serverErr },
			run: func() error {
				if err := c.StartAjuste(before.Items[0].ID); err != nil {
					return err
				}
				defer c.CancelAjuste()
				return c.ApplyAjuste(context.Background(), -1, "prueba")
			},
		},
		{
			name: "list",
			arm:  func() { api.listErr = serverErr },
			run:  func() error { return c.Load(context.Background(), 2) },
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.arm()
			defer func() {
				api.listErr, api.createErr, api.updateErr, api.deleteErr, api.adjustErr = nil, nil, nil, nil, nil
			}()

			if err := tc.run(); err == nil {
				t.Fatal("expected an error")
			}

			after := c.Snapshot()
			if !reflect.DeepEqual(before.Items, after.Items) {
				t.Errorf("items changed after failed %s", tc.name)
			}
			if before.Page != after.Page || before.Total != after.Total || before.Limit != after.Limit {
				t.Errorf("page metadata changed after failed %s: before=%d/%d/%d after=%d/%d/%d",
					tc.name, before.Page, before.Limit, before.Total, after.Page, after.Limit, after.Total)
			}
			if after.Error == "" {
				t.Errorf("expected an error message after failed %s", tc.name)
			}
			if after.Info != "" {
				t.Errorf("error and success messages must be mutually exclusive, info=%q", after.Info)
			}
		})
	}
}

func TestStaleListResponseIgnored(t *testing.T) {
	api := newFakeAPI(15)
	c := newController(t, api)

	gate1 := make(chan struct{})
	gate2 := make(chan struct{})
	api.listGate = map[int]chan struct{}{1: gate1, 2: gate2}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		_ = c.Load(context.Background(), 1)
	}()
	// Ensure the page=1 request was issued first so it carries the lower
	// sequence number.
	waitForListCalls(t, api, 1)

	go func() {
		defer wg.Done()
		_ = c.Load(context.Background(), 2)
	}()
	waitForListCalls(t, api, 2)

	// page=2 responds first, then the stale page=1 arrives.
	close(gate2)
	waitForPage(t, c, 2)
	close(gate1)
	wg.Wait()

	st := c.Snapshot()
	if st.Page != 2 {
		t.Errorf("stale page=1 response overwrote newer state, displayed page=%d", st.Page)
	}
	if len(st.Items) != 5 {
		t.Errorf("expected the 5 items of page 2, got %d", len(st.Items))
	}
}

func sleep() { time.Sleep(time.Millisecond) }

func waitForListCalls(t *testing.T, api *fakeAPI, n int) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		api.mu.Lock()
		calls := api.listCalls
		api.mu.Unlock()
		if calls >= n {
			return
		}
		sleep()
	}
	t.Fatalf("timed out waiting for %d list calls", n)
}

func waitForPage(t *testing.T, c *ResourceController[models.Material], page int) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		if c.Snapshot().Page == page {
			return
		}
		sleep()
	}
	t.Fatalf("timed out waiting for page %d", page)
}

func TestAdjustZeroDeltaNeverHitsNetwork(t *testing.T) {
	api := newFakeAPI(3)
	c := newController(t, api)
	if err := c.Load(context.Background(), 1); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if err := c.StartAjuste(1); err != nil {
		t.Fatalf("start ajuste failed: %v", err)
	}

	err := c.ApplyAjuste(context.Background(), 0, "nada")
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if api.adjustCalls != 0 {
		t.Errorf("zero delta must not issue a network call, got %d calls", api.adjustCalls)
	}

	// The pending input survives the rejection.
	if st := c.Snapshot(); st.Ajuste == nil {
		t.Error("pending adjustment was discarded on validation failure")
	}
}

func TestCreateValidationShortCircuits(t *testing.T) {
	api := newFakeAPI(5)
	c := newController(t, api)
	if err := c.Load(context.Background(), 1); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	before := c.Snapshot()

	err := c.Create(context.Background(), models.Material{Nombre: "", Unidad: "kg"})
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if api.createCalls != 0 {
		t.Errorf("validation failure must not issue a POST, got %d calls", api.createCalls)
	}

	after := c.Snapshot()
	if !reflect.DeepEqual(before.Items, after.Items) {
		t.Error("displayed list changed after a validation failure")
	}
}

func TestEditSession(t *testing.T) {
	api := newFakeAPI(5)
	c := newController(t, api)
	if err := c.Load(context.Background(), 1); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	t.Run("last edit wins", func(t *testing.T) {
		if err := c.StartEdit(1); err != nil {
			t.Fatalf("start edit failed: %v", err)
		}
		draft := *c.Snapshot().Editing
		draft.Nombre = "cambiado-a"
		if err := c.SetDraft(draft); err != nil {
			t.Fatalf("set draft failed: %v", err)
		}

		// Opening record 2 silently discards record 1's uncommitted changes.
		if err := c.StartEdit(2); err != nil {
			t.Fatalf("start edit failed: %v", err)
		}
		if got := c.Snapshot().Editing; got.ID != 2 || got.Nombre == "cambiado-a" {
			t.Errorf("expected a fresh draft of record 2, got %+v", got)
		}
	})

	t.Run("failure preserves the draft", func(t *testing.T) {
		api.updateErr = &alquimia.ServerError{Op: "update", Status: 500, Message: "boom"}
		defer func() { api.updateErr = nil }()

		if err := c.StartEdit(3); err != nil {
			t.Fatalf("start edit failed: %v", err)
		}
		draft := *c.Snapshot().Editing
		draft.Nombre = "escrito-a-mano"
		if err := c.SetDraft(draft); err != nil {
			t.Fatalf("set draft failed: %v", err)
		}

		if err := c.SaveEdit(context.Background()); err == nil {
			t.Fatal("expected save to fail")
		}

		st := c.Snapshot()
		if st.Editing == nil || st.Editing.Nombre != "escrito-a-mano" {
			t.Error("typed input was lost on a failed update")
		}
	})

	t.Run("success ends the session and stays on the page", func(t *testing.T) {
		if err := c.Load(context.Background(), 1); err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if err := c.StartEdit(4); err != nil {
			t.Fatalf("start edit failed: %v", err)
		}
		draft := *c.Snapshot().Editing
		draft.Cantidad = 42
		if err := c.SetDraft(draft); err != nil {
			t.Fatalf("set draft failed: %v", err)
		}

		if err := c.SaveEdit(context.Background()); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		st := c.Snapshot()
		if st.Editing != nil {
			t.Error("edit session should end after a successful save")
		}
		if st.Page != 1 {
			t.Errorf("editing must not change the page, got %d", st.Page)
		}
	})
}

func TestRoleGate(t *testing.T) {
	api := newFakeAPI(3)
	store, err := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatalf("failed to create session store: %v", err)
	}
	if err := store.Set(session.Session{Token: "tok", Role: "alquimista", Email: "a@guild.test", UserID: 3}); err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}

	c := New[models.Material](api, store, nil,
		WithConfirm[models.Material](func(models.Material) bool { return true }))
	if err := c.Load(context.Background(), 1); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if c.CanMutate() {
		t.Error("alquimista role must not be offered mutating controls")
	}
	if err := c.Create(context.Background(), models.Material{Nombre: "x", Unidad: "g"}); !errors.Is(err, ErrNotAllowed) {
		t.Errorf("expected ErrNotAllowed, got %v", err)
	}
	if api.createCalls != 0 {
		t.Errorf("gated create must not reach the network, got %d calls", api.createCalls)
	}
}

func TestRemoveRequiresConfirmation(t *testing.T) {
	api := newFakeAPI(3)
	c := New[models.Material](api, supervisorStore(t), nil,
		WithConfirm[models.Material](func(models.Material) bool { return false }))
	if err := c.Load(context.Background(), 1); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if err := c.Remove(context.Background(), 1); !errors.Is(err, ErrNotConfirmed) {
		t.Errorf("expected ErrNotConfirmed, got %v", err)
	}
	if st := c.Snapshot(); st.Total != 3 {
		t.Errorf("declined confirmation must not delete, total=%d", st.Total)
	}
}

func TestSearchResetsToFirstPage(t *testing.T) {
	api := newFakeAPI(30)
	c := newController(t, api)

	if err := c.Load(context.Background(), 3); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if err := c.Search(context.Background(), "material-00"); err != nil {
		t.Fatalf("search failed: %v", err)
	}

	st := c.Snapshot()
	if st.Page != 1 {
		t.Errorf("search must jump to page 1, got %d", st.Page)
	}
	if st.Total != 9 {
		t.Errorf("expected 9 matches for %q, got %d", "material-00", st.Total)
	}
}
