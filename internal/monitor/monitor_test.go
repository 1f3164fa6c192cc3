package monitor

import (
	"context"
	"errors"
	"testing"

	"github.com/alquimia/consola/internal/config"
	"github.com/alquimia/consola/internal/domain/models"
	"github.com/alquimia/consola/pkg/clients/alquimia"
)

type fakeLister struct {
	materiales []models.Material
	err        error
	calls      int
}

func (f *fakeLister) List(_ context.Context, params alquimia.ListParams) (*alquimia.Page[models.Material], error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}

	start := (params.Page - 1) * params.Limit
	end := start + params.Limit
	if start > len(f.materiales) {
		start = len(f.materiales)
	}
	if end > len(f.materiales) {
		end = len(f.materiales)
	}
	return &alquimia.Page[models.Material]{
		Items: f.materiales[start:end],
		Page:  params.Page,
		Limit: params.Limit,
		Total: int64(len(f.materiales)),
	}, nil
}

func testConfig() config.MonitorConfig {
	return config.MonitorConfig{CronSchedule: "* * * * *", MinCantidad: 5, MaxCantidad: 100}
}

func TestCheck(t *testing.T) {
	m := New(testConfig(), &fakeLister{}, nil)

	cases := []struct {
		name     string
		cantidad float64
		bad      bool
		reason   string
	}{
		{"below minimum", 2, true, "stock por debajo del mínimo"},
		{"at minimum", 5, false, ""},
		{"in range", 50, false, ""},
		{"at maximum", 100, false, ""},
		{"above maximum", 250, true, "stock anómalo, excede el máximo"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, bad := m.Check(models.Material{Nombre: "azufre", Cantidad: tc.cantidad})
			if bad != tc.bad {
				t.Fatalf("expected bad=%v for cantidad %v", tc.bad, tc.cantidad)
			}
			if bad && a.Reason != tc.reason {
				t.Errorf("expected reason %q, got %q", tc.reason, a.Reason)
			}
		})
	}
}

func TestSweepWalksEveryPage(t *testing.T) {
	lister := &fakeLister{}
	for i := 0; i < 250; i++ {
		cantidad := 50.0
		if i%100 == 0 {
			cantidad = 1 // one anomaly per page of 100
		}
		lister.materiales = append(lister.materiales, models.Material{
			ID: uint(i + 1), Nombre: "m", Cantidad: cantidad,
		})
	}

	m := New(testConfig(), lister, nil)
	anomalies, err := m.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(anomalies) != 3 {
		t.Errorf("expected 3 anomalies across pages, got %d", len(anomalies))
	}
	if lister.calls != 3 {
		t.Errorf("expected 3 page fetches for 250 records, got %d", lister.calls)
	}
}

func TestSweepEmptyListing(t *testing.T) {
	m := New(testConfig(), &fakeLister{}, nil)
	anomalies, err := m.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(anomalies) != 0 {
		t.Errorf("expected no anomalies, got %d", len(anomalies))
	}
}

func TestSweepPropagatesListError(t *testing.T) {
	boom := errors.New("backend down")
	m := New(testConfig(), &fakeLister{err: boom}, nil)
	if _, err := m.Sweep(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected the list error back, got %v", err)
	}
}
