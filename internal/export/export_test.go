package export

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alquimia/consola/internal/domain/models"
	"github.com/alquimia/consola/pkg/clients/alquimia"
)

type fakeLister struct {
	materiales []models.Material
}

func (f *fakeLister) List(_ context.Context, params alquimia.ListParams) (*alquimia.Page[models.Material], error) {
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

type fakeAppender struct {
	sheetRange string
	rows       [][]interface{}
	err        error
}

func (f *fakeAppender) AppendRows(_ context.Context, sheetRange string, rows [][]interface{}) error {
	f.sheetRange = sheetRange
	f.rows = rows
	return f.err
}

func TestMaterialRows(t *testing.T) {
	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	rows := MaterialRows([]models.Material{
		{ID: 1, Nombre: "azufre", Unidad: "kg", Cantidad: 10},
		{ID: 2, Nombre: "mercurio", Unidad: "ml", Cantidad: 0.5},
	}, at)

	if len(rows) != 4 {
		t.Fatalf("expected 2 header rows plus 2 data rows, got %d", len(rows))
	}
	if rows[0][0] != "Exportado" || rows[0][1] != "2026-08-30T12:00:00Z" {
		t.Errorf("unexpected timestamp row: %v", rows[0])
	}
	if rows[1][1] != "Nombre" {
		t.Errorf("unexpected column header row: %v", rows[1])
	}
	if rows[2][1] != "azufre" || rows[3][3] != 0.5 {
		t.Errorf("unexpected data rows: %v / %v", rows[2], rows[3])
	}
}

func TestExportMaterialesWalksAllPages(t *testing.T) {
	lister := &fakeLister{}
	for i := 0; i < 150; i++ {
		lister.materiales = append(lister.materiales, models.Material{
			ID: uint(i + 1), Nombre: "m", Unidad: "kg", Cantidad: 1,
		})
	}
	appender := &fakeAppender{}

	count, err := NewExporter(lister, appender, nil).ExportMateriales(context.Background(), "Materiales!A1")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if count != 150 {
		t.Errorf("expected 150 exported records, got %d", count)
	}
	if appender.sheetRange != "Materiales!A1" {
		t.Errorf("unexpected range: %q", appender.sheetRange)
	}
	if len(appender.rows) != 152 {
		t.Errorf("expected 152 rows including headers, got %d", len(appender.rows))
	}
}

func TestExportMaterialesAppendFailure(t *testing.T) {
	boom := errors.New("quota exceeded")
	appender := &fakeAppender{err: boom}

	_, err := NewExporter(&fakeLister{}, appender, nil).ExportMateriales(context.Background(), "Materiales!A1")
	if !errors.Is(err, boom) {
		t.Errorf("expected the append error back, got %v", err)
	}
}
