// Package export dumps resource listings into a Google Sheets spreadsheet.
package export

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/alquimia/consola/internal/config"
	"github.com/alquimia/consola/internal/domain/models"
	"github.com/alquimia/consola/pkg/clients/alquimia"
)

// MaterialLister is the slice of the materials resource the exporter needs.
type MaterialLister interface {
	List(ctx context.Context, params alquimia.ListParams) (*alquimia.Page[models.Material], error)
}

// Appender writes rows into a spreadsheet range. Satisfied by the Google
// Sheets adapter below; tests substitute fakes.
type Appender interface {
	AppendRows(ctx context.Context, sheetRange string, rows [][]interface{}) error
}

// SheetsAppender implements Appender using the official Google Sheets API.
type SheetsAppender struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewSheetsAppender builds a Google Sheets backed appender.
func NewSheetsAppender(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*SheetsAppender, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CredentialsPath == "" || cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("sheets export requires GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_EXPORT_ID")
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &SheetsAppender{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// AppendRows appends the provided rows to the supplied sheet range.
func (a *SheetsAppender) AppendRows(ctx context.Context, sheetRange string, rows [][]interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}

	payload := &sheetsapi.ValueRange{Values: rows}

	call := a.service.Spreadsheets.Values.Append(a.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append rows into range %s: %w", sheetRange, err)
	}

	a.logger.Debug("rows appended to sheet", zap.String("range", sheetRange), zap.Int("count", len(rows)))
	return nil
}

// Exporter walks a full materials listing and appends it to a sheet.
type Exporter struct {
	materials MaterialLister
	appender  Appender
	logger    *zap.Logger
}

// NewExporter wires a materials resource to an appender.
func NewExporter(materials MaterialLister, appender Appender, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{materials: materials, appender: appender, logger: logger}
}

// ExportMateriales writes a header plus one row per material into the range.
func (e *Exporter) ExportMateriales(ctx context.Context, sheetRange string) (int, error) {
	var all []models.Material

	const limit = 100
	for page := 1; ; page++ {
		result, err := e.materials.List(ctx, alquimia.ListParams{Page: page, Limit: limit})
		if err != nil {
			return 0, fmt.Errorf("list materiales page %d: %w", page, err)
		}
		all = append(all, result.Items...)
		if page >= result.TotalPages() || len(result.Items) == 0 {
			break
		}
	}

	rows := MaterialRows(all, time.Now().UTC())
	if err := e.appender.AppendRows(ctx, sheetRange, rows); err != nil {
		return 0, err
	}

	e.logger.Info("materiales exported", zap.Int("count", len(all)), zap.String("range", sheetRange))
	return len(all), nil
}

// MaterialRows builds the spreadsheet rows for a listing snapshot.
func MaterialRows(materiales []models.Material, at time.Time) [][]interface{} {
	rows := [][]interface{}{
		{"Exportado", at.Format(time.RFC3339)},
		{"ID", "Nombre", "Unidad", "Cantidad"},
	}
	for _, m := range materiales {
		rows = append(rows, []interface{}{m.ID, m.Nombre, m.Unidad, m.Cantidad})
	}
	return rows
}
