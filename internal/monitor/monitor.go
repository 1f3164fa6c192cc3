// Package monitor periodically sweeps the materials listing and flags stock
// levels outside the configured bounds.
package monitor

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/alquimia/consola/internal/config"
	"github.com/alquimia/consola/internal/domain/models"
	"github.com/alquimia/consola/pkg/clients/alquimia"
)

// Lister is the slice of the materials resource the monitor needs.
type Lister interface {
	List(ctx context.Context, params alquimia.ListParams) (*alquimia.Page[models.Material], error)
}

// Anomaly is one material whose stock sits outside the configured bounds.
type Anomaly struct {
	Material models.Material
	Reason   string
}

// Monitor runs the scheduled sweeps.
type Monitor struct {
	cron      *cron.Cron
	materials Lister
	cfg       config.MonitorConfig
	logger    *zap.Logger
}

// New creates a monitor over the given materials resource.
func New(cfg config.MonitorConfig, materials Lister, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		cron:      cron.New(),
		materials: materials,
		cfg:       cfg,
		logger:    logger,
	}
}

// Start schedules the sweep and begins running it.
func (m *Monitor) Start() error {
	m.logger.Info("starting stock monitor", zap.String("schedule", m.cfg.CronSchedule))

	if _, err := m.cron.AddFunc(m.cfg.CronSchedule, m.runSweep); err != nil {
		return err
	}

	m.cron.Start()
	return nil
}

// Stop halts the scheduler.
func (m *Monitor) Stop() {
	m.logger.Info("stopping stock monitor")
	m.cron.Stop()
}

func (m *Monitor) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	anomalies, err := m.Sweep(ctx)
	if err != nil {
		m.logger.Error("stock sweep failed", zap.Error(err))
		return
	}

	for _, a := range anomalies {
		m.logger.Warn("stock anomaly",
			zap.Uint("material_id", a.Material.ID),
			zap.String("nombre", a.Material.Nombre),
			zap.Float64("cantidad", a.Material.Cantidad),
			zap.String("reason", a.Reason))
	}
	if len(anomalies) == 0 {
		m.logger.Info("stock sweep clean")
	}
}

// Sweep walks every page of the materials listing and collects anomalies.
func (m *Monitor) Sweep(ctx context.Context) ([]Anomaly, error) {
	var anomalies []Anomaly

	const limit = 100
	for page := 1; ; page++ {
		result, err := m.materials.List(ctx, alquimia.ListParams{Page: page, Limit: limit})
		if err != nil {
			return nil, err
		}

		for _, mat := range result.Items {
			if a, bad := m.Check(mat); bad {
				anomalies = append(anomalies, a)
			}
		}

		if page >= result.TotalPages() || len(result.Items) == 0 {
			break
		}
	}

	return anomalies, nil
}

// Check classifies a single material against the configured bounds.
func (m *Monitor) Check(mat models.Material) (Anomaly, bool) {
	switch {
	case mat.Cantidad < m.cfg.MinCantidad:
		return Anomaly{Material: mat, Reason: "stock por debajo del mínimo"}, true
	case mat.Cantidad > m.cfg.MaxCantidad:
		return Anomaly{Material: mat, Reason: "stock anómalo, excede el máximo"}, true
	default:
		return Anomaly{}, false
	}
}
