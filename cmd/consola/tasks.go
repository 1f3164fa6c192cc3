package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/alquimia/consola/internal/export"
	"github.com/alquimia/consola/internal/monitor"
	"github.com/alquimia/consola/pkg/logger"
)

func newVigilarCmd() *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "vigilar",
		Short: "Vigila el stock de materiales y avisa de niveles anómalos",
		RunE: func(c *cobra.Command, _ []string) error {
			mon := monitor.New(app.cfg.Monitor, materialesResource(), logger.Named(app.logger, "monitor"))

			if once {
				anomalies, err := mon.Sweep(c.Context())
				if err != nil {
					return err
				}
				if len(anomalies) == 0 {
					fmt.Println("Sin anomalías de stock")
					return nil
				}
				for _, a := range anomalies {
					fmt.Printf("#%d %s: %.3f %s (%s)\n",
						a.Material.ID, a.Material.Nombre, a.Material.Cantidad, a.Material.Unidad, a.Reason)
				}
				return nil
			}

			if err := mon.Start(); err != nil {
				return err
			}
			defer mon.Stop()

			fmt.Printf("Vigilando stock según %q, Ctrl+C para salir\n", app.cfg.Monitor.CronSchedule)
			ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt)
			defer stop()
			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "ejecuta una sola pasada y termina")

	return cmd
}

func newExportarCmd() *cobra.Command {
	var sheetRange string

	cmd := &cobra.Command{
		Use:   "exportar materiales",
		Short: "Exporta el inventario completo a Google Sheets",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			if args[0] != "materiales" {
				return fmt.Errorf("recurso no exportable: %q", args[0])
			}

			appender, err := export.NewSheetsAppender(c.Context(), app.cfg.Sheets, logger.Named(app.logger, "sheets"))
			if err != nil {
				return err
			}

			exporter := export.NewExporter(materialesResource(), appender, logger.Named(app.logger, "export"))
			count, err := exporter.ExportMateriales(c.Context(), sheetRange)
			if err != nil {
				return err
			}

			fmt.Printf("%d materiales exportados\n", count)
			return nil
		},
	}

	cmd.Flags().StringVar(&sheetRange, "range", "Materiales!A1", "rango destino en la hoja")

	return cmd
}
