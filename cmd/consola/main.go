package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alquimia/consola/internal/config"
	"github.com/alquimia/consola/internal/domain/models"
	"github.com/alquimia/consola/internal/session"
	"github.com/alquimia/consola/pkg/clients/alquimia"
	"github.com/alquimia/consola/pkg/logger"
)

// appContext carries everything a command needs, built once per invocation.
type appContext struct {
	cfg      *config.Config
	logger   *zap.Logger
	sessions *session.Store
	client   *alquimia.Client
}

var app *appContext

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string
	var verbose bool

	root := &cobra.Command{
		Use:           "consola",
		Short:         "Consola administrativa del gremio de alquimia",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}

			baseLogger := logger.Must(logger.NewConsole(verbose))
			zap.ReplaceGlobals(baseLogger)

			store, err := session.NewStore(cfg.Session.Path)
			if err != nil {
				return err
			}
			store.Subscribe(func(s session.Session) {
				if !s.Active() {
					baseLogger.Debug("session cleared")
				}
			})

			app = &appContext{
				cfg:      cfg,
				logger:   baseLogger,
				sessions: store,
				client:   alquimia.NewClient(cfg.API, store, logger.Named(baseLogger, "client")),
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env", "", "ruta a un archivo .env")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log detallado")

	root.AddCommand(newLoginCmd())
	root.AddCommand(newLogoutCmd())
	root.AddCommand(newRegisterCmd())
	root.AddCommand(newMaterialesCmd())
	root.AddCommand(newAlquimistasCmd())
	root.AddCommand(newMisionesCmd())
	root.AddCommand(newTransmutacionesCmd())
	root.AddCommand(newVigilarCmd())
	root.AddCommand(newExportarCmd())

	return root
}

func materialesResource() *alquimia.Resource[models.Material] {
	return alquimia.NewResource[models.Material](app.client, "materiales")
}
