package main

import (
	"os"

	"github.com/spf13/cobra"

	"pawfect-match/internal/config"
)

// NewRootCmd arma el CLI. Sin subcomando levanta el servidor.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pawfect",
		Short: "Pawfect Match - pet adoption marketplace API",
		Long: `Pawfect Match expone el API HTTP del marketplace de adopción:
registro y login con bloqueo por intentos, catálogo de mascotas y
solicitudes de adopción con aprobación por administrador.`,
		SilenceUsage: true,
		RunE:         runServe,
	}

	config.Flags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// NewServeCmd crea el subcomando serve.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API using the configured storage, blob store and
session revocation backend. Stops gracefully on SIGINT/SIGTERM.`,
		RunE: runServe,
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(cmd.Flags(), config.Environ(".env", os.Environ()))
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
