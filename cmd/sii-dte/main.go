// Herramienta de línea de comandos para procesar documentos tributarios
// electrónicos (DTE) del SII de Chile: archivos CSV del Registro de Compras y
// Ventas (RCV) y respuestas XML del Registro de Transferencias de Crédito
// (RTC).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tu-usuario/sii-dte/pkg/config"
	"github.com/tu-usuario/sii-dte/pkg/logger"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error cargando la configuración:", err)
		os.Exit(1)
	}
	log := logger.New(cfg.App.Env, cfg.Log.Level)

	rootCmd := &cobra.Command{
		Use:           "sii-dte",
		Short:         "Procesamiento de documentos tributarios electrónicos del SII",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		newRcvCmd(cfg, log),
		newRtcCmd(cfg, log),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("el comando terminó con error")
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Muestra la versión de la herramienta",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "sii-dte", version)
		},
	}
}
