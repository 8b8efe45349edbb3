package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tu-usuario/sii-dte/internal/application/rtc"
	"github.com/tu-usuario/sii-dte/pkg/config"
)

func newRtcCmd(cfg *config.Config, log zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rtc",
		Short: "Operaciones sobre respuestas XML del Registro de Transferencias de Crédito",
	}
	cmd.AddCommand(newRtcCesionesCmd(cfg, log))
	return cmd
}

func newRtcCesionesCmd(cfg *config.Config, log zerolog.Logger) *cobra.Command {
	var (
		maxRows       int
		strictClosure bool
	)

	cmd := &cobra.Command{
		Use:   "cesiones <archivo.xml>",
		Short: "Procesa una respuesta XML de 'cesiones periodo' y lista las cesiones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := rtc.ProcessCesionesPeriodoFile(args[0], rtc.ProcessCesionesPeriodoParams{
				MaxRows:       maxRows,
				StrictClosure: strictClosure,
				Logger:        log,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Consulta de %s (%s), del %s al %s: %d cesiones\n",
				result.DatosConsulta.Rut.Canonical(),
				result.DatosConsulta.TipoConsulta,
				result.DatosConsulta.Desde.Format("2006-01-02"),
				result.DatosConsulta.Hasta.Format("2006-01-02"),
				len(result.Cesiones))
			for _, cesion := range result.Cesiones {
				fmt.Fprintf(out, "  %3d: cedente=%v cesionario=%v monto=%v estado=%v\n",
					cesion.RowIx,
					cesion.Record["cedente_rut"],
					cesion.Record["cesionario_rut"],
					cesion.Record["monto"],
					cesion.Record["estado"])
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxRows, "max-rows", cfg.Processing.MaxRows, "techo de registros a procesar (0 = sin límite)")
	cmd.Flags().BoolVar(&strictClosure, "strict", false, "falla los registros con tags fuera de los documentados")
	return cmd
}
