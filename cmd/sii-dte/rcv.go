package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tu-usuario/sii-dte/internal/application/rcv"
	"github.com/tu-usuario/sii-dte/pkg/config"
	"github.com/tu-usuario/sii-dte/pkg/rut"
)

func newRcvCmd(cfg *config.Config, log zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rcv",
		Short: "Operaciones sobre archivos CSV del Registro de Compras y Ventas",
	}
	cmd.AddCommand(newRcvProcessCmd(cfg, log))
	return cmd
}

func newRcvProcessCmd(cfg *config.Config, log zerolog.Logger) *cobra.Command {
	var (
		ownerRutStr      string
		ownerRazonSocial string
		outputPath       string
		rowOffset        int
		maxRows          int
		inputEncoding    string
	)

	cmd := &cobra.Command{
		Use:   "process <archivo.csv>",
		Short: "Procesa un CSV RCV fila a fila y escribe el CSV de salida anotado",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ownerRut, err := rut.Parse(ownerRutStr)
			if err != nil {
				return fmt.Errorf("RUT del dueño inválido: %w", err)
			}
			if outputPath == "" {
				outputPath = args[0] + ".procesado.csv"
			}
			latin1, err := isLatin1(inputEncoding)
			if err != nil {
				return err
			}

			result, err := rcv.ProcessCsvFile(rcv.ProcessCsvFileParams{
				OwnerRut:         ownerRut,
				OwnerRazonSocial: ownerRazonSocial,
				InputPath:        args[0],
				OutputPath:       outputPath,
				RowOffset:        rowOffset,
				MaxRows:          maxRows,
				InputLatin1:      latin1,
				Logger:           log,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"Filas procesadas: %d\nFilas con errores: %d\nSuma Monto Total: %s\nSalida: %s\n",
				result.RowsProcessed, len(result.RowErrors), result.MontoTotalSum, outputPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&ownerRutStr, "rut", "", "RUT del dueño del RCV, p. ej. 76354771-K (obligatorio)")
	cmd.Flags().StringVar(&ownerRazonSocial, "razon-social", "", "razón social del dueño del RCV (obligatorio)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "ruta del CSV de salida (por defecto <entrada>.procesado.csv)")
	cmd.Flags().IntVar(&rowOffset, "row-offset", cfg.Processing.RowOffset, "filas de datos iniciales a saltar")
	cmd.Flags().IntVar(&maxRows, "max-rows", cfg.Processing.MaxRows, "techo de filas a procesar (0 = sin límite)")
	cmd.Flags().StringVar(&inputEncoding, "input-encoding", cfg.Processing.InputEncoding, "codificación de la entrada: utf-8 o iso-8859-1")
	_ = cmd.MarkFlagRequired("rut")
	_ = cmd.MarkFlagRequired("razon-social")
	return cmd
}

func isLatin1(encoding string) (bool, error) {
	switch encoding {
	case "iso-8859-1", "latin1":
		return true, nil
	case "", "utf-8", "utf8":
		return false, nil
	default:
		return false, fmt.Errorf("codificación de entrada no soportada: %q", encoding)
	}
}
