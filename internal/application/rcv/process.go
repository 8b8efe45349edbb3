// Package rcv orquesta el procesamiento por lotes de archivos CSV del RCV:
// abre la fuente, liga el esquema al contexto del dueño, corre el iterador de
// deserialización, aplica la operación de negocio por fila y escribe el CSV
// de salida acumulando los errores por fila.
package rcv

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/sii-dte/internal/infrastructure/rcvcsv"
	"github.com/tu-usuario/sii-dte/pkg/rowproc"
	"github.com/tu-usuario/sii-dte/pkg/rut"
)

// NoneMarker es el valor con que se escriben los campos de error vacíos en el
// CSV de salida, en lugar de colecciones o cadenas vacías.
const NoneMarker = "none"

// Columnas que el procesamiento agrega a las de entrada en el CSV de salida.
var outputExtraFieldNames = []string{
	rcvcsv.KeyReceptorRut,
	rcvcsv.KeyReceptorRazonSocial,
	"row_op_return_values",
	"validation_errors",
	"row_op_errors",
}

// RowOp es la operación de negocio aplicada a cada fila deserializada sin
// errores. Su valor de retorno se serializa en el CSV de salida; su error se
// registra como error de la fila sin abortar el lote.
type RowOp func(schema *rcvcsv.RowSchema, rec rowproc.Record) (any, error)

// ProcessCsvFileParams son los parámetros de ProcessCsvFile.
type ProcessCsvFileParams struct {
	// OwnerRut y OwnerRazonSocial identifican al dueño del RCV; se inyectan
	// como receptor en cada fila que no los traiga.
	OwnerRut         rut.Rut
	OwnerRazonSocial string

	InputPath  string
	OutputPath string

	// RowOffset es la cantidad de filas de datos iniciales a saltar.
	RowOffset int
	// MaxRows es el techo de filas a procesar después del offset; 0 o
	// negativo significa sin límite.
	MaxRows int

	// InputLatin1 decodifica la entrada desde ISO-8859-1 (codificación
	// habitual de las exportaciones del SII).
	InputLatin1 bool

	// RowOp es la operación por fila; nil aplica la operación por defecto,
	// que construye el DTE de nivel 2 y devuelve su slug.
	RowOp RowOp

	Logger zerolog.Logger
}

// RowError es el detalle de una fila que falló validación u operación.
type RowError struct {
	RowIx            int
	Raw              rowproc.RowData
	ValidationErrors rowproc.FieldErrors
	RowOpError       string
}

// Result es el resultado agregado del procesamiento de un archivo.
type Result struct {
	// RowsProcessed cuenta las filas emitidas por el iterador, con o sin
	// errores; no incluye las saltadas por el offset ni una fila que haya
	// superado el techo sin llegar a procesarse.
	RowsProcessed int
	RowErrors     []RowError
	// MontoTotalSum es la suma de 'Monto Total' de las filas procesadas por
	// completo: deserializadas sin errores y con la operación por fila exitosa.
	MontoTotalSum decimal.Decimal
}

// ProcessCsvFile procesa un archivo CSV del RCV fila a fila. Los problemas de
// contenido de una fila se acumulan en el resultado y el lote continúa; las
// fallas estructurales (cabecera inesperada, CSV malformado, techo de filas
// superado) abortan con error, junto al resultado parcial.
func ProcessCsvFile(p ProcessCsvFileParams) (Result, error) {
	result := Result{MontoTotalSum: decimal.Zero}
	start := time.Now()

	log := p.Logger.With().
		Str("run_id", uuid.NewString()).
		Str("input", p.InputPath).
		Logger()

	inputFile, err := os.Open(p.InputPath)
	if err != nil {
		return result, fmt.Errorf("rcv: error abriendo la entrada: %w", err)
	}
	defer inputFile.Close()

	var input io.Reader = inputFile
	if p.InputLatin1 {
		input = rcvcsv.Latin1Reader(input)
	}

	reader, err := rcvcsv.NewStrictDictReader(input, rcvcsv.RcvDialect, rcvcsv.ExpectedInputFieldNames)
	if err != nil {
		return result, err
	}

	outputFile, err := os.Create(p.OutputPath)
	if err != nil {
		return result, fmt.Errorf("rcv: error abriendo la salida: %w", err)
	}
	defer outputFile.Close()

	outputFields := append(append([]string(nil), rcvcsv.ExpectedInputFieldNames...), outputExtraFieldNames...)
	writer := rcvcsv.OutputDialect.NewWriter(outputFile)
	if err := writer.Write(outputFields); err != nil {
		return result, fmt.Errorf("rcv: error escribiendo la cabecera de salida: %w", err)
	}

	schema := rcvcsv.NewRowSchema(rcvcsv.OwnerContext{
		ReceptorRut:         p.OwnerRut,
		ReceptorRazonSocial: p.OwnerRazonSocial,
	})
	rowOp := p.RowOp
	if rowOp == nil {
		rowOp = func(schema *rcvcsv.RowSchema, rec rowproc.Record) (any, error) {
			dteData, err := schema.ToDteDataL2(rec)
			if err != nil {
				return nil, err
			}
			log.Debug().Str("dte", dteData.Slug()).Msg("DTE deserializado")
			return dteData.Slug(), nil
		}
	}

	it, err := rowproc.Iterate(reader, schema, rowproc.Options{
		Offset:        p.RowOffset,
		MaxRows:       p.MaxRows,
		FieldsToStrip: rcvcsv.DefaultFieldsToStrip,
	})
	if err != nil {
		return result, err
	}

	for it.Next() {
		row := it.Row()
		result.RowsProcessed++
		log.Debug().Int("row_ix", row.Ix).Msg("procesando fila")

		var rowOpReturn any
		var rowOpError string
		if len(row.Errors) == 0 {
			value, err := rowOp(schema, row.Deserialized)
			if err != nil {
				rowOpError = err.Error()
				log.Error().Int("row_ix", row.Ix).Err(err).Msg("error de la operación por fila")
			} else {
				rowOpReturn = value
				if montoTotal, ok := row.Deserialized["monto_total"].(int64); ok {
					result.MontoTotalSum = result.MontoTotalSum.Add(decimal.NewFromInt(montoTotal))
				}
			}
		}

		outputRow := make([]string, 0, len(outputFields))
		for _, field := range outputFields {
			switch field {
			case "row_op_return_values":
				outputRow = append(outputRow, markerIfEmpty(stringify(rowOpReturn)))
			case "validation_errors":
				outputRow = append(outputRow, markerIfEmpty(formatFieldErrors(row.Errors)))
			case "row_op_errors":
				outputRow = append(outputRow, markerIfEmpty(rowOpError))
			default:
				outputRow = append(outputRow, row.Raw[field])
			}
		}
		if err := writer.Write(outputRow); err != nil {
			return result, fmt.Errorf("rcv: error escribiendo la fila %d de salida: %w", row.Ix, err)
		}

		if len(row.Errors) > 0 || rowOpError != "" {
			result.RowErrors = append(result.RowErrors, RowError{
				RowIx:            row.Ix,
				Raw:              row.Raw,
				ValidationErrors: row.Errors,
				RowOpError:       rowOpError,
			})
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return result, fmt.Errorf("rcv: error volcando la salida: %w", err)
	}
	if err := it.Err(); err != nil {
		return result, err
	}

	log.Info().
		Int("rows_processed", result.RowsProcessed).
		Int("row_errors", len(result.RowErrors)).
		Str("monto_total_sum", result.MontoTotalSum.String()).
		Dur("duration", time.Since(start)).
		Msg("procesamiento RCV terminado")
	return result, nil
}

// IterateCsvRows recorre un CSV RCV del formato anterior (sin columna 'Nro')
// con el esquema heredado, inyectando el RUT del dueño como receptor.
// Devuelve el iterador listo para consumir.
func IterateCsvRows(input io.Reader, ownerRut rut.Rut, maxRows int) (*rowproc.Iterator, error) {
	reader, err := rcvcsv.NewStrictDictReader(input, rcvcsv.RcvDialect, rcvcsv.LegacyExpectedInputFieldNames)
	if err != nil {
		return nil, err
	}
	return rowproc.Iterate(reader, rcvcsv.NewLegacyRowSchema(ownerRut), rowproc.Options{MaxRows: maxRows})
}

// stringify serializa el retorno de la operación por fila para el CSV.
func stringify(value any) string {
	if value == nil {
		return ""
	}
	return fmt.Sprint(value)
}

// formatFieldErrors serializa los errores por campo en orden determinista.
func formatFieldErrors(errs rowproc.FieldErrors) string {
	if len(errs) == 0 {
		return ""
	}
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(errs[field], " | ")))
	}
	return strings.Join(parts, "; ")
}

// markerIfEmpty reemplaza los valores vacíos por el marcador explícito.
func markerIfEmpty(value string) string {
	if value == "" {
		return NoneMarker
	}
	return value
}
