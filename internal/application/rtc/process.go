// Package rtc orquesta el procesamiento de respuestas XML del Registro de
// Transferencias de Crédito (RTC) del SII: verifica el sobre de manera
// temprana y recorre los registros de cesión con el iterador de
// deserialización.
package rtc

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tu-usuario/sii-dte/internal/infrastructure/rtcxml"
	"github.com/tu-usuario/sii-dte/pkg/rowproc"
)

// Cesion es un registro de cesión deserializado, junto a su posición en la
// respuesta y la fila cruda (tag → texto) de la que proviene.
type Cesion struct {
	RowIx  int
	Raw    rowproc.RowData
	Record rowproc.Record
}

// Result es el resultado del procesamiento de una respuesta de
// "cesiones periodo".
type Result struct {
	DatosConsulta rtcxml.DatosConsulta
	Cesiones      []Cesion
}

// ProcessCesionesPeriodoParams son los parámetros de ProcessCesionesPeriodo.
type ProcessCesionesPeriodoParams struct {
	// MaxRows es el techo de registros a procesar; 0 o negativo significa
	// sin límite.
	MaxRows int
	// StrictClosure falla los registros que traigan tags fuera de los
	// documentados en vez de ignorarlos.
	StrictClosure bool

	Logger zerolog.Logger
}

// IterateCesionesPeriodo verifica el sobre de una respuesta XML de
// "cesiones periodo" y devuelve el iterador perezoso sobre sus registros de
// cesión, junto al eco de consulta. El sobre se verifica completo antes de
// emitir registro alguno: una consulta no exitosa o un sobre deforme es una
// falla dura. Cada fila emitida trae su índice, la fila cruda aplanada y el
// registro deserializado.
func IterateCesionesPeriodo(r io.Reader, p ProcessCesionesPeriodoParams) (*rowproc.Iterator, rtcxml.DatosConsulta, error) {
	rows, datosConsulta, err := rtcxml.ExtractCesionesPeriodo(r)
	if err != nil {
		return nil, rtcxml.DatosConsulta{}, err
	}
	schema := rtcxml.NewRowSchema(p.StrictClosure)
	it, err := rowproc.Iterate(rowproc.NewSliceSource(rows), schema, rowproc.Options{MaxRows: p.MaxRows})
	if err != nil {
		return nil, datosConsulta, err
	}
	return it, datosConsulta, nil
}

// ProcessCesionesPeriodo es IterateCesionesPeriodo más la materialización del
// resultado completo. A diferencia del procesamiento RCV, un registro de
// cesión inválido aborta con error: la respuesta viene del propio SII y un
// registro malo indica un problema de formato, no datos sucios de un
// contribuyente.
func ProcessCesionesPeriodo(r io.Reader, p ProcessCesionesPeriodoParams) (Result, error) {
	start := time.Now()
	log := p.Logger.With().Str("run_id", uuid.NewString()).Logger()

	it, datosConsulta, err := IterateCesionesPeriodo(r, p)
	if err != nil {
		return Result{DatosConsulta: datosConsulta}, err
	}
	result := Result{DatosConsulta: datosConsulta}
	log.Debug().
		Str("rut", datosConsulta.Rut.Canonical()).
		Str("tipo_consulta", datosConsulta.TipoConsulta).
		Msg("sobre RTC verificado")

	for it.Next() {
		row := it.Row()
		if len(row.Errors) > 0 {
			return result, fmt.Errorf(
				"rtc: error deserializando el registro de cesión %d: %v", row.Ix, row.Errors)
		}
		result.Cesiones = append(result.Cesiones, Cesion{
			RowIx:  row.Ix,
			Raw:    row.Raw,
			Record: row.Deserialized,
		})
	}
	if err := it.Err(); err != nil {
		return result, err
	}

	log.Info().
		Int("cesiones", len(result.Cesiones)).
		Dur("duration", time.Since(start)).
		Msg("procesamiento RTC terminado")
	return result, nil
}

// ProcessCesionesPeriodoFile abre y procesa un archivo XML de
// "cesiones periodo".
func ProcessCesionesPeriodoFile(path string, p ProcessCesionesPeriodoParams) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("rtc: error abriendo la entrada: %w", err)
	}
	defer f.Close()
	return ProcessCesionesPeriodo(f, p)
}
