package rcvcsv

import (
	"time"

	"github.com/tu-usuario/sii-dte/pkg/rowproc"
	"github.com/tu-usuario/sii-dte/pkg/rut"
	"github.com/tu-usuario/sii-dte/pkg/sii"
)

// Formato anterior de la exportación RCV del SII: sin columna 'Nro' y sin
// razones sociales en el registro deserializado. Se mantiene como una versión
// de formato distinta, no reconciliada con la actual, porque siguen
// circulando archivos con esta cabecera.

// LegacyExpectedInputFieldNames es la cabecera exacta y ordenada del formato
// anterior del CSV RCV.
var LegacyExpectedInputFieldNames = ExpectedInputFieldNames[1:]

// LegacyRowSchema deserializa filas del formato anterior. Mapea solo los
// campos de identidad y montos del DTE; el receptor se inyecta del contexto.
// No aplica chequeo de clausura: el formato anterior convive con columnas
// adicionales de impuestos que simplemente se ignoran.
type LegacyRowSchema struct {
	receptorRut rut.Rut
	tz          *time.Location
}

// NewLegacyRowSchema crea el esquema del formato anterior, ligado al RUT del
// dueño del RCV.
func NewLegacyRowSchema(receptorRut rut.Rut) *LegacyRowSchema {
	return &LegacyRowSchema{receptorRut: receptorRut, tz: sii.Santiago()}
}

// TransformRow implementa rowproc.RowTransform.
func (s *LegacyRowSchema) TransformRow(row rowproc.RowData) (rowproc.Record, rowproc.FieldErrors) {
	if _, ok := row[KeyReceptorRut]; !ok {
		row[KeyReceptorRut] = s.receptorRut.Canonical()
	}

	errs := rowproc.FieldErrors{}
	emisorRut := rowproc.RutField(row, ColRutProveedor, errs)
	tipoDte := rowproc.IntField(row, ColTipoDoc, errs)
	folio := rowproc.IntField(row, ColFolio, errs)
	fechaEmision := rowproc.DateField(row, ColFechaDocto, LayoutFecha, errs)
	fechaRecepcion := rowproc.DateTimeField(row, ColFechaRecepcion, LayoutTimestamp, errs)
	montoTotal := rowproc.IntField(row, ColMontoTotal, errs)
	receptorRut := rowproc.RutField(row, KeyReceptorRut, errs)

	if len(errs) > 0 {
		return nil, errs
	}
	return rowproc.Record{
		"emisor_rut":               emisorRut,
		"tipo_dte":                 tipoDte,
		"folio":                    folio,
		"fecha_emision_date":       fechaEmision,
		"fecha_recepcion_datetime": attachLocation(fechaRecepcion, s.tz),
		"monto_total":              montoTotal,
		KeyReceptorRut:             receptorRut,
	}, nil
}
