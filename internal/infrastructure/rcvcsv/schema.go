package rcvcsv

import (
	"fmt"
	"time"

	"github.com/tu-usuario/sii-dte/internal/domain/dte"
	"github.com/tu-usuario/sii-dte/pkg/rowproc"
	"github.com/tu-usuario/sii-dte/pkg/rut"
	"github.com/tu-usuario/sii-dte/pkg/sii"
)

// Columnas del CSV RCV que el esquema mapea a atributos de destino.
const (
	ColTipoDoc        = "Tipo Doc"        // → 'tipo_dte'
	ColRutProveedor   = "RUT Proveedor"   // → 'emisor_rut'
	ColRazonSocial    = "Razon Social"    // → 'emisor_razon_social'
	ColFolio          = "Folio"           // → 'folio'
	ColFechaDocto     = "Fecha Docto"     // → 'fecha_emision_date'
	ColFechaRecepcion = "Fecha Recepcion" // → 'fecha_recepcion_dt'
	ColFechaAcuse     = "Fecha Acuse"     // → 'fecha_acuse_dt'
	ColMontoTotal     = "Monto Total"     // → 'monto_total'
)

// Claves inyectadas por contexto: no vienen en la fila cruda sino del dueño
// del RCV, salvo que la fila ya traiga un valor explícito.
const (
	KeyReceptorRut         = "receptor_rut"
	KeyReceptorRazonSocial = "receptor_razon_social"
)

// Layouts de fecha y timestamp de los CSV del RCV.
const (
	LayoutFecha     = "02/01/2006"          // p. ej. '22/10/2018'
	LayoutTimestamp = "02/01/2006 15:04:05" // p. ej. '23/10/2018 01:54:13'
)

// ExpectedInputFieldNames es la lista exacta y ordenada de columnas de la
// cabecera de un CSV RCV (formato actual de la exportación del SII).
var ExpectedInputFieldNames = []string{
	"Nro",
	ColTipoDoc,
	"Tipo Compra",
	ColRutProveedor,
	ColRazonSocial,
	ColFolio,
	ColFechaDocto,
	ColFechaRecepcion,
	ColFechaAcuse,
	"Monto Exento",
	"Monto Neto",
	"Monto IVA Recuperable",
	"Monto Iva No Recuperable",
	"Codigo IVA No Rec.",
	ColMontoTotal,
	"Monto Neto Activo Fijo",
	"IVA Activo Fijo",
	"IVA uso Comun",
	"Impto. Sin Derecho a Credito",
	"IVA No Retenido",
	"Tabacos Puros",
	"Tabacos Cigarrillos",
	"Tabacos Elaborados",
	"NCE o NDE sobre Fact. de Compra",
	"Codigo Otro Impuesto",
	"Valor Otro Impuesto",
	"Tasa Otro Impuesto",
}

// DefaultFieldsToStrip son las columnas de impuestos y códigos que ningún
// atributo de destino mapea, más la clave de campos extra del lector. Se
// eliminan de cada fila antes de transformarla.
var DefaultFieldsToStrip = []string{
	"Nro",
	"Tipo Compra",
	"Monto Exento",
	"Monto Neto",
	"Monto IVA Recuperable",
	"Monto Iva No Recuperable",
	"Codigo IVA No Rec.",
	"Monto Neto Activo Fijo",
	"IVA Activo Fijo",
	"IVA uso Comun",
	"Impto. Sin Derecho a Credito",
	"IVA No Retenido",
	"Tabacos Puros",
	"Tabacos Cigarrillos",
	"Tabacos Elaborados",
	"NCE o NDE sobre Fact. de Compra",
	"Codigo Otro Impuesto",
	"Valor Otro Impuesto",
	"Tasa Otro Impuesto",
	ExtraFieldsKey,
}

// allowedInputKeys son las claves que el chequeo de clausura admite en una
// fila ya despojada de las columnas a eliminar: las columnas mapeadas más
// las claves inyectadas por contexto.
var allowedInputKeys = map[string]bool{
	ColTipoDoc:             true,
	ColRutProveedor:        true,
	ColRazonSocial:         true,
	ColFolio:               true,
	ColFechaDocto:          true,
	ColFechaRecepcion:      true,
	ColFechaAcuse:          true,
	ColMontoTotal:          true,
	KeyReceptorRut:         true,
	KeyReceptorRazonSocial: true,
}

// OwnerContext identifica al dueño del RCV; sus valores se inyectan en cada
// fila como receptor del DTE cuando la fila no los trae.
type OwnerContext struct {
	ReceptorRut         rut.Rut
	ReceptorRazonSocial string
}

// RowSchema deserializa filas del formato actual del CSV RCV a registros con
// los campos de un DTE de nivel 2 más los timestamps de recepción y acuse.
// El pipeline por fila es: normalizar la fila cruda (inyección contextual),
// chequear clausura, coercionar campos y adjuntar la zona horaria de negocio.
type RowSchema struct {
	ctx OwnerContext
	tz  *time.Location
}

// NewRowSchema crea el esquema ligado al contexto del dueño del RCV. La zona
// horaria de los timestamps es la de Santiago.
func NewRowSchema(ctx OwnerContext) *RowSchema {
	return &RowSchema{ctx: ctx, tz: sii.Santiago()}
}

// TransformRow implementa rowproc.RowTransform.
func (s *RowSchema) TransformRow(row rowproc.RowData) (rowproc.Record, rowproc.FieldErrors) {
	s.normalizeRaw(row)

	errs := rowproc.FieldErrors{}
	checkClosure(row, allowedInputKeys, errs)

	emisorRut := rowproc.RutField(row, ColRutProveedor, errs)
	tipoDte := rowproc.IntField(row, ColTipoDoc, errs)
	folio := rowproc.IntField(row, ColFolio, errs)
	emisorRazonSocial := rowproc.StringField(row, ColRazonSocial, errs)
	fechaEmision := rowproc.DateField(row, ColFechaDocto, LayoutFecha, errs)
	fechaRecepcion := rowproc.DateTimeField(row, ColFechaRecepcion, LayoutTimestamp, errs)
	fechaAcuse, acuseOK := rowproc.OptionalDateTimeField(row, ColFechaAcuse, LayoutTimestamp, errs)
	montoTotal := rowproc.IntField(row, ColMontoTotal, errs)
	receptorRut := rowproc.RutField(row, KeyReceptorRut, errs)
	receptorRazonSocial := rowproc.StringField(row, KeyReceptorRazonSocial, errs)

	if len(errs) > 0 {
		return nil, errs
	}

	rec := rowproc.Record{
		"emisor_rut":            emisorRut,
		"tipo_dte":              tipoDte,
		"folio":                 folio,
		"emisor_razon_social":   emisorRazonSocial,
		"fecha_emision_date":    fechaEmision,
		"monto_total":           montoTotal,
		KeyReceptorRut:          receptorRut,
		KeyReceptorRazonSocial:  receptorRazonSocial,
		"fecha_recepcion_dt":    nil,
		"fecha_acuse_dt":        nil,
	}

	// Post-procesamiento: los timestamps quedaron ingenuos tras la coerción
	// y deben quedar anclados a la zona horaria de negocio.
	rec["fecha_recepcion_dt"] = attachLocation(fechaRecepcion, s.tz)
	if acuseOK {
		rec["fecha_acuse_dt"] = attachLocation(fechaAcuse, s.tz)
	}
	return rec, nil
}

// normalizeRaw aplica los arreglos previos a la coerción, mutando la fila
// cruda a propósito: los valores inyectados deben aparecer también en la
// fila emitida. Un valor explícito por fila siempre le gana al contexto.
func (s *RowSchema) normalizeRaw(row rowproc.RowData) {
	if _, ok := row[KeyReceptorRut]; !ok {
		row[KeyReceptorRut] = s.ctx.ReceptorRut.Canonical()
	}
	if _, ok := row[KeyReceptorRazonSocial]; !ok {
		row[KeyReceptorRazonSocial] = s.ctx.ReceptorRazonSocial
	}
}

// ToDteDataL2 construye el registro de dominio desde una fila deserializada.
// La ausencia de una clave garantizada por el contrato del esquema es un
// error de programación, no un error de datos del usuario. Los timestamps de
// recepción y acuse no forman parte del registro de dominio.
func (s *RowSchema) ToDteDataL2(rec rowproc.Record) (dte.DataL2, error) {
	emisorRut, ok := rec["emisor_rut"].(rut.Rut)
	if !ok {
		return dte.DataL2{}, programmingError("emisor_rut")
	}
	tipoDteCode, ok := rec["tipo_dte"].(int64)
	if !ok {
		return dte.DataL2{}, programmingError("tipo_dte")
	}
	folio, ok := rec["folio"].(int64)
	if !ok {
		return dte.DataL2{}, programmingError("folio")
	}
	fechaEmision, ok := rec["fecha_emision_date"].(time.Time)
	if !ok {
		return dte.DataL2{}, programmingError("fecha_emision_date")
	}
	receptorRut, ok := rec[KeyReceptorRut].(rut.Rut)
	if !ok {
		return dte.DataL2{}, programmingError(KeyReceptorRut)
	}
	montoTotal, ok := rec["monto_total"].(int64)
	if !ok {
		return dte.DataL2{}, programmingError("monto_total")
	}
	emisorRazonSocial, ok := rec["emisor_razon_social"].(string)
	if !ok {
		return dte.DataL2{}, programmingError("emisor_razon_social")
	}
	receptorRazonSocial, ok := rec[KeyReceptorRazonSocial].(string)
	if !ok {
		return dte.DataL2{}, programmingError(KeyReceptorRazonSocial)
	}

	tipoDte, err := sii.TipoDteFromCode(int(tipoDteCode))
	if err != nil {
		return dte.DataL2{}, err
	}
	return dte.NewDataL2(
		emisorRut,
		tipoDte,
		folio,
		fechaEmision,
		receptorRut,
		montoTotal,
		emisorRazonSocial,
		receptorRazonSocial,
		time.Time{},
	)
}

// checkClosure falla la fila si, despojada de las columnas a eliminar, quedan
// claves que ningún atributo de destino mapea. Reporta todas las ofensoras.
func checkClosure(row rowproc.RowData, allowed map[string]bool, errs rowproc.FieldErrors) {
	for key := range row {
		if !allowed[key] {
			errs.Add(key, "campo de entrada inesperado")
		}
	}
}

// attachLocation reinterpreta un timestamp ingenuo en la zona dada, sin
// convertir el instante.
func attachLocation(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

func programmingError(key string) error {
	return fmt.Errorf("rcvcsv: error de programación: falta la clave garantizada '%s' en la fila deserializada", key)
}
