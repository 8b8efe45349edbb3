package rtcxml

import (
	"fmt"
	"time"

	"github.com/tu-usuario/sii-dte/internal/domain/dte"
	"github.com/tu-usuario/sii-dte/pkg/rowproc"
	"github.com/tu-usuario/sii-dte/pkg/rut"
	"github.com/tu-usuario/sii-dte/pkg/sii"
)

// Tags de los elementos hijos de un <CESION>.
const (
	TagCedente         = "CEDENTE"         // → 'cedente_rut'
	TagRzCedente       = "RZ_CEDENTE"      // → 'cedente_razon_social'
	TagMailCedente     = "MAIL_CEDENTE"    // → 'cedente_email'
	TagCesionario      = "CESIONARIO"      // → 'cesionario_rut'
	TagRzCesionario    = "RZ_CESIONARIO"   // → 'cesionario_razon_social'
	TagMailCesionario  = "MAIL_CESIONARIO" // → 'cesionario_email'
	TagMntCesion       = "MNT_CESION"      // → 'monto'
	TagFchCesion       = "FCH_CESION"      // → 'fecha_cesion_dt'
	TagFchVencimiento  = "FCH_VENCIMIENTO" // → 'fecha_vencimiento_date'
	TagEstadoCesion    = "ESTADO_CESION"   // → 'estado'
	TagVendedor        = "VENDEDOR"        // → 'dte_vendedor_rut'
	TagDeudor          = "DEUDOR"          // → 'dte_deudor_rut'
	TagMailDeudor      = "MAIL_DEUDOR"     // → 'dte_deudor_email'
	TagTipoDoc         = "TIPO_DOC"        // → 'dte_tipo_dte'
	TagNombreDoc       = "NOMBRE_DOC"      // → 'dte_tipo_dte_name'
	TagFolioDoc        = "FOLIO_DOC"       // → 'dte_folio'
	TagFchEmisDte      = "FCH_EMIS_DTE"    // → 'dte_fecha_emision_date'
	TagMntTotal        = "MNT_TOTAL"       // → 'dte_monto_total'
)

// Layouts de fecha y timestamp de los registros de cesión.
const (
	LayoutFecha     = "2006-01-02"       // p. ej. '2019-05-01'
	LayoutTimestamp = "2006-01-02 15:04" // p. ej. '2019-04-04 09:09'
)

// expectedInputFields son los tags admitidos por el chequeo de clausura.
var expectedInputFields = map[string]bool{
	TagCedente:        true,
	TagRzCedente:      true,
	TagMailCedente:    true,
	TagCesionario:     true,
	TagRzCesionario:   true,
	TagMailCesionario: true,
	TagMntCesion:      true,
	TagFchCesion:      true,
	TagFchVencimiento: true,
	TagEstadoCesion:   true,
	TagVendedor:       true,
	TagDeudor:         true,
	TagMailDeudor:     true,
	TagTipoDoc:        true,
	TagNombreDoc:      true,
	TagFolioDoc:       true,
	TagFchEmisDte:     true,
	TagMntTotal:       true,
}

// RowSchema deserializa un registro de cesión aplanado (tag → texto).
//
// El chequeo de clausura es configurable: los archivos masivos del
// ecosistema a veces traen campos extra no documentados, y en ese caso
// conviene tolerarlos en vez de fallar cada fila.
type RowSchema struct {
	strictClosure bool
}

// NewRowSchema crea el esquema. Con strictClosure, cualquier tag fuera de los
// esperados falla la fila nombrando a todos los ofensores.
func NewRowSchema(strictClosure bool) *RowSchema {
	return &RowSchema{strictClosure: strictClosure}
}

// TransformRow implementa rowproc.RowTransform.
func (s *RowSchema) TransformRow(row rowproc.RowData) (rowproc.Record, rowproc.FieldErrors) {
	errs := rowproc.FieldErrors{}
	if s.strictClosure {
		for key := range row {
			if !expectedInputFields[key] {
				errs.Add(key, "campo de entrada inesperado")
			}
		}
	}

	cedenteRut := rowproc.RutField(row, TagCedente, errs)
	cedenteRazonSocial := rowproc.StringField(row, TagRzCedente, errs)
	// Los correos del ecosistema no vienen limpios; se conservan como texto.
	cedenteEmail := rowproc.StringField(row, TagMailCedente, errs)
	cesionarioRut := rowproc.RutField(row, TagCesionario, errs)
	cesionarioRazonSocial := rowproc.StringField(row, TagRzCesionario, errs)
	cesionarioEmail := rowproc.StringField(row, TagMailCesionario, errs)
	monto := rowproc.IntField(row, TagMntCesion, errs)
	fechaCesion := rowproc.DateTimeField(row, TagFchCesion, LayoutTimestamp, errs)
	fechaVencimiento := rowproc.DateField(row, TagFchVencimiento, LayoutFecha, errs)
	estado := rowproc.StringField(row, TagEstadoCesion, errs)
	vendedorRut := rowproc.RutField(row, TagVendedor, errs)
	deudorRut := rowproc.RutField(row, TagDeudor, errs)
	deudorEmail := rowproc.StringField(row, TagMailDeudor, errs)
	tipoDte := rowproc.TipoDteField(row, TagTipoDoc, errs)
	tipoDteName := rowproc.StringField(row, TagNombreDoc, errs)
	folio := rowproc.IntField(row, TagFolioDoc, errs)
	fechaEmision := rowproc.DateField(row, TagFchEmisDte, LayoutFecha, errs)
	montoTotal := rowproc.IntField(row, TagMntTotal, errs)

	if len(errs) > 0 {
		return nil, errs
	}
	return rowproc.Record{
		"cedente_rut":             cedenteRut,
		"cedente_razon_social":    cedenteRazonSocial,
		"cedente_email":           cedenteEmail,
		"cesionario_rut":          cesionarioRut,
		"cesionario_razon_social": cesionarioRazonSocial,
		"cesionario_email":        cesionarioEmail,
		"monto":                   monto,
		"fecha_cesion_dt":         fechaCesion,
		"fecha_vencimiento_date":  fechaVencimiento,
		"estado":                  estado,
		"dte_vendedor_rut":        vendedorRut,
		"dte_deudor_rut":          deudorRut,
		"dte_deudor_email":        deudorEmail,
		"dte_tipo_dte":            tipoDte,
		"dte_tipo_dte_name":       tipoDteName,
		"dte_folio":               folio,
		"dte_fecha_emision_date":  fechaEmision,
		"dte_monto_total":         montoTotal,
	}, nil
}

// ToDteDataL1 construye el registro de dominio del DTE cedido desde una fila
// deserializada: el vendedor es el emisor y el deudor el receptor. La
// ausencia de una clave garantizada es un error de programación.
func (s *RowSchema) ToDteDataL1(rec rowproc.Record) (dte.DataL1, error) {
	vendedorRut, ok := rec["dte_vendedor_rut"].(rut.Rut)
	if !ok {
		return dte.DataL1{}, programmingError("dte_vendedor_rut")
	}
	tipoDte, ok := rec["dte_tipo_dte"].(sii.TipoDte)
	if !ok {
		return dte.DataL1{}, programmingError("dte_tipo_dte")
	}
	folio, ok := rec["dte_folio"].(int64)
	if !ok {
		return dte.DataL1{}, programmingError("dte_folio")
	}
	fechaEmision, ok := rec["dte_fecha_emision_date"].(time.Time)
	if !ok {
		return dte.DataL1{}, programmingError("dte_fecha_emision_date")
	}
	deudorRut, ok := rec["dte_deudor_rut"].(rut.Rut)
	if !ok {
		return dte.DataL1{}, programmingError("dte_deudor_rut")
	}
	montoTotal, ok := rec["dte_monto_total"].(int64)
	if !ok {
		return dte.DataL1{}, programmingError("dte_monto_total")
	}
	return dte.NewDataL1(vendedorRut, tipoDte, folio, fechaEmision, deudorRut, montoTotal)
}

func programmingError(key string) error {
	return fmt.Errorf("rtcxml: error de programación: falta la clave garantizada '%s' en la fila deserializada", key)
}
