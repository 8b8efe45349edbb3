package dte

import (
	"fmt"
	"time"

	"github.com/tu-usuario/sii-dte/pkg/rut"
	"github.com/tu-usuario/sii-dte/pkg/sii"
)

// Los registros de este archivo forman una cadena de refinamiento por valor:
// todo DataL2 es un DataL1 válido, que es un DataL0 válido, que es una
// NaturalKey válida. Cada nivel contiene al anterior por valor y agrega sus
// propios campos, con un constructor que valida de la base hacia arriba: un
// 'folio' malo siempre se reporta antes que un 'monto_total' malo.
//
// Las instancias son inmutables (campos no exportados, sin setters) y
// comparables por valor: sirven como claves de mapa. Las fechas se normalizan
// a medianoche UTC para que la igualdad estructural de time.Time sea estable.

// SlugSeparator separa los campos en la proyección Slug de los registros.
const SlugSeparator = "--"

// normalizeDate descarta hora y zona, dejando solo la fecha en UTC.
func normalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// NaturalKey
// =============================================================================

// NaturalKey es la llave natural de un DTE: el trío (emisor, tipo, folio)
// identifica unívocamente un DTE en todo el ecosistema.
type NaturalKey struct {
	emisorRut rut.Rut
	tipoDte   sii.TipoDte
	folio     int64
}

// NewNaturalKey construye y valida la llave natural de un DTE.
func NewNaturalKey(emisorRut rut.Rut, tipoDte sii.TipoDte, folio int64) (NaturalKey, error) {
	if emisorRut.IsZero() {
		return NaturalKey{}, fmt.Errorf("%w: 'emisor_rut'", ErrCampoInvalido)
	}
	if !tipoDte.IsValid() {
		return NaturalKey{}, fmt.Errorf("%w: 'tipo_dte' (%d)", ErrCampoInvalido, tipoDte.Code())
	}
	if err := ValidateFolio(folio); err != nil {
		return NaturalKey{}, err
	}
	return NaturalKey{emisorRut: emisorRut, tipoDte: tipoDte, folio: folio}, nil
}

// EmisorRut devuelve el RUT del emisor del DTE.
func (k NaturalKey) EmisorRut() rut.Rut { return k.emisorRut }

// TipoDte devuelve el tipo del DTE.
func (k NaturalKey) TipoDte() sii.TipoDte { return k.tipoDte }

// Folio devuelve el número secuencial del DTE para el emisor y tipo dados.
func (k NaturalKey) Folio() int64 { return k.folio }

// Slug devuelve una proyección en texto que preserva la unicidad de la llave,
// con formato "<rut>--<tipo>--<folio>". Apta como clave de caché.
func (k NaturalKey) Slug() string {
	return fmt.Sprintf("%s%s%d%s%d",
		k.emisorRut.Canonical(), SlugSeparator, k.tipoDte.Code(), SlugSeparator, k.folio)
}

// AsMap proyecta todos los campos a un mapa plano, para serialización.
func (k NaturalKey) AsMap() map[string]any {
	return map[string]any{
		"emisor_rut": k.emisorRut.Canonical(),
		"tipo_dte":   k.tipoDte.Code(),
		"folio":      k.folio,
	}
}

// =============================================================================
// DataL0
// =============================================================================

// DataL0 son los datos de un DTE a nivel 0: suficientes para identificarlo y
// nada más. Es un nivel de marca sobre NaturalKey; existe para que los
// niveles superiores sean sustituibles donde solo se requiere identidad.
type DataL0 struct {
	key NaturalKey
}

// NewDataL0 construye y valida un registro de nivel 0.
func NewDataL0(emisorRut rut.Rut, tipoDte sii.TipoDte, folio int64) (DataL0, error) {
	key, err := NewNaturalKey(emisorRut, tipoDte, folio)
	if err != nil {
		return DataL0{}, err
	}
	return DataL0{key: key}, nil
}

// NaturalKey devuelve una NaturalKey recién construida con los campos de
// identidad del registro.
func (d DataL0) NaturalKey() NaturalKey { return d.key }

// EmisorRut devuelve el RUT del emisor del DTE.
func (d DataL0) EmisorRut() rut.Rut { return d.key.emisorRut }

// TipoDte devuelve el tipo del DTE.
func (d DataL0) TipoDte() sii.TipoDte { return d.key.tipoDte }

// Folio devuelve el folio del DTE.
func (d DataL0) Folio() int64 { return d.key.folio }

// Slug devuelve la proyección de la llave natural.
func (d DataL0) Slug() string { return d.key.Slug() }

// AsMap proyecta todos los campos a un mapa plano.
func (d DataL0) AsMap() map[string]any { return d.key.AsMap() }

// =============================================================================
// DataL1
// =============================================================================

// DataL1 son los datos de un DTE a nivel 1: el conjunto mínimo de campos
// útiles más allá de la identidad.
type DataL1 struct {
	l0           DataL0
	fechaEmision time.Time
	receptorRut  rut.Rut
	montoTotal   int64
}

// NewDataL1 construye y valida un registro de nivel 1. La validación corre de
// la base hacia arriba: primero los campos de identidad, luego los propios.
//
// 'fechaEmision' es la fecha declarada en el documento; puede no coincidir
// con la fecha física real de emisión o recepción en el SII.
func NewDataL1(
	emisorRut rut.Rut,
	tipoDte sii.TipoDte,
	folio int64,
	fechaEmision time.Time,
	receptorRut rut.Rut,
	montoTotal int64,
) (DataL1, error) {
	l0, err := NewDataL0(emisorRut, tipoDte, folio)
	if err != nil {
		return DataL1{}, err
	}
	if fechaEmision.IsZero() {
		return DataL1{}, fmt.Errorf("%w: 'fecha_emision_date'", ErrCampoInvalido)
	}
	if receptorRut.IsZero() {
		return DataL1{}, fmt.Errorf("%w: 'receptor_rut'", ErrCampoInvalido)
	}
	if err := ValidateMontoTotal(montoTotal); err != nil {
		return DataL1{}, err
	}
	return DataL1{
		l0:           l0,
		fechaEmision: normalizeDate(fechaEmision),
		receptorRut:  receptorRut,
		montoTotal:   montoTotal,
	}, nil
}

// NaturalKey devuelve una NaturalKey recién construida.
func (d DataL1) NaturalKey() NaturalKey { return d.l0.NaturalKey() }

// EmisorRut devuelve el RUT del emisor del DTE.
func (d DataL1) EmisorRut() rut.Rut { return d.l0.EmisorRut() }

// TipoDte devuelve el tipo del DTE.
func (d DataL1) TipoDte() sii.TipoDte { return d.l0.TipoDte() }

// Folio devuelve el folio del DTE.
func (d DataL1) Folio() int64 { return d.l0.Folio() }

// Slug devuelve la proyección de la llave natural.
func (d DataL1) Slug() string { return d.l0.Slug() }

// FechaEmision devuelve la fecha de emisión declarada en el documento.
func (d DataL1) FechaEmision() time.Time { return d.fechaEmision }

// ReceptorRut devuelve el RUT del receptor del DTE.
func (d DataL1) ReceptorRut() rut.Rut { return d.receptorRut }

// MontoTotal devuelve el monto total del DTE.
func (d DataL1) MontoTotal() int64 { return d.montoTotal }

// AsMap proyecta todos los campos a un mapa plano.
func (d DataL1) AsMap() map[string]any {
	m := d.l0.AsMap()
	m["fecha_emision_date"] = d.fechaEmision.Format(time.DateOnly)
	m["receptor_rut"] = d.receptorRut.Canonical()
	m["monto_total"] = d.montoTotal
	return m
}

// =============================================================================
// DataL2
// =============================================================================

// DataL2 son los datos de un DTE a nivel 2. Las razones sociales son
// redundantes respecto de los RUTs pero el esquema XML del DTE las exige; la
// fecha de vencimiento no es exigida por el esquema pero importa para la
// lógica de negocio (p. ej. cesiones).
type DataL2 struct {
	l1                  DataL1
	emisorRazonSocial   string
	receptorRazonSocial string
	fechaVencimiento    time.Time // valor cero = sin fecha de vencimiento
}

// NewDataL2 construye y valida un registro de nivel 2. Un 'fechaVencimiento'
// cero significa que el documento no declara fecha de vencimiento.
func NewDataL2(
	emisorRut rut.Rut,
	tipoDte sii.TipoDte,
	folio int64,
	fechaEmision time.Time,
	receptorRut rut.Rut,
	montoTotal int64,
	emisorRazonSocial string,
	receptorRazonSocial string,
	fechaVencimiento time.Time,
) (DataL2, error) {
	l1, err := NewDataL1(emisorRut, tipoDte, folio, fechaEmision, receptorRut, montoTotal)
	if err != nil {
		return DataL2{}, err
	}
	if err := ValidateRazonSocial(emisorRazonSocial); err != nil {
		return DataL2{}, fmt.Errorf("'emisor_razon_social': %w", err)
	}
	if err := ValidateRazonSocial(receptorRazonSocial); err != nil {
		return DataL2{}, fmt.Errorf("'receptor_razon_social': %w", err)
	}
	if !fechaVencimiento.IsZero() {
		fechaVencimiento = normalizeDate(fechaVencimiento)
	}
	return DataL2{
		l1:                  l1,
		emisorRazonSocial:   emisorRazonSocial,
		receptorRazonSocial: receptorRazonSocial,
		fechaVencimiento:    fechaVencimiento,
	}, nil
}

// NaturalKey devuelve una NaturalKey recién construida.
func (d DataL2) NaturalKey() NaturalKey { return d.l1.NaturalKey() }

// EmisorRut devuelve el RUT del emisor del DTE.
func (d DataL2) EmisorRut() rut.Rut { return d.l1.EmisorRut() }

// TipoDte devuelve el tipo del DTE.
func (d DataL2) TipoDte() sii.TipoDte { return d.l1.TipoDte() }

// Folio devuelve el folio del DTE.
func (d DataL2) Folio() int64 { return d.l1.Folio() }

// Slug devuelve la proyección de la llave natural.
func (d DataL2) Slug() string { return d.l1.Slug() }

// FechaEmision devuelve la fecha de emisión declarada en el documento.
func (d DataL2) FechaEmision() time.Time { return d.l1.FechaEmision() }

// ReceptorRut devuelve el RUT del receptor del DTE.
func (d DataL2) ReceptorRut() rut.Rut { return d.l1.ReceptorRut() }

// MontoTotal devuelve el monto total del DTE.
func (d DataL2) MontoTotal() int64 { return d.l1.MontoTotal() }

// DataL1 devuelve la proyección de nivel 1 del registro.
func (d DataL2) DataL1() DataL1 { return d.l1 }

// EmisorRazonSocial devuelve la razón social del emisor.
func (d DataL2) EmisorRazonSocial() string { return d.emisorRazonSocial }

// ReceptorRazonSocial devuelve la razón social del receptor.
func (d DataL2) ReceptorRazonSocial() string { return d.receptorRazonSocial }

// FechaVencimiento devuelve la fecha de vencimiento y si está presente.
func (d DataL2) FechaVencimiento() (time.Time, bool) {
	return d.fechaVencimiento, !d.fechaVencimiento.IsZero()
}

// AsMap proyecta todos los campos a un mapa plano.
func (d DataL2) AsMap() map[string]any {
	m := d.l1.AsMap()
	m["emisor_razon_social"] = d.emisorRazonSocial
	m["receptor_razon_social"] = d.receptorRazonSocial
	if fv, ok := d.FechaVencimiento(); ok {
		m["fecha_vencimiento_date"] = fv.Format(time.DateOnly)
	} else {
		m["fecha_vencimiento_date"] = nil
	}
	return m
}
