// Package cesion contiene el modelo de datos de dominio de las "cesiones de
// créditos" (RTC) sobre DTEs: la transferencia del derecho a cobrar el monto
// de un DTE desde un "cedente" hacia un "cesionario".
//
// A diferencia de la llave natural de un DTE, la de una cesión es de utilidad
// limitada: varias fuentes de información del SII no incluyen el número de
// secuencia de la cesión.
package cesion

import (
	"errors"
	"fmt"

	"github.com/tu-usuario/sii-dte/internal/domain/dte"
	"github.com/tu-usuario/sii-dte/pkg/rut"
)

// Errores centinela de validación de campos de una cesión.
var (
	ErrFueraDeRango  = errors.New("cesion: valor fuera del rango permitido")
	ErrCampoInvalido = errors.New("cesion: campo requerido ausente o de tipo inapropiado")
)

// ValidateSeq valida el número de secuencia de una cesión.
func ValidateSeq(value int) error {
	if value < 1 {
		return fmt.Errorf("%w: 'seq' debe ser >= 1, se recibió %d", ErrFueraDeRango, value)
	}
	return nil
}

// ValidateMonto valida el monto de una cesión.
// TODO: confirmar las reglas respecto de cesiones previas y del monto del DTE.
func ValidateMonto(value int64) error {
	if value < 0 {
		return fmt.Errorf("%w: 'monto' debe ser >= 0, se recibió %d", ErrFueraDeRango, value)
	}
	return nil
}

// NaturalKey es la llave natural de una cesión: la llave natural del DTE
// cedido más el número de secuencia de la cesión dentro de ese DTE.
// Inmutable y comparable por valor.
type NaturalKey struct {
	dteKey dte.NaturalKey
	seq    int
}

// NewNaturalKey construye y valida la llave natural de una cesión.
func NewNaturalKey(dteKey dte.NaturalKey, seq int) (NaturalKey, error) {
	if dteKey == (dte.NaturalKey{}) {
		return NaturalKey{}, fmt.Errorf("%w: 'dte_key'", ErrCampoInvalido)
	}
	if err := ValidateSeq(seq); err != nil {
		return NaturalKey{}, err
	}
	return NaturalKey{dteKey: dteKey, seq: seq}, nil
}

// DteKey devuelve la llave natural del DTE cedido.
func (k NaturalKey) DteKey() dte.NaturalKey { return k.dteKey }

// Seq devuelve el número de secuencia de la cesión.
func (k NaturalKey) Seq() int { return k.seq }

// Slug devuelve una proyección en texto que preserva la unicidad de la llave:
// el slug del DTE más la secuencia de la cesión.
func (k NaturalKey) Slug() string {
	return fmt.Sprintf("%s%s%d", k.dteKey.Slug(), dte.SlugSeparator, k.seq)
}

// AsMap proyecta todos los campos a un mapa plano.
func (k NaturalKey) AsMap() map[string]any {
	return map[string]any{
		"dte_key": k.dteKey.AsMap(),
		"seq":     k.seq,
	}
}

// DataL0 son los datos de una cesión a nivel 0: la llave natural más las
// partes y el monto cedido.
type DataL0 struct {
	key           NaturalKey
	cedenteRut    rut.Rut
	cesionarioRut rut.Rut
	monto         int64
}

// NewDataL0 construye y valida un registro de cesión de nivel 0.
func NewDataL0(key NaturalKey, cedenteRut, cesionarioRut rut.Rut, monto int64) (DataL0, error) {
	if key == (NaturalKey{}) {
		return DataL0{}, fmt.Errorf("%w: 'natural_key'", ErrCampoInvalido)
	}
	if cedenteRut.IsZero() {
		return DataL0{}, fmt.Errorf("%w: 'cedente_rut'", ErrCampoInvalido)
	}
	if cesionarioRut.IsZero() {
		return DataL0{}, fmt.Errorf("%w: 'cesionario_rut'", ErrCampoInvalido)
	}
	if err := ValidateMonto(monto); err != nil {
		return DataL0{}, err
	}
	return DataL0{key: key, cedenteRut: cedenteRut, cesionarioRut: cesionarioRut, monto: monto}, nil
}

// NaturalKey devuelve la llave natural de la cesión.
func (d DataL0) NaturalKey() NaturalKey { return d.key }

// CedenteRut devuelve el RUT del cedente.
func (d DataL0) CedenteRut() rut.Rut { return d.cedenteRut }

// CesionarioRut devuelve el RUT del cesionario.
func (d DataL0) CesionarioRut() rut.Rut { return d.cesionarioRut }

// Monto devuelve el monto cedido.
func (d DataL0) Monto() int64 { return d.monto }

// Slug devuelve la proyección de la llave natural.
func (d DataL0) Slug() string { return d.key.Slug() }

// AsMap proyecta todos los campos a un mapa plano.
func (d DataL0) AsMap() map[string]any {
	m := d.key.AsMap()
	m["cedente_rut"] = d.cedenteRut.Canonical()
	m["cesionario_rut"] = d.cesionarioRut.Canonical()
	m["monto"] = d.monto
	return m
}
