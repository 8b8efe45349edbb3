// Package rut implementa el RUT ("Rol Único Tributario"), el identificador
// tributario chileno, con su dígito de verificación módulo 11.
// Formato canónico según el tipo 'RUTType' del esquema oficial 'SiiTypes_v10.xsd':
// dígitos (1 a 8, sin puntos ni ceros a la izquierda), guion y dígito de
// verificación (0-9 o K).
package rut

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Límites del formato canónico ("SiiTypes_v10.xsd", tipo 'RUTType').
const (
	CanonicalMaxLength = 10 // "99999999-9"
	CanonicalMinLength = 3  // "1-9"
)

var canonicalRegexp = regexp.MustCompile(`^(\d{1,8})-([\dK])$`)

// ErrSintaxis indica que el valor no es un RUT sintácticamente válido.
var ErrSintaxis = errors.New("rut: no es un RUT sintácticamente válido")

// ErrDigitoVerificador indica que el dígito de verificación no corresponde
// al cuerpo del RUT según el algoritmo módulo 11.
var ErrDigitoVerificador = errors.New("rut: dígito de verificación incorrecto")

// Rut es un RUT sintácticamente válido, inmutable y comparable por valor
// (sirve como clave de mapa). El valor cero no es un RUT válido; ver IsZero.
type Rut struct {
	digits string
	dv     byte
}

// Parse limpia y valida sintácticamente un RUT.
// Acepta formato canónico ("76389992-6") y formato verboso con puntos y
// espacios alrededor (" 76.389.992-6 "); la 'k' minúscula se normaliza a 'K'.
// No verifica el dígito de verificación; para eso usar ParseStrict o ValidateDv.
func Parse(value string) (Rut, error) {
	cleaned := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(value), ".", ""))

	m := canonicalRegexp.FindStringSubmatch(cleaned)
	if m == nil {
		return Rut{}, fmt.Errorf("%w: %q", ErrSintaxis, value)
	}
	digits := strings.TrimLeft(m[1], "0")
	if digits == "" {
		return Rut{}, fmt.Errorf("%w: %q", ErrSintaxis, value)
	}
	return Rut{digits: digits, dv: m[2][0]}, nil
}

// ParseStrict es Parse más la verificación del dígito de verificación.
func ParseStrict(value string) (Rut, error) {
	r, err := Parse(value)
	if err != nil {
		return Rut{}, err
	}
	if err := r.ValidateDv(); err != nil {
		return Rut{}, err
	}
	return r, nil
}

// MustParse es Parse pero entra en pánico ante error. Pensado para
// constantes de pruebas y valores literales conocidos.
func MustParse(value string) Rut {
	r, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return r
}

// Digits devuelve el cuerpo del RUT (sin dígito de verificación).
func (r Rut) Digits() string { return r.digits }

// Dv devuelve el dígito de verificación ('0'-'9' o 'K').
func (r Rut) Dv() byte { return r.dv }

// Canonical devuelve la representación canónica, p. ej. "76389992-6".
func (r Rut) Canonical() string {
	return r.digits + "-" + string(r.dv)
}

// String implementa fmt.Stringer con la representación canónica.
func (r Rut) String() string { return r.Canonical() }

// IsZero reporta si el valor es el cero de Rut (no construido vía Parse).
func (r Rut) IsZero() bool { return r.digits == "" }

// ValidateDv verifica el dígito de verificación con el algoritmo módulo 11.
func (r Rut) ValidateDv() error {
	expected := ComputeDv(r.digits)
	if r.dv != expected {
		return fmt.Errorf("%w: esperado %c, recibido %c", ErrDigitoVerificador, expected, r.dv)
	}
	return nil
}

// ComputeDv calcula el dígito de verificación módulo 11 para un cuerpo de
// RUT (solo dígitos). Los factores 2..7 se aplican cíclicamente de derecha
// a izquierda; resto 0 produce '0' y resto 1 produce 'K'.
func ComputeDv(digits string) byte {
	var sum, factor int
	factor = 2
	for i := len(digits) - 1; i >= 0; i-- {
		sum += int(digits[i]-'0') * factor
		factor++
		if factor > 7 {
			factor = 2
		}
	}
	switch remainder := 11 - (sum % 11); remainder {
	case 11:
		return '0'
	case 10:
		return 'K'
	default:
		return byte('0' + remainder)
	}
}
