package dte

import (
	"errors"
	"fmt"
	"strings"
)

// Errores centinela de validación de campos. Los errores de rango y de
// formato se distinguen de los errores de campo requerido/tipo inapropiado
// (ErrCampoInvalido) para que el consumidor pueda reaccionar distinto ante
// datos fuera de dominio y ante estructuras mal armadas.
var (
	ErrFueraDeRango    = errors.New("dte: valor fuera del rango permitido")
	ErrFormatoInvalido = errors.New("dte: valor con formato inválido")
	ErrCampoInvalido   = errors.New("dte: campo requerido ausente o de tipo inapropiado")
)

// ValidateFolio valida el campo 'folio' de un DTE.
func ValidateFolio(value int64) error {
	if value < FolioMin || value > FolioMax {
		return fmt.Errorf("%w: 'folio' debe estar entre %d y %d, se recibió %d",
			ErrFueraDeRango, FolioMin, FolioMax, value)
	}
	return nil
}

// ValidateMontoTotal valida el campo 'monto_total' de un DTE.
func ValidateMontoTotal(value int64) error {
	if value < MontoTotalMin || value > MontoTotalMax {
		return fmt.Errorf("%w: 'monto_total' debe estar entre %d y %d, se recibió %d",
			ErrFueraDeRango, MontoTotalMin, MontoTotalMax, value)
	}
	return nil
}

// ValidateRazonSocial valida la "razón social" de un contribuyente: no vacía,
// sin espacios en blanco al inicio o final, y de largo acotado.
func ValidateRazonSocial(value string) error {
	if value == "" {
		return fmt.Errorf("%w: la razón social no debe ser vacía", ErrFormatoInvalido)
	}
	if strings.TrimSpace(value) != value {
		return fmt.Errorf("%w: la razón social no debe tener espacios al inicio ni al final",
			ErrFormatoInvalido)
	}
	if len(value) > RazonSocialMaxLength {
		return fmt.Errorf("%w: la razón social excede el largo máximo de %d",
			ErrFormatoInvalido, RazonSocialMaxLength)
	}
	return nil
}
