// Package dte contiene el modelo de datos de dominio de los DTEs
// ("Documentos Tributarios Electrónicos") del SII: validadores de campos y la
// cadena de refinamiento de registros NaturalKey → DataL0 → DataL1 → DataL2.
package dte

// =============================================================================
// Límites de campos de un DTE (esquema 'SiiTypes_v10.xsd')
// =============================================================================

// Rango válido del campo 'folio' (tipo 'FolioType': entero positivo de hasta
// 10 dígitos).
const (
	FolioMin int64 = 1
	FolioMax int64 = 10_000_000_000
)

// Rango válido del campo 'monto_total' (tipo 'MontoType': entero de hasta 18
// dígitos; las notas de crédito/débito admiten montos negativos).
const (
	MontoTotalMin int64 = -1_000_000_000_000_000_000
	MontoTotalMax int64 = 1_000_000_000_000_000_000
)

// Largo máximo de la "razón social" de un contribuyente (tipo 'RznSocLongType').
const RazonSocialMaxLength = 100
