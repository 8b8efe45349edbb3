// Package sii contiene catálogos y constantes compartidas del ecosistema de
// documentos tributarios electrónicos del SII (Chile), según el esquema
// oficial 'SiiTypes_v10.xsd' ("DTEType" / "DocType").
package sii

import (
	"fmt"
	"strconv"
	"strings"
)

// TipoDte es el código del tipo de documento tributario electrónico.
type TipoDte int

// =============================================================================
// Tipos de DTE (esquema 'SiiTypes_v10.xsd', tipos 'DTEType' y 'DTEFacturasType')
// Solo los tipos que efectivamente son DTEs; los documentos en papel del
// mismo catálogo quedan fuera.
// =============================================================================

const (
	FacturaElectronica                TipoDte = 33  // Factura electrónica de venta
	FacturaNoAfectaOExentaElectronica TipoDte = 34  // Factura electrónica de venta no afecta o exenta de IVA
	LiquidacionFacturaElectronica     TipoDte = 43  // Liquidación-factura electrónica
	FacturaCompraElectronica          TipoDte = 46  // Factura electrónica de compra
	GuiaDespachoElectronica           TipoDte = 52  // Guía de despacho electrónica
	NotaDebitoElectronica             TipoDte = 56  // Nota de débito electrónica
	NotaCreditoElectronica            TipoDte = 61  // Nota de crédito electrónica
	FacturaExportacionElectronica     TipoDte = 110 // Factura de exportación electrónica
	NotaDebitoExportacionElectronica  TipoDte = 111 // Nota de débito de exportación electrónica
	NotaCreditoExportacionElectronica TipoDte = 112 // Nota de crédito de exportación electrónica
)

// tipoDteNames nombres oficiosos de cada tipo de DTE.
var tipoDteNames = map[TipoDte]string{
	FacturaElectronica:                "Factura Electrónica",
	FacturaNoAfectaOExentaElectronica: "Factura no Afecta o Exenta Electrónica",
	LiquidacionFacturaElectronica:     "Liquidación-Factura Electrónica",
	FacturaCompraElectronica:          "Factura de Compra Electrónica",
	GuiaDespachoElectronica:           "Guía de Despacho Electrónica",
	NotaDebitoElectronica:             "Nota de Débito Electrónica",
	NotaCreditoElectronica:            "Nota de Crédito Electrónica",
	FacturaExportacionElectronica:     "Factura de Exportación Electrónica",
	NotaDebitoExportacionElectronica:  "Nota de Débito de Exportación Electrónica",
	NotaCreditoExportacionElectronica: "Nota de Crédito de Exportación Electrónica",
}

// IsValid reporta si el código pertenece al catálogo de tipos de DTE.
func (t TipoDte) IsValid() bool {
	_, ok := tipoDteNames[t]
	return ok
}

// Name devuelve el nombre del tipo de DTE, o "" si el código no es válido.
func (t TipoDte) Name() string { return tipoDteNames[t] }

// Code devuelve el código numérico.
func (t TipoDte) Code() int { return int(t) }

// String implementa fmt.Stringer con el código numérico, que es la
// representación usada en archivos RCV y RTC.
func (t TipoDte) String() string { return strconv.Itoa(int(t)) }

// TipoDteFromCode convierte un código numérico validándolo contra el catálogo.
func TipoDteFromCode(code int) (TipoDte, error) {
	t := TipoDte(code)
	if !t.IsValid() {
		return 0, fmt.Errorf("sii: código de tipo de DTE desconocido: %d", code)
	}
	return t, nil
}

// ParseTipoDte convierte la representación textual (p. ej. " 33 ") validando
// contra el catálogo.
func ParseTipoDte(value string) (TipoDte, error) {
	code, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("sii: tipo de DTE no numérico: %q", value)
	}
	return TipoDteFromCode(code)
}
