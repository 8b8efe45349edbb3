// Package rcvcsv implementa la lectura y deserialización de archivos CSV del
// RCV ("Registro de Compras y Ventas") exportados por el SII: el dialecto
// CSV, un lector de filas como mapas con verificación estricta de cabecera,
// y los esquemas de fila que producen registros del dominio DTE.
package rcvcsv

import (
	"encoding/csv"
	"io"

	"golang.org/x/text/encoding/charmap"
)

// Dialect describe un dialecto CSV como valor de configuración explícito.
// encoding/csv fija la comilla en '"' y no usa carácter de escape, lo que
// coincide con los archivos del SII.
type Dialect struct {
	// Comma es el separador de campos.
	Comma rune
	// LazyQuotes tolera comillas fuera de lugar dentro de los campos.
	LazyQuotes bool
	// UseCRLF aplica solo a escritura: terminar cada registro con \r\n.
	UseCRLF bool
}

// RcvDialect es el dialecto de los CSV del RCV descargados del SII:
// separador ';', comilla '"', sin escape, registros terminados en \r\n
// (el lector de encoding/csv acepta \r\n y \n indistintamente).
var RcvDialect = Dialect{Comma: ';'}

// OutputDialect es el dialecto de los CSV de salida: separador ',' y
// terminación de línea estilo Unix.
var OutputDialect = Dialect{Comma: ','}

// NewReader crea un csv.Reader configurado con el dialecto.
func (d Dialect) NewReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = d.Comma
	cr.LazyQuotes = d.LazyQuotes
	// La cantidad de campos por fila la controla el lector de mapas; acá no
	// se impone para poder reportar campos extra como datos y no como error.
	cr.FieldsPerRecord = -1
	return cr
}

// NewWriter crea un csv.Writer configurado con el dialecto.
func (d Dialect) NewWriter(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.Comma = d.Comma
	cw.UseCRLF = d.UseCRLF
	return cw
}

// Latin1Reader decodifica ISO-8859-1 a UTF-8. Las exportaciones del SII
// suelen venir en Latin-1.
func Latin1Reader(r io.Reader) io.Reader {
	return charmap.ISO8859_1.NewDecoder().Reader(r)
}
