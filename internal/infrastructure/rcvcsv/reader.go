package rcvcsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tu-usuario/sii-dte/pkg/rowproc"
)

// ExtraFieldsKey es la clave de la fila bajo la cual se acumulan los valores
// que exceden la cantidad de columnas de la cabecera.
const ExtraFieldsKey = "_extra_csv_fields_data"

// ErrCabecera indica que la cabecera del CSV no coincide con la esperada.
var ErrCabecera = errors.New("rcvcsv: los nombres de columna del CSV no coinciden con los esperados, o su orden")

// DictReader lee un CSV fila a fila como mapas columna → valor, usando la
// primera fila como nombres de columna. Implementa rowproc.RowSource.
type DictReader struct {
	cr         *csv.Reader
	fieldNames []string
}

// NewDictReader crea un DictReader leyendo la fila de cabecera.
func NewDictReader(r io.Reader, d Dialect) (*DictReader, error) {
	cr := d.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: archivo vacío, sin fila de cabecera", ErrCabecera)
	}
	if err != nil {
		return nil, fmt.Errorf("rcvcsv: error leyendo la cabecera: %w", err)
	}
	return &DictReader{cr: cr, fieldNames: header}, nil
}

// NewStrictDictReader es NewDictReader más la verificación de que la cabecera
// coincida exactamente, en contenido y orden, con los nombres esperados.
func NewStrictDictReader(r io.Reader, d Dialect, expectedFieldNames []string) (*DictReader, error) {
	dr, err := NewDictReader(r, d)
	if err != nil {
		return nil, err
	}
	if len(dr.fieldNames) != len(expectedFieldNames) {
		return nil, fmt.Errorf("%w: %q", ErrCabecera, dr.fieldNames)
	}
	for i, name := range expectedFieldNames {
		if dr.fieldNames[i] != name {
			return nil, fmt.Errorf("%w: %q", ErrCabecera, dr.fieldNames)
		}
	}
	return dr, nil
}

// FieldNames devuelve los nombres de columna de la cabecera.
func (dr *DictReader) FieldNames() []string {
	return append([]string(nil), dr.fieldNames...)
}

// ReadRow implementa rowproc.RowSource. Los valores que exceden la cantidad
// de columnas quedan, unidos por ';', bajo ExtraFieldsKey; las columnas sin
// valor correspondiente quedan ausentes del mapa.
func (dr *DictReader) ReadRow() (rowproc.RowData, error) {
	record, err := dr.cr.Read()
	if err != nil {
		// io.EOF pasa tal cual; otros errores son fallas estructurales.
		return nil, err
	}
	row := make(rowproc.RowData, len(dr.fieldNames))
	for i, name := range dr.fieldNames {
		if i < len(record) {
			row[name] = record[i]
		}
	}
	if len(record) > len(dr.fieldNames) {
		row[ExtraFieldsKey] = strings.Join(record[len(dr.fieldNames):], ";")
	}
	return row, nil
}
