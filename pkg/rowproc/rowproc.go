// Package rowproc implementa la deserialización genérica fila a fila de
// fuentes externas no confiables (filas de CSV, registros aplanados de XML).
//
// Separa tres responsabilidades: obtener filas crudas (RowSource), validar y
// transformar una fila (RowTransform), y contar/limitar/acumular errores
// (Iterator). Los problemas de contenido de una fila se acumulan como datos
// (FieldErrors) y nunca abortan el lote; los problemas estructurales de la
// fuente o del programa sí terminan la iteración completa.
package rowproc

import (
	"errors"
	"fmt"
	"io"
)

// RowData es una fila cruda: nombre de campo de origen → valor en texto.
type RowData map[string]string

// Record es una fila deserializada: atributo de destino → valor tipado.
type Record map[string]any

// FieldErrors acumula, por campo, los mensajes de error de contenido de una
// fila. Un mapa vacío o nil significa "sin errores".
type FieldErrors map[string][]string

// Add agrega un mensaje de error para un campo.
func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// RowSource produce filas crudas una a una. Devuelve io.EOF cuando no quedan
// filas; cualquier otro error es una falla estructural de la fuente.
type RowSource interface {
	ReadRow() (RowData, error)
}

// RowTransform valida y transforma una fila cruda. El contrato es un
// resultado etiquetado: o bien datos transformados con errores nil, o bien
// datos nil con FieldErrors no vacío; nunca ambos. Una transformación no
// debe fallar la iteración por el contenido de una fila.
type RowTransform interface {
	TransformRow(row RowData) (Record, FieldErrors)
}

// TransformFunc adapta una función al contrato RowTransform.
type TransformFunc func(row RowData) (Record, FieldErrors)

// TransformRow implementa RowTransform.
func (f TransformFunc) TransformRow(row RowData) (Record, FieldErrors) { return f(row) }

// ErrMaxRowsExceeded señala que la cantidad de filas procesadas después del
// offset superó el máximo configurado. Es una señal dedicada, distinta de un
// error de validación: permite distinguir "el archivo es enorme" de "el
// archivo está malformado".
var ErrMaxRowsExceeded = errors.New("rowproc: se excedió el máximo de filas")

// SourceError envuelve una falla estructural de la fuente subyacente,
// indicando la posición (1-based) de la fila ofensora.
type SourceError struct {
	RowIx int
	Err   error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("rowproc: error de la fuente en la fila %d: %v", e.RowIx, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Options configura la iteración.
type Options struct {
	// Offset es la cantidad de filas iniciales a consumir sin emitir ni
	// transformar. Debe ser >= 0.
	Offset int
	// MaxRows es el techo de filas procesadas después del offset; 0 o
	// negativo significa sin límite. Al superarse, la iteración termina con
	// ErrMaxRowsExceeded.
	MaxRows int
	// FieldsToStrip son campos a eliminar de la fila cruda antes de
	// transformarla. La eliminación muta la fila emitida: los consumidores
	// nunca ven campos que no mapean a ningún atributo de destino.
	FieldsToStrip []string
}

// Row es el resultado de procesar una fila.
type Row struct {
	// Ix es el índice 1-based sobre el flujo crudo, contando también las
	// filas saltadas por el offset.
	Ix int
	// Raw es la fila cruda, ya sin los campos eliminados.
	Raw RowData
	// Deserialized es la fila transformada; nil si hubo errores.
	Deserialized Record
	// Errors son los errores de contenido por campo; vacío si no hubo.
	Errors FieldErrors
}

// Iterator recorre una fuente de filas de manera perezosa: cada fila se lee,
// filtra y transforma recién cuando se la pide con Next. No es reiniciable;
// para reprocesar se necesita una fuente fresca.
//
// Uso, al estilo bufio.Scanner:
//
//	it, err := rowproc.Iterate(src, schema, rowproc.Options{MaxRows: 1000})
//	...
//	for it.Next() {
//		row := it.Row()
//		...
//	}
//	if err := it.Err(); err != nil { ... }
type Iterator struct {
	src  RowSource
	tf   RowTransform
	opts Options

	ix   int
	cur  Row
	err  error
	done bool
}

// Iterate crea un iterador sobre src aplicando tf a cada fila.
func Iterate(src RowSource, tf RowTransform, opts Options) (*Iterator, error) {
	if opts.Offset < 0 {
		return nil, fmt.Errorf("rowproc: 'Offset' debe ser un entero >= 0, se recibió %d", opts.Offset)
	}
	return &Iterator{src: src, tf: tf, opts: opts}, nil
}

// Next avanza a la siguiente fila emitible. Devuelve false al agotarse la
// fuente o ante una condición terminal; en el segundo caso Err() es no nil.
func (it *Iterator) Next() bool {
	if it.done {
		return false
	}
	for {
		row, err := it.src.ReadRow()
		if err == io.EOF {
			it.done = true
			return false
		}
		if err != nil {
			it.done = true
			it.err = &SourceError{RowIx: it.ix + 1, Err: err}
			return false
		}
		it.ix++

		if it.opts.MaxRows > 0 && it.ix > it.opts.MaxRows+it.opts.Offset {
			it.done = true
			it.err = fmt.Errorf("%w: límite %d", ErrMaxRowsExceeded, it.opts.MaxRows)
			return false
		}
		if it.ix <= it.opts.Offset {
			// Salto silencioso: la fila se consume pero no se emite.
			continue
		}

		for _, field := range it.opts.FieldsToStrip {
			delete(row, field)
		}

		deserialized, fieldErrors := it.tf.TransformRow(row)
		if len(fieldErrors) > 0 {
			// Resultado etiquetado: con errores no se emiten datos.
			deserialized = nil
		}
		it.cur = Row{Ix: it.ix, Raw: row, Deserialized: deserialized, Errors: fieldErrors}
		return true
	}
}

// Row devuelve la fila actual. Solo es válida tras un Next que devolvió true.
func (it *Iterator) Row() Row { return it.cur }

// Err devuelve la condición terminal de la iteración: nil si la fuente se
// agotó normalmente, ErrMaxRowsExceeded (envuelto) si se superó el techo de
// filas, o un *SourceError ante una falla de la fuente.
func (it *Iterator) Err() error { return it.err }

// LastIx devuelve el índice de la última fila consumida de la fuente
// (incluyendo saltadas), o 0 si no se consumió ninguna.
func (it *Iterator) LastIx() int { return it.ix }

// SliceSource es un RowSource sobre filas ya materializadas en memoria, como
// los registros aplanados de un árbol XML.
type SliceSource struct {
	rows []RowData
	next int
}

// NewSliceSource crea un RowSource que recorre rows en orden.
func NewSliceSource(rows []RowData) *SliceSource {
	return &SliceSource{rows: rows}
}

// ReadRow implementa RowSource.
func (s *SliceSource) ReadRow() (RowData, error) {
	if s.next >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.next]
	s.next++
	return row, nil
}
