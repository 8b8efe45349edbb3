package rowproc_test

import (
	"errors"
	"io"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/sii-dte/pkg/rowproc"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

// numberedRows produce n filas {"n": "1"} .. {"n": "<n>"}.
func numberedRows(n int) []rowproc.RowData {
	rows := make([]rowproc.RowData, 0, n)
	for i := 1; i <= n; i++ {
		rows = append(rows, rowproc.RowData{"n": strconv.Itoa(i)})
	}
	return rows
}

// echoTransform deserializa cualquier fila copiándola tal cual.
var echoTransform = rowproc.TransformFunc(func(row rowproc.RowData) (rowproc.Record, rowproc.FieldErrors) {
	rec := rowproc.Record{}
	for k, v := range row {
		rec[k] = v
	}
	return rec, nil
})

// failingSource falla con un error estructural después de emitir ok filas.
type failingSource struct {
	ok   int
	read int
	err  error
}

func (s *failingSource) ReadRow() (rowproc.RowData, error) {
	s.read++
	if s.read > s.ok {
		return nil, s.err
	}
	return rowproc.RowData{"n": strconv.Itoa(s.read)}, nil
}

func collect(t *testing.T, it *rowproc.Iterator) []rowproc.Row {
	t.Helper()
	var rows []rowproc.Row
	for it.Next() {
		rows = append(rows, it.Row())
	}
	return rows
}

// ──────────────────────────────────────────────────────────────────────────────
// Iterator
// ──────────────────────────────────────────────────────────────────────────────

func TestIterate_RecorridoCompleto(t *testing.T) {
	it, err := rowproc.Iterate(rowproc.NewSliceSource(numberedRows(3)), echoTransform, rowproc.Options{})
	require.NoError(t, err)

	rows := collect(t, it)
	require.NoError(t, it.Err())
	require.Len(t, rows, 3)
	assert.Equal(t, 1, rows[0].Ix, "los índices son 1-based")
	assert.Equal(t, 3, rows[2].Ix)
	assert.Equal(t, "2", rows[1].Deserialized["n"])
	assert.Equal(t, 3, it.LastIx())
}

func TestIterate_FuenteVacia(t *testing.T) {
	it, err := rowproc.Iterate(rowproc.NewSliceSource(nil), echoTransform, rowproc.Options{})
	require.NoError(t, err)

	assert.False(t, it.Next())
	assert.NoError(t, it.Err())
	assert.Equal(t, 0, it.LastIx())
}

func TestIterate_OffsetSaltaSinEmitir(t *testing.T) {
	it, err := rowproc.Iterate(rowproc.NewSliceSource(numberedRows(5)), echoTransform,
		rowproc.Options{Offset: 2})
	require.NoError(t, err)

	rows := collect(t, it)
	require.NoError(t, it.Err())
	require.Len(t, rows, 3)
	assert.Equal(t, 3, rows[0].Ix,
		"la primera fila emitida conserva su índice sobre el flujo crudo")
	assert.Equal(t, "3", rows[0].Raw["n"])
}

func TestIterate_OffsetMayorQueLaFuente(t *testing.T) {
	it, err := rowproc.Iterate(rowproc.NewSliceSource(numberedRows(2)), echoTransform,
		rowproc.Options{Offset: 10})
	require.NoError(t, err)

	assert.False(t, it.Next())
	assert.NoError(t, it.Err(), "agotar la fuente dentro del offset no es un error")
	assert.Equal(t, 2, it.LastIx())
}

func TestIterate_OffsetNegativoRechazado(t *testing.T) {
	_, err := rowproc.Iterate(rowproc.NewSliceSource(nil), echoTransform, rowproc.Options{Offset: -1})
	assert.Error(t, err)
}

func TestIterate_MaxRowsTermina(t *testing.T) {
	it, err := rowproc.Iterate(rowproc.NewSliceSource(numberedRows(5)), echoTransform,
		rowproc.Options{MaxRows: 3})
	require.NoError(t, err)

	rows := collect(t, it)
	assert.Len(t, rows, 3, "se emiten exactamente MaxRows filas")
	assert.ErrorIs(t, it.Err(), rowproc.ErrMaxRowsExceeded)
}

func TestIterate_MaxRowsExacto(t *testing.T) {
	it, err := rowproc.Iterate(rowproc.NewSliceSource(numberedRows(3)), echoTransform,
		rowproc.Options{MaxRows: 3})
	require.NoError(t, err)

	rows := collect(t, it)
	assert.Len(t, rows, 3)
	assert.NoError(t, it.Err(), "con exactamente MaxRows filas el techo no se supera")
}

func TestIterate_MaxRowsCuentaDespuesDelOffset(t *testing.T) {
	it, err := rowproc.Iterate(rowproc.NewSliceSource(numberedRows(6)), echoTransform,
		rowproc.Options{Offset: 2, MaxRows: 3})
	require.NoError(t, err)

	rows := collect(t, it)
	assert.Len(t, rows, 3)
	assert.ErrorIs(t, it.Err(), rowproc.ErrMaxRowsExceeded)
	assert.Equal(t, 6, it.LastIx(), "la fila que superó el techo también fue consumida")
}

func TestIterate_FieldsToStripAntesDeTransformar(t *testing.T) {
	rows := []rowproc.RowData{{"a": "1", "ruido": "x"}}
	var seen rowproc.RowData
	tf := rowproc.TransformFunc(func(row rowproc.RowData) (rowproc.Record, rowproc.FieldErrors) {
		seen = row
		return rowproc.Record{}, nil
	})

	it, err := rowproc.Iterate(rowproc.NewSliceSource(rows), tf,
		rowproc.Options{FieldsToStrip: []string{"ruido"}})
	require.NoError(t, err)
	require.True(t, it.Next())

	assert.NotContains(t, seen, "ruido", "el campo debe eliminarse antes de la transformación")
	assert.NotContains(t, it.Row().Raw, "ruido", "la fila emitida tampoco lo contiene")
}

func TestIterate_ResultadoEtiquetado(t *testing.T) {
	tf := rowproc.TransformFunc(func(row rowproc.RowData) (rowproc.Record, rowproc.FieldErrors) {
		errs := rowproc.FieldErrors{}
		errs.Add("n", "no me gusta")
		return rowproc.Record{"n": "igual devuelvo algo"}, errs
	})

	it, err := rowproc.Iterate(rowproc.NewSliceSource(numberedRows(1)), tf, rowproc.Options{})
	require.NoError(t, err)
	require.True(t, it.Next())

	row := it.Row()
	assert.Nil(t, row.Deserialized, "con errores de campo no se emiten datos deserializados")
	assert.Equal(t, []string{"no me gusta"}, row.Errors["n"])
	assert.NoError(t, it.Err(), "los errores de contenido no terminan la iteración")
}

func TestIterate_ErrorDeLaFuente(t *testing.T) {
	cause := errors.New("disco en llamas")
	it, err := rowproc.Iterate(&failingSource{ok: 2, err: cause}, echoTransform, rowproc.Options{})
	require.NoError(t, err)

	rows := collect(t, it)
	assert.Len(t, rows, 2)

	var srcErr *rowproc.SourceError
	require.ErrorAs(t, it.Err(), &srcErr)
	assert.Equal(t, 3, srcErr.RowIx, "el error reporta la posición de la fila ofensora")
	assert.ErrorIs(t, it.Err(), cause)
}

func TestSliceSource(t *testing.T) {
	src := rowproc.NewSliceSource(numberedRows(2))

	row, err := src.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, "1", row["n"])

	_, err = src.ReadRow()
	require.NoError(t, err)

	_, err = src.ReadRow()
	assert.Equal(t, io.EOF, err)
}
