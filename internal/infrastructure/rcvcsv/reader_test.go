package rcvcsv_test

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/sii-dte/internal/infrastructure/rcvcsv"
)

func TestNewDictReader_CabeceraComoNombres(t *testing.T) {
	dr, err := rcvcsv.NewDictReader(strings.NewReader("a;b;c\n1;2;3\n"), rcvcsv.RcvDialect)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, dr.FieldNames())

	row, err := dr.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, "2", row["b"])
}

func TestNewDictReader_ArchivoVacio(t *testing.T) {
	_, err := rcvcsv.NewDictReader(strings.NewReader(""), rcvcsv.RcvDialect)
	assert.ErrorIs(t, err, rcvcsv.ErrCabecera)
}

func TestNewStrictDictReader(t *testing.T) {
	expected := []string{"a", "b"}

	_, err := rcvcsv.NewStrictDictReader(strings.NewReader("a;b\n"), rcvcsv.RcvDialect, expected)
	assert.NoError(t, err)

	// Mismo contenido en otro orden: se rechaza.
	_, err = rcvcsv.NewStrictDictReader(strings.NewReader("b;a\n"), rcvcsv.RcvDialect, expected)
	assert.ErrorIs(t, err, rcvcsv.ErrCabecera)

	_, err = rcvcsv.NewStrictDictReader(strings.NewReader("a;b;c\n"), rcvcsv.RcvDialect, expected)
	assert.ErrorIs(t, err, rcvcsv.ErrCabecera, "una columna de más también es un desajuste")
}

func TestReadRow_CamposExtra(t *testing.T) {
	dr, err := rcvcsv.NewDictReader(strings.NewReader("a;b\n1;2;3;4\n"), rcvcsv.RcvDialect)
	require.NoError(t, err)

	row, err := dr.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, "1", row["a"])
	assert.Equal(t, "3;4", row[rcvcsv.ExtraFieldsKey],
		"los valores sin columna quedan unidos bajo la clave de campos extra")
}

func TestReadRow_FilaCorta(t *testing.T) {
	dr, err := rcvcsv.NewDictReader(strings.NewReader("a;b;c\n1;2\n"), rcvcsv.RcvDialect)
	require.NoError(t, err)

	row, err := dr.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, "2", row["b"])
	assert.NotContains(t, row, "c", "las columnas sin valor quedan ausentes, no vacías")
}

func TestReadRow_EOF(t *testing.T) {
	dr, err := rcvcsv.NewDictReader(strings.NewReader("a;b\n"), rcvcsv.RcvDialect)
	require.NoError(t, err)

	_, err = dr.ReadRow()
	assert.Equal(t, io.EOF, err)
}

func TestReadRow_FinDeLineaCRLF(t *testing.T) {
	dr, err := rcvcsv.NewDictReader(strings.NewReader("a;b\r\n1;2\r\n"), rcvcsv.RcvDialect)
	require.NoError(t, err)

	row, err := dr.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, "2", row["b"])
}

func TestLatin1Reader(t *testing.T) {
	// "Ñuñoa" en ISO-8859-1.
	raw := []byte{0xD1, 'u', 0xF1, 'o', 'a'}
	decoded, err := io.ReadAll(rcvcsv.Latin1Reader(strings.NewReader(string(raw))))
	require.NoError(t, err)
	assert.Equal(t, "Ñuñoa", string(decoded))
}
