package rcv_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/sii-dte/internal/application/rcv"
	"github.com/tu-usuario/sii-dte/internal/infrastructure/rcvcsv"
	"github.com/tu-usuario/sii-dte/pkg/rowproc"
	"github.com/tu-usuario/sii-dte/pkg/rut"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var testOwnerRut = rut.MustParse("76389992-6")

// rcvLine arma una línea del CSV de entrada con los valores dados por columna;
// las columnas no mencionadas quedan vacías.
func rcvLine(values map[string]string) string {
	fields := make([]string, 0, len(rcvcsv.ExpectedInputFieldNames))
	for _, col := range rcvcsv.ExpectedInputFieldNames {
		fields = append(fields, values[col])
	}
	return strings.Join(fields, ";")
}

func rcvFixtureRow(nro, folio, montoTotal string) map[string]string {
	return map[string]string{
		"Nro":                    nro,
		rcvcsv.ColTipoDoc:        "33",
		"Tipo Compra":            "Del Giro",
		rcvcsv.ColRutProveedor:   "76354771-K",
		rcvcsv.ColRazonSocial:    "Empresa Uno SpA",
		rcvcsv.ColFolio:          folio,
		rcvcsv.ColFechaDocto:     "22/10/2018",
		rcvcsv.ColFechaRecepcion: "23/10/2018 01:54:13",
		rcvcsv.ColFechaAcuse:     "",
		rcvcsv.ColMontoTotal:     montoTotal,
	}
}

// writeInputCsv escribe un CSV RCV de tres filas; la segunda trae un monto
// ilegible.
func writeInputCsv(t *testing.T, dir string) string {
	t.Helper()
	lines := []string{
		strings.Join(rcvcsv.ExpectedInputFieldNames, ";"),
		rcvLine(rcvFixtureRow("1", "170", "2996301")),
		rcvLine(rcvFixtureRow("2", "171", "dos millones")),
		rcvLine(rcvFixtureRow("3", "172", "1500000")),
	}
	path := filepath.Join(dir, "rcv.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\r\n")+"\r\n"), 0o644))
	return path
}

func processParams(inputPath, outputPath string) rcv.ProcessCsvFileParams {
	return rcv.ProcessCsvFileParams{
		OwnerRut:         testOwnerRut,
		OwnerRazonSocial: "Empresa Receptora SpA",
		InputPath:        inputPath,
		OutputPath:       outputPath,
		Logger:           zerolog.Nop(),
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// ProcessCsvFile
// ──────────────────────────────────────────────────────────────────────────────

func TestProcessCsvFile_LoteConUnaFilaMala(t *testing.T) {
	dir := t.TempDir()
	inputPath := writeInputCsv(t, dir)
	outputPath := filepath.Join(dir, "salida.csv")

	result, err := rcv.ProcessCsvFile(processParams(inputPath, outputPath))
	require.NoError(t, err, "una fila con datos malos no aborta el lote")

	assert.Equal(t, 3, result.RowsProcessed)
	require.Len(t, result.RowErrors, 1)
	assert.Equal(t, 2, result.RowErrors[0].RowIx)
	assert.Contains(t, result.RowErrors[0].ValidationErrors, rcvcsv.ColMontoTotal)
	assert.True(t, result.MontoTotalSum.Equal(decimal.NewFromInt(2996301+1500000)),
		"la suma solo incluye los montos de las filas válidas; se obtuvo %s", result.MontoTotalSum)
}

func TestProcessCsvFile_SalidaAnotada(t *testing.T) {
	dir := t.TempDir()
	inputPath := writeInputCsv(t, dir)
	outputPath := filepath.Join(dir, "salida.csv")

	_, err := rcv.ProcessCsvFile(processParams(inputPath, outputPath))
	require.NoError(t, err)

	raw, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	content := string(raw)
	assert.NotContains(t, content, "\r\n", "la salida usa fin de línea estilo Unix")

	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	require.Len(t, lines, 4, "cabecera más una línea por fila de entrada, incluso las malas")

	header := strings.Split(lines[0], ",")
	assert.Equal(t, "Nro", header[0])
	assert.Equal(t, "row_op_errors", header[len(header)-1])

	// Fila válida: receptor inyectado, slug como retorno y errores en "none".
	assert.Contains(t, lines[1], "76389992-6")
	assert.Contains(t, lines[1], "76354771-K--33--170")
	assert.True(t, strings.HasSuffix(lines[1], ",none,none"),
		"los campos de error vacíos se escriben con el marcador explícito")

	// Fila mala: sin valor de retorno y con el error de validación serializado.
	assert.Contains(t, lines[2], "Monto Total")
	assert.NotContains(t, lines[2], "--171--")
}

func TestProcessCsvFile_MontoFueraDeRango(t *testing.T) {
	// Un monto que coerciona a entero pero excede el rango del dominio pasa la
	// validación de la fila y falla recién en la operación por fila.
	dir := t.TempDir()
	lines := []string{
		strings.Join(rcvcsv.ExpectedInputFieldNames, ";"),
		rcvLine(rcvFixtureRow("1", "170", "1000000000000000001")),
	}
	inputPath := filepath.Join(dir, "rcv.csv")
	require.NoError(t, os.WriteFile(inputPath, []byte(strings.Join(lines, "\r\n")+"\r\n"), 0o644))

	result, err := rcv.ProcessCsvFile(processParams(inputPath, filepath.Join(dir, "salida.csv")))
	require.NoError(t, err)
	assert.Equal(t, 1, result.RowsProcessed)
	require.Len(t, result.RowErrors, 1)
	assert.Empty(t, result.RowErrors[0].ValidationErrors)
	assert.Contains(t, result.RowErrors[0].RowOpError, "monto_total")
	assert.True(t, result.MontoTotalSum.IsZero(),
		"una fila cuya operación falló no aporta a la suma; se obtuvo %s", result.MontoTotalSum)
}

func TestProcessCsvFile_OffsetYMaxRows(t *testing.T) {
	dir := t.TempDir()
	inputPath := writeInputCsv(t, dir)

	params := processParams(inputPath, filepath.Join(dir, "salida.csv"))
	params.RowOffset = 1

	result, err := rcv.ProcessCsvFile(params)
	require.NoError(t, err)
	assert.Equal(t, 2, result.RowsProcessed, "las filas saltadas no cuentan como procesadas")
	require.Len(t, result.RowErrors, 1)
	assert.Equal(t, 2, result.RowErrors[0].RowIx,
		"el índice reportado es sobre el flujo crudo, contando las saltadas")
}

func TestProcessCsvFile_TechoDeFilas(t *testing.T) {
	dir := t.TempDir()
	inputPath := writeInputCsv(t, dir)

	params := processParams(inputPath, filepath.Join(dir, "salida.csv"))
	params.MaxRows = 1

	result, err := rcv.ProcessCsvFile(params)
	require.ErrorIs(t, err, rowproc.ErrMaxRowsExceeded)
	assert.Equal(t, 1, result.RowsProcessed,
		"la fila que disparó el techo se consumió pero no se procesó")

	// El resultado parcial y el CSV de salida cuentan lo mismo.
	raw, err := os.ReadFile(params.OutputPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	assert.Equal(t, result.RowsProcessed, len(lines)-1,
		"cada fila procesada tiene su línea en la salida, sin contar la cabecera")
}

func TestProcessCsvFile_CabeceraInesperada(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "malo.csv")
	require.NoError(t, os.WriteFile(inputPath, []byte("a;b;c\n1;2;3\n"), 0o644))

	_, err := rcv.ProcessCsvFile(processParams(inputPath, filepath.Join(dir, "salida.csv")))
	assert.ErrorIs(t, err, rcvcsv.ErrCabecera)
}

func TestProcessCsvFile_EntradaLatin1(t *testing.T) {
	dir := t.TempDir()
	row := rcvFixtureRow("1", "170", "2996301")
	row[rcvcsv.ColRazonSocial] = "Empresa \xD1and\xFA SpA" // "Ñandú" en ISO-8859-1
	lines := []string{strings.Join(rcvcsv.ExpectedInputFieldNames, ";"), rcvLine(row)}
	inputPath := filepath.Join(dir, "rcv-latin1.csv")
	require.NoError(t, os.WriteFile(inputPath, []byte(strings.Join(lines, "\r\n")+"\r\n"), 0o644))

	params := processParams(inputPath, filepath.Join(dir, "salida.csv"))
	params.InputLatin1 = true

	result, err := rcv.ProcessCsvFile(params)
	require.NoError(t, err)
	assert.Empty(t, result.RowErrors)

	out, err := os.ReadFile(params.OutputPath)
	require.NoError(t, err)
	assert.Contains(t, string(out), "Ñandú", "la salida queda decodificada a UTF-8")
}

func TestProcessCsvFile_RowOpPersonalizada(t *testing.T) {
	dir := t.TempDir()
	inputPath := writeInputCsv(t, dir)

	var folios []int64
	params := processParams(inputPath, filepath.Join(dir, "salida.csv"))
	params.RowOp = func(schema *rcvcsv.RowSchema, rec rowproc.Record) (any, error) {
		folios = append(folios, rec["folio"].(int64))
		return nil, nil
	}

	result, err := rcv.ProcessCsvFile(params)
	require.NoError(t, err)
	assert.Equal(t, []int64{170, 172}, folios,
		"la operación por fila solo ve las filas deserializadas sin errores")
	assert.Len(t, result.RowErrors, 1)
}

// ──────────────────────────────────────────────────────────────────────────────
// IterateCsvRows (formato anterior)
// ──────────────────────────────────────────────────────────────────────────────

func TestIterateCsvRows_FormatoAnterior(t *testing.T) {
	lines := []string{
		strings.Join(rcvcsv.LegacyExpectedInputFieldNames, ";"),
		// El formato anterior no trae la columna 'Nro'.
		strings.Join(strings.Split(rcvLine(rcvFixtureRow("", "170", "2996301")), ";")[1:], ";"),
	}
	input := strings.NewReader(strings.Join(lines, "\r\n") + "\r\n")

	it, err := rcv.IterateCsvRows(input, testOwnerRut, 0)
	require.NoError(t, err)

	require.True(t, it.Next())
	row := it.Row()
	assert.Empty(t, row.Errors)
	assert.Equal(t, testOwnerRut, row.Deserialized[rcvcsv.KeyReceptorRut])
	assert.False(t, it.Next())
	require.NoError(t, it.Err())
}
