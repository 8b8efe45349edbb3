package rowproc

import (
	"strconv"
	"strings"
	"time"

	"github.com/tu-usuario/sii-dte/pkg/rut"
	"github.com/tu-usuario/sii-dte/pkg/sii"
)

// Coercionadores de campo para esquemas de fila. Cada uno lee un campo de la
// fila cruda, intenta la conversión al tipo de destino y, ante un problema de
// contenido, acumula un mensaje en errs bajo el nombre del campo de origen en
// vez de fallar. El valor devuelto solo es significativo si no se agregó
// ningún error para el campo.

const (
	msgRequired    = "campo requerido faltante"
	msgInvalidInt  = "no es un entero válido"
	msgInvalidDate = "no es una fecha válida"
	msgInvalidTime = "no es un timestamp válido"
	msgInvalidRut  = "no es un RUT sintácticamente válido"
	msgInvalidTipo = "no es un tipo de DTE válido"
)

// StringField lee un campo de texto requerido.
func StringField(row RowData, field string, errs FieldErrors) string {
	value, ok := row[field]
	if !ok {
		errs.Add(field, msgRequired)
		return ""
	}
	return value
}

// IntField lee un campo entero requerido.
func IntField(row RowData, field string, errs FieldErrors) int64 {
	value, ok := row[field]
	if !ok {
		errs.Add(field, msgRequired)
		return 0
	}
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		errs.Add(field, msgInvalidInt)
		return 0
	}
	return n
}

// DateField lee un campo de fecha requerido con el layout dado.
func DateField(row RowData, field, layout string, errs FieldErrors) time.Time {
	value, ok := row[field]
	if !ok {
		errs.Add(field, msgRequired)
		return time.Time{}
	}
	t, err := time.Parse(layout, strings.TrimSpace(value))
	if err != nil {
		errs.Add(field, msgInvalidDate)
		return time.Time{}
	}
	return t
}

// DateTimeField lee un campo de timestamp requerido con el layout dado. El
// resultado es ingenuo (en UTC): la zona de negocio se adjunta después, en el
// post-procesamiento del esquema.
func DateTimeField(row RowData, field, layout string, errs FieldErrors) time.Time {
	value, ok := row[field]
	if !ok {
		errs.Add(field, msgRequired)
		return time.Time{}
	}
	t, err := time.Parse(layout, strings.TrimSpace(value))
	if err != nil {
		errs.Add(field, msgInvalidTime)
		return time.Time{}
	}
	return t
}

// OptionalDateTimeField lee un campo de timestamp que admite valor vacío.
// La clave debe existir (es un campo requerido que admite "sin valor"); un
// valor vacío se normaliza a "ausente" antes de la coerción, no es un error
// de parseo. El segundo resultado indica presencia.
func OptionalDateTimeField(row RowData, field, layout string, errs FieldErrors) (time.Time, bool) {
	value, ok := row[field]
	if !ok {
		errs.Add(field, msgRequired)
		return time.Time{}, false
	}
	if strings.TrimSpace(value) == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(layout, strings.TrimSpace(value))
	if err != nil {
		errs.Add(field, msgInvalidTime)
		return time.Time{}, false
	}
	return t, true
}

// RutField lee un campo de RUT requerido. Verifica solo la sintaxis, con la
// limpieza habitual (" 1.111.111-k " es aceptado); no verifica que el valor
// esté dentro de los rangos que el SII considera asignables.
func RutField(row RowData, field string, errs FieldErrors) rut.Rut {
	value, ok := row[field]
	if !ok {
		errs.Add(field, msgRequired)
		return rut.Rut{}
	}
	r, err := rut.Parse(value)
	if err != nil {
		errs.Add(field, msgInvalidRut)
		return rut.Rut{}
	}
	return r
}

// TipoDteField lee un campo de tipo de DTE requerido, validado contra el
// catálogo del SII.
func TipoDteField(row RowData, field string, errs FieldErrors) sii.TipoDte {
	value, ok := row[field]
	if !ok {
		errs.Add(field, msgRequired)
		return 0
	}
	t, err := sii.ParseTipoDte(value)
	if err != nil {
		errs.Add(field, msgInvalidTipo)
		return 0
	}
	return t
}
