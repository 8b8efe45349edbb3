// Package rtcxml implementa la extracción y deserialización de los archivos
// XML de RTC "cesiones periodo" del SII: la verificación del sobre de
// respuesta, el aplanado de cada <CESION> a un mapa tag → texto, y el esquema
// de fila correspondiente.
package rtcxml

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/beevik/etree"
	"github.com/tu-usuario/sii-dte/pkg/rowproc"
	"github.com/tu-usuario/sii-dte/pkg/rut"
	"github.com/tu-usuario/sii-dte/pkg/xmlutils"
)

// SiiNamespace es el namespace XML de las respuestas del SII.
const SiiNamespace = "http://www.sii.cl/XMLSchema"

// estadoExitoso es el valor de RESP_HDR/ESTADO de una consulta exitosa; la
// glosa debe venir vacía.
const estadoExitoso = "0"

// LayoutFechaConsulta es el layout de las fechas del eco de consulta,
// p. ej. '04042019'.
const LayoutFechaConsulta = "02012006"

// ErrConsultaNoExitosa indica que el sobre declara una consulta fallida.
var ErrConsultaNoExitosa = errors.New("rtcxml: la respuesta declara una consulta no exitosa")

// DatosConsulta es el eco de los parámetros de la consulta, presente en el
// cuerpo de la respuesta.
type DatosConsulta struct {
	Rut          rut.Rut
	TipoConsulta string
	Desde        time.Time
	Hasta        time.Time
}

// ExtractCesionesPeriodo parsea un XML de "cesiones periodo" no confiable y
// garantiza la forma del sobre antes de cualquier procesamiento por fila:
// verifica el estado del encabezado, extrae el eco de consulta y aplana cada
// <CESION> a un mapa tag → texto. Cualquier elemento esperado ausente es una
// falla dura del sobre, no un error por fila.
func ExtractCesionesPeriodo(r io.Reader) ([]rowproc.RowData, DatosConsulta, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, DatosConsulta{}, fmt.Errorf("rtcxml: error leyendo la entrada: %w", err)
	}
	doc, err := xmlutils.ParseUntrusted(data)
	if err != nil {
		return nil, DatosConsulta{}, err
	}
	root := doc.Root()

	respHdr, err := xmlutils.RequireChild(root, "RESP_HDR")
	if err != nil {
		return nil, DatosConsulta{}, err
	}
	estado, err := xmlutils.RequireChildText(respHdr, "ESTADO")
	if err != nil {
		return nil, DatosConsulta{}, err
	}
	glosa, err := xmlutils.RequireChildText(respHdr, "GLOSA")
	if err != nil {
		return nil, DatosConsulta{}, err
	}
	if estado != estadoExitoso || glosa != "" {
		return nil, DatosConsulta{}, fmt.Errorf("%w: ESTADO=%q GLOSA=%q",
			ErrConsultaNoExitosa, estado, glosa)
	}

	respBody, err := xmlutils.RequireChild(root, "RESP_BODY")
	if err != nil {
		return nil, DatosConsulta{}, err
	}
	datosConsultaEl, err := xmlutils.RequireChild(respBody, "DATOS_CONSULTA")
	if err != nil {
		return nil, DatosConsulta{}, err
	}

	var dc DatosConsulta
	rutStr, err := xmlutils.RequireChildText(datosConsultaEl, "RUT")
	if err != nil {
		return nil, DatosConsulta{}, err
	}
	dc.Rut, err = rut.Parse(rutStr)
	if err != nil {
		return nil, DatosConsulta{}, fmt.Errorf("rtcxml: RUT del eco de consulta: %w", err)
	}
	dc.TipoConsulta, err = xmlutils.RequireChildText(datosConsultaEl, "TIPO_CONSULTA")
	if err != nil {
		return nil, DatosConsulta{}, err
	}
	dc.Desde, err = requireChildDate(datosConsultaEl, "DESDE_DDMMAAAA")
	if err != nil {
		return nil, DatosConsulta{}, err
	}
	dc.Hasta, err = requireChildDate(datosConsultaEl, "HASTA_DDMMAAAA")
	if err != nil {
		return nil, DatosConsulta{}, err
	}

	var rows []rowproc.RowData
	for _, cesionEl := range respBody.SelectElements("CESION") {
		row := rowproc.RowData{}
		for _, fieldEl := range cesionEl.ChildElements() {
			row[fieldEl.Tag] = fieldEl.Text()
		}
		rows = append(rows, row)
	}
	return rows, dc, nil
}

// requireChildDate extrae y parsea una fecha DDMMAAAA del eco de consulta.
func requireChildDate(parent *etree.Element, tag string) (time.Time, error) {
	value, err := xmlutils.RequireChildText(parent, tag)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(LayoutFechaConsulta, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("rtcxml: fecha inválida en '%s': %q", tag, value)
	}
	return t, nil
}
