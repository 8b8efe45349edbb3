// Package xmlutils contiene ayudas para parsear XML no confiable con
// beevik/etree y navegar el árbol resultante por nombre local de elemento.
//
// El parser no resuelve entidades externas ni expande entidades definidas por
// el documento (etree las rechaza), por lo que es apto para entradas no
// confiables del estilo "billion laughs".
package xmlutils

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/text/encoding/charmap"
)

// Errores centinela del parseo y navegación de XML.
var (
	ErrSintaxisXML      = errors.New("xmlutils: el valor no es XML sintácticamente válido")
	ErrElementoFaltante = errors.New("xmlutils: elemento esperado ausente")
)

// charsetReader decodifica los charsets declarados por los archivos del SII,
// que suelen venir en ISO-8859-1 en lugar de UTF-8.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "", "utf-8":
		return input, nil
	case "iso-8859-1", "latin1", "latin-1", "windows-1252":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	default:
		return nil, fmt.Errorf("xmlutils: charset no soportado: %q", charset)
	}
}

// ParseUntrusted parsea un documento XML no confiable.
func ParseUntrusted(data []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSintaxisXML, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("%w: documento sin elemento raíz", ErrSintaxisXML)
	}
	return doc, nil
}

// RequireChild devuelve el primer hijo con el nombre local dado (ignorando el
// prefijo de namespace) o falla si no existe. Una ausencia es una violación
// de la forma del sobre, no un error de datos por fila.
func RequireChild(parent *etree.Element, localName string) (*etree.Element, error) {
	child := parent.SelectElement(localName)
	if child == nil {
		return nil, fmt.Errorf("%w: '%s' dentro de '%s'", ErrElementoFaltante, localName, parent.Tag)
	}
	return child, nil
}

// RequireChildText devuelve el texto (sin espacios alrededor) del hijo con el
// nombre local dado, fallando si el elemento no existe.
func RequireChildText(parent *etree.Element, localName string) (string, error) {
	child, err := RequireChild(parent, localName)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(child.Text()), nil
}
