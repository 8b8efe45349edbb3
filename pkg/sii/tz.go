package sii

import (
	"sync"
	"time"

	// La zona horaria del negocio debe resolverse aun en imágenes sin tzdata.
	_ "time/tzdata"
)

// TimeZoneSantiago es la zona horaria de negocio de los documentos del SII.
const TimeZoneSantiago = "America/Santiago"

var (
	santiagoOnce sync.Once
	santiagoLoc  *time.Location
)

// Santiago devuelve la zona horaria "America/Santiago". Los timestamps de los
// archivos RCV y RTC vienen sin zona y deben interpretarse en ella.
func Santiago() *time.Location {
	santiagoOnce.Do(func() {
		loc, err := time.LoadLocation(TimeZoneSantiago)
		if err != nil {
			// time/tzdata está enlazado; si aun así falla es un error de programación.
			panic(err)
		}
		santiagoLoc = loc
	})
	return santiagoLoc
}
