// Package config agrupa la configuración de la aplicación, leída vía Viper
// desde variables de entorno y opcionalmente desde archivo.
package config

import (
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config es la configuración completa de la herramienta.
type Config struct {
	App        AppConfig
	Log        LogConfig
	Processing ProcessingConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env  string // development, staging, production
	Name string
}

// LogConfig configuración del logger.
type LogConfig struct {
	Level string // trace, debug, info, warn, error
}

// ProcessingConfig valores por defecto del procesamiento por lotes. Las
// banderas de la línea de comandos los pueden sobreescribir.
type ProcessingConfig struct {
	MaxRows       int    // techo de filas por corrida; <= 0 es sin límite
	RowOffset     int    // filas de datos iniciales a saltar
	InputEncoding string // utf-8 o iso-8859-1
}

// Load lee la configuración desde variables de entorno y, si existe, desde un
// archivo .env o config.env. Las env vars tienen prioridad. Nombres
// esperados: APP_ENV, LOG_LEVEL, PROCESSING_MAX_ROWS, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:  getString(v, "APP_ENV", "development"),
			Name: getString(v, "APP_NAME", "sii-dte"),
		},
		Log: LogConfig{
			Level: getString(v, "LOG_LEVEL", "info"),
		},
		Processing: ProcessingConfig{
			MaxRows:       getInt(v, "PROCESSING_MAX_ROWS", 0),
			RowOffset:     getInt(v, "PROCESSING_ROW_OFFSET", 0),
			InputEncoding: getString(v, "PROCESSING_INPUT_ENCODING", "utf-8"),
		},
	}

	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case string:
			n, _ := strconv.Atoi(v.GetString(key))
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}
