package utils

import (
	"log"
	"os"
)

// LoggerConfig holds the logger options
type LoggerConfig struct {
	Prefix string
	Output *os.File
}

// InitLogger initializes and returns the application logger
func InitLogger(config ...LoggerConfig) *log.Logger {
	var cfg LoggerConfig
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "[LMS] "
	}

	return log.New(cfg.Output, cfg.Prefix, log.LstdFlags|log.LUTC)
}
