package config

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/wiless/radarperf/rf"
)

// Log configures the logrus standard logger.
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

func (l Log) Apply() error {
	lvl, err := log.ParseLevel(l.Level)
	if err != nil {
		return rf.InvalidParameter("log level %q", l.Level)
	}
	switch l.Format {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return rf.InvalidParameter("log format %q", l.Format)
	}
	log.SetLevel(lvl)
	log.SetOutput(os.Stderr)
	return nil
}
