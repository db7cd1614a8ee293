package server

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SetupLogging configures logrus from the environment. With LOG_FILE set the
// output also goes to a size-rotated file.
func SetupLogging(level, file string) {
	if level != "" {
		parsed, err := log.ParseLevel(level)
		if err != nil {
			log.Warnf("unknown LOG_LEVEL %q, keeping %s", level, log.GetLevel())
		} else {
			log.SetLevel(parsed)
		}
	}
	if file != "" {
		rotated := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     7, // days
		}
		log.SetOutput(io.MultiWriter(os.Stdout, rotated))
	}
}
