package config

import (
	"io"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogWriter returns a rotating writer for Log.File, or nil when file
// logging is off. The caller closes it.
func (l Log) LogWriter() io.WriteCloser {
	if strings.TrimSpace(l.File) == "" {
		return nil
	}
	return &lumberjack.Logger{
		Filename:   l.File,
		MaxSize:    l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
		MaxAge:     l.MaxAgeDays,
		Compress:   l.Compress,
	}
}
