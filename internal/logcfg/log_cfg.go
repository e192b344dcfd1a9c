// Package logcfg builds the application logger: logrus with caller info,
// written to stdout and to a rotating file.
package logcfg

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
)

// NewLogger configures a logrus logger with the given level, a short caller
// format and a copy of every line in fileName rotated by lumberjack.
// An empty fileName logs to stdout only.
func NewLogger(level, fileName string) (*logrus.Logger, error) {
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	logger := logrus.New()
	logger.SetLevel(logLevel)
	logger.SetReportCaller(true)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:    true,
		CallerPrettyfier: callerPrettyfier,
	})

	if fileName == "" {
		logger.SetOutput(os.Stdout)
		return logger, nil
	}
	logger.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   fileName,
		MaxSize:    50, // megabytes
		MaxBackups: 3,
		MaxAge:     30, // days
	}))
	return logger, nil
}

// callerPrettyfier prints the caller as file.line.function.
func callerPrettyfier(f *runtime.Frame) (string, string) {
	_, filename := path.Split(f.File)
	return "", fmt.Sprintf("%s.%d.%s", filename, f.Line, path.Base(f.Function))
}
