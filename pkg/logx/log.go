package logx

import (
	"errors"
	"log"
	"os"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process-wide logger. It defaults to a no-op so packages and
// tests can log without any initialization.
var Logger = zap.NewNop().Sugar()

// NewLogger replaces Logger with a console logger teed into the given file.
// The file is recreated on every start, matching the behavior of the log
// sink this server inherited. An empty path keeps console-only output; an
// unparsable level falls back to info.
func NewLogger(path, level string) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), lvl),
	}

	if path != "" {
		file, err := os.Create(path)
		if err != nil {
			log.Fatalf(`level=error msg="%s" desc="%s"`, err.Error(), "could not create log file")
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(file), lvl))
	}

	Logger = zap.New(zapcore.NewTee(cores...), zap.AddCaller()).Sugar()
}

// Sync flushes buffered entries, typically deferred from main.
func Sync() {
	err := Logger.Sync()
	if errors.Is(err, syscall.EINVAL) {
		// https://github.com/uber-go/zap/issues/328
		return
	}
	if err != nil {
		log.Printf(`level=error msg="%s" desc="%s"`, err.Error(), "could not sync (flush) logger")
	}
}
