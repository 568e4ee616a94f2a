package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"

	"github.com/bitfsorg/libord-go/market"
	"github.com/bitfsorg/libord-go/network"
	"github.com/bitfsorg/libord-go/tx"
)

// logWriter writes log lines to stderr and, once the rotator is running,
// to the log file.
type logWriter struct {
	rotatorPipe *io.PipeWriter
}

func (w *logWriter) Write(b []byte) (int, error) {
	os.Stderr.Write(b)
	if w.rotatorPipe != nil {
		w.rotatorPipe.Write(b)
	}
	return len(b), nil
}

var (
	logOut     = &logWriter{}
	backendLog = btclog.NewBackend(logOut)
	logRotator *rotator.Rotator

	log     = backendLog.Logger("ORDC")
	mrktLog = backendLog.Logger("MRKT")
	netwLog = backendLog.Logger("NETW")
	txbdLog = backendLog.Logger("TXBD")
)

func init() {
	market.UseLogger(mrktLog)
	network.UseLogger(netwLog)
	tx.UseLogger(txbdLog)
}

var subsystemLoggers = map[string]btclog.Logger{
	"ORDC": log,
	"MRKT": mrktLog,
	"NETW": netwLog,
	"TXBD": txbdLog,
}

// Rotation keeps three 10 MiB files.
const (
	maxLogFileSizeKB = 10 * 1024
	maxLogFiles      = 3
)

// initLogRotator starts writing logs to logFile as well as stderr.
func initLogRotator(logFile string) error {
	logDir, _ := filepath.Split(logFile)
	if logDir != "" {
		if err := os.MkdirAll(logDir, 0700); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	r, err := rotator.New(logFile, maxLogFileSizeKB, false, maxLogFiles)
	if err != nil {
		return fmt.Errorf("failed to create file rotator: %w", err)
	}

	pr, pw := io.Pipe()
	go r.Run(pr)

	logOut.rotatorPipe = pw
	logRotator = r
	return nil
}

func closeLogRotator() {
	if logRotator != nil {
		logRotator.Close()
	}
}

// setLogLevels sets every subsystem to logLevel. Unknown levels fall back
// to info.
func setLogLevels(logLevel string) {
	level, ok := btclog.LevelFromString(logLevel)
	if !ok {
		level = btclog.LevelInfo
	}
	for _, logger := range subsystemLoggers {
		logger.SetLevel(level)
	}
}
