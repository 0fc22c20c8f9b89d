package misc

import (
	"os"
	"sync"

	"github.com/BrugadaSyndrome/bslogger"
)

var (
	loggerMutex sync.Mutex
	logFile     *os.File
	verbose     bool
)

// SetVerbose switches every logger created afterwards to debug output.
func SetVerbose(v bool) {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()
	verbose = v
}

// SetLogFile mirrors every logger created afterwards into file. Passing nil stops mirroring.
func SetLogFile(file *os.File) {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()
	logFile = file
}

// NewLogger returns a named logger. Loggers are not safe for concurrent use so each goroutine that logs should own one.
func NewLogger(name string) bslogger.Logger {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()
	if verbose {
		return bslogger.NewLogger(name, bslogger.All, logFile)
	}
	return bslogger.NewLogger(name, bslogger.Normal, logFile)
}
