package misc

import (
	"github.com/BrugadaSyndrome/bslogger"
	"go.uber.org/multierr"
)

const (
	Fatal Severity = iota
	Error
	Warning
	Info
	Debug
)

type Severity int

func (s Severity) String() string {
	if s < Fatal || s > Debug {
		return "Unknown"
	}
	return []string{
		"Fatal", "Error", "Warning", "Info", "Debug",
	}[s]
}

// CheckError logs err at the given severity and reports whether there was an error to log.
// Unknown severities are treated as Fatal.
func CheckError(err error, logger bslogger.Logger, severity Severity) bool {
	if err == nil {
		return false
	}
	switch severity {
	case Fatal:
		logger.Fatal(err.Error())
	case Error:
		logger.Error(err.Error())
	case Warning:
		logger.Warning(err.Error())
	case Info:
		logger.Info(err.Error())
	case Debug:
		logger.Debug(err.Error())
	default:
		logger.Fatal(err.Error())
	}
	return true
}

// CheckErrors combines errs and logs each of them at the given severity. The combined error is returned.
func CheckErrors(logger bslogger.Logger, severity Severity, errs ...error) error {
	combined := multierr.Combine(errs...)
	for _, err := range multierr.Errors(combined) {
		CheckError(err, logger, severity)
	}
	return combined
}
