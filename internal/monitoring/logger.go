// Package monitoring holds the process-wide diagnostic logging hooks used by
// the pipeline, storage and CLI layers. Numerical stages never log.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger or UseZap. Tests can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// Warnf reports quality warnings: invalid estimates, extrapolation outside
// the calibration range, empty DSA windows. By default it goes through Logf.
var Warnf func(format string, v ...interface{}) = defaultWarnf

func defaultWarnf(format string, v ...interface{}) {
	Logf("warning: "+format, v...)
}

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
// Warnf is reset to route through the new logger.
func SetLogger(f func(format string, v ...interface{})) {
	Warnf = defaultWarnf
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
