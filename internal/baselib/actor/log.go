package actor

import (
	btclog "github.com/btcsuite/btclog/v2"
)

// Subsystem is the logging subsystem tag for the actor runtime.
const Subsystem = "ACTR"

// log is a logger that is initialized with no output filters. This means the
// package will not perform any logging by default until a logger is set by
// the caller.
var log btclog.Logger = btclog.Disabled

// DisableLog disables all library log output. Logging output is disabled by
// default until UseLogger is called.
func DisableLog() {
	UseLogger(btclog.Disabled)
}

// UseLogger uses a specified Logger to output package logging info.
func UseLogger(logger btclog.Logger) {
	log = logger
}
