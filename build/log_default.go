//go:build !stdlog && !nolog

package build

// LoggingType is a log type that writes to both stderr and the log rotator,
// if present.
const LoggingType = LogTypeDefault

// Write writes the byte slice to both stderr and the log rotator, if
// present.
func (w *LogWriter) Write(b []byte) (int, error) {
	writeStderr(b)
	if w.RotatorPipe != nil {
		_, _ = w.RotatorPipe.Write(b)
	}

	return len(b), nil
}
