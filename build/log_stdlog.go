//go:build stdlog

package build

// LoggingType is a log type that echoes to the terminal and never touches
// the log file.
const LoggingType = LogTypeStderr

// Write echoes the log line on stderr and drops it from the rotator.
func (w *LogWriter) Write(b []byte) (int, error) {
	writeStderr(b)
	return len(b), nil
}
