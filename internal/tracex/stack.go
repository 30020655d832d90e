package internaltracex

import (
	"fmt"
	"runtime"
	"strings"
)

const maxStackTraceLength = 1024

// GetStackTrace returns the stack trace of the caller.
// skipLevels is handed to runtime.Callers, i.e. GetStackTrace(2) starts at the
// function calling GetStackTrace.
func GetStackTrace(skipLevels int) string {
	pc := make([]uintptr, 10)
	n := runtime.Callers(skipLevels, pc)
	frames := runtime.CallersFrames(pc[:n])

	sb := &strings.Builder{}
	for {
		frame, more := frames.Next()
		fmt.Fprintf(sb, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		if !more || sb.Len() > maxStackTraceLength {
			break
		}
	}

	return sb.String()
}
