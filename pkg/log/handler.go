package log

import (
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// appendError attaches err and, when cockroachdb/errors recorded one, the
// stack trace captured at the point the error was created.
func appendError(ev *zerolog.Event, err error) *zerolog.Event {
	ev = ev.AnErr(ErrAttrKey, err)
	if stacktrace := extractStacktrace(err); stacktrace != "" {
		ev = ev.Str(StacktraceAttrKey, stacktrace)
	}
	if m, ok := err.(zerolog.LogObjectMarshaler); ok {
		ev = ev.Object("details", m)
	}
	return ev
}

func extractStacktrace(err error) string {
	if err == nil {
		return ""
	}
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}
