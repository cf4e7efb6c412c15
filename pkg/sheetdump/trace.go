package sheetdump

import (
	"github.com/pkg/errors"
)

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// StackTrace returns the outermost stack trace recorded in err's chain,
// or nil when none was recorded.
func StackTrace(err error) errors.StackTrace {
	for err != nil {
		if st, ok := err.(stackTracer); ok {
			return st.StackTrace()
		}
		err = errors.Unwrap(err)
	}
	return nil
}
