package executor

import (
	"fmt"
	"strings"
)

// UnknownAPIError reports an api name that is not in the catalog,
// with fuzzy suggestions so the caller can self-correct.
type UnknownAPIError struct {
	Name        string
	Suggestions []string
}

func (e *UnknownAPIError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("unknown Tushare api %q", e.Name)
	}
	return fmt.Sprintf("unknown Tushare api %q, did you mean: %s",
		e.Name, strings.Join(e.Suggestions, ", "))
}

// MissingParameterError reports required parameters absent from a call.
// Missing is sorted, so the message is deterministic.
type MissingParameterError struct {
	API     string
	Missing []string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("api %q requires missing parameter(s): %s",
		e.API, strings.Join(e.Missing, ", "))
}

// UpstreamError wraps a failure raised by the upstream call itself,
// so implementation detail never propagates raw to the agent.
type UpstreamError struct {
	API string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream call %q failed: %v", e.API, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
