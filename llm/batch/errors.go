package batch

import (
	"errors"
	"fmt"

	"github.com/BaSui01/capflow/types"
)

// UnavailablePrefix prefixes diagnostics for error payloads that could not be read.
const UnavailablePrefix = "error file unavailable: "

// ErrorObject is the {"message": ...} object found in batch output lines.
type ErrorObject struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// ResponseBody is the body of a per-line response.
type ResponseBody struct {
	Error *ErrorObject `json:"error,omitempty"`
}

// Response is the per-line response envelope.
type Response struct {
	StatusCode int           `json:"status_code,omitempty"`
	Body       *ResponseBody `json:"body,omitempty"`
}

// OutputLine is one entry of a batch output: either a top-level error, a
// response whose body carries an error, both, or neither.
type OutputLine struct {
	CustomID string       `json:"custom_id,omitempty"`
	Error    *ErrorObject `json:"error,omitempty"`
	Response *Response    `json:"response,omitempty"`
}

func (l OutputLine) topLevelMessage() string {
	if l.Error == nil {
		return ""
	}
	return l.Error.Message
}

func (l OutputLine) nestedMessage() string {
	if l.Response == nil || l.Response.Body == nil || l.Response.Body.Error == nil {
		return ""
	}
	return l.Response.Body.Error.Message
}

// ExtractBatchErrorMessage returns the message of the first line that carries
// any error. The line's top-level message wins over its nested response
// message; list order decides which line is picked. Returns "" when no line
// carries an error.
func ExtractBatchErrorMessage(lines []OutputLine) string {
	for _, line := range lines {
		if msg := line.topLevelMessage(); msg != "" {
			return msg
		}
		if msg := line.nestedMessage(); msg != "" {
			return msg
		}
	}
	return ""
}

// FormatUnavailableBatchError renders a value that stood in for an error
// payload (a read error, a non-error panic value) as a fixed-prefix diagnostic.
func FormatUnavailableBatchError(v any) string {
	var msg string
	switch val := v.(type) {
	case nil:
		msg = "unknown error"
	case error:
		msg = val.Error()
	case string:
		msg = val
	default:
		msg = fmt.Sprint(val)
	}
	return UnavailablePrefix + msg
}

// FromError converts an invocation failure into an OutputLine so that it can
// take part in ExtractBatchErrorMessage. ProviderErrors keep their flat
// message and upstream body separate; other errors become top-level messages.
func FromError(err error) OutputLine {
	if err == nil {
		return OutputLine{}
	}
	var pe *types.ProviderError
	if !errors.As(err, &pe) {
		return OutputLine{Error: &ErrorObject{Message: err.Error()}}
	}

	line := OutputLine{CustomID: pe.Provider}
	if pe.Message != "" {
		line.Error = &ErrorObject{Code: string(pe.Kind), Message: pe.Message}
	}
	if pe.Upstream != nil {
		line.Response = &Response{StatusCode: pe.Upstream.StatusCode}
		if nested := pe.UpstreamMessage(); nested != "" {
			line.Response.Body = &ResponseBody{Error: &ErrorObject{Message: nested}}
		}
	}
	if line.Error == nil && line.Response == nil && pe.Cause != nil {
		line.Error = &ErrorObject{Code: string(pe.Kind), Message: pe.Cause.Error()}
	}
	return line
}
