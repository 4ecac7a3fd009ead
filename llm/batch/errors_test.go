package batch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BaSui01/capflow/types"
)

func nestedLine(msg string) OutputLine {
	return OutputLine{Response: &Response{Body: &ResponseBody{Error: &ErrorObject{Message: msg}}}}
}

func topLevelLine(msg string) OutputLine {
	return OutputLine{Error: &ErrorObject{Message: msg}}
}

func TestExtractBatchErrorMessage_FirstLineWins(t *testing.T) {
	msg := ExtractBatchErrorMessage([]OutputLine{
		nestedLine("nested"),
		topLevelLine("top-level"),
	})
	assert.Equal(t, "nested", msg)
}

func TestExtractBatchErrorMessage_NestedFallback(t *testing.T) {
	msg := ExtractBatchErrorMessage([]OutputLine{nestedLine("nested-only"), {}})
	assert.Equal(t, "nested-only", msg)
}

func TestExtractBatchErrorMessage_TopLevelPreferredWithinLine(t *testing.T) {
	line := nestedLine("nested")
	line.Error = &ErrorObject{Message: "flat"}

	assert.Equal(t, "flat", ExtractBatchErrorMessage([]OutputLine{line}))
}

func TestExtractBatchErrorMessage_SkipsEmptyLines(t *testing.T) {
	msg := ExtractBatchErrorMessage([]OutputLine{
		{},
		{Response: &Response{StatusCode: 200}},
		topLevelLine("late"),
	})
	assert.Equal(t, "late", msg)
}

func TestExtractBatchErrorMessage_None(t *testing.T) {
	assert.Equal(t, "", ExtractBatchErrorMessage(nil))
	assert.Equal(t, "", ExtractBatchErrorMessage([]OutputLine{{}, {}}))
}

func TestFormatUnavailableBatchError(t *testing.T) {
	assert.Equal(t, "error file unavailable: boom", FormatUnavailableBatchError(errors.New("boom")))
	assert.Equal(t, "error file unavailable: unreachable", FormatUnavailableBatchError("unreachable"))
	assert.Equal(t, "error file unavailable: 42", FormatUnavailableBatchError(42))
	assert.Equal(t, "error file unavailable: unknown error", FormatUnavailableBatchError(nil))
}

func TestFromError(t *testing.T) {
	t.Run("plain error", func(t *testing.T) {
		line := FromError(errors.New("dial tcp: refused"))
		assert.Equal(t, "dial tcp: refused", ExtractBatchErrorMessage([]OutputLine{line}))
	})

	t.Run("provider error with upstream body only", func(t *testing.T) {
		pe := &types.ProviderError{
			Provider: "openai",
			Kind:     types.ProviderErrQuota,
			Upstream: &types.UpstreamResponse{
				StatusCode: 402,
				Body:       &types.UpstreamErrorBody{Error: &types.UpstreamErrorDetail{Message: "insufficient quota"}},
			},
		}
		line := FromError(pe)
		assert.Nil(t, line.Error)
		assert.Equal(t, "insufficient quota", ExtractBatchErrorMessage([]OutputLine{line}))
		assert.Equal(t, 402, line.Response.StatusCode)
	})

	t.Run("provider error flat message wins", func(t *testing.T) {
		pe := &types.ProviderError{
			Provider: "openai",
			Kind:     types.ProviderErrUpstream,
			Message:  "status 500",
			Upstream: &types.UpstreamResponse{
				StatusCode: 500,
				Body:       &types.UpstreamErrorBody{Error: &types.UpstreamErrorDetail{Message: "server exploded"}},
			},
		}
		assert.Equal(t, "status 500", ExtractBatchErrorMessage([]OutputLine{FromError(pe)}))
	})

	t.Run("nil", func(t *testing.T) {
		assert.Equal(t, OutputLine{}, FromError(nil))
	})
}
