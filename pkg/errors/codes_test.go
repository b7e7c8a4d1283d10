package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCodeRegistry_Completeness(t *testing.T) {
	allCodes := []ErrorCode{
		CodeMissingSection,
		CodeFormat,
		CodeMalformedRow,
		CodeInvalidConfig,
		CodeIO,
		CodeSink,
		CodeCancelled,
		CodeUnknown,
	}

	for _, code := range allCodes {
		t.Run(string(code), func(t *testing.T) {
			info, ok := ErrorCodeRegistry[code]
			assert.True(t, ok, "ErrorCode %s should be in registry", code)
			assert.Equal(t, code, info.Code, "Registry entry should have matching code")
			assert.NotEmpty(t, info.Description, "Description should not be empty")
			assert.NotEmpty(t, info.SuggestedAction, "SuggestedAction should not be empty")
		})
	}
}

func TestGetSuggestedAction_Unknown(t *testing.T) {
	assert.Equal(t, "Re-run with --debug for more detail", GetSuggestedAction(ErrorCode("nope")))
	assert.Equal(t, "Unknown error", GetDescription(ErrorCode("nope")))
}

func TestGetDescription_Known(t *testing.T) {
	assert.Contains(t, GetDescription(CodeFormat), "datetime pattern")
}
