// internal/common/errors/errors_test.go
package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors_Retryability(t *testing.T) {
	cause := stderrors.New("connection refused")

	tests := []struct {
		name      string
		err       *StandardError
		code      ErrorCode
		retryable bool
	}{
		{"invalid input", NewInvalidInputError("ftp://x"), ErrCodeInvalidInput, false},
		{"duplicate", NewDuplicateJobError("job-1"), ErrCodeDuplicateJob, false},
		{"transient", NewTransientNetworkError("cosine", cause), ErrCodeTransientNetwork, true},
		{"partial", NewPartialItemFailure("job-2", cause), ErrCodePartialItemFailure, false},
		{"remote", NewRemoteComputeUnavailableError("no probe"), ErrCodeRemoteComputeUnavailable, false},
		{"persistence", NewPersistenceError("update", cause), ErrCodePersistence, true},
		{"stage 5xx", NewStageServiceError("generate", 502, "bad gateway"), ErrCodeStageService, true},
		{"stage 4xx", NewStageServiceError("generate", 400, "bad request"), ErrCodeStageService, false},
		{"response invalid", NewStageResponseInvalidError("match", "missing results"), ErrCodeStageResponseInvalid, false},
		{"lease", NewLeaseHeldError("job-3"), ErrCodeLeaseHeld, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.retryable, tt.err.Retryable)
			assert.False(t, tt.err.Timestamp.IsZero())
			assert.Contains(t, tt.err.Error(), string(tt.code))
		})
	}
}

func TestStandardError_UnwrapAndIs(t *testing.T) {
	cause := stderrors.New("deadline exceeded")
	err := fmt.Errorf("cosine stage: %w", NewTransientNetworkError("cosine", cause))

	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, HasCode(err, ErrCodeTransientNetwork))
	assert.False(t, HasCode(err, ErrCodePersistence))
	assert.Equal(t, ErrCodeTransientNetwork, CodeOf(err))
	assert.True(t, IsRetryable(err))
}

func TestAsStandard(t *testing.T) {
	assert.Nil(t, AsStandard(nil))

	plain := AsStandard(stderrors.New("boom"))
	require.NotNil(t, plain)
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "boom", plain.Details)

	wrapped := AsStandard(fmt.Errorf("x: %w", NewInvalidInputError("bad url")))
	assert.Equal(t, ErrCodeInvalidInput, wrapped.Code)
}

func TestCodeOf_NonStandard(t *testing.T) {
	assert.Equal(t, ErrorCode(""), CodeOf(stderrors.New("plain")))
	assert.False(t, IsRetryable(stderrors.New("plain")))
}

func TestConvertToBPMNError(t *testing.T) {
	bpmn := ConvertToBPMNError(NewTransientNetworkError("reasoning", stderrors.New("unreachable")))
	assert.Equal(t, "TRANSIENT_NETWORK_ERROR", bpmn.Code)
	assert.Equal(t, 3, bpmn.Retries)
	assert.True(t, bpmn.Retryable)

	vars := bpmn.ToErrorVariables()
	assert.Equal(t, "TRANSIENT_NETWORK_ERROR", vars["errorCode"])
	assert.Equal(t, "TRANSIENT_NETWORK_ERROR", vars["originalErrorCode"])
	assert.NotEmpty(t, vars["timestamp"])

	nonRetryable := ConvertToBPMNError(NewInvalidInputError("x"))
	assert.Equal(t, 0, nonRetryable.Retries)
}

func TestGetRetryCount(t *testing.T) {
	assert.Equal(t, 3, GetRetryCount(ErrCodePersistence))
	assert.Equal(t, 1, GetRetryCount(ErrCodeStageService))
	assert.Equal(t, 0, GetRetryCount(ErrCodeDuplicateJob))
	assert.Equal(t, 0, GetRetryCount(ErrCodeRemoteComputeUnavailable))
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "INGEST", GetErrorCategory(ErrCodeInvalidInput))
	assert.Equal(t, "INGEST", GetErrorCategory(ErrCodeDuplicateJob))
	assert.Equal(t, "NETWORK", GetErrorCategory(ErrCodeTransientNetwork))
	assert.Equal(t, "NETWORK", GetErrorCategory(ErrCodeRemoteComputeUnavailable))
	assert.Equal(t, "STAGE", GetErrorCategory(ErrCodeStageResponseInvalid))
	assert.Equal(t, "STORAGE", GetErrorCategory(ErrCodeLeaseHeld))
	assert.Equal(t, "AI", GetErrorCategory(ErrCodeTextGenerationFailed))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}
