// Package errors provides the standardized error taxonomy of the job pipeline
// and its conversion to BPMN errors for the workflow-engine trigger.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidInput             ErrorCode = "INVALID_INPUT"
	ErrCodeDuplicateJob             ErrorCode = "DUPLICATE_JOB"
	ErrCodeTransientNetwork         ErrorCode = "TRANSIENT_NETWORK_ERROR"
	ErrCodePartialItemFailure       ErrorCode = "PARTIAL_ITEM_FAILURE"
	ErrCodeRemoteComputeUnavailable ErrorCode = "REMOTE_COMPUTE_UNAVAILABLE"
	ErrCodePersistence              ErrorCode = "PERSISTENCE_ERROR"
	ErrCodeStageService             ErrorCode = "STAGE_SERVICE_ERROR"
	ErrCodeStageResponseInvalid     ErrorCode = "STAGE_RESPONSE_INVALID"
	ErrCodeLeaseHeld                ErrorCode = "LEASE_HELD"
	ErrCodeTextGenerationFailed     ErrorCode = "TEXT_GENERATION_FAILED"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches another StandardError by code, so errors.Is(err, &StandardError{Code: X}) works.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message string, retryable bool, cause error, details string) *StandardError {
	if details == "" && cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewInvalidInputError is raised before any side effect takes place.
func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid input", false, nil, details)
}

// NewDuplicateJobError is informational: the posting was already ingested.
func NewDuplicateJobError(existingID string) *StandardError {
	return newError(ErrCodeDuplicateJob, "Job already ingested", false, nil, fmt.Sprintf("existingId: %s", existingID))
}

// NewTransientNetworkError wraps an unreachable stage service or remote node.
func NewTransientNetworkError(target string, err error) *StandardError {
	e := newError(ErrCodeTransientNetwork, "Network call failed", true, err, "")
	e.Metadata = map[string]interface{}{"target": target}
	return e
}

// NewPartialItemFailure records a single job id failing inside a stage.
func NewPartialItemFailure(jobID string, err error) *StandardError {
	e := newError(ErrCodePartialItemFailure, "Job item failed", false, err, "")
	e.Metadata = map[string]interface{}{"jobId": jobID}
	return e
}

// NewRemoteComputeUnavailableError signals a whole-stage skip.
func NewRemoteComputeUnavailableError(details string) *StandardError {
	return newError(ErrCodeRemoteComputeUnavailable, "Remote compute node unavailable", false, nil, details)
}

// NewPersistenceError wraps a failed database write or read.
func NewPersistenceError(operation string, err error) *StandardError {
	e := newError(ErrCodePersistence, "Persistence operation failed", true, err, "")
	e.Metadata = map[string]interface{}{"operation": operation}
	return e
}

// NewStageServiceError wraps a non-2xx response from a stage service.
func NewStageServiceError(stage string, statusCode int, body string) *StandardError {
	e := newError(ErrCodeStageService, "Stage service returned an error", statusCode >= 500, nil,
		fmt.Sprintf("stage: %s, status: %d, body: %s", stage, statusCode, truncate(body, 256)))
	e.Metadata = map[string]interface{}{"stage": stage, "statusCode": statusCode}
	return e
}

// NewStageResponseInvalidError is returned when a response breaks the stage contract.
func NewStageResponseInvalidError(stage, details string) *StandardError {
	e := newError(ErrCodeStageResponseInvalid, "Stage response violates contract", false, nil, details)
	e.Metadata = map[string]interface{}{"stage": stage}
	return e
}

// NewLeaseHeldError means another stage invocation currently owns the job record.
func NewLeaseHeldError(jobID string) *StandardError {
	return newError(ErrCodeLeaseHeld, "Job record is leased by another invocation", true, nil, fmt.Sprintf("jobId: %s", jobID))
}

// NewTextGenerationFailedError wraps a failing text generation backend.
func NewTextGenerationFailedError(backend string, err error) *StandardError {
	e := newError(ErrCodeTextGenerationFailed, "Text generation failed", true, err, "")
	e.Metadata = map[string]interface{}{"backend": backend}
	return e
}

// NewInternalError wraps anything that does not fit the taxonomy.
func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", false, err, "")
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended retry count for the scheduling trigger.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeTransientNetwork,
		ErrCodePersistence:
		return 3
	case ErrCodeStageService,
		ErrCodeTextGenerationFailed,
		ErrCodeLeaseHeld:
		return 1
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError for the workflow engine.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandard finds a StandardError in err's chain, wrapping anything else as INTERNAL_ERROR.
func AsStandard(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// CodeOf returns the code of the first StandardError in err's chain.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	return stderrors.Is(err, &StandardError{Code: code})
}

// IsRetryable reports whether the scheduler should re-run the batch for err.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return false
}

// GetErrorCategory groups codes for dashboards and log queries.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "INPUT") || strings.Contains(codeStr, "DUPLICATE"):
		return "INGEST"
	case strings.Contains(codeStr, "NETWORK") || strings.Contains(codeStr, "REMOTE"):
		return "NETWORK"
	case strings.Contains(codeStr, "STAGE"):
		return "STAGE"
	case strings.Contains(codeStr, "PERSISTENCE") || strings.Contains(codeStr, "LEASE"):
		return "STORAGE"
	case strings.Contains(codeStr, "GENERATION"):
		return "AI"
	default:
		return "OTHER"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
