package errors

import (
	"net/http"
)

// ErrorCode is a string representation of a specific error condition.
// Codes are grouped by module prefix: COMMON, REG (registry lookups),
// ING (CSV ingestion), ENR (chemical enrichment), STO (storage).
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes shared by all modules.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_005"
	ErrCodeTimeout            ErrorCode = "COMMON_006"
	ErrCodeValidation         ErrorCode = "COMMON_007"
	ErrCodeSerialization      ErrorCode = "COMMON_008"
	ErrCodeCacheError         ErrorCode = "COMMON_009"
	ErrCodeExternalService    ErrorCode = "COMMON_010"
	ErrCodeNotImplemented     ErrorCode = "COMMON_011"
)

// Sentinel codes that never appear inside a constructed AppError but are
// returned by GetCode for the nil and foreign-error cases.
const (
	ErrCodeOK      ErrorCode = "OK"
	ErrCodeUnknown ErrorCode = "UNKNOWN"
)

// Registry module error codes. These cover lookups against the in-memory
// index across the FCA, CAS, CID, and Chinese-name key spaces.
const (
	ErrCodeRecordNotFound ErrorCode = "REG_001"
	ErrCodeKeyNotFound    ErrorCode = "REG_002"
	ErrCodeCIDNotFound    ErrorCode = "REG_003"
	ErrCodeRangeEmpty     ErrorCode = "REG_004"
	ErrCodeIndexMissing   ErrorCode = "REG_005"
)

// Ingestion module error codes, raised while parsing the GB 9685-2016
// appendix A source table.
const (
	ErrCodeSourceUnreadable ErrorCode = "ING_001"
	ErrCodeRowSkipped       ErrorCode = "ING_002"
	ErrCodeRefreshFailed    ErrorCode = "ING_003"
)

// Enrichment module error codes, raised while resolving CAS registry
// numbers against the external compound database.
const (
	ErrCodeChemicalNotFound      ErrorCode = "ENR_001"
	ErrCodeEnrichmentUnavailable ErrorCode = "ENR_002"
	ErrCodeEnrichmentResponse    ErrorCode = "ENR_003"
)

// Storage module error codes, raised by the record and index stores.
const (
	ErrCodeObjectNotFound  ErrorCode = "STO_001"
	ErrCodeStorageIO       ErrorCode = "STO_002"
	ErrCodeCorruptDocument ErrorCode = "STO_003"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeRecordNotFound: http.StatusNotFound,
	ErrCodeKeyNotFound:    http.StatusNotFound,
	ErrCodeCIDNotFound:    http.StatusNotFound,
	ErrCodeRangeEmpty:     http.StatusNotFound,
	ErrCodeIndexMissing:   http.StatusServiceUnavailable,

	ErrCodeSourceUnreadable: http.StatusInternalServerError,
	ErrCodeRowSkipped:       http.StatusInternalServerError,
	ErrCodeRefreshFailed:    http.StatusInternalServerError,

	ErrCodeChemicalNotFound:      http.StatusNotFound,
	ErrCodeEnrichmentUnavailable: http.StatusBadGateway,
	ErrCodeEnrichmentResponse:    http.StatusBadGateway,

	ErrCodeObjectNotFound:  http.StatusNotFound,
	ErrCodeStorageIO:       http.StatusInternalServerError,
	ErrCodeCorruptDocument: http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeRecordNotFound: "substance record not found",
	ErrCodeKeyNotFound:    "lookup key not found",
	ErrCodeCIDNotFound:    "compound identifier not found",
	ErrCodeRangeEmpty:     "no records in requested range",
	ErrCodeIndexMissing:   "registry index not built",

	ErrCodeSourceUnreadable: "source table unreadable",
	ErrCodeRowSkipped:       "row skipped during ingestion",
	ErrCodeRefreshFailed:    "registry refresh failed",

	ErrCodeChemicalNotFound:      "chemical not found in compound database",
	ErrCodeEnrichmentUnavailable: "compound database unavailable",
	ErrCodeEnrichmentResponse:    "unexpected response from compound database",

	ErrCodeObjectNotFound:  "stored object not found",
	ErrCodeStorageIO:       "storage read/write failed",
	ErrCodeCorruptDocument: "stored document is corrupt",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}
