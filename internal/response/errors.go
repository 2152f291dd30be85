package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrAdminAccessOnly   ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Attempts ──────────────────────────────────────────────────────
	ErrExamUnavailable      ErrCode = "EXAM_UNAVAILABLE"
	ErrAttemptNotFound      ErrCode = "ATTEMPT_NOT_FOUND"
	ErrAttemptFinished      ErrCode = "ATTEMPT_FINISHED"
	ErrSubmitInFlight       ErrCode = "SUBMIT_IN_FLIGHT"
	ErrSubmissionRejected   ErrCode = "SUBMISSION_REJECTED"
	ErrSubmissionFailed     ErrCode = "SUBMISSION_FAILED"
	ErrUnknownQuestion      ErrCode = "UNKNOWN_QUESTION"
	ErrUnknownOption        ErrCode = "UNKNOWN_OPTION"

	// ─── Media ─────────────────────────────────────────────────────────
	ErrFileRequired ErrCode = "FILE_REQUIRED"

	// ─── Upstream / server ─────────────────────────────────────────────
	ErrUpstreamUnavailable ErrCode = "UPSTREAM_UNAVAILABLE"
	ErrRateLimitExceeded   ErrCode = "RATE_LIMIT_EXCEEDED"
	ErrInternal            ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrInvalidCredentials:
		return "Email or password is incorrect."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid or expired."
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrStudentAccessOnly:
		return "This resource is restricted to students."
	case ErrAdminAccessOnly:
		return "This resource is restricted to administrators."
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "The identifier format is invalid."
	case ErrInvalidPayload:
		return "The request payload is invalid."
	case ErrNotFound:
		return "The requested resource was not found."
	case ErrExamUnavailable:
		return "The exam could not be loaded."
	case ErrAttemptNotFound:
		return "No such exam attempt. It may have expired or been abandoned."
	case ErrAttemptFinished:
		return "This exam attempt has already finished."
	case ErrSubmitInFlight:
		return "A submission is already in progress for this attempt."
	case ErrSubmissionRejected:
		return "The exam server rejected the submission."
	case ErrSubmissionFailed:
		return "The submission could not be delivered. Your answers are retained — try again."
	case ErrUnknownQuestion:
		return "The question does not exist in this exam."
	case ErrUnknownOption:
		return "The option does not belong to this question."
	case ErrFileRequired:
		return "A file upload is required."
	case ErrUpstreamUnavailable:
		return "The exam server is temporarily unavailable."
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
