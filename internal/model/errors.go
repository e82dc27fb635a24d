package model

import "errors"

var (
	errFailedWithoutErrors = errors.New("failed status requires at least one error detail")
	errNonFailedWithErrors = errors.New("non-failed status must not carry error details")
	errErrorWebhookEmpty   = errors.New("error webhook requires at least one error detail")

	errUnknownDeliveryStatus = errors.New("unknown delivery status")
)

// retryableCodes are transient platform error codes (rate limiting and
// upstream 5xx-mapped faults).
var retryableCodes = map[int]struct{}{
	429: {},
	500: {},
	502: {},
	503: {},
	504: {},
}

// ErrorDetail is one platform error, either attached to a failed status or
// carried by an error webhook.
type ErrorDetail struct {
	Code             int
	Title            string
	Message          string
	Details          string
	DocumentationURL string
	Retryable        bool
}

// NewErrorDetail builds an ErrorDetail and derives Retryable from the code.
func NewErrorDetail(code int, title, message string) ErrorDetail {
	_, retryable := retryableCodes[code]
	return ErrorDetail{
		Code:      code,
		Title:     title,
		Message:   message,
		Retryable: retryable,
	}
}
