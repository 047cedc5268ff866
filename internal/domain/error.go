package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid executor context")
	ErrRateLimited        = errors.New("too many requests")

	// Subscription and billing errors
	ErrNoSubscription     = errors.New("tenant has no subscription")
	ErrMissingTransaction = errors.New("billing event has no transaction reference")
	ErrStaleBillingEvent  = errors.New("billing event is older than current state")

	// Entitlement errors
	ErrEntitlementDenied = errors.New("plan does not include this feature")
	ErrQuotaExceeded     = errors.New("plan resource quota exceeded")

	// Quiz and grading errors
	ErrEmptyQuiz           = errors.New("quiz has no questions")
	ErrQuizNotPublished    = errors.New("quiz is not published")
	ErrMalformedSubmission = errors.New("submission does not match the quiz")
	ErrDuplicateSubmission = errors.New("student already attempted this quiz")
)
