package entity

import "errors"

// Domain errors for review sessions.
var (
	ErrEmptySession     = errors.New("session requires at least one review item")
	ErrInvalidOperation = errors.New("operation not allowed in current session state")
	ErrEmptyAnswer      = errors.New("answer must not be blank")
	ErrInvalidRating    = errors.New("invalid rating")
	ErrInvalidMode      = errors.New("invalid session mode")
	ErrSessionNotFound  = errors.New("session not found")
)

// Domain errors for decks and cards.
var (
	ErrDeckNotFound      = errors.New("deck not found")
	ErrInvalidDeckTitle  = errors.New("invalid deck title")
	ErrCardNotFound      = errors.New("card not found")
	ErrInvalidCardPrompt = errors.New("invalid card prompt")
	ErrInvalidCardAnswer = errors.New("invalid card answer")
	ErrInvalidStrategy   = errors.New("invalid generation strategy")
	ErrNoSourceDocument  = errors.New("deck has no source document")
)

// Domain errors for documents and summaries.
var (
	ErrDocumentNotFound      = errors.New("document not found")
	ErrInvalidDocumentTitle  = errors.New("invalid document title")
	ErrInvalidDocumentSource = errors.New("invalid document source")
	ErrEmptyDocument         = errors.New("document has no text content")
	ErrSummaryNotFound       = errors.New("summary not available")
	ErrStatusNotFound        = errors.New("processing status not found")
)

// Domain errors for users and access control.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateUser      = errors.New("user already exists")
	ErrInvalidUserSubject = errors.New("invalid user subject")
	ErrAccessDenied       = errors.New("access denied")
)
