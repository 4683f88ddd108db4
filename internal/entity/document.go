package entity

import (
	"net/url"
	"strings"
	"time"
)

// SourceKind identifies how a document's text is obtained.
type SourceKind string

const (
	SourceText     SourceKind = "text"
	SourceMarkdown SourceKind = "markdown"
	SourceURL      SourceKind = "url"
)

// ParseSourceKind converts an arbitrary string into a supported SourceKind.
func ParseSourceKind(kind string) (SourceKind, error) {
	switch SourceKind(strings.ToLower(strings.TrimSpace(kind))) {
	case SourceText:
		return SourceText, nil
	case SourceMarkdown:
		return SourceMarkdown, nil
	case SourceURL:
		return SourceURL, nil
	default:
		return "", ErrInvalidDocumentSource
	}
}

// Document is one piece of uploaded study material. The raw text handed to
// the ingest pipeline is ephemeral; only the document record and its summary
// are persisted.
type Document struct {
	ID        int64
	PublicID  string
	UserID    int64
	Title     string
	Source    SourceKind
	SourceRef string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Normalize ensures defaults & constraints before persistence.
func (d *Document) Normalize(now time.Time) {
	d.Title = strings.TrimSpace(d.Title)
	d.SourceRef = strings.TrimSpace(d.SourceRef)
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
}

// Validate checks the document's intrinsic constraints.
func (d *Document) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrInvalidDocumentTitle
	}
	switch d.Source {
	case SourceText, SourceMarkdown:
		return nil
	case SourceURL:
		parsed, err := url.Parse(d.SourceRef)
		if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return ErrInvalidDocumentSource
		}
		return nil
	default:
		return ErrInvalidDocumentSource
	}
}

// Summary is the persisted AI-generated summary of a document.
type Summary struct {
	ID          int64
	DocumentID  int64
	Text        string
	Model       string
	Version     int32
	GeneratedAt time.Time
}

// ProcessingStatus is the lifecycle phase of a document moving through the
// ingest pipeline.
type ProcessingStatus string

const (
	StatusQueued      ProcessingStatus = "queued"
	StatusExtracting  ProcessingStatus = "extracting"
	StatusSummarizing ProcessingStatus = "summarizing"
	StatusComplete    ProcessingStatus = "complete"
	StatusError       ProcessingStatus = "error"
)

// Terminal reports whether the status is an end state of the pipeline.
func (s ProcessingStatus) Terminal() bool {
	return s == StatusComplete || s == StatusError
}

// ProcessingUpdate is one observation of a document's pipeline progress.
// Progress is a percentage in [0,100]; Message is empty unless the pipeline
// has something to tell the user (most notably the error reason).
type ProcessingUpdate struct {
	DocumentID string
	Status     ProcessingStatus
	Progress   int32
	Message    string
	UpdatedAt  time.Time
}
