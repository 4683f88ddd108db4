package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/studyhall-app/studyhall/internal/entity"
	"github.com/studyhall-app/studyhall/internal/repository"
)

// Progress checkpoints reported while a document moves through the pipeline.
const (
	progressQueued      = 0
	progressExtracting  = 40
	progressSummarizing = 70
	progressComplete    = 100
)

const (
	msgQueued      = "Queued for processing"
	msgExtracting  = "Extracting text from document..."
	msgSummarizing = "Generating AI summary..."
	msgComplete    = "Processing complete"
)

const summaryVersion = 1

// ErrQueueFull is returned by Enqueue when the pipeline cannot accept more
// work; the document's status is set to error so the caller sees a terminal
// state rather than a job that never starts.
var ErrQueueFull = errors.New("pipeline: processing queue is full")

// Summarizer produces the summary text persisted for a document. The second
// return value names the model that generated it.
type Summarizer interface {
	Summarize(ctx context.Context, title, text string) (string, string, error)
}

// Job carries one document through the pipeline. RawText holds the uploaded
// text for text/markdown sources and is empty for URL sources, which the
// pipeline fetches itself.
type Job struct {
	Document entity.Document
	RawText  string
}

// Config tunes the pipeline service. Zero values fall back to defaults.
type Config struct {
	Workers       int
	QueueSize     int
	StatusTTL     time.Duration
	MaxInputChars int
	FetchTimeout  time.Duration
	SweepInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 32
	}
	if c.StatusTTL <= 0 {
		c.StatusTTL = 24 * time.Hour
	}
	if c.MaxInputChars <= 0 {
		c.MaxInputChars = 24000
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 30 * time.Second
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Hour
	}
	return c
}

// Service runs the document ingest pipeline: a bounded worker pool that
// extracts text, asks the summarizer for a summary, persists it, and
// publishes status updates along the way.
type Service struct {
	cfg        Config
	hub        *StatusHub
	docs       repository.DocumentRepository
	summarizer Summarizer
	logger     *logrus.Logger
	jobs       chan Job

	// overridable in tests
	fetchText func(ctx context.Context, url string) (string, error)
	clock     func() time.Time
}

// NewService constructs the pipeline around the given document repository
// and summarizer.
func NewService(cfg Config, docs repository.DocumentRepository, summarizer Summarizer, logger *logrus.Logger) *Service {
	cfg = cfg.withDefaults()
	client := &http.Client{Timeout: cfg.FetchTimeout}
	return &Service{
		cfg:        cfg,
		hub:        NewStatusHub(cfg.StatusTTL),
		docs:       docs,
		summarizer: summarizer,
		logger:     logger,
		jobs:       make(chan Job, cfg.QueueSize),
		fetchText: func(ctx context.Context, url string) (string, error) {
			return fetchPageText(ctx, client, url)
		},
		clock: time.Now,
	}
}

// Status reports the latest processing update for a document.
func (s *Service) Status(documentID string) (entity.ProcessingUpdate, error) {
	return s.hub.Status(documentID)
}

// Watch subscribes to a document's processing updates; see StatusHub.Watch.
func (s *Service) Watch(ctx context.Context, documentID string) (<-chan entity.ProcessingUpdate, error) {
	return s.hub.Watch(ctx, documentID)
}

// Forget drops a document's status entry, e.g. when the document is deleted.
func (s *Service) Forget(documentID string) {
	s.hub.Drop(documentID)
}

// Enqueue accepts a job for processing and immediately publishes the queued
// status so pollers see the document before a worker picks it up.
func (s *Service) Enqueue(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.publish(job.Document, entity.StatusQueued, progressQueued, msgQueued)

	select {
	case s.jobs <- job:
		return nil
	default:
		s.publish(job.Document, entity.StatusError, progressQueued, ErrQueueFull.Error())
		return ErrQueueFull
	}
}

// Run starts the worker pool and the status sweeper and blocks until ctx is
// canceled and all workers have stopped.
func (s *Service) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job := <-s.jobs:
					s.process(ctx, job)
				}
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.hub.Sweep(); n > 0 {
					s.logger.Debugf("purged %d expired status entries", n)
				}
			}
		}
	}()

	wg.Wait()
}

func (s *Service) process(ctx context.Context, job Job) {
	doc := job.Document
	log := s.logger.WithFields(logrus.Fields{
		"document": doc.PublicID,
		"source":   doc.Source,
	})

	s.publish(doc, entity.StatusExtracting, progressExtracting, msgExtracting)
	text, err := s.extract(ctx, job)
	if err != nil {
		s.fail(doc, log, fmt.Errorf("extract: %w", err))
		return
	}
	text = cleanText(text, s.cfg.MaxInputChars)
	if text == "" {
		s.fail(doc, log, entity.ErrEmptyDocument)
		return
	}

	s.publish(doc, entity.StatusSummarizing, progressSummarizing, msgSummarizing)
	summaryText, model, err := s.summarizer.Summarize(ctx, doc.Title, text)
	if err != nil {
		s.fail(doc, log, fmt.Errorf("summarize: %w", err))
		return
	}

	summary := &entity.Summary{
		DocumentID:  doc.ID,
		Text:        summaryText,
		Model:       model,
		Version:     summaryVersion,
		GeneratedAt: s.clock(),
	}
	if _, err := s.docs.SaveSummary(ctx, summary); err != nil {
		s.fail(doc, log, fmt.Errorf("persist summary: %w", err))
		return
	}

	s.publish(doc, entity.StatusComplete, progressComplete, msgComplete)
	log.Info("document processed")
}

func (s *Service) extract(ctx context.Context, job Job) (string, error) {
	switch job.Document.Source {
	case entity.SourceText, entity.SourceMarkdown:
		return job.RawText, nil
	case entity.SourceURL:
		return s.fetchText(ctx, job.Document.SourceRef)
	default:
		return "", entity.ErrInvalidDocumentSource
	}
}

func (s *Service) fail(doc entity.Document, log *logrus.Entry, err error) {
	log.Warnf("processing failed: %v", err)
	s.publish(doc, entity.StatusError, progressQueued, err.Error())
}

func (s *Service) publish(doc entity.Document, status entity.ProcessingStatus, progress int32, message string) {
	s.hub.Publish(entity.ProcessingUpdate{
		DocumentID: doc.PublicID,
		Status:     status,
		Progress:   progress,
		Message:    message,
	})
}
