package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

const chunkWorkers = 2

var (
	chunkOpts  = generateOptions{Temperature: 0.1, NumPredict: 512, TopP: 0.9}
	singleOpts = generateOptions{Temperature: 0.2, NumPredict: 1024, TopP: 0.9}
	mergeOpts  = generateOptions{Temperature: 0.2, NumPredict: 1024, TopP: 0.9}
)

// Summarizer produces study summaries via the Ollama client. Long documents
// are summarized in two stages: each chunk separately, then the partial
// summaries merged into one.
type Summarizer struct {
	client *Client
}

// NewSummarizer wraps the client in the document summarizer used by the
// ingest pipeline.
func NewSummarizer(client *Client) *Summarizer {
	return &Summarizer{client: client}
}

// Summarize returns the summary text and the model that produced it.
func (s *Summarizer) Summarize(ctx context.Context, title, text string) (string, string, error) {
	chunks := splitChunks(text, chunkTokens, overlapTokens)
	if len(chunks) == 0 {
		return "", "", fmt.Errorf("no text to summarize")
	}

	if len(chunks) == 1 {
		out, err := s.client.generate(ctx, singlePrompt(title, chunks[0]), singleOpts)
		if err != nil {
			return "", "", err
		}
		return strings.TrimSpace(out), s.client.Model(), nil
	}

	partials, err := s.summarizeChunks(ctx, title, chunks)
	if err != nil {
		return "", "", err
	}
	merged, err := s.client.generate(ctx, mergePrompt(title, partials), mergeOpts)
	if err != nil {
		return "", "", fmt.Errorf("merge summaries: %w", err)
	}
	return strings.TrimSpace(merged), s.client.Model(), nil
}

// summarizeChunks runs the first stage with a small worker pool; results
// keep chunk order regardless of completion order.
func (s *Summarizer) summarizeChunks(ctx context.Context, title string, chunks []string) ([]string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	partials := make([]string, len(chunks))
	sem := make(chan struct{}, chunkWorkers)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			out, err := s.client.generate(ctx, chunkPrompt(title, i+1, len(chunks), chunk), chunkOpts)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("summarize chunk %d/%d: %w", i+1, len(chunks), err)
				}
				mu.Unlock()
				cancel()
				return
			}
			partials[i] = strings.TrimSpace(out)
		}(i, chunk)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return partials, nil
}

func singlePrompt(title, text string) string {
	return fmt.Sprintf(`You are a study assistant. Summarize the following study material titled %q.
Write a clear, well-structured summary in short paragraphs. Keep key terms, definitions and important facts. Do not invent information.

Material:
%s

Summary:`, title, text)
}

func chunkPrompt(title string, index, total int, text string) string {
	return fmt.Sprintf(`You are a study assistant. Summarize section %d of %d of the study material titled %q.
Write 3-5 sentences covering the key terms, definitions and facts in this section only.

Section:
%s

Section summary:`, index, total, title, text)
}

func mergePrompt(title string, partials []string) string {
	return fmt.Sprintf(`You are a study assistant. The following are summaries of consecutive sections of the study material titled %q.
Combine them into one coherent summary in short paragraphs. Remove repetition, keep key terms and definitions, and do not add information.

Section summaries:
%s

Combined summary:`, title, strings.Join(partials, "\n\n"))
}
