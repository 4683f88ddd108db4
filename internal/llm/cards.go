package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/studyhall-app/studyhall/internal/entity"
)

var cardOpts = generateOptions{Temperature: 0.2, NumPredict: 1024, TopP: 0.9}

// CardGenerator asks the model for flashcards derived from a document
// summary or raw study text.
type CardGenerator struct {
	client *Client
}

// NewCardGenerator wraps the client in a flashcard generator.
func NewCardGenerator(client *Client) *CardGenerator {
	return &CardGenerator{client: client}
}

// Generate produces up to count cards from the given material. Returned
// cards carry prompt, answer and explanation only; the caller attaches them
// to a deck. The model is asked for strict JSON; fenced or chatty output
// around the array is tolerated.
func (g *CardGenerator) Generate(ctx context.Context, strategy entity.GenerationStrategy, title, text string, count int) ([]entity.Card, error) {
	if count <= 0 {
		count = 10
	}

	out, err := g.client.generate(ctx, cardPrompt(strategy, title, text, count), cardOpts)
	if err != nil {
		return nil, err
	}

	cards, err := parseCards(out)
	if err != nil {
		return nil, err
	}
	if len(cards) > count {
		cards = cards[:count]
	}
	return cards, nil
}

func cardPrompt(strategy entity.GenerationStrategy, title, text string, count int) string {
	var shape string
	switch strategy {
	case entity.StrategyQuestionAnswer:
		shape = `Each card asks a question about the material ("prompt") and gives the answer ("answer").`
	default:
		shape = `Each card names a key term or concept ("prompt") and gives its definition ("answer").`
	}

	return fmt.Sprintf(`You are a study assistant. Create %d flashcards from the study material titled %q.
%s
Add a one-sentence "explanation" with extra context when useful, otherwise leave it empty.

Respond with ONLY a JSON array, no other text:
[{"prompt": "...", "answer": "...", "explanation": "..."}]

Material:
%s`, count, title, shape, text)
}

type cardPayload struct {
	Prompt      string `json:"prompt"`
	Answer      string `json:"answer"`
	Explanation string `json:"explanation"`
}

// parseCards extracts the JSON card array from model output, stripping code
// fences and any prose before or after the array. Entries without both a
// prompt and an answer are dropped.
func parseCards(out string) ([]entity.Card, error) {
	s := strings.TrimSpace(out)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no card array in model output")
	}

	var raw []cardPayload
	if err := json.Unmarshal([]byte(s[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("parse card array: %w", err)
	}

	cards := make([]entity.Card, 0, len(raw))
	for _, p := range raw {
		card := entity.Card{
			Prompt:      strings.TrimSpace(p.Prompt),
			Answer:      strings.TrimSpace(p.Answer),
			Explanation: strings.TrimSpace(p.Explanation),
		}
		if card.Prompt == "" || card.Answer == "" {
			continue
		}
		cards = append(cards, card)
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("model output contained no usable cards")
	}
	return cards, nil
}
