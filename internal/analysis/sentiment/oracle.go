package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	apperrors "psx-analyst/internal/errors"
)

// Oracle scores the polarity of a single headline in [-1, 1].
type Oracle interface {
	Score(ctx context.Context, headline string) (float64, error)
}

// OpenAIOracle scores headlines with a chat-completion model.
type OpenAIOracle struct {
	client *openai.Client
	model  string
}

// NewOpenAIOracle creates an OpenAI-backed sentiment oracle.
func NewOpenAIOracle(apiKey, model string) *OpenAIOracle {
	return &OpenAIOracle{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

const oracleSystemPrompt = `You are a sentiment analyst for the Pakistan Stock Exchange.
Score the sentiment of a company announcement headline for shareholders.
Respond with JSON only, in the exact form {"polarity": <number>} where
<number> is between -1.0 (very negative) and 1.0 (very positive).`

type oracleVerdict struct {
	Polarity float64 `json:"polarity"`
}

// Score asks the model for a polarity verdict for one headline.
func (o *OpenAIOracle) Score(ctx context.Context, headline string) (float64, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: oracleSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: headline},
		},
	})
	if err != nil {
		return 0, apperrors.NewOracleError("openai", "score", err)
	}
	if len(resp.Choices) == 0 {
		return 0, apperrors.NewOracleError("openai", "score", fmt.Errorf("no response"))
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	// Models occasionally wrap the JSON in a code fence
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var verdict oracleVerdict
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &verdict); err != nil {
		return 0, apperrors.NewOracleError("openai", "parse", err)
	}

	return clampPolarity(verdict.Polarity), nil
}

// KeywordOracle is a deterministic rule-based fallback used when no LLM
// credentials are configured.
type KeywordOracle struct{}

// NewKeywordOracle creates the rule-based oracle.
func NewKeywordOracle() *KeywordOracle {
	return &KeywordOracle{}
}

var positiveKeywords = []string{
	"profit", "growth", "dividend", "bonus", "expansion", "record",
	"surge", "gain", "strong", "beat", "exceed", "upgrade", "contract",
	"award", "buyback", "increase",
}

var negativeKeywords = []string{
	"loss", "decline", "fall", "drop", "weak", "downgrade", "default",
	"penalty", "suspension", "delay", "litigation", "cut", "warning",
	"impairment", "resign",
}

// Score counts keyword hits and maps the balance into [-1, 1] in steps of
// 0.3 per net hit.
func (k *KeywordOracle) Score(_ context.Context, headline string) (float64, error) {
	text := strings.ToLower(headline)

	var positive, negative int
	for _, word := range positiveKeywords {
		positive += strings.Count(text, word)
	}
	for _, word := range negativeKeywords {
		negative += strings.Count(text, word)
	}

	return clampPolarity(float64(positive-negative) * 0.3), nil
}

func clampPolarity(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
