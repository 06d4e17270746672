// Package llm adapts Google Gemini to the core's embedding and generation
// capabilities.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/queryhub-ai/queryhub/internal/core"
	"github.com/queryhub-ai/queryhub/internal/store"
)

const (
	defaultChatModelName      = "gemini-1.5-flash-latest"
	defaultEmbeddingModelName = "text-embedding-004"

	// Grounding is instruction-level: the model is told to stay inside the
	// retrieved documents, nothing validates the output afterwards.
	chatSystemInstruction = "You are a helpful assistant answering questions about uploaded documents. " +
		"Only answer using the information provided in the document excerpts and the prior conversation. " +
		"If the excerpts do not contain the answer, clearly say you don't know. Do not make up information."
)

type GeminiClient struct {
	client *genai.Client
}

func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiClient{client: client}, nil
}

func (c *GeminiClient) Close() {
	if c.client != nil {
		if err := c.client.Close(); err != nil {
			log.WithError(err).Warn("Error closing GenAI client")
		}
	}
}

var (
	_ core.Embedder  = (*GeminiClient)(nil)
	_ core.Generator = (*GeminiClient)(nil)
)

func (c *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	em := c.client.EmbeddingModel(defaultEmbeddingModelName)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embedding request failed: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("no embedding data received from gemini")
	}
	return res.Embedding.Values, nil
}

// Generate sends the session history plus a final user turn carrying the
// retrieved excerpts and the question, and returns the model's text verbatim.
func (c *GeminiClient) Generate(ctx context.Context, prompt core.PromptContext) (string, error) {
	model := c.client.GenerativeModel(defaultChatModelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(chatSystemInstruction)},
	}

	var history []*genai.Content
	for _, turn := range prompt.History {
		history = append(history, &genai.Content{
			Role:  geminiRole(turn.Role),
			Parts: []genai.Part{genai.Text(turn.Content)},
		})
	}

	session := model.StartChat()
	session.History = history

	resp, err := session.SendMessage(ctx, genai.Text(groundedQuestion(prompt)))
	if err != nil {
		return "", fmt.Errorf("gemini chat SendMessage failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		} else {
			log.Debugf("Gemini response part was not text: %T", part)
		}
	}
	if responseText.Len() == 0 {
		return "", fmt.Errorf("gemini returned an empty text response")
	}
	return responseText.String(), nil
}

func groundedQuestion(prompt core.PromptContext) string {
	var b strings.Builder
	b.WriteString("Document excerpts:\n\n")
	for _, chunk := range prompt.Chunks {
		fmt.Fprintf(&b, "--- %s ---\n%s\n\n", chunk.FileName, chunk.Text)
	}
	b.WriteString("Using only the excerpts above and our previous conversation, answer: ")
	b.WriteString(prompt.Question)
	return b.String()
}

func geminiRole(role string) string {
	if role == store.RoleAgent {
		return "model"
	}
	return "user"
}
