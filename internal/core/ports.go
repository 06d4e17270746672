package core

import (
	"context"

	"github.com/queryhub-ai/queryhub/internal/memory"
	"github.com/queryhub-ai/queryhub/internal/store"
	"github.com/queryhub-ai/queryhub/internal/vectorstore"
)

// Embedder converts text into a fixed-length vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// PromptContext is everything a generation provider receives for one turn:
// the question, the retrieved chunks grounding the answer, and the session's
// prior turns.
type PromptContext struct {
	Question string
	Chunks   []vectorstore.Chunk
	History  []memory.Turn
}

// Generator produces a free-text answer from a prompt context. The output is
// taken verbatim; grounding is instruction-level, not enforced here.
type Generator interface {
	Generate(ctx context.Context, prompt PromptContext) (string, error)
}

// MemoryStore is the TTL-bound conversational memory keyed by session id.
type MemoryStore interface {
	Load(ctx context.Context, sessionID string) ([]memory.Turn, error)
	Append(ctx context.Context, sessionID string, turns ...memory.Turn) error
	Clear(ctx context.Context, sessionID string) error
}

// ConversationLog is the append-only durable record of question/answer pairs.
type ConversationLog interface {
	AppendTurnPair(ctx context.Context, userTurn, agentTurn *store.ChatTurn) error
	TurnsBySession(ctx context.Context, sessionID string, userID int64) ([]store.ChatTurn, error)
}
