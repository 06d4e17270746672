package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/queryhub-ai/queryhub/internal/memory"
	"github.com/queryhub-ai/queryhub/internal/store"
	"github.com/queryhub-ai/queryhub/internal/vectorstore"
)

// DefaultTopK is how many nearest chunks ground one answer.
const DefaultTopK = 3

// FallbackAnswer is returned without a generation call when retrieval finds
// nothing to ground an answer in.
const FallbackAnswer = "No relevant information found in the uploaded documents."

// AnswerResult is the outcome of one question/answer turn. The answer is
// always usable when err is nil; PersistenceWarning carries a post-answer
// history or memory write failure that did not unwind the answer.
type AnswerResult struct {
	Answer             string
	Fallback           bool
	PersistenceWarning error
}

// Answerer orchestrates one session-scoped Q&A turn: retrieval, memory,
// generation, persistence. It holds no mutable state of its own; all
// cross-request state lives in the injected stores.
type Answerer struct {
	index     IndexReader
	memory    MemoryStore
	log       ConversationLog
	embedder  Embedder
	generator Generator
	topK      int
}

// IndexReader is the read side of the vector index the answerer needs.
type IndexReader interface {
	Ready(ctx context.Context) error
	Search(ctx context.Context, vector []float32, topK int) ([]vectorstore.SearchResult, error)
}

func NewAnswerer(index IndexReader, mem MemoryStore, convLog ConversationLog, embedder Embedder, generator Generator) *Answerer {
	return &Answerer{
		index:     index,
		memory:    mem,
		log:       convLog,
		embedder:  embedder,
		generator: generator,
		topK:      DefaultTopK,
	}
}

// Answer runs the retrieval-augmented pipeline for one question. Steps are
// strictly sequential; any failure before the answer is computed returns an
// error with no partial persistence. Once an answer (or the fallback) exists,
// persistence failures are reported through PersistenceWarning instead —
// the user still gets the answer.
func (a *Answerer) Answer(ctx context.Context, question, sessionID string, userID int64) (*AnswerResult, error) {
	if question == "" || sessionID == "" || userID == 0 {
		return nil, fmt.Errorf("%w: question, sessionId and userId are required", ErrInvalidRequest)
	}

	if err := a.index.Ready(ctx); err != nil {
		return nil, classify(ErrIndexUnavailable, err)
	}

	queryEmbedding, err := a.embedder.Embed(ctx, question)
	if err != nil {
		return nil, classify(ErrAgentError, fmt.Errorf("embedding question: %w", err))
	}

	hits, err := a.index.Search(ctx, queryEmbedding, a.topK)
	if err != nil {
		return nil, classify(ErrAgentError, fmt.Errorf("searching index: %w", err))
	}

	result := &AnswerResult{}
	if len(hits) == 0 {
		// Nothing to ground an answer in: skip the generation call
		// entirely. The fallback still goes through persistence below so
		// it shows up in history like any other answer.
		result.Answer = FallbackAnswer
		result.Fallback = true
	} else {
		history, err := a.memory.Load(ctx, sessionID)
		if err != nil {
			return nil, classify(ErrAgentError, fmt.Errorf("loading session memory: %w", err))
		}

		prompt := PromptContext{Question: question, History: history}
		for _, hit := range hits {
			prompt.Chunks = append(prompt.Chunks, hit.Chunk)
		}

		answer, err := a.generator.Generate(ctx, prompt)
		if err != nil {
			return nil, classify(ErrAgentError, fmt.Errorf("generating answer: %w", err))
		}
		result.Answer = answer
	}

	result.PersistenceWarning = a.persistTurn(ctx, sessionID, userID, question, result.Answer)
	return result, nil
}

// persistTurn records the exchange in the durable log and the session
// memory. The two writes are independent; either failure is returned as a
// warning and logged, never as a request failure.
func (a *Answerer) persistTurn(ctx context.Context, sessionID string, userID int64, question, answer string) error {
	var warnings []error

	userTurn := &store.ChatTurn{SessionID: sessionID, UserID: userID, Role: store.RoleUser, Content: question}
	agentTurn := &store.ChatTurn{SessionID: sessionID, UserID: userID, Role: store.RoleAgent, Content: answer}
	if err := a.log.AppendTurnPair(ctx, userTurn, agentTurn); err != nil {
		log.WithFields(log.Fields{"session": sessionID, "user": userID}).
			WithError(err).Warn("Failed to persist chat turn pair")
		warnings = append(warnings, fmt.Errorf("chat log write failed: %w", err))
	}

	now := time.Now().UTC()
	err := a.memory.Append(ctx, sessionID,
		memory.Turn{Role: store.RoleUser, Content: question, Timestamp: now},
		memory.Turn{Role: store.RoleAgent, Content: answer, Timestamp: now},
	)
	if err != nil {
		log.WithField("session", sessionID).WithError(err).Warn("Failed to update session memory")
		warnings = append(warnings, fmt.Errorf("session memory write failed: %w", err))
	}

	return errors.Join(warnings...)
}

// ClearMemory resets the conversational memory for a session. Idempotent.
func (a *Answerer) ClearMemory(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("%w: sessionId is required", ErrInvalidRequest)
	}
	return a.memory.Clear(ctx, sessionID)
}

// History returns the durable log for (session, user) in timestamp order.
func (a *Answerer) History(ctx context.Context, sessionID string, userID int64) ([]store.ChatTurn, error) {
	if sessionID == "" || userID == 0 {
		return nil, fmt.Errorf("%w: sessionId and userId are required", ErrInvalidRequest)
	}
	return a.log.TurnsBySession(ctx, sessionID, userID)
}
