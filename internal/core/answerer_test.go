package core_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/queryhub-ai/queryhub/internal/core"
	"github.com/queryhub-ai/queryhub/internal/memory"
	"github.com/queryhub-ai/queryhub/internal/store"
	"github.com/queryhub-ai/queryhub/internal/vectorstore"
	"github.com/queryhub-ai/queryhub/internal/vectorstore/inmem"
)

// letterEmbedder maps text to its letter-frequency distribution. It is
// deterministic and cheap, which is all retrieval tests need.
type letterEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (e *letterEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	vec := make([]float32, 26)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			vec[r-'a']++
		}
	}
	return vec, nil
}

// capturingGenerator records the prompt it received and answers by echoing
// the retrieved chunk texts.
type capturingGenerator struct {
	mu      sync.Mutex
	calls   int
	prompts []core.PromptContext
	answer  string
	err     error
}

func (g *capturingGenerator) Generate(_ context.Context, prompt core.PromptContext) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	if g.answer != "" {
		return g.answer, nil
	}
	var b strings.Builder
	for _, c := range prompt.Chunks {
		b.WriteString(c.Text)
		b.WriteString(" ")
	}
	return strings.TrimSpace(b.String()), nil
}

func (g *capturingGenerator) lastPrompt(t *testing.T) core.PromptContext {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	require.NotEmpty(t, g.prompts)
	return g.prompts[len(g.prompts)-1]
}

type fakeMemory struct {
	mu       sync.Mutex
	sessions map[string][]memory.Turn
	err      error
}

func newFakeMemory() *fakeMemory {
	return &fakeMemory{sessions: make(map[string][]memory.Turn)}
}

func (m *fakeMemory) Load(_ context.Context, sessionID string) ([]memory.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]memory.Turn(nil), m.sessions[sessionID]...), nil
}

func (m *fakeMemory) Append(_ context.Context, sessionID string, turns ...memory.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sessions[sessionID] = append(m.sessions[sessionID], turns...)
	return nil
}

func (m *fakeMemory) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

type fakeLog struct {
	mu    sync.Mutex
	turns []store.ChatTurn
	err   error
}

func (l *fakeLog) AppendTurnPair(_ context.Context, userTurn, agentTurn *store.ChatTurn) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.turns = append(l.turns, *userTurn, *agentTurn)
	return nil
}

func (l *fakeLog) TurnsBySession(_ context.Context, sessionID string, userID int64) ([]store.ChatTurn, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []store.ChatTurn
	for _, turn := range l.turns {
		if turn.SessionID == sessionID && turn.UserID == userID {
			out = append(out, turn)
		}
	}
	return out, nil
}

type fixture struct {
	index     *inmem.Store
	embedder  *letterEmbedder
	generator *capturingGenerator
	memory    *fakeMemory
	log       *fakeLog
	answerer  *core.Answerer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		index:     inmem.NewStore(),
		embedder:  &letterEmbedder{},
		generator: &capturingGenerator{},
		memory:    newFakeMemory(),
		log:       &fakeLog{},
	}
	require.NoError(t, f.index.EnsureCollection(context.Background(), 26))
	f.answerer = core.NewAnswerer(f.index, f.memory, f.log, f.embedder, f.generator)
	return f
}

func (f *fixture) ingest(t *testing.T, docID, text string) {
	t.Helper()
	vec, err := f.embedder.Embed(context.Background(), text)
	require.NoError(t, err)
	err = f.index.Upsert(context.Background(),
		[]vectorstore.Chunk{{DocumentID: docID, Index: 0, Text: text, FileName: docID}},
		[][]float32{vec})
	require.NoError(t, err)
}

func TestAnswer_ValidatesInputBeforeAnyCall(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name      string
		question  string
		sessionID string
		userID    int64
	}{
		{"empty question", "", "s1", 1},
		{"empty session", "q", "", 1},
		{"zero user", "q", "s1", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.answerer.Answer(context.Background(), tc.question, tc.sessionID, tc.userID)
			assert.ErrorIs(t, err, core.ErrInvalidRequest)
		})
	}

	assert.Equal(t, 0, f.embedder.calls, "validation failures must not reach the embedder")
	assert.Equal(t, 0, f.generator.calls)
	assert.Empty(t, f.log.turns)
}

func TestAnswer_IndexUnavailable(t *testing.T) {
	f := newFixture(t)
	f.answerer = core.NewAnswerer(inmem.NewStore(), f.memory, f.log, f.embedder, f.generator)

	_, err := f.answerer.Answer(context.Background(), "question", "s1", 1)
	assert.ErrorIs(t, err, core.ErrIndexUnavailable)
	assert.Equal(t, 0, f.generator.calls)
}

func TestAnswer_FallbackWhenNoChunks(t *testing.T) {
	f := newFixture(t) // collection exists but holds nothing

	result, err := f.answerer.Answer(context.Background(), "anything", "s1", 7)
	require.NoError(t, err)
	require.NoError(t, result.PersistenceWarning)

	assert.Equal(t, core.FallbackAnswer, result.Answer)
	assert.True(t, result.Fallback)
	assert.Equal(t, 0, f.generator.calls, "no generation call without grounding")

	// The fallback turn is persisted like any other answer.
	turns, err := f.log.TurnsBySession(context.Background(), "s1", 7)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, store.RoleUser, turns[0].Role)
	assert.Equal(t, "anything", turns[0].Content)
	assert.Equal(t, store.RoleAgent, turns[1].Role)
	assert.Equal(t, core.FallbackAnswer, turns[1].Content)
}

func TestAnswer_RetrievalRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.ingest(t, "geo.txt", "The capital of Lirathia is Voskend.")

	result, err := f.answerer.Answer(context.Background(), "What is the capital of Lirathia?", "fresh-session", 3)
	require.NoError(t, err)
	require.NoError(t, result.PersistenceWarning)

	assert.False(t, result.Fallback)
	assert.Contains(t, result.Answer, "Voskend")

	prompt := f.generator.lastPrompt(t)
	require.NotEmpty(t, prompt.Chunks)
	assert.Contains(t, prompt.Chunks[0].Text, "Voskend")

	turns, err := f.log.TurnsBySession(context.Background(), "fresh-session", 3)
	require.NoError(t, err)
	assert.Len(t, turns, 2)
}

func TestAnswer_MemoryFeedsTheNextTurn(t *testing.T) {
	f := newFixture(t)
	f.ingest(t, "doc", "Some indexed content about widgets.")

	_, err := f.answerer.Answer(context.Background(), "first question", "s1", 1)
	require.NoError(t, err)

	_, err = f.answerer.Answer(context.Background(), "second question", "s1", 1)
	require.NoError(t, err)

	prompt := f.generator.lastPrompt(t)
	require.Len(t, prompt.History, 2, "second call should see the first exchange")
	assert.Equal(t, "first question", prompt.History[0].Content)
}

func TestAnswer_ClearedMemoryDoesNotLeakIntoGeneration(t *testing.T) {
	f := newFixture(t)
	f.ingest(t, "doc", "Some indexed content about widgets.")

	_, err := f.answerer.Answer(context.Background(), "remember this", "s1", 1)
	require.NoError(t, err)

	require.NoError(t, f.answerer.ClearMemory(context.Background(), "s1"))

	_, err = f.answerer.Answer(context.Background(), "what did I say?", "s1", 1)
	require.NoError(t, err)

	prompt := f.generator.lastPrompt(t)
	assert.Empty(t, prompt.History, "pre-clear context must not reach the generator")
}

func TestClearMemory_Idempotent(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.answerer.ClearMemory(context.Background(), "never-used"))
	require.NoError(t, f.answerer.ClearMemory(context.Background(), "never-used"))
}

func TestAnswer_ConcurrentSessionsDoNotCrossContaminate(t *testing.T) {
	f := newFixture(t)
	f.ingest(t, "doc", "Shared indexed content.")

	var wg sync.WaitGroup
	for _, q := range []struct{ session, question string }{
		{"session-a", "alpha question"},
		{"session-b", "bravo question"},
	} {
		wg.Add(1)
		go func(session, question string) {
			defer wg.Done()
			_, err := f.answerer.Answer(context.Background(), question, session, 1)
			assert.NoError(t, err)
		}(q.session, q.question)
	}
	wg.Wait()

	turnsA, err := f.memory.Load(context.Background(), "session-a")
	require.NoError(t, err)
	for _, turn := range turnsA {
		assert.NotContains(t, turn.Content, "bravo")
	}
	turnsB, err := f.memory.Load(context.Background(), "session-b")
	require.NoError(t, err)
	for _, turn := range turnsB {
		assert.NotContains(t, turn.Content, "alpha")
	}
}

func TestAnswer_PersistenceFailureSurfacesAsWarning(t *testing.T) {
	f := newFixture(t)
	f.ingest(t, "doc", "Indexed content.")
	f.log.err = errors.New("disk full")

	result, err := f.answerer.Answer(context.Background(), "question", "s1", 1)
	require.NoError(t, err, "the user still gets the answer")
	assert.NotEmpty(t, result.Answer)
	assert.Error(t, result.PersistenceWarning)

	// Memory write is independent of the log write and still happened.
	turns, memErr := f.memory.Load(context.Background(), "s1")
	require.NoError(t, memErr)
	assert.Len(t, turns, 2)
}

func TestAnswer_MemoryFailureSurfacesAsWarning(t *testing.T) {
	f := newFixture(t)
	// Fallback path exercises persistence without generator or memory load.
	f.memory.err = errors.New("redis down")

	result, err := f.answerer.Answer(context.Background(), "question", "s1", 1)
	require.NoError(t, err)
	assert.Equal(t, core.FallbackAnswer, result.Answer)
	assert.Error(t, result.PersistenceWarning)
}

func TestAnswer_DeadlineMapsToUpstreamTimeout(t *testing.T) {
	f := newFixture(t)
	f.embedder.err = context.DeadlineExceeded

	_, err := f.answerer.Answer(context.Background(), "question", "s1", 1)
	assert.ErrorIs(t, err, core.ErrUpstreamTimeout)
}

func TestAnswer_GeneratorFailureIsAgentError(t *testing.T) {
	f := newFixture(t)
	f.ingest(t, "doc", "Indexed content.")
	f.generator.err = errors.New("provider exploded")

	_, err := f.answerer.Answer(context.Background(), "question", "s1", 1)
	assert.ErrorIs(t, err, core.ErrAgentError)
	assert.Empty(t, f.log.turns, "no partial persistence on generation failure")
}
