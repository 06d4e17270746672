package api

import (
	"context"
	"io"

	"github.com/queryhub-ai/queryhub/internal/auth"
	"github.com/queryhub-ai/queryhub/internal/core"
	"github.com/queryhub-ai/queryhub/internal/store"
)

// UserStore is the slice of the persistent store the handlers need for
// authentication.
type UserStore interface {
	CreateUser(ctx context.Context, username, email, passwordHash, role string) (*store.User, error)
	GetUserByEmail(ctx context.Context, email string) (*store.User, error)
	GetUserByID(ctx context.Context, id int64) (*store.User, error)
}

// FileStore is the uploaded-artifact storage the admin handlers need.
type FileStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	List(ctx context.Context) ([]string, error)
	Remove(ctx context.Context, key string) error
}

type Handler struct {
	users    UserStore
	tokens   *auth.JWTManager
	answerer *core.Answerer
	indexer  *core.DocumentIndexer
	files    FileStore
}

func NewHandler(users UserStore, tokens *auth.JWTManager, answerer *core.Answerer, indexer *core.DocumentIndexer, files FileStore) *Handler {
	return &Handler{
		users:    users,
		tokens:   tokens,
		answerer: answerer,
		indexer:  indexer,
		files:    files,
	}
}
