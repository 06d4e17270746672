package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/queryhub-ai/queryhub/internal/core"
	"github.com/queryhub-ai/queryhub/internal/extract"
)

const (
	maxUploadBytes = 32 << 20 // 32 MiB
	ingestTimeout  = 2 * time.Minute
)

type uploadResponse struct {
	Message    string   `json:"message"`
	File       string   `json:"file"`
	ChunkCount int      `json:"chunk_count"`
	Files      []string `json:"files"`
}

// UploadHandler stores the artifact and ingests it into the vector index.
// The MIME check runs before anything touches the object store or the index.
// Storage and ingestion are deliberately not transactional: if ingestion
// fails after the file is stored, the upload can simply be retried.
func (h *Handler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, fmt.Errorf("%w: malformed multipart form", core.ErrInvalidRequest))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, fmt.Errorf("%w: no file uploaded", core.ErrInvalidRequest))
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(header.Filename))
	}
	if !extract.Supported(mimeType) {
		writeError(w, fmt.Errorf("%w: %s", core.ErrUnsupportedMediaType, mimeType))
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, fmt.Errorf("reading upload: %w", err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), ingestTimeout)
	defer cancel()

	if err := h.files.Put(ctx, header.Filename, bytes.NewReader(content), int64(len(content)), mimeType); err != nil {
		writeError(w, fmt.Errorf("storing upload: %w", err))
		return
	}

	chunkCount, err := h.indexer.Ingest(ctx, content, header.Filename, mimeType)
	if err != nil {
		log.WithField("file", header.Filename).WithError(err).Error("Ingestion failed, stored file is not searchable")
		writeError(w, err)
		return
	}

	files, err := h.files.List(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Message:    "file ingested successfully",
		File:       header.Filename,
		ChunkCount: chunkCount,
		Files:      files,
	})
}

func (h *Handler) ListFilesHandler(w http.ResponseWriter, r *http.Request) {
	files, err := h.files.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"files": files})
}

// DeleteFileHandler removes the stored artifact and cascades the delete into
// the vector index so the document's chunks stop matching immediately.
func (h *Handler) DeleteFileHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		writeError(w, fmt.Errorf("%w: file name is required", core.ErrInvalidRequest))
		return
	}

	if err := h.files.Remove(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}
	if err := h.indexer.RemoveDocument(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}

	files, err := h.files.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "file deleted", "files": files})
}
