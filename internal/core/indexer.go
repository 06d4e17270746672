package core

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/queryhub-ai/queryhub/internal/chunk"
	"github.com/queryhub-ai/queryhub/internal/extract"
	"github.com/queryhub-ai/queryhub/internal/vectorstore"
)

// DocumentIndexer turns an uploaded document into searchable chunks in the
// vector index. The stored object key doubles as the document id, so removal
// can cascade into the index by metadata filter.
type DocumentIndexer struct {
	index        vectorstore.Store
	embedder     Embedder
	chunkSize    int
	chunkOverlap int
}

func NewDocumentIndexer(index vectorstore.Store, embedder Embedder) *DocumentIndexer {
	return &DocumentIndexer{
		index:        index,
		embedder:     embedder,
		chunkSize:    chunk.DefaultSize,
		chunkOverlap: chunk.DefaultOverlap,
	}
}

// Ingest extracts, chunks, embeds and indexes a document, returning the
// number of chunks written. The MIME type is checked before any side effect
// against the extractor, the embedding provider or the index. Ingestion is
// not transactional with object storage: if the index write fails after the
// file was stored, re-running ingestion recovers.
func (ix *DocumentIndexer) Ingest(ctx context.Context, content []byte, filename, mimeType string) (int, error) {
	if !extract.Supported(mimeType) {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedMediaType, mimeType)
	}

	text, err := extract.Text(content, mimeType)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCorruptDocument, err)
	}

	pieces, err := chunk.Split(text, ix.chunkSize, ix.chunkOverlap)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrIngestionFailed, err)
	}
	if len(pieces) == 0 {
		log.WithField("file", filename).Warn("Document contained no extractable text, nothing indexed")
		return 0, nil
	}

	chunks := make([]vectorstore.Chunk, len(pieces))
	vectors := make([][]float32, len(pieces))
	for i, piece := range pieces {
		embedding, err := ix.embedder.Embed(ctx, piece)
		if err != nil {
			return 0, classify(ErrIngestionFailed, fmt.Errorf("embedding chunk %d of %s: %w", i, filename, err))
		}
		chunks[i] = vectorstore.Chunk{
			DocumentID: filename,
			Index:      i,
			Text:       piece,
			FileName:   filename,
			MimeType:   mimeType,
		}
		vectors[i] = embedding
	}

	if err := ix.index.EnsureCollection(ctx, len(vectors[0])); err != nil {
		return 0, classify(ErrIngestionFailed, err)
	}
	if err := ix.index.Upsert(ctx, chunks, vectors); err != nil {
		return 0, classify(ErrIngestionFailed, err)
	}

	log.WithFields(log.Fields{"file": filename, "chunks": len(chunks)}).Info("Document ingested")
	return len(chunks), nil
}

// RemoveDocument purges the document's chunks from the vector index. Chunks
// are deleted by document-id filter rather than left orphaned, so a removed
// document stops contributing to answers immediately.
func (ix *DocumentIndexer) RemoveDocument(ctx context.Context, key string) error {
	if err := ix.index.DeleteByDocument(ctx, key); err != nil {
		return classify(ErrIngestionFailed, fmt.Errorf("purging chunks for %s: %w", key, err))
	}
	return nil
}
