package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"doclens/internal/embedding"
	"doclens/internal/extractor"
	"doclens/internal/index"
	"doclens/internal/models"
	"doclens/internal/store"
	"doclens/pkg/logger"
)

// File is one upload handed to the ingester.
type File struct {
	Filename  string
	Data      []byte
	ClusterID string
	Tags      []string
}

// Result reports the outcome for one file of a batch. Err is set for files
// that failed; the rest of the batch is unaffected.
type Result struct {
	Filename string
	Document *models.Document
	Err      error
}

// Ingester runs the extract -> embed -> index -> store pipeline. Stages for
// one document are strictly sequential so a document is either fully
// searchable or entirely absent; concurrency exists only across documents.
type Ingester struct {
	extractor *extractor.Extractor
	embedder  embedding.Embedder
	index     index.Index
	sections  store.SectionStore
	log       *logger.Logger

	maxConcurrent int
}

// New creates an Ingester. maxConcurrent bounds how many documents of one
// batch are processed in parallel.
func New(ex *extractor.Extractor, embedder embedding.Embedder, ix index.Index, sections store.SectionStore, maxConcurrent int, log *logger.Logger) *Ingester {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &Ingester{
		extractor:     ex,
		embedder:      embedder,
		index:         ix,
		sections:      sections,
		log:           log,
		maxConcurrent: maxConcurrent,
	}
}

// Ingest processes one file end to end and returns its document record.
func (g *Ingester) Ingest(ctx context.Context, file File) (*models.Document, error) {
	start := time.Now()

	sections, err := g.extractor.Extract(ctx, bytes.NewReader(file.Data), int64(len(file.Data)), file.Filename)
	if err != nil {
		if errors.Is(err, models.ErrNoTextLayer) {
			g.log.WithField("filename", file.Filename).Warn("Document has no text layer")
		}
		return nil, err
	}

	doc := &models.Document{
		ID:           uuid.NewString(),
		Filename:     file.Filename,
		ClusterID:    file.ClusterID,
		ByteSize:     int64(len(file.Data)),
		SectionCount: len(sections),
		Tags:         file.Tags,
		UploadedAt:   time.Now().UTC(),
	}
	for i := range sections {
		sections[i].DocumentID = doc.ID
	}

	texts := make([]string, len(sections))
	for i, sec := range sections {
		texts[i] = sec.Title + "\n" + sec.Text
	}
	vectors, err := g.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed sections of %s: %w", file.Filename, err)
	}

	entries := make([]index.Entry, len(sections))
	for i := range sections {
		sections[i].Embedding = vectors[i]
		entries[i] = index.Entry{
			SectionID:  models.SectionKey(doc.ID, sections[i].Ordinal),
			DocumentID: doc.ID,
			Ordinal:    sections[i].Ordinal,
			Vector:     vectors[i],
		}
	}

	if err := g.index.Add(ctx, g.embedder.Version(), entries...); err != nil {
		return nil, err
	}
	if err := g.sections.SaveDocument(ctx, doc, sections); err != nil {
		// Keep store and index consistent: a document that failed to persist
		// must not linger in the index.
		if rmErr := g.index.RemoveDocument(ctx, doc.ID); rmErr != nil {
			g.log.WithDocument(doc.ID).WithError(rmErr).Error("Failed to roll back index entries")
		}
		return nil, err
	}

	g.log.WithDocument(doc.ID).WithPayload(map[string]interface{}{
		"filename": file.Filename,
		"sections": len(sections),
		"took":     time.Since(start).String(),
	}).Info("Ingested document")
	return doc, nil
}

// IngestBatch processes files concurrently, at most maxConcurrent at a time.
// Failures are isolated per file: results arrive in input order with Err set
// on the ones that failed. Only a context cancellation aborts the batch.
func (g *Ingester) IngestBatch(ctx context.Context, files []File) []Result {
	results := make([]Result, len(files))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.maxConcurrent)
	for i, file := range files {
		i, file := i, file
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{Filename: file.Filename, Err: err}
				return err
			}
			doc, err := g.Ingest(ctx, file)
			results[i] = Result{Filename: file.Filename, Document: doc, Err: err}
			return nil // per-file errors stay in the result
		})
	}
	// The closures only return context errors, already recorded per file.
	_ = eg.Wait()
	return results
}

// Delete removes a document from both the store and the index.
func (g *Ingester) Delete(ctx context.Context, documentID string) error {
	if _, err := g.sections.Document(ctx, documentID); err != nil {
		return err
	}
	if err := g.index.RemoveDocument(ctx, documentID); err != nil {
		return err
	}
	return g.sections.DeleteDocument(ctx, documentID)
}
