package ingest

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/learnloop/tutorbook/internal/embedding"
	"github.com/learnloop/tutorbook/internal/vectorstore"
)

var chunksIndexed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "tutorbook_chunks_indexed_total",
	Help: "Number of chunks embedded and upserted into the vector store.",
})

// Embedder is the slice of the embedding client the indexer needs.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string, task embedding.TaskType) ([][]float32, error)
}

// VectorIndex is the slice of the vector store client the indexer needs.
type VectorIndex interface {
	CollectionExists(ctx context.Context, name string) (bool, error)
	UpsertPoints(ctx context.Context, collection string, points []vectorstore.Point) error
}

// Indexer drives the offline ingestion path: parse, chunk, embed, upsert.
type Indexer struct {
	Embedder     Embedder
	Index        VectorIndex
	Collection   string
	Book         string
	BaseURL      string
	ChunkSize    int
	ChunkOverlap int
	Logger       *log.Logger
}

// Stats summarises one ingestion run. Files counts chapters indexed
// successfully; Failed counts chapters skipped after an error.
type Stats struct {
	Files  int
	Chunks int
	Failed int
}

func (ix *Indexer) logger() *log.Logger {
	if ix.Logger != nil {
		return ix.Logger
	}
	return log.New(log.Writer(), "[INGEST] ", log.LstdFlags)
}

// DiscoverFiles lists chapter files under dir matching pattern, sorted.
// Doublestar patterns are supported, so nested layouts work too.
func DiscoverFiles(dir, pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// CheckCollection verifies the target collection exists before any upsert.
// Creation is a separate explicit step; a missing collection here is an
// operator error, not something ingestion papers over.
func (ix *Indexer) CheckCollection(ctx context.Context) error {
	exists, err := ix.Index.CollectionExists(ctx, ix.Collection)
	if err != nil {
		return fmt.Errorf("check collection %q: %w", ix.Collection, err)
	}
	if !exists {
		return fmt.Errorf("collection %q: %w (run init-collection first)", ix.Collection, vectorstore.ErrCollectionNotFound)
	}
	return nil
}

// LoadDocument reads and parses one chapter file into a Document.
func (ix *Indexer) LoadDocument(path string) (Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	meta, body := ParseFrontmatter(string(raw))

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	id := meta["id"]
	if id == "" {
		id = stem
	}
	title := meta["title"]
	if title == "" {
		title = titleFromStem(stem)
	}
	return Document{
		ID:          id,
		Title:       title,
		URL:         strings.TrimRight(ix.BaseURL, "/") + "/docs/" + id,
		Frontmatter: meta,
		Body:        body,
	}, nil
}

// IndexFile processes a single chapter file end to end and returns the number
// of chunks written. Embedding failures abort the file; points already
// written in earlier files stay.
func (ix *Indexer) IndexFile(ctx context.Context, path string) (int, error) {
	doc, err := ix.LoadDocument(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}

	chunks := ChunkDocument(doc, ix.ChunkSize, ix.ChunkOverlap)
	if len(chunks) == 0 {
		ix.logger().Printf("%s: no chunks extracted, skipping", filepath.Base(path))
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Content
	}
	vectors, err := ix.Embedder.EmbedBatch(ctx, texts, embedding.TaskRetrievalDocument)
	if err != nil {
		return 0, fmt.Errorf("embed %s: %w", path, err)
	}

	points := make([]vectorstore.Point, len(chunks))
	for i, ch := range chunks {
		points[i] = vectorstore.Point{
			ID:     uuid.NewString(),
			Vector: vectors[i],
			Payload: vectorstore.Payload{
				Content:    ch.Content,
				Chapter:    ch.Chapter,
				Section:    ch.Section,
				ChapterURL: ch.ChapterURL,
				ChapterID:  ch.ChapterID,
				Book:       ix.Book,
			},
		}
	}
	if err := ix.Index.UpsertPoints(ctx, ix.Collection, points); err != nil {
		return 0, fmt.Errorf("upsert %s: %w", path, err)
	}
	chunksIndexed.Add(float64(len(points)))
	return len(points), nil
}

// IndexDir ingests every chapter file under dir matching pattern. A failing
// chapter is logged and skipped so one bad file does not abort the run; the
// skip is reported in Stats.Failed. Only a run where every file fails is an
// error.
func (ix *Indexer) IndexDir(ctx context.Context, dir, pattern string) (Stats, error) {
	if err := ix.CheckCollection(ctx); err != nil {
		return Stats{}, err
	}
	files, err := DiscoverFiles(dir, pattern)
	if err != nil {
		return Stats{}, err
	}
	if len(files) == 0 {
		return Stats{}, fmt.Errorf("no chapter files matching %q under %s", pattern, dir)
	}

	var stats Stats
	for _, path := range files {
		n, err := ix.IndexFile(ctx, path)
		if err != nil {
			stats.Failed++
			ix.logger().Printf("%s: %v, skipping", filepath.Base(path), err)
			continue
		}
		stats.Files++
		stats.Chunks += n
		ix.logger().Printf("%s: %d chunks", filepath.Base(path), n)
	}
	if stats.Failed == len(files) {
		return stats, fmt.Errorf("all %d chapter files failed to index", stats.Failed)
	}
	return stats, nil
}

func titleFromStem(stem string) string {
	words := strings.Split(strings.ReplaceAll(stem, "-", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
