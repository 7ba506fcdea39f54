package retrieval

import (
	"context"
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/learnloop/tutorbook/internal/embedding"
	"github.com/learnloop/tutorbook/internal/vectorstore"
)

const (
	// DefaultTopK bounds a search when the caller passes no limit.
	DefaultTopK = 5

	// UserSelectionChapter and UserSelectionSection label the synthetic chunk
	// built from caller-supplied text.
	UserSelectionChapter = "User Selection"
	UserSelectionSection = "Provided Context"
)

var (
	searchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tutorbook_rag_searches_total",
		Help: "Number of retrieval searches served.",
	})
	emptySearchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tutorbook_rag_searches_empty_total",
		Help: "Number of retrieval searches that degraded to zero results.",
	})
)

// Embedder embeds a query into a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string, task embedding.TaskType) ([]float32, error)
}

// Index is the slice of the vector store the retrieval path needs.
type Index interface {
	CollectionExists(ctx context.Context, name string) (bool, error)
	QueryPoints(ctx context.Context, collection string, vector []float32, book string, limit int) ([]vectorstore.ScoredPoint, error)
}

// RetrievedChunk is one search hit with citation metadata.
type RetrievedChunk struct {
	Content    string  `json:"content"`
	Chapter    string  `json:"chapter,omitempty"`
	Section    string  `json:"section,omitempty"`
	ChapterURL string  `json:"chapter_url,omitempty"`
	Score      float64 `json:"score"`
}

// SearchResponse is the retrieval contract exposed to the tutoring agent.
type SearchResponse struct {
	Query                    string           `json:"query"`
	TotalResults             int              `json:"total_results"`
	UserSelectedTextIncluded bool             `json:"user_selected_text_included"`
	Chunks                   []RetrievedChunk `json:"chunks"`
}

// Service performs similarity-filtered search over the textbook collection.
type Service struct {
	embedder   Embedder
	index      Index
	collection string
	book       string
	logger     *log.Logger
}

func New(embedder Embedder, index Index, collection, book string, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(log.Writer(), "[RAG] ", log.LstdFlags)
	}
	return &Service{
		embedder:   embedder,
		index:      index,
		collection: collection,
		book:       book,
		logger:     logger,
	}
}

// Search returns the topK most similar indexed chunks to the query, filtered
// to the configured book, optionally prefixed by the caller's own selected
// text at maximal priority. Retrieval never errors the caller: an empty
// query, an unconfigured or unreachable index, or a missing collection all
// degrade to zero results, and the tutoring agent reads that as "no textbook
// evidence".
func (s *Service) Search(ctx context.Context, query, userText string, topK int) SearchResponse {
	searchesTotal.Inc()
	resp := SearchResponse{
		Query:                    query,
		UserSelectedTextIncluded: userText != "",
		Chunks:                   []RetrievedChunk{},
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	if query == "" || s.embedder == nil || s.index == nil {
		emptySearchesTotal.Inc()
		return resp
	}

	exists, err := s.index.CollectionExists(ctx, s.collection)
	if err != nil {
		s.logger.Printf("collection check failed: %v", err)
		emptySearchesTotal.Inc()
		return resp
	}
	if !exists {
		s.logger.Printf("collection %q does not exist; create and index it first", s.collection)
		emptySearchesTotal.Inc()
		return resp
	}

	vector, err := s.embedder.Embed(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		s.logger.Printf("query embedding failed: %v", err)
		emptySearchesTotal.Inc()
		return resp
	}

	hits, err := s.index.QueryPoints(ctx, s.collection, vector, s.book, topK)
	if err != nil {
		s.logger.Printf("vector search failed: %v", err)
		emptySearchesTotal.Inc()
		return resp
	}

	chunks := make([]RetrievedChunk, 0, len(hits)+1)
	for _, hit := range hits {
		chunks = append(chunks, RetrievedChunk{
			Content:    hit.Payload.Content,
			Chapter:    hit.Payload.Chapter,
			Section:    hit.Payload.Section,
			ChapterURL: hit.Payload.ChapterURL,
			Score:      hit.Score,
		})
	}

	// A user's explicit text selection always outranks retrieved passages.
	if userText != "" {
		chunks = append([]RetrievedChunk{{
			Content: userText,
			Chapter: UserSelectionChapter,
			Section: UserSelectionSection,
			Score:   1.0,
		}}, chunks...)
	}

	resp.Chunks = chunks
	resp.TotalResults = len(chunks)
	return resp
}
