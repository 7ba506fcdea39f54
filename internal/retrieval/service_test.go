package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/learnloop/tutorbook/internal/embedding"
	"github.com/learnloop/tutorbook/internal/vectorstore"
)

type fakeEmbedder struct {
	vec      []float32
	err      error
	calls    int
	lastTask embedding.TaskType
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string, task embedding.TaskType) ([]float32, error) {
	f.calls++
	f.lastTask = task
	return f.vec, f.err
}

type fakeIndex struct {
	exists    bool
	existsErr error
	hits      []vectorstore.ScoredPoint
	queryErr  error
	gotLimit  int
	gotBook   string
	queries   int
}

func (f *fakeIndex) CollectionExists(_ context.Context, _ string) (bool, error) {
	return f.exists, f.existsErr
}

func (f *fakeIndex) QueryPoints(_ context.Context, _ string, _ []float32, book string, limit int) ([]vectorstore.ScoredPoint, error) {
	f.queries++
	f.gotBook = book
	f.gotLimit = limit
	return f.hits, f.queryErr
}

func hit(content, chapter string, score float64) vectorstore.ScoredPoint {
	return vectorstore.ScoredPoint{
		Score:   score,
		Payload: vectorstore.Payload{Content: content, Chapter: chapter},
	}
}

func TestSearchEmptyQuerySkipsBackends(t *testing.T) {
	emb := &fakeEmbedder{vec: []float32{1}}
	idx := &fakeIndex{exists: true}
	svc := New(emb, idx, "textbook", "book", nil)

	resp := svc.Search(context.Background(), "", "", 5)
	if resp.TotalResults != 0 || len(resp.Chunks) != 0 {
		t.Fatalf("expected empty response, got %+v", resp)
	}
	if emb.calls != 0 || idx.queries != 0 {
		t.Fatalf("no backend call expected for empty query")
	}
}

func TestSearchMissingCollectionDegrades(t *testing.T) {
	svc := New(&fakeEmbedder{vec: []float32{1}}, &fakeIndex{exists: false}, "textbook", "book", nil)
	resp := svc.Search(context.Background(), "what is zmp", "", 5)
	if resp.TotalResults != 0 {
		t.Fatalf("missing collection should yield zero results, got %+v", resp)
	}
}

func TestSearchEmbedErrorDegrades(t *testing.T) {
	emb := &fakeEmbedder{err: errors.New("quota")}
	idx := &fakeIndex{exists: true, hits: []vectorstore.ScoredPoint{hit("x", "c", 0.5)}}
	svc := New(emb, idx, "textbook", "book", nil)

	resp := svc.Search(context.Background(), "query", "", 5)
	if resp.TotalResults != 0 || idx.queries != 0 {
		t.Fatalf("embedding failure should degrade to empty, got %+v", resp)
	}
}

func TestSearchReturnsHits(t *testing.T) {
	emb := &fakeEmbedder{vec: []float32{1, 2}}
	idx := &fakeIndex{exists: true, hits: []vectorstore.ScoredPoint{
		hit("first", "Locomotion", 0.9),
		hit("second", "Sensing", 0.7),
	}}
	svc := New(emb, idx, "textbook", "physical_ai_humanoid_robotics", nil)

	resp := svc.Search(context.Background(), "how do robots balance", "", 2)
	if resp.TotalResults != 2 || len(resp.Chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %+v", resp)
	}
	if resp.Chunks[0].Content != "first" || resp.Chunks[0].Score != 0.9 {
		t.Fatalf("hit order lost: %+v", resp.Chunks)
	}
	if emb.lastTask != embedding.TaskRetrievalQuery {
		t.Fatalf("query embedding should use the query task type, got %q", emb.lastTask)
	}
	if idx.gotBook != "physical_ai_humanoid_robotics" || idx.gotLimit != 2 {
		t.Fatalf("query params not forwarded: book=%q limit=%d", idx.gotBook, idx.gotLimit)
	}
}

func TestSearchDefaultTopK(t *testing.T) {
	idx := &fakeIndex{exists: true}
	svc := New(&fakeEmbedder{vec: []float32{1}}, idx, "textbook", "book", nil)
	svc.Search(context.Background(), "q", "", 0)
	if idx.gotLimit != DefaultTopK {
		t.Fatalf("expected default topK %d, got %d", DefaultTopK, idx.gotLimit)
	}
}

func TestSearchUserSelectionPrepended(t *testing.T) {
	idx := &fakeIndex{exists: true, hits: []vectorstore.ScoredPoint{hit("retrieved", "Sensing", 0.8)}}
	svc := New(&fakeEmbedder{vec: []float32{1}}, idx, "textbook", "book", nil)

	resp := svc.Search(context.Background(), "explain this", "the paragraph I highlighted", 5)
	if !resp.UserSelectedTextIncluded {
		t.Fatalf("flag should be set")
	}
	if resp.TotalResults != 2 {
		t.Fatalf("selection should count toward totals, got %d", resp.TotalResults)
	}
	first := resp.Chunks[0]
	if first.Content != "the paragraph I highlighted" || first.Score != 1.0 {
		t.Fatalf("selection should lead at max score, got %+v", first)
	}
	if first.Chapter != UserSelectionChapter || first.Section != UserSelectionSection {
		t.Fatalf("selection labels wrong: %+v", first)
	}
	if resp.Chunks[1].Content != "retrieved" {
		t.Fatalf("retrieved chunks should follow the selection")
	}
}

func TestSearchUserSelectionWithoutQuery(t *testing.T) {
	// Selected text alone is not a search; no synthetic chunk without a query.
	svc := New(&fakeEmbedder{vec: []float32{1}}, &fakeIndex{exists: true}, "textbook", "book", nil)
	resp := svc.Search(context.Background(), "", "highlighted text", 5)
	if len(resp.Chunks) != 0 {
		t.Fatalf("expected no chunks, got %+v", resp.Chunks)
	}
	if !resp.UserSelectedTextIncluded {
		t.Fatalf("flag still reports the caller sent text")
	}
}
