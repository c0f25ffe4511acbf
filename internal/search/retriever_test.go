package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/hyperjump/kioku/internal/indexer"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/storage"
)

func newTestRetriever(t *testing.T, opts ...RetrieverOption) (*Retriever, *indexer.Indexer) {
	t.Helper()
	store := storage.NewMemoryStorage()
	t.Cleanup(func() { _ = store.Close() })
	idx, err := indexer.NewIndexer(store, indexer.DefaultChunkSize, indexer.DefaultChunkOverlap)
	if err != nil {
		t.Fatal(err)
	}
	return NewRetriever(store, opts...), idx
}

func mustAdd(t *testing.T, idx *indexer.Indexer, title, content string) int64 {
	t.Helper()
	id, err := idx.Add(context.Background(), title, content, nil)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func TestRetrieveContext_widget(t *testing.T) {
	r, idx := newTestRetriever(t)
	mustAdd(t, idx, "Widget", "The blue widget costs 10 dollars and is in stock")

	got, found, err := r.RetrieveContext(context.Background(), "How much is the blue widget", 1)
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("expected context")
	}
	want := "[Source 1: Widget]\nThe blue widget costs 10 dollars and is in stock"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRetrieveContext_unrelatedQuery(t *testing.T) {
	r, idx := newTestRetriever(t)
	mustAdd(t, idx, "Widget", "The blue widget costs 10 dollars and is in stock")
	ctx := context.Background()

	text, found, err := r.RetrieveContext(ctx, "weather forecast for today", 3)
	if err != nil {
		t.Fatal(err)
	}
	if found || text != "" {
		t.Errorf("unrelated query should not produce context: %q", text)
	}
	res, _ := r.Retrieve(ctx, "weather forecast for today", 3)
	if res.Status != StatusNoMatch || len(res.Chunks) != 0 {
		t.Errorf("status = %s, chunks = %d", res.Status, len(res.Chunks))
	}

	// Function words are ordinary tokens: "is" and "the" overlap with the document.
	res, _ = r.Retrieve(ctx, "What is the weather today", 3)
	if res.Status != StatusMatched || res.Chunks[0].Score < 0.28 || res.Chunks[0].Score > 0.29 {
		t.Errorf("status = %s, chunks = %+v", res.Status, res.Chunks)
	}
}

func TestRetrieve_emptyStore(t *testing.T) {
	r, _ := newTestRetriever(t)
	for _, q := range []string{"anything", "", "blue widget"} {
		res, err := r.Retrieve(context.Background(), q, 3)
		if err != nil {
			t.Fatal(err)
		}
		if res.Status != StatusEmptyKnowledgeBase || res.Found() {
			t.Errorf("query %q: status = %s", q, res.Status)
		}
		text, found, err := r.RetrieveContext(context.Background(), q, 3)
		if err != nil || found || text != "" {
			t.Errorf("RetrieveContext(%q) = %q, %v, %v", q, text, found, err)
		}
	}
}

func TestRetrieve_documentWithoutChunks(t *testing.T) {
	r, idx := newTestRetriever(t)
	ctx := context.Background()
	mustAdd(t, idx, "Blank", "")

	res, err := r.Retrieve(ctx, "blue widget", 3)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusNoMatch || res.Found() || len(res.Chunks) != 0 {
		t.Errorf("blank only: status=%s chunks=%d", res.Status, len(res.Chunks))
	}

	mustAdd(t, idx, "Widget", "The blue widget costs 10 dollars")
	text, found, err := r.RetrieveContext(ctx, "blue widget", 3)
	if err != nil || !found {
		t.Fatalf("RetrieveContext = %q, %v, %v", text, found, err)
	}
	if want := "[Source 1: Widget]\nThe blue widget costs 10 dollars"; text != want {
		t.Errorf("got %q, want %q", text, want)
	}
}

func TestRetrieve_rankingAndTruncation(t *testing.T) {
	r, idx := newTestRetriever(t)
	mustAdd(t, idx, "Fruit", "red apple pear plum fig kiwi") // 1/sqrt(12)
	mustAdd(t, idx, "Tree", "green tree")                    // 0
	mustAdd(t, idx, "Exact", "red lamp")                     // 1
	mustAdd(t, idx, "Furniture", "red lamp desk chair")      // 2/sqrt(8)

	res, err := r.Retrieve(context.Background(), "red lamp", 2)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusMatched {
		t.Fatalf("status = %s", res.Status)
	}
	if len(res.Chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(res.Chunks))
	}
	if res.Chunks[0].Source != "Exact" || res.Chunks[1].Source != "Furniture" {
		t.Errorf("order = %s, %s", res.Chunks[0].Source, res.Chunks[1].Source)
	}
	if !(res.Chunks[0].Score > res.Chunks[1].Score) {
		t.Errorf("scores not descending: %v, %v", res.Chunks[0].Score, res.Chunks[1].Score)
	}
	if res.Chunks[0].Rank != 1 || res.Chunks[1].Rank != 2 {
		t.Errorf("ranks = %d, %d", res.Chunks[0].Rank, res.Chunks[1].Rank)
	}
	want := "[Source 1: Exact]\nred lamp\n\n---\n\n[Source 2: Furniture]\nred lamp desk chair"
	if res.Context != want {
		t.Errorf("context = %q, want %q", res.Context, want)
	}

	res, _ = r.Retrieve(context.Background(), "red lamp", 10)
	if len(res.Chunks) != 3 {
		t.Errorf("zero-score chunk should be dropped: got %d chunks", len(res.Chunks))
	}
}

func TestRetrieve_defaultTopK(t *testing.T) {
	r, idx := newTestRetriever(t)
	for i := 0; i < 5; i++ {
		mustAdd(t, idx, fmt.Sprintf("doc%d", i), "blue widget")
	}
	for _, k := range []int{0, -4} {
		res, err := r.Retrieve(context.Background(), "blue widget", k)
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Chunks) != DefaultTopK {
			t.Errorf("topK=%d: got %d chunks, want %d", k, len(res.Chunks), DefaultTopK)
		}
	}

	r2 := NewRetriever(r.source, WithDefaultTopK(4))
	res, _ := r2.Retrieve(context.Background(), "blue widget", 0)
	if len(res.Chunks) != 4 || r2.DefaultTopK() != 4 {
		t.Errorf("configured default: got %d chunks", len(res.Chunks))
	}
}

func TestRetrieve_stableTies(t *testing.T) {
	r, idx := newTestRetriever(t)
	for _, title := range []string{"first", "second", "third"} {
		mustAdd(t, idx, title, "blue widget")
	}
	res, err := r.Retrieve(context.Background(), "widget blue", 3)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []string{"first", "second", "third"} {
		if res.Chunks[i].Source != want {
			t.Errorf("position %d = %s, want %s", i, res.Chunks[i].Source, want)
		}
	}
}

func TestRetrieve_threshold(t *testing.T) {
	words := func(n int) string {
		w := make([]string, n)
		for i := range w {
			w[i] = fmt.Sprintf("w%d", i)
		}
		return strings.Join(w, " ")
	}

	r, idx := newTestRetriever(t)
	mustAdd(t, idx, "Long", words(200)) // cosine("w0", chunk) = 1/sqrt(200) < 0.1
	res, err := r.Retrieve(context.Background(), "w0", 3)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusBelowThreshold || res.Context != "" {
		t.Errorf("status = %s, context = %q", res.Status, res.Context)
	}
	if len(res.Chunks) == 0 || res.Chunks[0].Score >= DefaultMinScore {
		t.Errorf("chunks = %+v", res.Chunks)
	}

	r, idx = newTestRetriever(t)
	mustAdd(t, idx, "Hundred", words(100)) // exactly 0.1
	res, _ = r.Retrieve(context.Background(), "w0", 3)
	if res.Status != StatusMatched {
		t.Errorf("score equal to threshold: status = %s", res.Status)
	}

	r, idx = newTestRetriever(t, WithMinScore(0.6))
	mustAdd(t, idx, "Furniture", "red lamp desk chair")
	res, _ = r.Retrieve(context.Background(), "red", 3)
	if res.Status != StatusBelowThreshold || r.MinScore() != 0.6 {
		t.Errorf("custom threshold: status = %s", res.Status)
	}
}

func TestRetrieve_deletion(t *testing.T) {
	r, idx := newTestRetriever(t)
	ctx := context.Background()
	widget := mustAdd(t, idx, "Widget", "The blue widget costs 10 dollars")
	mustAdd(t, idx, "Lamp", "A red lamp for the desk")

	if err := idx.Delete(ctx, widget); err != nil {
		t.Fatal(err)
	}
	docs, _ := idx.GetAll(ctx)
	for _, d := range docs {
		if d.ID == widget {
			t.Fatal("deleted document still listed")
		}
	}
	res, err := r.Retrieve(ctx, "blue widget", 3)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range res.Chunks {
		if c.DocumentID == widget {
			t.Errorf("deleted document surfaced: %+v", c)
		}
	}
	if res.Found() {
		t.Errorf("status = %s", res.Status)
	}
}

func TestRetrieve_clearThenReload(t *testing.T) {
	r, idx := newTestRetriever(t)
	ctx := context.Background()
	mustAdd(t, idx, "Widget", "The blue widget")
	if err := idx.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	docs, _ := idx.GetAll(ctx)
	if len(docs) != 0 {
		t.Fatalf("%d documents after clear", len(docs))
	}
	res, _ := r.Retrieve(ctx, "blue widget", 3)
	if res.Status != StatusEmptyKnowledgeBase {
		t.Errorf("status after clear = %s", res.Status)
	}

	id := mustAdd(t, idx, "Widget v2", "The blue widget is back")
	if id <= 0 {
		t.Errorf("id after clear = %d", id)
	}
	text, found, _ := r.RetrieveContext(ctx, "blue widget", 1)
	if !found || !strings.HasPrefix(text, "[Source 1: Widget v2]") {
		t.Errorf("after reload: %q, %v", text, found)
	}
}

type failingSource struct{ err error }

func (f failingSource) ListDocuments(context.Context) ([]*models.Document, error) {
	return nil, f.err
}

func TestRetrieve_storeError(t *testing.T) {
	r := NewRetriever(failingSource{err: &storage.TxError{Op: "list documents", Err: errors.New("disk I/O error")}})
	text, found, err := r.RetrieveContext(context.Background(), "blue widget", 3)
	if !errors.Is(err, storage.ErrTransactionFailed) {
		t.Errorf("got %v, want ErrTransactionFailed", err)
	}
	if found || text != "" {
		t.Errorf("store error must not yield context: %q, %v", text, found)
	}

	r = NewRetriever(failingSource{err: storage.ErrStoreUnavailable})
	if _, err := r.Retrieve(context.Background(), "x", 1); !errors.Is(err, storage.ErrStoreUnavailable) {
		t.Errorf("got %v", err)
	}
}

func TestResult_Response(t *testing.T) {
	res := &Result{Query: "q", Status: StatusNoMatch}
	resp := res.Response()
	if resp.Found || resp.Status != "no_match" || resp.Results == nil {
		t.Errorf("response = %+v", resp)
	}
}

func TestFormat(t *testing.T) {
	got := Format([]*models.ScoredChunk{
		{Source: "A", Content: "alpha"},
		{Source: "B", Content: "beta"},
	})
	if got != "[Source 1: A]\nalpha\n\n---\n\n[Source 2: B]\nbeta" {
		t.Errorf("got %q", got)
	}
	if Format(nil) != "" {
		t.Error("no chunks should format as empty")
	}
}
