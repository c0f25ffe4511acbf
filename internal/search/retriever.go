// Package search ranks stored chunks against a query and builds the context
// block injected into chat prompts.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/vector"
	"go.uber.org/zap"
)

const (
	// DefaultTopK is the number of chunks kept when the caller passes topK <= 0.
	DefaultTopK = 3
	// DefaultMinScore is the acceptance threshold for the best chunk.
	DefaultMinScore = 0.1

	blockSeparator = "\n\n---\n\n"
)

// Status tells why a retrieval did or did not produce context.
type Status string

const (
	StatusMatched            Status = "matched"
	StatusEmptyKnowledgeBase Status = "empty_knowledge_base"
	StatusNoMatch            Status = "no_match"
	StatusBelowThreshold     Status = "below_threshold"
)

// DocumentSource lists every stored document.
type DocumentSource interface {
	ListDocuments(ctx context.Context) ([]*models.Document, error)
}

// Result is the outcome of a retrieval. Context is set only when Status is
// StatusMatched.
type Result struct {
	Query     string
	Status    Status
	Context   string
	Chunks    []*models.ScoredChunk
	QueryTime time.Duration
}

// Found reports whether the result carries context for a prompt.
func (r *Result) Found() bool {
	return r.Status == StatusMatched
}

// Response converts the result to its API form.
func (r *Result) Response() *models.RetrieveResponse {
	chunks := r.Chunks
	if chunks == nil {
		chunks = []*models.ScoredChunk{}
	}
	return &models.RetrieveResponse{
		Query:     r.Query,
		Found:     r.Found(),
		Status:    string(r.Status),
		Context:   r.Context,
		Results:   chunks,
		QueryTime: r.QueryTime.Milliseconds(),
	}
}

// Retriever scores every chunk of every stored document against a query.
type Retriever struct {
	source   DocumentSource
	topK     int
	minScore float64
	logger   *zap.Logger
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) RetrieverOption {
	return func(r *Retriever) { r.logger = l }
}

// WithDefaultTopK sets the topK used when a call passes topK <= 0.
func WithDefaultTopK(k int) RetrieverOption {
	return func(r *Retriever) {
		if k > 0 {
			r.topK = k
		}
	}
}

// WithMinScore sets the threshold the best chunk must reach. Negative values are treated as 0.
func WithMinScore(s float64) RetrieverOption {
	return func(r *Retriever) {
		if s < 0 {
			s = 0
		}
		r.minScore = s
	}
}

// NewRetriever creates a retriever over source.
func NewRetriever(source DocumentSource, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		source:   source,
		topK:     DefaultTopK,
		minScore: DefaultMinScore,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MinScore returns the acceptance threshold.
func (r *Retriever) MinScore() float64 { return r.minScore }

// DefaultTopK returns the topK used when a call passes topK <= 0.
func (r *Retriever) DefaultTopK() int { return r.topK }

// RetrieveContext returns the formatted context block for query and true, or
// "" and false when nothing is relevant enough. Store failures are returned as
// errors.
func (r *Retriever) RetrieveContext(ctx context.Context, query string, topK int) (string, bool, error) {
	res, err := r.Retrieve(ctx, query, topK)
	if err != nil {
		return "", false, err
	}
	return res.Context, res.Found(), nil
}

// Retrieve ranks all chunks by cosine similarity to query and keeps the best topK.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) (*Result, error) {
	start := time.Now()
	if topK <= 0 {
		topK = r.topK
	}
	query = NormalizeQuery(query)

	docs, err := r.source.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	res := &Result{Query: query}
	defer func() { res.QueryTime = time.Since(start) }()

	if len(docs) == 0 {
		res.Status = StatusEmptyKnowledgeBase
		r.logger.Debug("retrieval on empty knowledge base")
		return res, nil
	}

	queryVec := vector.NewTermVector(query)
	var scored []*models.ScoredChunk
	for _, doc := range docs {
		for i, chunk := range doc.Chunks {
			score := queryVec.Cosine(vector.NewTermVector(chunk))
			if score <= 0 {
				continue
			}
			scored = append(scored, &models.ScoredChunk{
				DocumentID: doc.ID,
				Source:     doc.Title,
				ChunkIndex: i,
				Content:    chunk,
				Score:      score,
			})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}
	for i, c := range scored {
		c.Rank = i + 1
	}
	res.Chunks = scored

	switch {
	case len(scored) == 0:
		res.Status = StatusNoMatch
	case scored[0].Score < r.minScore:
		res.Status = StatusBelowThreshold
	default:
		res.Status = StatusMatched
		res.Context = Format(scored)
	}
	r.logger.Debug("retrieval finished",
		zap.String("status", string(res.Status)),
		zap.Int("documents", len(docs)),
		zap.Int("chunks", len(scored)))
	return res, nil
}

// Format renders chunks as "[Source n: title]\nchunk" blocks in order, n from 1.
func Format(chunks []*models.ScoredChunk) string {
	blocks := make([]string, len(chunks))
	for i, c := range chunks {
		blocks[i] = fmt.Sprintf("[Source %d: %s]\n%s", i+1, c.Source, c.Content)
	}
	return strings.Join(blocks, blockSeparator)
}
