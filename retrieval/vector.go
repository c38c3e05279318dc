// Package retrieval answers "what is this about" questions: nearest catalog
// document for a free-text query, and stored test cases sharing a flow's features.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/hairizuanbinnoorazman/testcrafter/embedding"
	"github.com/hairizuanbinnoorazman/testcrafter/logger"
	"github.com/hairizuanbinnoorazman/testcrafter/vectorindex"
)

var (
	// ErrNotFound is returned when the index holds nothing to match against.
	ErrNotFound = errors.New("no relevant information found")

	// ErrEmptyQuery is returned for a blank query.
	ErrEmptyQuery = errors.New("query cannot be empty")
)

// Document is a catalog entry indexed for retrieval.
type Document struct {
	ID      string `yaml:"id" json:"id"`
	Feature string `yaml:"feature" json:"feature"`
	Text    string `yaml:"text" json:"text"`
}

// Catalog is the on-disk seed format.
type Catalog struct {
	Documents []Document `yaml:"documents"`
}

// Result is the best catalog match for a query.
type Result struct {
	ID       string  `json:"retrieved_feature"`
	Feature  string  `json:"feature,omitempty"`
	Text     string  `json:"text,omitempty"`
	Distance float64 `json:"distance"`
}

// VectorRetriever embeds queries and looks up the nearest indexed document.
type VectorRetriever struct {
	embedder embedding.Embedder
	index    *vectorindex.Index
	logger   logger.Logger

	mu   sync.RWMutex
	docs map[string]Document
}

// NewVectorRetriever creates a retriever with an empty index sized to the embedder.
func NewVectorRetriever(embedder embedding.Embedder, log logger.Logger) (*VectorRetriever, error) {
	idx, err := vectorindex.New(embedder.Dimension())
	if err != nil {
		return nil, err
	}
	return &VectorRetriever{
		embedder: embedder,
		index:    idx,
		logger:   log,
		docs:     make(map[string]Document),
	}, nil
}

// Len returns the number of indexed documents.
func (r *VectorRetriever) Len() int {
	return r.index.Len()
}

// Ingest embeds and indexes the documents in order. It stops at the first failure;
// documents before it stay indexed.
func (r *VectorRetriever) Ingest(ctx context.Context, docs []Document) error {
	for _, doc := range docs {
		if doc.ID == "" {
			return fmt.Errorf("%w: document without id", vectorindex.ErrInvalidEntry)
		}

		text := doc.Text
		if text == "" {
			text = doc.ID
		}
		vec, err := r.embedder.Embed(ctx, text)
		if err != nil {
			return fmt.Errorf("failed to embed document %q: %w", doc.ID, err)
		}
		if err := r.index.Add(doc.ID, vec); err != nil {
			return fmt.Errorf("failed to index document %q: %w", doc.ID, err)
		}

		r.mu.Lock()
		r.docs[doc.ID] = doc
		r.mu.Unlock()
	}

	r.logger.Info(ctx, "documents indexed", map[string]interface{}{
		"count": len(docs),
		"total": r.index.Len(),
	})
	return nil
}

// Retrieve returns the single nearest document to query.
func (r *VectorRetriever) Retrieve(ctx context.Context, query string) (*Result, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if r.index.Len() == 0 {
		return nil, ErrNotFound
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		if errors.Is(err, embedding.ErrEmptyText) {
			return nil, ErrEmptyQuery
		}
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	match, err := r.index.Search(vec)
	if err != nil {
		if errors.Is(err, vectorindex.ErrEmptyIndex) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	r.mu.RLock()
	doc := r.docs[match.ID]
	r.mu.RUnlock()

	return &Result{
		ID:       match.ID,
		Feature:  doc.Feature,
		Text:     doc.Text,
		Distance: match.Distance,
	}, nil
}

// LoadCatalog reads a YAML seed catalog.
func LoadCatalog(path string) ([]Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer file.Close()

	var catalog Catalog
	d := yaml.NewDecoder(file)
	if err := d.Decode(&catalog); err != nil {
		return nil, fmt.Errorf("failed to decode catalog %s: %w", path, err)
	}
	return catalog.Documents, nil
}
