package rag

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/sabia-ai/sabia/types"
)

const (
	// DefaultSearchK is the default fan-out for similarity search.
	DefaultSearchK = 3

	// contextSearchK is the fixed fan-out used by RelevantContext,
	// independent of the token budget.
	contextSearchK = 5

	// DefaultMaxContextTokens is the default token budget for assembled
	// context.
	DefaultMaxContextTokens = 2000
)

const tracerName = "github.com/sabia-ai/sabia/rag"

// KnowledgeBase orchestrates the chunker, embedder and vector index behind a
// single ingest/search surface. The embedder is chosen once at construction
// and fixed for the instance's lifetime.
//
// Mutating operations (AddDocuments, Clear, LoadIndex) are serialized;
// searches run concurrently against the index's read path.
type KnowledgeBase struct {
	mu        sync.Mutex // serializes mutations of index + docCount together
	embedder  Embedder
	chunker   *Chunker
	index     *FlatIndex
	assembler *ContextAssembler
	docCount  int
	logger    *zap.Logger
}

// KnowledgeBaseOption configures a KnowledgeBase.
type KnowledgeBaseOption func(*KnowledgeBase)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) KnowledgeBaseOption {
	return func(kb *KnowledgeBase) {
		if logger != nil {
			kb.logger = logger
		}
	}
}

// WithAssembler replaces the default len/4 context assembler.
func WithAssembler(assembler *ContextAssembler) KnowledgeBaseOption {
	return func(kb *KnowledgeBase) {
		if assembler != nil {
			kb.assembler = assembler
		}
	}
}

// NewKnowledgeBase creates an empty knowledge base over the given embedder
// and chunker.
func NewKnowledgeBase(embedder Embedder, chunker *Chunker, opts ...KnowledgeBaseOption) *KnowledgeBase {
	kb := &KnowledgeBase{
		embedder:  embedder,
		chunker:   chunker,
		assembler: NewContextAssembler(nil),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(kb)
	}
	kb.index = NewFlatIndex(kb.logger)
	return kb
}

// AddDocuments ingests a batch of texts. When metadatas is nil, one
// {source: doc_<uuid>} mapping is synthesized per text; otherwise the two
// slices must have equal length (ErrArityMismatch). Blank texts are skipped
// with a warning; when every text is skipped the call is a no-op. Each valid
// text is chunked, every chunk embedded, and all triples inserted into the
// index as one batch. There is no partial rollback across texts: chunks from
// valid texts stay even when others were skipped.
func (kb *KnowledgeBase) AddDocuments(ctx context.Context, texts []string, metadatas []Metadata) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "rag.AddDocuments",
		trace.WithAttributes(attribute.Int("rag.texts", len(texts))))
	defer span.End()

	if metadatas == nil {
		metadatas = make([]Metadata, len(texts))
		for i := range texts {
			metadatas[i] = Metadata{"source": "doc_" + uuid.NewString()}
		}
	}
	if len(texts) != len(metadatas) {
		return types.NewError(types.ErrArityMismatch,
			"texts and metadatas must have the same length")
	}

	var (
		chunkContents []string
		chunkMetas    []Metadata
		validDocs     int
	)
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			kb.logger.Warn("skipping invalid document", zap.Int("position", i))
			continue
		}
		validDocs++
		for _, chunk := range kb.chunker.Split(text) {
			chunkContents = append(chunkContents, chunk)
			chunkMetas = append(chunkMetas, metadatas[i].Clone())
		}
	}

	if validDocs == 0 {
		kb.logger.Warn("no valid documents to add")
		return nil
	}

	vectors, err := kb.embedder.EmbedDocuments(ctx, chunkContents)
	if err != nil {
		return types.NewError(types.ErrEmbeddingUnavailable, "failed to embed documents").
			WithProvider(kb.embedder.Name()).
			WithCause(err)
	}

	kb.mu.Lock()
	defer kb.mu.Unlock()

	if err := kb.index.Insert(vectors, chunkContents, chunkMetas); err != nil {
		return err
	}
	kb.docCount += validDocs

	kb.logger.Info("documents added to knowledge base",
		zap.Int("documents", validDocs),
		zap.Int("chunks", len(chunkContents)),
		zap.Int("total_chunks", kb.index.Len()))

	span.SetAttributes(attribute.Int("rag.chunks", len(chunkContents)))
	return nil
}

// AddDocumentFromText ingests a single text. A nil metadata gets a
// synthesized {source: doc_<uuid>} mapping.
func (kb *KnowledgeBase) AddDocumentFromText(ctx context.Context, text string, metadata Metadata) error {
	if metadata == nil {
		metadata = Metadata{"source": "doc_" + uuid.NewString()}
	}
	return kb.AddDocuments(ctx, []string{text}, []Metadata{metadata})
}

// SimilaritySearch returns up to k chunks ranked by similarity to query.
// Returns empty immediately, without touching the embedder, when the index
// is empty, the query is blank, or k <= 0.
func (kb *KnowledgeBase) SimilaritySearch(ctx context.Context, query string, k int) ([]Chunk, error) {
	hits, err := kb.SimilaritySearchWithScore(ctx, query, k)
	if err != nil {
		return nil, err
	}
	chunks := make([]Chunk, len(hits))
	for i, hit := range hits {
		chunks[i] = Chunk{Content: hit.Content, Metadata: hit.Metadata}
	}
	return chunks, nil
}

// SimilaritySearchWithScore is SimilaritySearch with each hit carrying its
// cosine similarity score.
func (kb *KnowledgeBase) SimilaritySearchWithScore(ctx context.Context, query string, k int) ([]SearchHit, error) {
	if kb.index.Len() == 0 || strings.TrimSpace(query) == "" || k <= 0 {
		return nil, nil
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "rag.SimilaritySearch",
		trace.WithAttributes(attribute.Int("rag.k", k)))
	defer span.End()

	vec, err := kb.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, types.NewError(types.ErrEmbeddingUnavailable, "failed to embed query").
			WithProvider(kb.embedder.Name()).
			WithCause(err)
	}

	hits, err := kb.index.Search(vec, k)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("rag.hits", len(hits)))
	return hits, nil
}

// RelevantContext searches with a fixed fan-out of five and assembles the
// hits into a single context string bounded by maxTokens estimated tokens.
func (kb *KnowledgeBase) RelevantContext(ctx context.Context, query string, maxTokens int) (string, error) {
	chunks, err := kb.SimilaritySearch(ctx, query, contextSearchK)
	if err != nil {
		return "", err
	}

	contents := make([]string, len(chunks))
	for i, c := range chunks {
		contents[i] = c.Content
	}
	return kb.assembler.Assemble(contents, maxTokens), nil
}

// Clear empties the knowledge base: all chunks are discarded and the
// document count resets to zero.
func (kb *KnowledgeBase) Clear() {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	kb.index.Clear()
	kb.docCount = 0
	kb.logger.Info("knowledge base cleared")
}

// ChunkCount returns the number of chunks currently indexed. Chunking
// inflates this above the number of ingested documents.
func (kb *KnowledgeBase) ChunkCount() int {
	return kb.index.Len()
}

// DocumentCount returns the number of source documents ingested since
// construction or the last Clear.
func (kb *KnowledgeBase) DocumentCount() int {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	return kb.docCount
}

// Embedder returns the embedder selected at construction.
func (kb *KnowledgeBase) Embedder() Embedder {
	return kb.embedder
}

// SaveIndex snapshots the vector index to path.
func (kb *KnowledgeBase) SaveIndex(path string) error {
	return kb.index.Save(path)
}

// LoadIndex replaces the vector index with a snapshot from path. A missing
// file is a no-op. The document count is not recoverable from a snapshot and
// is left unchanged.
func (kb *KnowledgeBase) LoadIndex(path string) error {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	return kb.index.Load(path)
}
