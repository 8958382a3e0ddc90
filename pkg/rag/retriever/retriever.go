package retriever

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"kb-assistant-be/internal/repository/specification"
	"kb-assistant-be/internal/repository/unitofwork"
	"kb-assistant-be/pkg/embedding"

	gocache "github.com/patrickmn/go-cache"
)

// ErrIndexNotLoaded is returned when a tenant has no verified knowledge
// base. Startup fails fast on this, so seeing it at request time means
// the tenant was never configured.
var ErrIndexNotLoaded = errors.New("knowledge base index not loaded")

const (
	queryCacheTTL     = 5 * time.Minute
	queryCacheCleanup = 10 * time.Minute
)

// Document is a retrieved chunk plus its similarity to the query.
type Document struct {
	PageContent string
	Metadata    map[string]interface{}
	Similarity  float64
}

// Retriever answers similarity queries against per-tenant document
// chunks stored in pgvector. Query embeddings are memoized so repeated
// or condensed-to-identical questions skip the embedding round trip.
type Retriever struct {
	uowFactory unitofwork.RepositoryFactory
	embedder   embedding.EmbeddingProvider

	queryCache *gocache.Cache

	mu     sync.RWMutex
	chunks map[string]int64 // tenant id -> verified chunk count
}

func NewRetriever(uowFactory unitofwork.RepositoryFactory, embedder embedding.EmbeddingProvider) *Retriever {
	return &Retriever{
		uowFactory: uowFactory,
		embedder:   embedder,
		queryCache: gocache.New(queryCacheTTL, queryCacheCleanup),
		chunks:     make(map[string]int64),
	}
}

// Load verifies that every configured tenant has an ingested knowledge
// base and records the chunk counts. It is called once at startup and
// returns an error naming the first tenant whose index is missing.
func (r *Retriever) Load(ctx context.Context, tenants []string) error {
	uow := r.uowFactory.NewUnitOfWork(ctx)

	for _, tenant := range tenants {
		count, err := uow.DocumentChunkRepository().Count(ctx, specification.ByTenantID{TenantID: tenant})
		if err != nil {
			return fmt.Errorf("verify index for tenant %s: %w", tenant, err)
		}
		if count == 0 {
			return fmt.Errorf("tenant %s: %w", tenant, ErrIndexNotLoaded)
		}

		r.mu.Lock()
		r.chunks[tenant] = count
		r.mu.Unlock()
	}

	return nil
}

// Refresh re-verifies a single tenant after its index was rebuilt.
func (r *Retriever) Refresh(ctx context.Context, tenant string) error {
	uow := r.uowFactory.NewUnitOfWork(ctx)

	count, err := uow.DocumentChunkRepository().Count(ctx, specification.ByTenantID{TenantID: tenant})
	if err != nil {
		return fmt.Errorf("refresh index for tenant %s: %w", tenant, err)
	}

	r.mu.Lock()
	r.chunks[tenant] = count
	r.mu.Unlock()

	return nil
}

// Loaded reports whether the tenant has a verified, non-empty index.
func (r *Retriever) Loaded(tenant string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.chunks[tenant] > 0
}

// SimilaritySearch embeds the query and returns the k nearest chunks
// for the tenant, nearest first.
func (r *Retriever) SimilaritySearch(ctx context.Context, tenant, query string, k int) ([]Document, error) {
	if !r.Loaded(tenant) {
		return nil, fmt.Errorf("tenant %s: %w", tenant, ErrIndexNotLoaded)
	}

	vector, err := r.embedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	uow := r.uowFactory.NewUnitOfWork(ctx)
	scored, err := uow.DocumentChunkRepository().SearchSimilar(ctx, vector, k, tenant)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	docs := make([]Document, len(scored))
	for i, s := range scored {
		metadata := s.Chunk.Metadata
		if metadata == nil {
			metadata = map[string]interface{}{}
		}
		metadata["source"] = s.Chunk.Source
		metadata["row"] = s.Chunk.RowNo

		docs[i] = Document{
			PageContent: s.Chunk.Document,
			Metadata:    metadata,
			Similarity:  s.Similarity,
		}
	}
	return docs, nil
}

func (r *Retriever) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if cached, found := r.queryCache.Get(query); found {
		if vector, ok := cached.([]float32); ok {
			return vector, nil
		}
	}

	resp, err := r.embedder.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, err
	}

	r.queryCache.Set(query, resp.Embedding.Values, gocache.DefaultExpiration)
	return resp.Embedding.Values, nil
}
