package retriever

import (
	"context"
	"errors"
	"testing"

	"kb-assistant-be/internal/entity"
	"kb-assistant-be/internal/repository/contract"
	"kb-assistant-be/internal/repository/specification"
	"kb-assistant-be/internal/repository/unitofwork"
	"kb-assistant-be/pkg/embedding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChunkRepo struct {
	counts      map[string]int64
	scored      []*contract.ScoredDocumentChunk
	searchCalls int
}

func (f *fakeChunkRepo) Create(ctx context.Context, chunk *entity.DocumentChunk) error { return nil }
func (f *fakeChunkRepo) CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error {
	return nil
}
func (f *fakeChunkRepo) DeleteByTenantId(ctx context.Context, tenantId string) error { return nil }
func (f *fakeChunkRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error) {
	return nil, nil
}

func (f *fakeChunkRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	for _, spec := range specs {
		if byTenant, ok := spec.(specification.ByTenantID); ok {
			return f.counts[byTenant.TenantID], nil
		}
	}
	return 0, nil
}

func (f *fakeChunkRepo) SearchSimilar(ctx context.Context, emb []float32, limit int, tenantId string) ([]*contract.ScoredDocumentChunk, error) {
	f.searchCalls++
	return f.scored, nil
}

type fakeUow struct {
	chunkRepo *fakeChunkRepo
}

func (f *fakeUow) Begin(ctx context.Context) error { return nil }
func (f *fakeUow) Commit() error                   { return nil }
func (f *fakeUow) Rollback() error                 { return nil }
func (f *fakeUow) DocumentChunkRepository() contract.DocumentChunkRepository {
	return f.chunkRepo
}
func (f *fakeUow) ChatMessageRepository() contract.ChatMessageRepository { return nil }

type fakeFactory struct {
	uow *fakeUow
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return f.uow }

type countingEmbedder struct {
	calls int
}

func (c *countingEmbedder) Generate(ctx context.Context, text, taskType string) (*embedding.EmbeddingResponse, error) {
	c.calls++
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.1, 0.2, 0.3}},
	}, nil
}

func newTestRetriever(counts map[string]int64, scored []*contract.ScoredDocumentChunk) (*Retriever, *fakeChunkRepo, *countingEmbedder) {
	repo := &fakeChunkRepo{counts: counts, scored: scored}
	embedder := &countingEmbedder{}
	r := NewRetriever(&fakeFactory{uow: &fakeUow{chunkRepo: repo}}, embedder)
	return r, repo, embedder
}

func TestLoadFailsFastOnEmptyIndex(t *testing.T) {
	r, _, _ := newTestRetriever(map[string]int64{"acme": 12, "globex": 0}, nil)

	err := r.Load(context.Background(), []string{"acme", "globex"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIndexNotLoaded))
	assert.Contains(t, err.Error(), "globex")
}

func TestLoadMarksTenantsLoaded(t *testing.T) {
	r, _, _ := newTestRetriever(map[string]int64{"acme": 12}, nil)

	require.NoError(t, r.Load(context.Background(), []string{"acme"}))
	assert.True(t, r.Loaded("acme"))
	assert.False(t, r.Loaded("globex"))
}

func TestSimilaritySearchRejectsUnloadedTenant(t *testing.T) {
	r, _, _ := newTestRetriever(map[string]int64{}, nil)

	_, err := r.SimilaritySearch(context.Background(), "acme", "q", 3)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIndexNotLoaded))
}

func TestSimilaritySearchMemoizesQueryEmbedding(t *testing.T) {
	scored := []*contract.ScoredDocumentChunk{
		{Chunk: &entity.DocumentChunk{Document: "chunk", Source: "acme.csv", RowNo: 4}, Similarity: 0.7},
	}
	r, repo, embedder := newTestRetriever(map[string]int64{"acme": 1}, scored)
	require.NoError(t, r.Load(context.Background(), []string{"acme"}))

	_, err := r.SimilaritySearch(context.Background(), "acme", "same question", 3)
	require.NoError(t, err)
	_, err = r.SimilaritySearch(context.Background(), "acme", "same question", 3)
	require.NoError(t, err)

	assert.Equal(t, 1, embedder.calls)
	assert.Equal(t, 2, repo.searchCalls)
}

func TestSimilaritySearchAnnotatesMetadata(t *testing.T) {
	scored := []*contract.ScoredDocumentChunk{
		{Chunk: &entity.DocumentChunk{Document: "chunk", Source: "acme.csv", RowNo: 4}, Similarity: 0.7},
	}
	r, _, _ := newTestRetriever(map[string]int64{"acme": 1}, scored)
	require.NoError(t, r.Load(context.Background(), []string{"acme"}))

	docs, err := r.SimilaritySearch(context.Background(), "acme", "q", 3)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Equal(t, "chunk", docs[0].PageContent)
	assert.Equal(t, "acme.csv", docs[0].Metadata["source"])
	assert.Equal(t, 4, docs[0].Metadata["row"])
	assert.InDelta(t, 0.7, docs[0].Similarity, 1e-9)
}

func TestRefreshUpdatesReadiness(t *testing.T) {
	counts := map[string]int64{"acme": 0}
	r, _, _ := newTestRetriever(counts, nil)

	assert.False(t, r.Loaded("acme"))

	counts["acme"] = 9
	require.NoError(t, r.Refresh(context.Background(), "acme"))
	assert.True(t, r.Loaded("acme"))
}
