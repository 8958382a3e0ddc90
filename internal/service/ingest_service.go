package service

import (
	"context"
	"fmt"
	"path/filepath"

	"kb-assistant-be/internal/config"
	"kb-assistant-be/internal/entity"
	"kb-assistant-be/internal/pkg/logger"
	"kb-assistant-be/internal/repository/unitofwork"
	"kb-assistant-be/pkg/csvdoc"
	"kb-assistant-be/pkg/embedding"
	"kb-assistant-be/pkg/events"
	"kb-assistant-be/pkg/nats"
	"kb-assistant-be/pkg/splitter"
)

const (
	chunkSize      = 2000
	chunkOverlap   = 400
	chunkSeparator = ","
)

type IIngestService interface {
	IngestTenant(ctx context.Context, tenant string) (int, error)
	IngestAll(ctx context.Context) error
}

// ingestService rebuilds a tenant's vector index from its CSV export.
// The rebuild replaces the old index atomically: readers keep seeing
// the previous chunks until the transaction commits.
type ingestService struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	natsPublisher     *nats.Publisher
	ragCfg            config.RagConfig
	logger            logger.ILogger
}

func NewIngestService(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	natsPublisher *nats.Publisher,
	ragCfg config.RagConfig,
	sysLogger logger.ILogger,
) IIngestService {
	return &ingestService{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		natsPublisher:     natsPublisher,
		ragCfg:            ragCfg,
		logger:            sysLogger,
	}
}

func (is *ingestService) IngestAll(ctx context.Context) error {
	for _, tenant := range is.ragCfg.Tenants {
		count, err := is.IngestTenant(ctx, tenant)
		if err != nil {
			return fmt.Errorf("ingest tenant %s: %w", tenant, err)
		}
		is.logger.Info("ingest", "tenant index rebuilt", map[string]interface{}{
			"tenant": tenant,
			"chunks": count,
		})
	}
	return nil
}

func (is *ingestService) IngestTenant(ctx context.Context, tenant string) (int, error) {
	path := filepath.Join(is.ragCfg.DataDir, tenant+".csv")

	docs, err := csvdoc.Load(path)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", path, err)
	}

	chunks, err := is.buildChunks(ctx, tenant, docs)
	if err != nil {
		return 0, err
	}

	if err := is.replaceIndex(ctx, tenant, chunks); err != nil {
		return 0, err
	}

	if is.natsPublisher != nil {
		if err := is.natsPublisher.Publish(ctx, events.NewIndexRebuilt(tenant, len(chunks))); err != nil {
			// Running servers miss the refresh signal but stay on the
			// committed index; the next restart picks it up.
			is.logger.Warn("ingest", "failed to publish index rebuilt event", map[string]interface{}{
				"tenant": tenant,
				"error":  err.Error(),
			})
		}
	}

	return len(chunks), nil
}

func (is *ingestService) buildChunks(ctx context.Context, tenant string, docs []csvdoc.Document) ([]*entity.DocumentChunk, error) {
	var chunks []*entity.DocumentChunk

	for _, doc := range docs {
		pieces := splitter.Split(doc.PageContent, chunkSize, chunkOverlap, chunkSeparator)

		for idx, piece := range pieces {
			resp, err := is.embeddingProvider.Generate(ctx, piece, embedding.TaskRetrievalDocument)
			if err != nil {
				return nil, fmt.Errorf("embed chunk %d of row %d: %w", idx, doc.Row, err)
			}

			chunks = append(chunks, &entity.DocumentChunk{
				TenantId:   tenant,
				Source:     doc.Source,
				RowNo:      doc.Row,
				ChunkIndex: idx,
				Document:   piece,
				Embedding:  resp.Embedding.Values,
				Metadata: map[string]interface{}{
					"source": doc.Source,
					"row":    doc.Row,
				},
			})
		}
	}

	return chunks, nil
}

func (is *ingestService) replaceIndex(ctx context.Context, tenant string, chunks []*entity.DocumentChunk) error {
	uow := is.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	if err := uow.DocumentChunkRepository().DeleteByTenantId(ctx, tenant); err != nil {
		uow.Rollback()
		return fmt.Errorf("clear previous index: %w", err)
	}

	if err := uow.DocumentChunkRepository().CreateBulk(ctx, chunks); err != nil {
		uow.Rollback()
		return fmt.Errorf("insert chunks: %w", err)
	}

	return uow.Commit()
}
