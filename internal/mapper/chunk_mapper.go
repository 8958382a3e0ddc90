package mapper

import (
	"encoding/json"

	"kb-assistant-be/internal/entity"
	"kb-assistant-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type ChunkMapper struct{}

func NewChunkMapper() *ChunkMapper {
	return &ChunkMapper{}
}

func (m *ChunkMapper) ToEntity(c *model.DocumentChunk) *entity.DocumentChunk {
	if c == nil {
		return nil
	}

	var metadata map[string]interface{}
	if len(c.Metadata) > 0 {
		// A corrupt metadata blob degrades to nil rather than failing the read.
		_ = json.Unmarshal(c.Metadata, &metadata)
	}

	return &entity.DocumentChunk{
		Id:         c.Id,
		TenantId:   c.TenantId,
		Source:     c.Source,
		RowNo:      c.RowNo,
		ChunkIndex: c.ChunkIndex,
		Document:   c.Document,
		Embedding:  c.Embedding.Slice(),
		Metadata:   metadata,
		CreatedAt:  c.CreatedAt,
	}
}

func (m *ChunkMapper) ToModel(c *entity.DocumentChunk) *model.DocumentChunk {
	if c == nil {
		return nil
	}

	var metadata datatypes.JSON
	if c.Metadata != nil {
		if raw, err := json.Marshal(c.Metadata); err == nil {
			metadata = raw
		}
	}

	return &model.DocumentChunk{
		Id:         c.Id,
		TenantId:   c.TenantId,
		Source:     c.Source,
		RowNo:      c.RowNo,
		ChunkIndex: c.ChunkIndex,
		Document:   c.Document,
		Embedding:  pgvector.NewVector(c.Embedding),
		Metadata:   metadata,
		CreatedAt:  c.CreatedAt,
	}
}
