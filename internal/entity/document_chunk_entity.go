package entity

import (
	"time"

	"github.com/google/uuid"
)

type DocumentChunk struct {
	Id         uuid.UUID
	TenantId   string
	Source     string
	RowNo      int
	ChunkIndex int
	Document   string
	Embedding  []float32
	Metadata   map[string]interface{}
	CreatedAt  time.Time
}
