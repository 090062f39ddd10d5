package answer

import (
	"context"

	"github.com/kailas-cloud/vince/internal/domain/rag/passage"
	"github.com/kailas-cloud/vince/internal/domain/rag/request"
)

// Retriever selects ranked passages for a request.
type Retriever interface {
	Retrieve(ctx context.Context, req *request.Request) ([]passage.Passage, error)
}
