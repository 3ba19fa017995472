package application

import (
	"context"
	"io"

	"github.com/oksasatya/go-library-management/internal/domain/entity"
)

// EventPublisher puts a message on the loan events queue.
type EventPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// BookIndexer mirrors the catalog into a full-text index. SearchIDs returns
// book ids ranked by relevance.
type BookIndexer interface {
	Index(ctx context.Context, b *entity.Book) error
	Delete(ctx context.Context, id int64) error
	SearchIDs(ctx context.Context, q string, size int) ([]int64, error)
}

// ObjectUploader stores a blob and returns where it can be fetched from.
type ObjectUploader interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}
