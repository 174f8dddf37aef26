package unitofwork

import (
	"context"

	"video-rag-chat-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	MemoryRecordRepository() contract.MemoryRecordRepository
}

// RepositoryFactory hands out units of work bound to one request context.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
