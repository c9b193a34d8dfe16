package repository

import (
	"context"

	"stock-ledger/internal/domain"
	"stock-ledger/internal/kvstore"
)

// UserRepository holds the Users table in memory. Mutations are persisted by
// saving Snapshot through the store adapter.
type UserRepository interface {
	Load(ctx context.Context)
	Append(user domain.User)
	List() []domain.User
	Snapshot() kvstore.Entry
}
