package kv

import (
	"context"
	"slices"

	"stock-ledger/internal/domain"
	"stock-ledger/internal/kvstore"
	"stock-ledger/internal/repository"
)

type UserRepository struct {
	store *kvstore.Adapter
	users []domain.User
}

func NewUserRepository(store *kvstore.Adapter) repository.UserRepository {
	return &UserRepository{store: store}
}

func (r *UserRepository) Load(ctx context.Context) {
	r.users = kvstore.Load(ctx, r.store, kvstore.KeyUsers, []domain.User{})
}

func (r *UserRepository) Append(user domain.User) {
	r.users = append(r.users, user)
}

func (r *UserRepository) List() []domain.User {
	if r.users == nil {
		return []domain.User{}
	}
	return slices.Clone(r.users)
}

func (r *UserRepository) Snapshot() kvstore.Entry {
	return kvstore.Entry{Key: kvstore.KeyUsers, Value: r.List()}
}
