package service

import (
	"context"

	"stock-ledger/internal/domain"
	"stock-ledger/internal/metrics"
)

// RegisterUser validates and appends a user. Emails are not required to be
// unique.
func (s *inventory) RegisterUser(ctx context.Context, fullName, email string) (domain.User, error) {
	in, err := domain.ValidateUser(fullName, email)
	if err != nil {
		return domain.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user := domain.User{
		ID:        s.newID(),
		FullName:  in.FullName,
		Email:     in.Email,
		CreatedAt: s.now(),
	}
	s.users.Append(user)
	s.commit(ctx, s.users.Snapshot())

	metrics.RecordRegistration("user")
	s.logger.WithField("user_id", user.ID).Info("user registered")
	return user, nil
}

func (s *inventory) ListUsers(_ context.Context) []domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users.List()
}
