package orch

import (
	"context"
	"fmt"

	"github.com/dkeye/huddle/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RegisterUser creates a user and issues its bearer token.
func (o *Orchestrator) RegisterUser(ctx context.Context, username string) (*domain.User, string, error) {
	user, err := domain.NewUser(username)
	if err != nil {
		return nil, "", err
	}
	token := uuid.NewString()
	if err := o.Users.CreateUser(ctx, user, token); err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}
	log.Info().Str("module", "orch").Str("user", string(user.ID)).Str("username", user.Username).Msg("user registered")
	return user, token, nil
}

func (o *Orchestrator) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	return o.Users.Resolve(ctx, token)
}
