// Package session keeps one ViewState per visitor.
package session

import (
	"context"
	"encoding/json"
	"fmt"

	"activities-web/internal/domain"
	apperrors "activities-web/pkg/errors"
)

// Store persists view states keyed by session ID. Update is an atomic
// read-modify-write: fn runs against the current state of the session (a
// fresh empty view when none exists) and the result replaces it unless fn
// fails.
type Store interface {
	Load(ctx context.Context, sessionID string) (*domain.ViewState, error)
	Update(ctx context.Context, sessionID string, fn func(*domain.ViewState) error) (*domain.ViewState, error)
	Health(ctx context.Context) error
}

func encode(view *domain.ViewState) ([]byte, error) {
	data, err := json.Marshal(view)
	if err != nil {
		return nil, fmt.Errorf("failed to encode view state: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*domain.ViewState, error) {
	view := domain.NewViewState()
	if err := json.Unmarshal(data, view); err != nil {
		return nil, apperrors.NewInternalError("stored view state is corrupt", err)
	}
	return view, nil
}
