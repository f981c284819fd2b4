package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dkosarev/admincore/internal/core/port"
)

// ErrInvalidBypassPath indicates a path that cannot enter the bypass set.
var ErrInvalidBypassPath = errors.New("bypass path must start with /")

// BypassService administers the dynamic authentication whitelist.
type BypassService struct {
	store port.BypassStore
}

// NewBypassService constructs a BypassService.
func NewBypassService(store port.BypassStore) *BypassService {
	return &BypassService{store: store}
}

// List returns every whitelisted path.
func (s *BypassService) List(ctx context.Context) ([]string, error) {
	paths, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bypass paths: %w", err)
	}
	return paths, nil
}

// Add whitelists a path. Every request to it is admitted without a token
// from the moment this returns.
func (s *BypassService) Add(ctx context.Context, path string) error {
	path, err := normalizeBypassPath(path)
	if err != nil {
		return err
	}
	return s.store.Add(ctx, path)
}

// Remove ends the path's authentication exemption.
func (s *BypassService) Remove(ctx context.Context, path string) error {
	path, err := normalizeBypassPath(path)
	if err != nil {
		return err
	}
	return s.store.Remove(ctx, path)
}

// Rename atomically replaces oldPath with newPath in the bypass set. Any
// error means the swap did not happen; there is no partial state to clean up.
func (s *BypassService) Rename(ctx context.Context, oldPath, newPath string) error {
	oldPath, err := normalizeBypassPath(oldPath)
	if err != nil {
		return err
	}
	newPath, err = normalizeBypassPath(newPath)
	if err != nil {
		return err
	}
	return s.store.Rename(ctx, oldPath, newPath)
}

func normalizeBypassPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, "/") {
		return "", ErrInvalidBypassPath
	}
	return path, nil
}
