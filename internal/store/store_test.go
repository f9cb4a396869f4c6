package store

import (
	"context"

	"github.com/hyperengineering/genscript/internal/types"
)

// mockStore is a compile-time check that the Store interface can be implemented.
type mockStore struct{}

var _ Store = (*mockStore)(nil)
var _ Store = (*SQLiteStore)(nil)

func (m *mockStore) SaveIdeas(ctx context.Context, ideas []types.Idea) (*types.SaveResult, error) {
	return nil, nil
}
func (m *mockStore) ListIdeas(ctx context.Context) ([]types.Idea, error) {
	return nil, nil
}
func (m *mockStore) GetIdea(ctx context.Context, id string) (*types.Idea, error) {
	return nil, nil
}
func (m *mockStore) DeleteIdea(ctx context.Context, id string) error {
	return nil
}
func (m *mockStore) ExistingTitles(ctx context.Context) ([]string, error) {
	return nil, nil
}
func (m *mockStore) RecordGeneration(ctx context.Context, g types.Generation) (*types.Generation, error) {
	return nil, nil
}
func (m *mockStore) ListGenerations(ctx context.Context, limit int) ([]types.Generation, error) {
	return nil, nil
}
func (m *mockStore) GenerateSnapshot(ctx context.Context, path string) error {
	return nil
}
func (m *mockStore) GetStats(ctx context.Context) (*types.StoreStats, error) {
	return nil, nil
}
func (m *mockStore) Close() error {
	return nil
}
