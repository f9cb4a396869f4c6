package store

import (
	"context"

	"github.com/hyperengineering/genscript/internal/types"
)

// Store defines the interface contract for idea persistence.
type Store interface {
	SaveIdeas(ctx context.Context, ideas []types.Idea) (*types.SaveResult, error)
	ListIdeas(ctx context.Context) ([]types.Idea, error)
	GetIdea(ctx context.Context, id string) (*types.Idea, error)
	DeleteIdea(ctx context.Context, id string) error
	ExistingTitles(ctx context.Context) ([]string, error)
	RecordGeneration(ctx context.Context, g types.Generation) (*types.Generation, error)
	ListGenerations(ctx context.Context, limit int) ([]types.Generation, error)
	GenerateSnapshot(ctx context.Context, path string) error
	GetStats(ctx context.Context) (*types.StoreStats, error)
	Close() error
}
