package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/lekha-app/lekha/internal/common"
	"github.com/lekha-app/lekha/internal/config"
	"github.com/lekha-app/lekha/internal/model"
	"github.com/lekha-app/lekha/internal/service"
	"github.com/lekha-app/lekha/internal/storage"
)

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	// Get database path from config
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/lekha/lekha.db"
	}

	// Expand tilde and environment variables
	dbPath = config.ExpandPath(dbPath)

	// Initialize storage
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// resolveBook finds a book by ID or name.
func resolveBook(ctx context.Context, store service.Storage, ref string) (*model.Book, error) {
	if strings.HasPrefix(ref, "book_") {
		return store.GetBook(ctx, ref)
	}

	books, err := store.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	for i := range books {
		if strings.EqualFold(books[i].Name, ref) {
			return &books[i], nil
		}
	}
	return nil, fmt.Errorf("book %q: %w", ref, common.ErrNotFound)
}

// parseSetFlags splits repeated key=value arguments into a map.
func parseSetFlags(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid field assignment %q, expected key=value", pair)
		}
		values[key] = value
	}
	return values, nil
}
