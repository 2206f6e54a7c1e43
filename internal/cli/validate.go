package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sdejongh/ftpsync/internal/platform"
	"github.com/sdejongh/ftpsync/pkg/models"
	"github.com/sdejongh/ftpsync/pkg/storage"
)

// validateSyncFlags validates the sync command flags
func validateSyncFlags() error {
	direction, err := models.ParseDirection(syncFlags.Direction)
	if err != nil {
		return storage.NewError(storage.KindConfiguration, "sync", "", err)
	}

	// Check the local directory
	if err := platform.ValidatePath(syncFlags.Local); err != nil {
		return storage.NewError(storage.KindConfiguration, "sync", syncFlags.Local, err)
	}
	syncFlags.Local = platform.NormalizePath(syncFlags.Local)

	local := storage.NewLocal()
	exists, err := local.Exists(syncFlags.Local)
	if err != nil {
		return storage.NewError(storage.KindConfiguration, "sync", syncFlags.Local,
			fmt.Errorf("failed to access local path: %w", err))
	}

	if !exists {
		// Only a download can fill a missing directory
		if !direction.Downloads() || !syncFlags.CreateLocal {
			return storage.NewError(storage.KindConfiguration, "sync", syncFlags.Local,
				fmt.Errorf("local path does not exist (use --create-local with --direction download to create it)"))
		}
		if err := local.MkdirAll(syncFlags.Local); err != nil {
			return storage.NewError(storage.KindConfiguration, "sync", syncFlags.Local,
				fmt.Errorf("failed to create local directory: %w", err))
		}
	} else if info, err := local.Stat(syncFlags.Local); err != nil || !info.IsDir() {
		return storage.NewError(storage.KindConfiguration, "sync", syncFlags.Local,
			fmt.Errorf("local path exists but is not a directory"))
	}

	validFormats := map[string]bool{"human": true, "json": true}
	if !validFormats[syncFlags.ChangesFormat] {
		return storage.NewError(storage.KindConfiguration, "sync", "",
			fmt.Errorf("invalid changes report format: %s (valid: human, json)", syncFlags.ChangesFormat))
	}

	return nil
}

// createSyncOperation creates a sync operation from the flags
func createSyncOperation() (*models.SyncOperation, error) {
	operation := &models.SyncOperation{
		ID:              uuid.New().String(),
		LocalPath:       syncFlags.Local,
		RemotePath:      syncFlags.Remote,
		Direction:       models.Direction(syncFlags.Direction),
		ExcludePatterns: syncFlags.Exclude,
		DryRun:          syncFlags.DryRun,
		CreatedAt:       time.Now(),
	}

	if err := operation.Validate(); err != nil {
		return nil, err
	}

	return operation, nil
}
