package models

import (
	"time"
)

// Direction defines which side drives a sync
type Direction string

const (
	// DirectionUpload mirrors the local tree onto the remote
	DirectionUpload Direction = "upload"
	// DirectionDownload mirrors the remote tree onto the local one
	DirectionDownload Direction = "download"
	// DirectionBoth runs an upload pass followed by a download pass
	DirectionBoth Direction = "both"
)

// Uploads reports whether the direction includes an upload pass
func (d Direction) Uploads() bool {
	return d == DirectionUpload || d == DirectionBoth
}

// Downloads reports whether the direction includes a download pass
func (d Direction) Downloads() bool {
	return d == DirectionDownload || d == DirectionBoth
}

// ParseDirection converts a user supplied direction
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case DirectionUpload, DirectionDownload, DirectionBoth:
		return d, nil
	case "":
		return DirectionUpload, nil
	}
	return "", &ValidationError{Field: "Direction", Message: "must be upload, download or both, got '" + s + "'"}
}

// SyncOperation represents one sync request
type SyncOperation struct {
	ID              string
	LocalPath       string
	RemotePath      string
	Direction       Direction
	ExcludePatterns []string
	DryRun          bool
	CreatedAt       time.Time
}

// Validate checks if the operation configuration is valid
func (op *SyncOperation) Validate() error {
	if op.LocalPath == "" {
		return &ValidationError{Field: "LocalPath", Message: "local path is required"}
	}
	if op.RemotePath == "" {
		return &ValidationError{Field: "RemotePath", Message: "remote path is required"}
	}
	if _, err := ParseDirection(string(op.Direction)); err != nil {
		return err
	}
	return nil
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
