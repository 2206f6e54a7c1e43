package models

import (
	"errors"
	"testing"
	"time"
)

// ============== Direction Tests ==============

func TestParseDirection(t *testing.T) {
	tests := []struct {
		input   string
		want    Direction
		wantErr bool
	}{
		{"upload", DirectionUpload, false},
		{"download", DirectionDownload, false},
		{"both", DirectionBoth, false},
		{"", DirectionUpload, false},
		{"sideways", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDirection(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDirection(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDirection(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestDirectionPasses(t *testing.T) {
	tests := []struct {
		direction Direction
		uploads   bool
		downloads bool
	}{
		{DirectionUpload, true, false},
		{DirectionDownload, false, true},
		{DirectionBoth, true, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.direction), func(t *testing.T) {
			if tt.direction.Uploads() != tt.uploads {
				t.Errorf("Uploads() = %v, want %v", tt.direction.Uploads(), tt.uploads)
			}
			if tt.direction.Downloads() != tt.downloads {
				t.Errorf("Downloads() = %v, want %v", tt.direction.Downloads(), tt.downloads)
			}
		})
	}
}

// ============== SyncOperation Tests ==============

func TestSyncOperationValidate(t *testing.T) {
	t.Run("ValidOperation", func(t *testing.T) {
		op := &SyncOperation{
			LocalPath:  "/home/user/site",
			RemotePath: "/var/www",
			Direction:  DirectionUpload,
		}

		if err := op.Validate(); err != nil {
			t.Errorf("Validate() error = %v, want nil", err)
		}
	})

	t.Run("EmptyLocalPath", func(t *testing.T) {
		op := &SyncOperation{RemotePath: "/var/www", Direction: DirectionUpload}

		err := op.Validate()
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Field != "LocalPath" {
			t.Errorf("Validate() error = %v, want LocalPath validation error", err)
		}
	})

	t.Run("EmptyRemotePath", func(t *testing.T) {
		op := &SyncOperation{LocalPath: "/site", Direction: DirectionUpload}

		err := op.Validate()
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Field != "RemotePath" {
			t.Errorf("Validate() error = %v, want RemotePath validation error", err)
		}
	})

	t.Run("InvalidDirection", func(t *testing.T) {
		op := &SyncOperation{LocalPath: "/site", RemotePath: "/www", Direction: "mirror"}

		if err := op.Validate(); err == nil {
			t.Error("Validate() should fail for unknown direction")
		}
	})
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: "LocalPath", Message: "local path is required"}
	if err.Error() != "LocalPath: local path is required" {
		t.Errorf("Error() = %q", err.Error())
	}
}

// ============== SyncReport Tests ==============

func TestSyncReportMerge(t *testing.T) {
	parent := &SyncReport{Uploaded: 1, Skipped: 2, Errors: []string{"a.txt: boom"}}
	child := &SyncReport{Uploaded: 3, Downloaded: 1, Ignored: 4, Errors: []string{"sub/b.txt: denied"}}

	parent.Merge(child)
	parent.Merge(nil)

	if parent.Uploaded != 4 || parent.Downloaded != 1 || parent.Skipped != 2 || parent.Ignored != 4 {
		t.Errorf("counters after Merge = %+v", parent)
	}
	if len(parent.Errors) != 2 || parent.Errors[1] != "sub/b.txt: denied" {
		t.Errorf("Errors after Merge = %v", parent.Errors)
	}
}

func TestSyncReportAddError(t *testing.T) {
	r := &SyncReport{}
	r.AddError("/site/b.txt", errors.New("upload /www/b.txt: transfer failed"))

	want := "/site/b.txt: upload /www/b.txt: transfer failed"
	if len(r.Errors) != 1 || r.Errors[0] != want {
		t.Errorf("Errors = %v, want [%q]", r.Errors, want)
	}
}

func TestSyncReportFinish(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		r := &SyncReport{StartTime: start}
		r.Finish(start.Add(3 * time.Second))

		if r.Status != StatusSuccess {
			t.Errorf("Status = %s, want %s", r.Status, StatusSuccess)
		}
		if r.Duration != 3*time.Second {
			t.Errorf("Duration = %v, want 3s", r.Duration)
		}
	})

	t.Run("Partial", func(t *testing.T) {
		r := &SyncReport{StartTime: start, Errors: []string{"x: y"}}
		r.Finish(start)

		if r.Status != StatusPartial {
			t.Errorf("Status = %s, want %s", r.Status, StatusPartial)
		}
	})
}

func TestSyncStatusExitCode(t *testing.T) {
	tests := []struct {
		status SyncStatus
		want   int
	}{
		{StatusSuccess, 0},
		{StatusPartial, 1},
		{StatusFailed, 2},
		{SyncStatus("unknown"), 2},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.ExitCode(); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
