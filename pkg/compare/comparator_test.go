package compare

import (
	"testing"
	"time"
)

func TestTimestampComparator(t *testing.T) {
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	c := NewTimestampComparator()

	tests := []struct {
		name     string
		source   FileState
		dest     FileState
		want     Result
		transfer bool
	}{
		{
			name:     "DestMissing",
			source:   FileState{Path: "a.txt", Exists: true, ModTime: base},
			dest:     FileState{Path: "/www/a.txt"},
			want:     SourceOnly,
			transfer: true,
		},
		{
			name:     "SourceNewer",
			source:   FileState{Exists: true, ModTime: base.Add(time.Minute)},
			dest:     FileState{Exists: true, ModTime: base},
			want:     SourceNewer,
			transfer: true,
		},
		{
			name:   "Equal",
			source: FileState{Exists: true, ModTime: base},
			dest:   FileState{Exists: true, ModTime: base},
			want:   Same,
		},
		{
			name:   "DestNewer",
			source: FileState{Exists: true, ModTime: base},
			dest:   FileState{Exists: true, ModTime: base.Add(time.Hour)},
			want:   Same,
		},
		{
			name:   "SubSecondDifferenceIgnored",
			source: FileState{Exists: true, ModTime: base.Add(400 * time.Millisecond)},
			dest:   FileState{Exists: true, ModTime: base},
			want:   Same,
		},
		{
			name:     "DestTimeUnknown",
			source:   FileState{Exists: true, ModTime: base},
			dest:     FileState{Exists: true},
			want:     DestUnknown,
			transfer: true,
		},
		{
			name:   "SourceTimeUnknown",
			source: FileState{Exists: true},
			dest:   FileState{Exists: true, ModTime: base},
			want:   Same,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Compare(tt.source, tt.dest)
			if got.Result != tt.want {
				t.Errorf("Compare() result = %s, want %s (%s)", got.Result, tt.want, got.Reason)
			}
			if got.Transfer() != tt.transfer {
				t.Errorf("Transfer() = %v, want %v", got.Transfer(), tt.transfer)
			}
			if got.SourcePath != tt.source.Path || got.DestPath != tt.dest.Path {
				t.Errorf("paths = (%q, %q), want (%q, %q)", got.SourcePath, got.DestPath, tt.source.Path, tt.dest.Path)
			}
		})
	}
}

func TestTimestampComparatorFullPrecision(t *testing.T) {
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	c := &TimestampComparator{}

	got := c.Compare(
		FileState{Exists: true, ModTime: base.Add(time.Millisecond)},
		FileState{Exists: true, ModTime: base},
	)
	if got.Result != SourceNewer {
		t.Errorf("Compare() result = %s, want %s", got.Result, SourceNewer)
	}
}

func TestComparatorName(t *testing.T) {
	var c Comparator = NewTimestampComparator()
	if c.Name() != "timestamp" {
		t.Errorf("Name() = %s, want timestamp", c.Name())
	}
}
