package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdejongh/ftpsync/pkg/deploy"
	"github.com/sdejongh/ftpsync/pkg/models"
	"github.com/sdejongh/ftpsync/pkg/storage"
)

func sampleReport() *models.SyncReport {
	return &models.SyncReport{
		OperationID: "op-1",
		LocalPath:   "/srv/site",
		RemotePath:  "/var/www",
		Direction:   models.DirectionUpload,
		StartTime:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Duration:    1500 * time.Millisecond,
		Uploaded:    3,
		Skipped:     7,
		Ignored:     2,
		Errors:      []string{"/srv/site/big.iso: upload /var/www/big.iso: quota exceeded"},
		Status:      models.StatusPartial,
	}
}

func sampleEntries() []storage.Entry {
	return []storage.Entry{
		{Path: "/var/www/css", Name: "css", IsDir: true, Permissions: "0755"},
		{Path: "/var/www/css/site.css", Name: "site.css", Size: 2048, ModTime: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
		{Path: "/var/www/index.html", Name: "index.html", Size: 12},
	}
}

func TestNew(t *testing.T) {
	f, err := New("human", false)
	require.NoError(t, err)
	assert.Equal(t, "human", f.Name())

	f, err = New("json", false)
	require.NoError(t, err)
	assert.Equal(t, "json", f.Name())

	_, err = New("xml", false)
	assert.ErrorIs(t, err, storage.ErrConfiguration)
}

func TestHumanReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewHumanFormatter(false).Report(&buf, sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "Sync completed in 1.5s")
	assert.Contains(t, out, "Uploaded:    3")
	assert.Contains(t, out, "Skipped:     7")
	assert.Contains(t, out, "Status: partial")
	assert.Contains(t, out, "quota exceeded")
	assert.NotContains(t, out, "\x1b[", "colors must be off")
}

func TestHumanReportColored(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewHumanFormatter(true).Report(&buf, sampleReport()))
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestHumanDryRun(t *testing.T) {
	report := sampleReport()
	report.DryRun = true

	var buf bytes.Buffer
	require.NoError(t, NewHumanFormatter(false).Report(&buf, report))
	assert.Contains(t, buf.String(), "Dry run completed")
}

func TestHumanEntriesAndTree(t *testing.T) {
	f := NewHumanFormatter(false)

	var buf bytes.Buffer
	require.NoError(t, f.Entries(&buf, sampleEntries()))
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Contains(t, string(lines[0]), "d 0755")
	assert.Contains(t, string(lines[0]), "css/")
	assert.Contains(t, string(lines[1]), "2.0 KiB")
	assert.Contains(t, string(lines[2]), "----")

	buf.Reset()
	require.NoError(t, f.Tree(&buf, "/var/www", sampleEntries()))
	out := buf.String()
	assert.Contains(t, out, "/var/www\n  css/\n    site.css (2.0 KiB)\n  index.html (12 B)\n")
	assert.Contains(t, out, "1 directories, 2 files")
}

func TestHumanEvents(t *testing.T) {
	f := NewHumanFormatter(false)

	var buf bytes.Buffer
	require.NoError(t, f.Event(&buf, models.FileEvent{RelativePath: "a.txt", Size: 10, Action: models.ActionUpload}))
	require.NoError(t, f.Event(&buf, models.FileEvent{RelativePath: "b.txt", Action: models.ActionSkip, Reason: "destination is up to date"}))
	require.NoError(t, f.Event(&buf, models.FileEvent{RelativePath: "c.txt", Action: models.ActionError, Err: errors.New("denied")}))

	assert.Equal(t, "↑ a.txt (10 B)\n= b.txt (destination is up to date)\n✗ c.txt: denied\n", buf.String())
}

func TestHumanMisc(t *testing.T) {
	f := NewHumanFormatter(false)
	var buf bytes.Buffer

	require.NoError(t, f.Exists(&buf, "/a", true))
	require.NoError(t, f.Exists(&buf, "/b", false))
	require.NoError(t, f.Done(&buf, "uploaded", "/c"))
	require.NoError(t, f.Error(&buf, errors.New("boom")))
	require.NoError(t, f.DiskUsage(&buf, "/", storage.DiskUsage{Total: 1 << 30, Used: 1 << 20}))
	require.NoError(t, f.Stat(&buf, sampleEntries()[1]))

	out := buf.String()
	assert.Contains(t, out, "✓ /a exists")
	assert.Contains(t, out, "✗ /b does not exist")
	assert.Contains(t, out, "✓ uploaded /c")
	assert.Contains(t, out, "Error: boom")
	assert.Contains(t, out, "Total:       1.0 GiB")
	assert.Contains(t, out, "Size:        2.0 KiB (2048 bytes)")
}

func TestHumanDeployments(t *testing.T) {
	f := NewHumanFormatter(false)

	var buf bytes.Buffer
	require.NoError(t, f.Deployments(&buf, nil))
	assert.Equal(t, "No deployments configured\n", buf.String())

	buf.Reset()
	require.NoError(t, f.Deployments(&buf, []deploy.Summary{
		{Name: "site", Profile: "prod", Host: "sftp://h", Local: "./public", Remote: "/www", Exclude: []string{"*.log"}},
		{Name: "orphan", Profile: "gone", Local: ".", Remote: "/x"},
	}))
	out := buf.String()
	assert.Contains(t, out, "Profile:  prod (sftp://h)")
	assert.Contains(t, out, "Paths:    ./public -> /www")
	assert.Contains(t, out, "Exclude:  *.log")
	assert.Contains(t, out, "undefined profile")
}

func TestJSONReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter().Report(&buf, sampleReport()))

	var got JSONReportData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "partial", got.Status)
	assert.Equal(t, 1, got.ExitCode)
	assert.Equal(t, 3, got.Stats.Uploaded)
	assert.Equal(t, 1, got.Stats.Errored)
	assert.Equal(t, int64(1500), got.DurationMs)
	assert.Equal(t, "2024-05-01T12:00:00Z", got.StartTime)
}

func TestJSONReportNoErrors(t *testing.T) {
	report := sampleReport()
	report.Errors = nil

	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter().Report(&buf, report))
	assert.Contains(t, buf.String(), `"errors": []`)
}

func TestJSONEntries(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter().Entries(&buf, sampleEntries()))

	var got []JSONEntryData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 3)
	assert.True(t, got[0].IsDir)
	assert.Equal(t, "2024-05-01T12:00:00Z", got[1].ModTime)
	assert.Empty(t, got[2].ModTime, "unknown times are omitted")
}

func TestJSONError(t *testing.T) {
	var buf bytes.Buffer
	err := storage.NewError(storage.KindUnsupported, "chmod", "/x", nil)
	require.NoError(t, NewJSONFormatter().Error(&buf, err))

	var got JSONErrorData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, string(storage.KindUnsupported), got.Kind)
}

func TestJSONEventIsSilent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter().Event(&buf, models.FileEvent{Action: models.ActionUpload}))
	assert.Zero(t, buf.Len())
}

func TestChangeRecorder(t *testing.T) {
	r := NewChangeRecorder()
	r.Observe(models.FileEvent{RelativePath: "a", Action: models.ActionUpload, Size: 4})
	r.Observe(models.FileEvent{RelativePath: "b", Action: models.ActionSkip})
	r.Observe(models.FileEvent{RelativePath: "c", Action: models.ActionIgnore})
	r.Observe(models.FileEvent{RelativePath: "d", Action: models.ActionError, Err: errors.New("denied")})

	changes := r.Changes()
	require.Len(t, changes, 2)
	assert.Equal(t, "a", changes[0].RelativePath)
	assert.Equal(t, "d", changes[1].RelativePath)

	dir := t.TempDir()

	t.Run("JSON", func(t *testing.T) {
		path := filepath.Join(dir, "changes.json")
		require.NoError(t, WriteChangesReport(sampleReport(), changes, path, "json"))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var got struct {
			TotalCount int             `json:"total_count"`
			Changes    []JSONEventData `json:"changes"`
		}
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, 2, got.TotalCount)
		assert.Equal(t, "denied", got.Changes[1].Error)
	})

	t.Run("Human", func(t *testing.T) {
		path := filepath.Join(dir, "changes.txt")
		require.NoError(t, WriteChangesReport(sampleReport(), changes, path, "human"))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "Uploads (1 files)")
		assert.Contains(t, string(data), "Errors (1 files)")
	})
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, "Uploading")

	p.Observe(models.FileEvent{RelativePath: "a", Action: models.ActionUpload, Size: 1024})
	p.Observe(models.FileEvent{RelativePath: "b", Action: models.ActionUpload, Size: 1024})
	p.Observe(models.FileEvent{RelativePath: "c", Action: models.ActionSkip})
	p.Observe(models.FileEvent{RelativePath: "d", Action: models.ActionIgnore})
	p.Finish()

	assert.Equal(t, int64(3), p.bar.Current())
	assert.Contains(t, buf.String(), "2 transferred, 2.0 KiB, 1 skipped")
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 << 20, "5.0 MiB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatBytes(tt.in))
	}
}
