package output

import (
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"

	"github.com/sdejongh/ftpsync/pkg/models"
)

const progressTemplate = `{{string . "label"}} {{counters . }} {{string . "stats"}} {{etime . }} {{string . "current"}}`

// getUpdateInterval returns the progress refresh interval based on OS.
// Windows terminals have higher latency with ANSI sequences.
func getUpdateInterval() time.Duration {
	if runtime.GOOS == "windows" {
		return 300 * time.Millisecond
	}
	return 100 * time.Millisecond
}

// Progress is a sync observer drawing a single progress line on a terminal.
// The total is unknown up front, so the bar counts decided files.
type Progress struct {
	mu  sync.Mutex
	bar *pb.ProgressBar

	transferred int
	skipped     int
	failed      int
	bytes       int64
}

// NewProgress starts a progress line on w
func NewProgress(w io.Writer, label string) *Progress {
	bar := pb.New(0).
		SetTemplateString(progressTemplate).
		SetWriter(w).
		SetRefreshRate(getUpdateInterval()).
		SetMaxWidth(terminalWidth(w, 120)).
		Set("label", label)

	p := &Progress{bar: bar}
	p.setStats()
	bar.Start()
	return p
}

// Observe counts one sync decision. Ignored entries are not counted.
func (p *Progress) Observe(event models.FileEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch event.Action {
	case models.ActionUpload, models.ActionDownload:
		p.transferred++
		p.bytes += event.Size
	case models.ActionSkip:
		p.skipped++
	case models.ActionError:
		p.failed++
	default:
		return
	}

	p.setStats()
	p.bar.Set("current", event.RelativePath)
	p.bar.Increment()
}

func (p *Progress) setStats() {
	p.bar.Set("stats", formatStats(p.transferred, p.skipped, p.failed, p.bytes))
}

// Finish stops refreshing and leaves the final line on screen
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.bar.Set("current", "")
	p.bar.Finish()
}

func formatStats(transferred, skipped, failed int, bytes int64) string {
	s := fmt.Sprintf("[%d transferred, %s, %d skipped", transferred, formatBytes(bytes), skipped)
	if failed > 0 {
		s += fmt.Sprintf(", %d failed", failed)
	}
	return s + "]"
}
