package engine

import (
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Progress tracks a running or finished sync pass. It is safe for concurrent
// use: workers update it while the status server reads snapshots.
type Progress struct {
	mu sync.Mutex

	total           int
	listed          int
	skippedFiltered int
	skippedCached   int
	downloading     int
	downloaded      int
	failed          int
	deleted         int
	bytes           int64

	startedAt    time.Time
	finishedAt   time.Time
	watching     bool
	waitingUntil time.Time
	lastError    string
}

// Snapshot is a point-in-time copy of the progress counters, shaped for
// display.
type Snapshot struct {
	Total           int       `json:"total"`
	Listed          int       `json:"listed"`
	SkippedFiltered int       `json:"skipped_filtered"`
	SkippedCached   int       `json:"skipped_cached"`
	Percent         int       `json:"percent"`
	Downloading     int       `json:"downloading"`
	Downloaded      int       `json:"downloaded"`
	Failed          int       `json:"failed"`
	Deleted         int       `json:"deleted"`
	Bytes           int64     `json:"bytes"`
	BytesHuman      string    `json:"bytes_human"`
	Running         bool      `json:"running"`
	Watching        bool      `json:"watching"`
	StartedAt       time.Time `json:"started_at,omitempty"`
	FinishedAt      time.Time `json:"finished_at,omitempty"`
	Elapsed         string    `json:"elapsed,omitempty"`
	WaitingUntil    time.Time `json:"waiting_until,omitempty"`
	Waiting         string    `json:"waiting,omitempty"`
	LastError       string    `json:"last_error,omitempty"`
}

// NewProgress creates an idle progress tracker.
func NewProgress() *Progress {
	return &Progress{}
}

// BeginPass resets the per-pass counters. total may be 0 when the library
// size is unknown.
func (p *Progress) BeginPass(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = total
	p.listed = 0
	p.skippedFiltered = 0
	p.skippedCached = 0
	p.downloading = 0
	p.downloaded = 0
	p.failed = 0
	p.deleted = 0
	p.bytes = 0
	p.startedAt = time.Now()
	p.finishedAt = time.Time{}
	p.waitingUntil = time.Time{}
	p.lastError = ""
}

// EndPass marks the pass finished, recording the listing error if any.
func (p *Progress) EndPass(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finishedAt = time.Now()
	if err != nil {
		p.lastError = err.Error()
	}
}

// SetWatching flags watch mode for the status page.
func (p *Progress) SetWatching(watching bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.watching = watching
}

// SetWaitingUntil records when the next watch pass starts. A zero time
// clears the wait.
func (p *Progress) SetWaitingUntil(t time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waitingUntil = t
}

func (p *Progress) Listed() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listed++
}

func (p *Progress) SkippedFiltered() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.skippedFiltered++
}

func (p *Progress) SkippedCached() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.skippedCached++
}

func (p *Progress) DownloadStarted() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.downloading++
}

func (p *Progress) DownloadFinished(bytes int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.downloading--
	p.downloaded++
	p.bytes += bytes
}

// PlanFailed records an asset that could not be planned at all, for example
// a filename collision.
func (p *Progress) PlanFailed() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed++
}

func (p *Progress) DownloadFailed() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.downloading--
	p.failed++
}

func (p *Progress) FileDeleted() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted++
}

// Snapshot returns a copy of the current counters.
func (p *Progress) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Snapshot{
		Total:           p.total,
		Listed:          p.listed,
		SkippedFiltered: p.skippedFiltered,
		SkippedCached:   p.skippedCached,
		Downloading:     p.downloading,
		Downloaded:      p.downloaded,
		Failed:          p.failed,
		Deleted:         p.deleted,
		Bytes:           p.bytes,
		BytesHuman:      humanize.Bytes(uint64(p.bytes)),
		Watching:        p.watching,
		StartedAt:       p.startedAt,
		FinishedAt:      p.finishedAt,
		LastError:       p.lastError,
	}
	if p.total > 0 {
		s.Percent = p.listed * 100 / p.total
		if s.Percent > 100 {
			s.Percent = 100
		}
	}
	if !p.startedAt.IsZero() {
		s.Running = p.finishedAt.IsZero()
		end := p.finishedAt
		if end.IsZero() {
			end = time.Now()
		}
		s.Elapsed = end.Sub(p.startedAt).Round(time.Second).String()
	}
	if !p.waitingUntil.IsZero() && p.waitingUntil.After(time.Now()) {
		s.WaitingUntil = p.waitingUntil
		s.Waiting = humanize.Time(p.waitingUntil)
	}
	return s
}
