// Package cron implements the persistent job scheduler: jobs fire a raw
// outbound message or inject a synthetic agent turn on a fixed schedule
// (a one-shot instant, a repeating interval, or a cron expression).
package cron

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/adhocore/gronx"
	"github.com/google/uuid"

	"github.com/nanorelay/nanorelay/internal/bus"
)

const (
	KindAt    = "at"
	KindEvery = "every"
	KindCron  = "cron"
)

// Job is one scheduled action.
type Job struct {
	ID             string        `json:"id"`
	Kind           string        `json:"kind"` // at, every, cron
	At             time.Time     `json:"at,omitempty"`
	Interval       time.Duration `json:"interval,omitempty"`
	Expr           string        `json:"expr,omitempty"`
	TZ             string        `json:"tz,omitempty"`
	DeleteAfterRun bool          `json:"delete_after_run"`

	// Delivery: either a raw outbound message, or an agent turn injected
	// as a system message addressed back to OriginChannel/OriginChatID.
	Channel       string `json:"channel,omitempty"`        // raw delivery target channel
	ChatID        string `json:"chat_id,omitempty"`        // raw delivery target chat id
	Content       string `json:"content,omitempty"`        // raw delivery content, or agent prompt text
	AsAgentTurn   bool   `json:"as_agent_turn"`             // inject as agent turn instead of raw delivery
	OriginChannel string `json:"origin_channel,omitempty"`  // agent-turn origin channel
	OriginChatID  string `json:"origin_chat_id,omitempty"`  // agent-turn origin chat id

	LastRun time.Time `json:"last_run,omitempty"`
}

type jobFile struct {
	Version int   `json:"version"`
	Jobs    []Job `json:"jobs"`
}

// Store is the JSON-file-backed job list.
type Store struct {
	mu   sync.Mutex
	path string
	jobs []Job
}

func NewStore(path string) *Store {
	s := &Store{path: path}
	s.load()
	return s
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	var f jobFile
	if err := json.Unmarshal(data, &f); err != nil {
		slog.Warn("cron: failed to parse job store, starting empty", "error", err)
		return
	}
	s.jobs = f.Jobs
}

func (s *Store) save() error {
	f := jobFile{Version: 1, Jobs: s.jobs}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

// Add schedules a new job, assigning it an id, and persists the store.
func (s *Store) Add(job Job) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job.ID = uuid.New().String()[:8]
	s.jobs = append(s.jobs, job)
	if err := s.save(); err != nil {
		return Job{}, fmt.Errorf("save cron job: %w", err)
	}
	return job, nil
}

// List returns a copy of all scheduled jobs.
func (s *Store) List() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Job, len(s.jobs))
	copy(out, s.jobs)
	return out
}

// Remove deletes a job by id.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, j := range s.jobs {
		if j.ID == id {
			s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
			return s.save()
		}
	}
	return fmt.Errorf("cron job %q not found", id)
}

// Scheduler evaluates jobs on a fixed tick and fires due ones.
type Scheduler struct {
	store  *Store
	bus    *bus.MessageBus
	gron   gronx.Gronx
	ticker *time.Ticker
	stop   chan struct{}
}

func NewScheduler(store *Store, msgBus *bus.MessageBus) *Scheduler {
	return &Scheduler{store: store, bus: msgBus, gron: gronx.New(), stop: make(chan struct{})}
}

// Run evaluates jobs once per tick until Stop is called.
func (sch *Scheduler) Run(tick time.Duration) {
	if tick <= 0 {
		tick = time.Minute
	}
	sch.ticker = time.NewTicker(tick)
	go func() {
		for {
			select {
			case <-sch.ticker.C:
				sch.tick()
			case <-sch.stop:
				sch.ticker.Stop()
				return
			}
		}
	}()
}

func (sch *Scheduler) Stop() {
	close(sch.stop)
}

func (sch *Scheduler) tick() {
	now := time.Now()
	for _, job := range sch.store.List() {
		due, err := sch.isDue(job, now)
		if err != nil {
			slog.Warn("cron: bad job schedule, skipping", "id", job.ID, "error", err)
			continue
		}
		if !due {
			continue
		}
		sch.fire(job, now)
	}
}

func (sch *Scheduler) isDue(job Job, now time.Time) (bool, error) {
	switch job.Kind {
	case KindAt:
		return job.LastRun.IsZero() && !now.Before(job.At), nil
	case KindEvery:
		return job.LastRun.IsZero() || now.Sub(job.LastRun) >= job.Interval, nil
	case KindCron:
		if !job.LastRun.IsZero() && now.Sub(job.LastRun) < time.Minute {
			return false, nil
		}
		return sch.gron.IsDue(job.Expr, now)
	default:
		return false, fmt.Errorf("unknown schedule kind %q", job.Kind)
	}
}

func (sch *Scheduler) fire(job Job, now time.Time) {
	slog.Info("cron job firing", "id", job.ID, "kind", job.Kind)

	if job.AsAgentTurn {
		sch.bus.PublishInbound(bus.InboundMessage{
			Channel:  "system",
			SenderID: "cron",
			ChatID:   job.OriginChannel + ":" + job.OriginChatID,
			Content:  job.Content,
		})
	} else {
		sch.bus.PublishOutbound(bus.OutboundMessage{
			Channel: job.Channel,
			ChatID:  job.ChatID,
			Content: job.Content,
		})
	}

	job.LastRun = now
	if job.DeleteAfterRun {
		if err := sch.store.Remove(job.ID); err != nil {
			slog.Warn("cron: failed to remove one-shot job", "id", job.ID, "error", err)
		}
		return
	}
	if err := sch.updateLastRun(job); err != nil {
		slog.Warn("cron: failed to persist last_run", "id", job.ID, "error", err)
	}
}

func (sch *Scheduler) updateLastRun(updated Job) error {
	sch.store.mu.Lock()
	defer sch.store.mu.Unlock()
	for i, j := range sch.store.jobs {
		if j.ID == updated.ID {
			sch.store.jobs[i].LastRun = updated.LastRun
			return sch.store.save()
		}
	}
	return nil
}
