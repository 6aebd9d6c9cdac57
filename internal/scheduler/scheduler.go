package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/wind-power-dashboard/internal/weather"
)

// Fetcher runs one extract-transform-load cycle for a location.
type Fetcher interface {
	FetchAndStore(ctx context.Context, loc weather.Location) error
}

// Sweeper drops dashboard sessions idle longer than maxIdle.
type Sweeper interface {
	Sweep(maxIdle time.Duration) int
}

// Scheduler periodically fetches weather data for the configured location
// and expires idle dashboard sessions.
type Scheduler struct {
	scheduler *gocron.Scheduler
	fetcher   Fetcher
	location  weather.Location
	interval  time.Duration
	timeout   time.Duration

	sweeper    Sweeper
	sessionTTL time.Duration
}

// New creates a new Scheduler.
func New(location weather.Location, interval time.Duration, fetcher Fetcher) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		fetcher:   fetcher,
		location:  location,
		interval:  interval,
		timeout:   30 * time.Second,
	}
}

// WithSessionSweep also schedules removal of sessions idle for longer than ttl.
func (s *Scheduler) WithSessionSweep(sweeper Sweeper, ttl time.Duration) *Scheduler {
	s.sweeper = sweeper
	s.sessionTTL = ttl
	return s
}

// Start schedules the jobs and starts the underlying scheduler. The fetch
// job runs once immediately.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 5
	}

	if _, err := s.scheduler.Every(minutes).Minutes().StartImmediately().Do(s.RunFetch); err != nil {
		return err
	}
	log.Printf("scheduler: fetching %s every %d minutes", s.location, minutes)

	if s.sweeper != nil && s.sessionTTL > 0 {
		if _, err := s.scheduler.Every(time.Minute).Do(s.runSweep); err != nil {
			return err
		}
	}

	s.scheduler.StartAsync()
	return nil
}

// RunFetch executes one fetch job. Errors are logged; the next run is the retry.
func (s *Scheduler) RunFetch() {
	log.Println("scheduler: running weather fetch job")

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.fetcher.FetchAndStore(ctx, s.location); err != nil {
		log.Printf("ERROR: scheduler: fetch failed for %s: %v", s.location, err)
		return
	}
	log.Println("scheduler: completed weather fetch job")
}

func (s *Scheduler) runSweep() {
	if n := s.sweeper.Sweep(s.sessionTTL); n > 0 {
		log.Printf("scheduler: expired %d dashboard sessions", n)
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
