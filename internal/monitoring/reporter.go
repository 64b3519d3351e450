package monitoring

import (
	"fmt"
	"runtime"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/gcOssi/spark6/internal/services"
)

// Reporter periodically logs table sizes and process stats so an operator
// can watch the in-memory data region grow. Nothing is persisted by the
// reporter itself.
type Reporter struct {
	users    services.UserServiceProvider
	tasks    services.TaskServiceProvider
	events   services.EventServiceProvider
	schedule cron.Schedule
	done     chan bool
}

// NewReporter parses the cron expression and creates a Reporter. Standard
// five-field specs and descriptors like "@every 1m" are accepted.
func NewReporter(spec string, users services.UserServiceProvider, tasks services.TaskServiceProvider, events services.EventServiceProvider) (*Reporter, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid report schedule %q: %w", spec, err)
	}
	return &Reporter{
		users:    users,
		tasks:    tasks,
		events:   events,
		schedule: schedule,
		done:     make(chan bool),
	}, nil
}

// Run starts the reporting loop.
func (rp *Reporter) Run() {
	log.Info().Msg("Starting background usage reporter...")

	// Report once immediately on start
	rp.report()

	for {
		timer := time.NewTimer(time.Until(rp.schedule.Next(time.Now())))
		select {
		case <-rp.done:
			timer.Stop()
			log.Info().Msg("Stopping background usage reporter.")
			return
		case <-timer.C:
			rp.report()
		}
	}
}

// Stop halts the reporting loop.
func (rp *Reporter) Stop() {
	rp.done <- true
}

func (rp *Reporter) report() {
	userCount, err := rp.users.CountUsers()
	if err != nil {
		log.Error().Err(err).Msg("Reporter: failed to count users")
		return
	}
	taskCount, err := rp.tasks.CountTasks()
	if err != nil {
		log.Error().Err(err).Msg("Reporter: failed to count tasks")
		return
	}
	eventCount, err := rp.events.CountEvents()
	if err != nil {
		log.Error().Err(err).Msg("Reporter: failed to count events")
		return
	}

	entry := log.Info().
		Int("users", userCount).
		Int("tasks", taskCount).
		Int("events", eventCount).
		Int("goroutines", runtime.NumGoroutine())
	if vm, err := mem.VirtualMemory(); err == nil {
		entry = entry.Float64("memory_used_percent", vm.UsedPercent)
	}
	entry.Msg("Usage report")
}
