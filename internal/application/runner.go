package application

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-reactor/infrastructure/middleware"
	"github.com/ahrav/go-reactor/internal/assembly"
	"github.com/ahrav/go-reactor/internal/ports"
	"github.com/ahrav/go-reactor/internal/runtime"
)

// Producer is a goroutine that feeds physical actions into a running
// scheduler, typically by blocking on I/O and calling SchedulePhysical
// on the link. Producers are cancelled once the scheduler exits; a
// producer that returns because of that cancellation (or because the
// scheduler stopped consuming) is not an error.
type Producer func(ctx context.Context, link runtime.SchedulerLink) error

// Runner assembles a reactor program and executes it under a single
// configuration: scheduler options, logging, observability, and the
// supervision of producer goroutines.
type Runner struct {
	cfg      RuntimeConfig
	logger   *logrus.Logger
	clock    clockwork.Clock
	registry prometheus.Registerer
}

// NewRunner creates a runner for the given configuration. The logger
// and clock may be nil, selecting the standard logger and the real
// clock.
func NewRunner(cfg RuntimeConfig, logger *logrus.Logger, clock clockwork.Clock) *Runner {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		logger.SetLevel(level)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Runner{cfg: cfg, logger: logger, clock: clock, registry: prometheus.DefaultRegisterer}
}

// SetMetricsRegistry overrides the Prometheus registerer used when
// metrics are enabled. Tests pass a fresh registry here.
func (r *Runner) SetMetricsRegistry(reg prometheus.Registerer) { r.registry = reg }

// Run assembles the program, dumps the topology graphs when
// configured, and executes the scheduler alongside the producers until
// completion. Assembly errors are returned before anything executes.
func (r *Runner) Run(
	ctx context.Context,
	build func(*assembly.AssemblyCtx) (runtime.ReactorBehavior, error),
	producers ...Producer,
) error {
	runID := uuid.NewString()
	log := r.logger.WithField("run_id", runID)

	world, err := assembly.Assemble(build)
	if err != nil {
		return fmt.Errorf("assembly failed: %w", err)
	}
	log.WithField("reactors", len(world.Reactors())).Debug("assembly complete")

	if r.cfg.GraphDumpDir != "" {
		if err := r.dumpGraphs(world); err != nil {
			return err
		}
	}

	opts := r.cfg.SchedulerOptions()
	opts.Clock = r.clock
	opts.Logger = log
	if r.cfg.Metrics {
		opts.Observers = append(opts.Observers, middleware.NewPrometheusMetrics(r.registry))
	}
	if r.cfg.Tracing {
		opts.Observers = append(opts.Observers, middleware.NewTracingObserver())
	}

	sched := runtime.NewScheduler(world.Schedulable(), world.Reactors(), opts)

	group, groupCtx := errgroup.WithContext(ctx)
	producerCtx, stopProducers := context.WithCancel(groupCtx)

	group.Go(func() error {
		defer stopProducers()
		return sched.Run(groupCtx)
	})
	for _, p := range producers {
		link := sched.NewLink()
		producer := p
		group.Go(func() error {
			err := producer(producerCtx, link)
			switch {
			case err == nil,
				errors.Is(err, context.Canceled),
				errors.Is(err, runtime.ErrSchedulerStopped):
				return nil
			default:
				return fmt.Errorf("producer failed: %w", err)
			}
		})
	}

	return group.Wait()
}

// dumpGraphs writes the DOT renderings of both topology graphs into
// the configured directory.
func (r *Runner) dumpGraphs(world *assembly.World) error {
	var exporter ports.GraphExporter = world
	if err := os.MkdirAll(r.cfg.GraphDumpDir, 0o755); err != nil {
		return fmt.Errorf("creating graph dump dir: %w", err)
	}
	dumps := []struct {
		name   string
		export func(*os.File) error
	}{
		{"dataflow.dot", func(f *os.File) error { return exporter.ExportDataflow(f) }},
		{"triggers.dot", func(f *os.File) error { return exporter.ExportTriggers(f) }},
	}
	for _, d := range dumps {
		f, err := os.Create(filepath.Join(r.cfg.GraphDumpDir, d.name))
		if err != nil {
			return fmt.Errorf("creating graph dump: %w", err)
		}
		if err := d.export(f); err != nil {
			f.Close()
			return fmt.Errorf("writing graph dump: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("closing graph dump: %w", err)
		}
	}
	return nil
}
