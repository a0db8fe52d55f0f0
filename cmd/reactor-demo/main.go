// Command reactor-demo runs the example reactor programs under the
// runtime: a hello-world startup reaction, a periodic clock, a
// producer/relay pair, and a reflex game fed by an external thread.
package main

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/ahrav/go-reactor/examples"
	"github.com/ahrav/go-reactor/internal/application"
	"github.com/ahrav/go-reactor/internal/assembly"
	"github.com/ahrav/go-reactor/internal/runtime"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.WithError(err).Error("run failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "reactor-demo",
		Short:         "Run example reactor programs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a runtime config YAML file")

	loadConfig := func() (application.RuntimeConfig, error) {
		if configPath == "" {
			return application.DefaultRuntimeConfig(), nil
		}
		return application.LoadRuntimeConfig(configPath)
	}

	root.AddCommand(
		newHelloCmd(loadConfig),
		newClockCmd(loadConfig),
		newRelayCmd(loadConfig),
		newReflexCmd(loadConfig),
	)
	return root
}

func newHelloCmd(loadConfig func() (application.RuntimeConfig, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "hello",
		Short: "A single startup reaction that greets and exits",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			runner := application.NewRunner(cfg, nil, nil)
			return runner.Run(cmd.Context(), func(ctx *assembly.AssemblyCtx) (runtime.ReactorBehavior, error) {
				return examples.NewMinimal(ctx, cmd.OutOrStdout())
			})
		},
	}
}

func newClockCmd(loadConfig func() (application.RuntimeConfig, error)) *cobra.Command {
	var periodMillis int
	cmd := &cobra.Command{
		Use:   "clock",
		Short: "A periodic self-scheduling emitter relayed to stdout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.TimeoutMillis == 0 {
				cfg.TimeoutMillis = 3500
			}
			period := time.Duration(periodMillis) * time.Millisecond
			runner := application.NewRunner(cfg, nil, nil)
			return runner.Run(cmd.Context(),
				examples.NewProducerRelayApp(period, cmd.OutOrStdout()))
		},
	}
	cmd.Flags().IntVar(&periodMillis, "period-ms", 1000, "emission period in milliseconds")
	return cmd
}

func newRelayCmd(loadConfig func() (application.RuntimeConfig, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "relay",
		Short: "Producer/relay: one printed line per emission, in tag order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.TimeoutMillis == 0 {
				cfg.TimeoutMillis = 2500
			}
			runner := application.NewRunner(cfg, nil, nil)
			return runner.Run(cmd.Context(),
				examples.NewProducerRelayApp(time.Second, cmd.OutOrStdout()))
		},
	}
}

func newReflexCmd(loadConfig func() (application.RuntimeConfig, error)) *cobra.Command {
	var presses int
	cmd := &cobra.Command{
		Use:   "reflex",
		Short: "Physical actions scheduled from an external goroutine",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cfg.KeepAlive = true
			if cfg.TimeoutMillis == 0 {
				cfg.TimeoutMillis = 2000
			}

			var reflex *examples.ReflexReactor
			runner := application.NewRunner(cfg, nil, nil)

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			return runner.Run(ctx,
				func(actx *assembly.AssemblyCtx) (runtime.ReactorBehavior, error) {
					var err error
					reflex, err = examples.NewReflex(actx, cmd.OutOrStdout())
					return reflex, err
				},
				func(pctx context.Context, link runtime.SchedulerLink) error {
					return examples.KeypressProducer(reflex.Press, presses, rate.Limit(10))(pctx, link)
				},
			)
		},
	}
	cmd.Flags().IntVar(&presses, "presses", 5, "number of simulated keypresses")
	return cmd
}
