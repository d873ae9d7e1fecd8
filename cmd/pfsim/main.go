package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pfsim/portfolio-simulator/internal/api"
	"github.com/pfsim/portfolio-simulator/internal/config"
	"github.com/pfsim/portfolio-simulator/internal/output"
	"github.com/pfsim/portfolio-simulator/internal/simulation"
	"github.com/pfsim/portfolio-simulator/pkg/logging"
)

var (
	logLevel  string
	logFormat string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pfsim",
		Short: "Monte Carlo portfolio simulator",
		Long: `pfsim simulates portfolio accumulation and withdrawal phases with
Monte Carlo methods: stochastic market conditions, withdrawal strategies,
tax and inflation adjustment, and risk analysis.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console, json)")

	root.AddCommand(newSimulateCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newExampleConfigCmd())
	return root
}

func newLogger() (*logging.Logger, error) {
	return logging.New(logging.Config{Level: logLevel, Format: logFormat})
}

func newSimulateCmd() *cobra.Command {
	var (
		inputFile  string
		format     string
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a simulation from a YAML parameter file",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}

			params, err := config.NewInputParser().LoadFromFile(inputFile)
			if err != nil {
				return err
			}

			orch := simulation.NewOrchestrator()
			orch.SetLogger(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			report, err := orch.RunComprehensive(ctx, params)
			if err != nil {
				return err
			}

			formatter := output.GetFormatterByName(format)
			if formatter == nil {
				return fmt.Errorf("unknown format %q (available: %v)",
					format, output.AvailableFormatterNames())
			}
			data, err := formatter.Format(report)
			if err != nil {
				return err
			}

			if outputFile == "" {
				_, err = os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(outputFile, data, 0644); err != nil {
				return err
			}
			logger.Infof("report written to %s", outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "input YAML parameter file (required)")
	cmd.Flags().StringVarP(&format, "format", "f", "console", "output format (console, json, csv)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default stdout)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newServeCmd() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the simulation HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}

			orch := simulation.NewOrchestrator()
			orch.SetLogger(logger)

			handler := api.NewSimulationHandler(logger, orch)
			server := api.NewServer(handler, logger, api.WithHost(host), api.WithPort(port))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				return server.Stop(context.Background())
			}
		},
	}

	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "listen host")
	cmd.Flags().IntVar(&port, "port", 8080, "listen port")
	return cmd
}

func newExampleConfigCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "example-config",
		Short: "Write an example parameter file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.NewInputParser().WriteExampleFile(outputFile); err != nil {
				return err
			}
			fmt.Printf("Example configuration written to %s\n", outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "simulation.yaml", "output file path")
	return cmd
}
