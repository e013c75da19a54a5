// Command supportgate runs the gated support-action workflow from the
// command line: start a support interaction, and resume one that paused
// for human review.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/AICogEngineer/supportgate/config"
	"github.com/AICogEngineer/supportgate/retrieval"
	"github.com/AICogEngineer/supportgate/workflow"
	"github.com/AICogEngineer/supportgate/workflow/emit"
	"github.com/AICogEngineer/supportgate/workflow/store"
)

type app struct {
	cfgPath string
	cfg     *config.Config
	log     *zap.Logger
	exec    *workflow.Executor
	closers []func() error
}

func main() {
	a := &app{}

	root := &cobra.Command{
		Use:               "supportgate",
		Short:             "Gated decision workflow for customer-support actions",
		PersistentPreRunE: a.setup,
		SilenceUsage:      true,
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config-file", "config.yaml", "Path to config file.")

	var (
		input       string
		userID      string
		email       string
		refundCount int
		driftMiles  float64
	)
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Start a support interaction",
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer a.close()
			session := workflow.SessionContext{
				UserID:            userID,
				Email:             email,
				RefundCount:       refundCount,
				AddressDriftMiles: driftMiles,
			}
			run, err := a.exec.Start(cmd.Context(), input, session)
			if err != nil {
				return err
			}
			return a.report(run)
		},
	}
	runCmd.Flags().StringVar(&input, "input", "", "Raw user request text.")
	runCmd.Flags().StringVar(&userID, "user-id", "", "Session user identifier.")
	runCmd.Flags().StringVar(&email, "email", "", "Session email.")
	runCmd.Flags().IntVar(&refundCount, "refund-count", 0, "Refunds in the recent window.")
	runCmd.Flags().Float64Var(&driftMiles, "drift-miles", 0, "Address drift distance in miles.")
	_ = runCmd.MarkFlagRequired("input")

	var (
		runID    string
		decision string
		reason   string
	)
	resumeCmd := &cobra.Command{
		Use:   "resume",
		Short: "Resume a paused run with a human decision",
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer a.close()
			run, err := a.exec.LoadRun(cmd.Context(), runID)
			if err != nil {
				return err
			}
			resumed, err := a.exec.Resume(cmd.Context(), run, workflow.HumanDecision{
				Type:   workflow.DecisionType(decision),
				Reason: reason,
			})
			if err != nil {
				return err
			}
			return a.report(resumed)
		},
	}
	resumeCmd.Flags().StringVar(&runID, "run", "", "Run ID of the paused interaction.")
	resumeCmd.Flags().StringVar(&decision, "decision", "", "approve, reject, edit, or needs_more_info.")
	resumeCmd.Flags().StringVar(&reason, "reason", "", "Optional reviewer explanation.")
	_ = resumeCmd.MarkFlagRequired("run")
	_ = resumeCmd.MarkFlagRequired("decision")

	root.AddCommand(runCmd, resumeCmd)

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and wires the executor with its retriever,
// store, emitters, and metrics.
func (a *app) setup(*cobra.Command, []string) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	a.log = logger

	opts := []workflow.Option{}

	switch cfg.Store.Backend {
	case "sqlite":
		st, err := store.NewSQLiteStore[workflow.State](cfg.Store.Path)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, st.Close)
		opts = append(opts, workflow.WithStore(st))
	default:
		// Memory store: paused runs do not survive the process. Fine
		// for demos, useless for real HITL; warn once.
		a.log.Warn("memory store in use; paused runs will not survive this process")
	}

	switch cfg.Retrieval.Driver {
	case "mysql", "sqlite":
		r, err := retrieval.Open(cfg.Retrieval.Driver, cfg.Retrieval.DSN)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, r.Close)
		opts = append(opts, workflow.WithRetriever(r))
	default:
		opts = append(opts, workflow.WithRetriever(retrieval.StaticRetriever{}))
	}

	emitters := emit.Multi{
		emit.NewLogEmitter(os.Stderr, true),
		emit.NewOTelEmitter(otel.Tracer("supportgate")),
	}
	if len(cfg.Kafka.Brokers) > 0 {
		k := emit.NewKafkaEmitter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		a.closers = append(a.closers, k.Close)
		emitters = append(emitters, k)
	}
	opts = append(opts, workflow.WithEmitter(emitters))

	if cfg.Metrics.Addr != "" {
		registry := prometheus.NewRegistry()
		opts = append(opts, workflow.WithMetrics(workflow.NewMetrics(registry)))
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				a.log.Error("metrics endpoint failed", zap.Error(err))
			}
		}()
	}

	exec, err := workflow.NewExecutor(cfg.TrustedIdentity(), cfg.Thresholds(), opts...)
	if err != nil {
		return err
	}
	a.exec = exec
	return nil
}

// report prints the final or paused snapshot for the caller's audit log.
func (a *app) report(run workflow.Run) error {
	snapshot, err := run.State.Snapshot()
	if err != nil {
		return err
	}

	var pretty json.RawMessage = snapshot
	out, _ := json.MarshalIndent(pretty, "", "  ")
	fmt.Println(string(out))

	if run.Paused {
		summary := ""
		if run.State.Fraud != nil {
			summary = run.State.Fraud.Summary
		}
		a.log.Info("run paused awaiting human review",
			zap.String("run_id", run.ID),
			zap.String("summary", summary))
		fmt.Printf("\nPaused. Resume with: supportgate resume --run %s --decision approve|reject|edit|needs_more_info\n", run.ID)
		return nil
	}

	a.log.Info("run finished",
		zap.String("run_id", run.ID),
		zap.String("status", run.State.Status.String()))
	return nil
}

func (a *app) close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.log.Warn("close failed", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log_level: %w", err)
	}
	return cfg.Build()
}
