package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"triage-engine/internal/config"
	"triage-engine/internal/engine"
	httpserver "triage-engine/internal/http"
	"triage-engine/internal/knowledge"
	"triage-engine/internal/llm"
	"triage-engine/internal/severity"
	"triage-engine/pkg"
)

var (
	verbose bool
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "triaged",
	Short: "Medical symptom triage assistant",
	Long: `triaged runs a three-stage triage pipeline over free-text patient
descriptions: symptom extraction, risk assessment grounded in retrieved
guidelines, and a recommendation with a mandatory disclaimer.

It is a prototype, not a medical device. Every recommendation carries a
disclaimer and the system falls back to URGENT on any processing failure.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// demoCmd triages one description and prints the result to the console.
var demoCmd = &cobra.Command{
	Use:   "demo [patient description]",
	Short: "Run a single triage and print the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		description := "I've had a headache for the past 3 days. Over-the-counter pain medicine isn't helping much. No fever or other symptoms."
		if len(args) > 0 {
			description = strings.Join(args, " ")
		}

		cfg := config.Load()
		eng := buildEngine(cfg, nil)
		result := eng.Triage(cmd.Context(), description)
		printResult(cmd, result)
		return nil
	},
}

// scoreCmd exposes the deterministic severity scorer.
var scoreCmd = &cobra.Command{
	Use:   "score symptom [symptom...]",
	Short: "Classify symptoms with the deterministic severity table",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scorer := severity.NewScorer()
		cmd.Printf("Score: %d\n", scorer.Score(args))
		cmd.Printf("Triage Priority: %s\n", scorer.Classify(args))
		return nil
	},
}

// serveCmd runs the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the triage JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		var retriever knowledge.Retriever
		if cfg.DatabaseURL != "" {
			store, err := openStore(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			retriever = store
		} else {
			logger.Info("no DATABASE_URL set, retrieval degrades to the no-context sentinel")
		}

		eng := buildEngine(cfg, retriever)
		srv := httpserver.NewServer(eng, severity.NewScorer(), logger, cfg.RateRPS, cfg.RateBurst)

		addr := ":" + cfg.Port
		logger.Info("listening", zap.String("addr", addr))
		return http.ListenAndServe(addr, srv)
	},
}

// seedCmd loads guideline documents into the knowledge store. The file is
// split on blank lines; the first line of each block is the title.
var seedCmd = &cobra.Command{
	Use:   "seed <file>",
	Short: "Load guideline documents into the knowledge store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must be set to seed guidelines")
		}
		store, err := openStore(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		count := 0
		for _, block := range strings.Split(string(data), "\n\n") {
			block = strings.TrimSpace(block)
			if block == "" {
				continue
			}
			title, content, found := strings.Cut(block, "\n")
			if !found {
				content = title
			}
			if _, err := store.AddGuideline(cmd.Context(), title, strings.TrimSpace(content)); err != nil {
				return fmt.Errorf("inserting guideline %q: %w", title, err)
			}
			count++
		}
		logger.Info("seeded guidelines", zap.Int("count", count))
		return nil
	},
}

func buildEngine(cfg config.Config, retriever knowledge.Retriever) *engine.Engine {
	client := llm.NewOpenAIClient(llm.Config{
		APIKey:      cfg.OpenAIAPIKey,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		Timeout:     cfg.CallTimeout,
		Verbose:     cfg.Verbose || verbose,
	}, logger)

	return engine.New(client,
		engine.WithLogger(logger),
		engine.WithRetriever(retriever),
		engine.WithProtocolFloor(cfg.ProtocolFloor),
	)
}

func openStore(ctx context.Context, dsn string) (*knowledge.PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	store := knowledge.NewPostgresStore(db)
	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

func printResult(cmd *cobra.Command, result *pkg.TriageResult) {
	rec := result.Recommendation
	cmd.Println("MEDICAL TRIAGE RESULT")
	cmd.Println("=====================")
	cmd.Printf("Triage Level: %s\n", rec.TriageLevel)
	cmd.Printf("Recommendation: %s\n", rec.RecommendedAction)
	cmd.Printf("Timeframe: %s\n", rec.Timeframe)
	cmd.Printf("Reasoning: %s\n", rec.Reasoning)
	if len(rec.WarningSigns) > 0 {
		cmd.Println("Warning Signs:")
		for _, sign := range rec.WarningSigns {
			cmd.Printf("- %s\n", sign)
		}
	}
	cmd.Printf("\nDisclaimer: %s\n", rec.Disclaimer)
	cmd.Printf("\nTokens used: %d\n", result.TokensUsed)
	if result.Error != "" {
		cmd.Printf("Processing error: %s\n", result.Error)
	}
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(demoCmd, scoreCmd, serveCmd, seedCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
