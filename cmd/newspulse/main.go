// newspulse: news sentiment analysis for any company.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/newspulse/api"
	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/internal/infra"
	"github.com/seenimoa/newspulse/internal/logger"
	"github.com/seenimoa/newspulse/internal/pipeline"
	"github.com/seenimoa/newspulse/internal/report"
	"github.com/seenimoa/newspulse/internal/store"
	"github.com/seenimoa/newspulse/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "newspulse",
	Short: "newspulse: news sentiment analysis for any company",
	Long: `newspulse fetches recent headlines about a company, classifies the
sentiment of each article, extracts its key topics, compares coverage
across articles and narrates the verdict as Hindi audio.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File); err != nil {
			return fmt.Errorf("failed to init logger: %w", err)
		}
		api.Version = version
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("newspulse %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [company...]",
	Short: "Analyze news sentiment for a company",
	Long: `Fetch up to ten recent headlines about the company, annotate them and
print the report. Arguments are joined, so quoting multi-word names is optional.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		company := strings.Join(args, " ")
		formatFlag, _ := cmd.Flags().GetString("format")
		outPath, _ := cmd.Flags().GetString("out")
		audioOut, _ := cmd.Flags().GetString("audio-out")
		noAudio, _ := cmd.Flags().GetBool("no-audio")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		format, err := report.ParseFormat(formatFlag)
		if err != nil {
			return err
		}
		if noAudio {
			cfg.Narration.Enabled = false
		}
		if timeout <= 0 {
			timeout = cfg.API.Timeout()
		}
		if timeout <= 0 {
			timeout = time.Minute
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		p, closeStores, err := pipeline.Build(ctx, cfg, logger.Log)
		if err != nil {
			return err
		}
		defer closeStores()

		runCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		rep, err := p.Run(runCtx, company)
		switch {
		case errors.Is(err, pipeline.ErrEmptyCompany):
			return errors.New(api.MsgEmptyCompany)
		case errors.Is(err, context.DeadlineExceeded):
			return fmt.Errorf("analysis of %q timed out after %s", company, timeout)
		case err != nil:
			return err
		}

		out, err := report.Render(rep, format, report.DefaultReportConfig())
		if err != nil {
			return err
		}
		if outPath != "" {
			if err := os.WriteFile(outPath, out, 0o644); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "report written to %s\n", outPath)
		} else if _, err := cmd.OutOrStdout().Write(out); err != nil {
			return err
		}

		if audioOut == "" {
			return nil
		}
		if !rep.HasAudio() {
			fmt.Fprintln(cmd.ErrOrStderr(), "no audio was produced for this report")
			return nil
		}
		audio, err := p.Artifacts().Get(ctx, rep.ID)
		if err != nil {
			return fmt.Errorf("reading audio: %w", err)
		}
		if err := os.WriteFile(audioOut, audio, 0o644); err != nil {
			return fmt.Errorf("writing audio: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "audio written to %s\n", audioOut)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringP("format", "f", "text", "output format: text, markdown, json, html")
	analyzeCmd.Flags().StringP("out", "o", "", "write the report to a file instead of stdout")
	analyzeCmd.Flags().String("audio-out", "", "write the narrated verdict (mp3) to a file")
	analyzeCmd.Flags().Bool("no-audio", false, "skip translation and speech synthesis")
	analyzeCmd.Flags().Duration("timeout", 0, "end-to-end deadline (default: api.request_timeout)")
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if host, _ := cmd.Flags().GetString("host"); host != "" {
			cfg.API.Host = host
		}
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.API.Port = port
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		hub := api.NewWSHub(logger.Log)
		p, closeStores, err := pipeline.Build(ctx, cfg, logger.Log, pipeline.WithObserver(hub))
		if err != nil {
			return err
		}
		defer closeStores()

		if mem, ok := p.Artifacts().(*store.MemoryArtifacts); ok {
			infra.StartJanitor(ctx, mem.Cache(), 5*time.Minute)
		}

		fmt.Printf("🌐 Starting newspulse API server on %s\n", cfg.API.Addr())
		return api.NewServer(cfg, p, hub, logger.Log).ListenAndServe(ctx, cfg.API.Addr())
	},
}

func init() {
	serveCmd.Flags().String("host", "", "listen host (default: api.host)")
	serveCmd.Flags().Int("port", 0, "listen port (default: api.port)")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and credential status",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  newspulse: System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Printf("  Time:          %s\n", utils.FormatReportTime(time.Now()))
		fmt.Println()

		// Config summary
		fmt.Println("  Configuration:")
		fmt.Printf("    News Sources:  %s (limit %d)\n", strings.Join(cfg.Fetch.Sources, ", "), cfg.Fetch.Limit)
		fmt.Printf("    Annotator:     %s\n", cfg.Annotator.Backend)
		if strings.EqualFold(cfg.Annotator.Backend, "llm") {
			fmt.Printf("    LLM Provider:  %s (model: %s)\n", cfg.LLM.Primary, cfg.LLM.Model)
		}
		narration := "disabled"
		if cfg.Narration.Enabled {
			narration = "enabled (" + cfg.Narration.TargetLang + ")"
		}
		fmt.Printf("    Narration:     %s\n", narration)
		fmt.Printf("    Storage:       reports=%s audio=%s\n", cfg.Storage.ReportBackend, cfg.Storage.AudioBackend)
		fmt.Printf("    API Server:    %s\n", cfg.API.Addr())
		fmt.Println()

		// API keys status
		fmt.Println("  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
