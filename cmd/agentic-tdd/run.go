package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xpepper/agentic-tdd-specify-edition/internal/agent"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/config"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/cycle"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/gitops"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/kata"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/llm"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/logging"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/report"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/session"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/store"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/toolchain"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "run <kata-file>",
		Short:        "Run a TDD session for a kata description",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Verbose && !logging.VerboseEnabled() {
				logging.Init(true)
			}

			spec, err := kata.Load(args[0])
			if err != nil {
				return err
			}

			tc, err := toolchain.ForLanguage(cfg.Language, cfg.CommandTimeout)
			if err != nil {
				return err
			}
			client, err := llm.New(cmd.Context(), cfg.LLM)
			if err != nil {
				return err
			}

			repo := gitops.New(cfg.WorkDir)
			st, closeFn, err := openHistory(cfg.WorkDir)
			if err != nil {
				return err
			}
			defer closeFn()

			tester := agent.NewTester(client, cfg.WorkDir, tc, repo)
			implementer := agent.NewImplementer(client, cfg.WorkDir, tc, repo)
			refactorer := agent.NewRefactorer(client, cfg.WorkDir, tc, repo)

			reporter := report.NewConsole(os.Stdout)
			controller := cycle.NewController(tester, implementer, refactorer,
				tc, repo, spec, cfg.WorkDir, cfg.Language, cfg.MaxRetries, reporter)
			driver := session.NewDriver(spec, repo, tc, controller, st, reporter,
				cfg.WorkDir, cfg.MaxCycles)

			state, err := driver.Run(cmd.Context())
			if err != nil {
				return err
			}
			if ctxErr := cmd.Context().Err(); ctxErr != nil {
				return ctxErr
			}
			log.Info().Int("cycles", len(state.Cycles)).Int("commits", state.TotalCommits).
				Msg("session finished")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringP("work-dir", "w", "", "working directory for the kata implementation")
	flags.StringP("language", "l", config.DefaultLanguage, "target language")
	flags.StringP("provider", "p", "openai", "LLM provider")
	flags.StringP("model", "m", "", "LLM model name")
	flags.String("api-key", "", "LLM API key (defaults to provider env var)")
	flags.String("base-url", "", "LLM base URL override")
	flags.Float64P("temperature", "t", config.DefaultTemperature, "LLM temperature")
	flags.Int("max-cycles", config.DefaultMaxCycles, "maximum TDD cycles")
	flags.Int("max-retries", config.DefaultMaxRetries, "maximum retries per agent")
	flags.Duration("command-timeout", config.DefaultCommandTimeout, "timeout for shell commands")
	flags.Bool("verbose", false, "verbose output")

	bindings := map[string]string{
		"work_dir":        "work-dir",
		"language":        "language",
		"llm.provider":    "provider",
		"llm.model":       "model",
		"llm.api_key":     "api-key",
		"llm.base_url":    "base-url",
		"llm.temperature": "temperature",
		"max_cycles":      "max-cycles",
		"max_retries":     "max-retries",
		"command_timeout": "command-timeout",
		"verbose":         "verbose",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("bind %s flag: %v", flag, err))
		}
	}
	return cmd
}

func loadConfig() (config.Config, error) {
	v := viper.GetViper()
	config.SetDefaults(v)
	if cfgFile != "" {
		if err := v.ReadInConfig(); err != nil {
			return config.Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	return config.Load(v)
}

func openHistory(workDir string) (*store.Store, func(), error) {
	dir := filepath.Join(workDir, session.StateDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create state dir: %w", err)
	}
	db, err := store.Open(filepath.Join(dir, "history.db"))
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Msg("close history db")
		}
	}
	return store.NewStore(db), closeFn, nil
}
