// Package main provides the CLI entrypoint for kanata.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mizuki-t/kanata/internal/board"
	"github.com/mizuki-t/kanata/internal/config"
	"github.com/mizuki-t/kanata/internal/model"
	"github.com/mizuki-t/kanata/internal/question"
	"github.com/mizuki-t/kanata/internal/ranking"
	"github.com/mizuki-t/kanata/internal/tui"
)

const (
	defaultSampleSize  = 10
	defaultDeadlineSec = 8.0
	defaultCountdown   = 3
	defaultTallyDays   = 7
)

var (
	playQuestions string
	playSample    int
	playDeadline  float64
	playCountdown int
	playName      string

	renameID string

	tallyLast int

	convertContext string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "kanata",
		Short:         "TUI kana-to-kanji conversion typing game",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPlayCmd,
	}

	rootCmd.Flags().StringVar(&playQuestions, "questions", "", "question bank path (default: XDG config dir)")
	rootCmd.Flags().IntVar(&playSample, "sample", defaultSampleSize, "questions per game")
	rootCmd.Flags().Float64Var(&playDeadline, "deadline", defaultDeadlineSec, "seconds allowed per question")
	rootCmd.Flags().IntVar(&playCountdown, "countdown", defaultCountdown, "countdown seconds before the game starts")
	rootCmd.Flags().StringVar(&playName, "name", "", "default player name for the board")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newBoardCmd())
	rootCmd.AddCommand(newRenameCmd())
	rootCmd.AddCommand(newTallyCmd())
	rootCmd.AddCommand(newConvertCmd())

	return rootCmd
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "questions", &playQuestions, fileCfg.Game.Questions)
	applyIntConfig(cmd, "sample", &playSample, fileCfg.Game.Sample)
	applyFloatConfig(cmd, "deadline", &playDeadline, fileCfg.Game.Deadline)
	applyIntConfig(cmd, "countdown", &playCountdown, fileCfg.Game.Countdown)
	applyStringConfig(cmd, "name", &playName, fileCfg.Game.Name)

	questionsPath := playQuestions
	if questionsPath == "" {
		questionsPath = config.DefaultQuestionsPath()
	}

	cfg := model.Config{
		QuestionsPath: questionsPath,
		SampleSize:    playSample,
		Deadline:      time.Duration(playDeadline * float64(time.Second)),
		Countdown:     playCountdown,
		DefaultName:   ranking.TrimName(playName),
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	bank, err := question.Load(cfg.QuestionsPath)
	if err != nil {
		return questionLoadError(cfg.QuestionsPath, err)
	}

	st, err := ranking.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	gameModel := tui.NewModel(cfg, st, bank)
	program := tea.NewProgram(gameModel, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newBoardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Show today's leaderboard",
		Args:  cobra.NoArgs,
		RunE:  runBoardCmd,
	}
}

func runBoardCmd(cmd *cobra.Command, _ []string) error {
	st, err := ranking.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	entries, err := st.Load(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return board.RenderBoard(cmd.OutOrStdout(), entries)
}

func newRenameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <name>",
		Short: "Rename a leaderboard entry (defaults to the last submitted)",
		Args:  cobra.ExactArgs(1),
		RunE:  runRenameCmd,
	}
	cmd.Flags().StringVar(&renameID, "id", "", "entry id (default: last submitted entry)")
	return cmd
}

func runRenameCmd(cmd *cobra.Command, args []string) error {
	st, err := ranking.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := context.Background()
	id := renameID
	if id == "" {
		id, err = st.LastEntryID(ctx)
		if err != nil {
			return fmt.Errorf("failed to read last entry: %w", err)
		}
		if id == "" {
			return fmt.Errorf("no entry submitted today; pass --id")
		}
	}
	if err := st.Rename(ctx, id, args[0]); err != nil {
		return fmt.Errorf("failed to rename entry: %w", err)
	}

	entries, err := st.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return board.RenderBoard(cmd.OutOrStdout(), entries)
}

func newTallyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tally",
		Short: "Show daily correct-answer totals",
		Args:  cobra.NoArgs,
		RunE:  runTallyCmd,
	}
	cmd.Flags().IntVar(&tallyLast, "last", defaultTallyDays, "number of days to show")
	return cmd
}

func runTallyCmd(cmd *cobra.Command, _ []string) error {
	st, err := ranking.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	tally, err := st.Tally(context.Background(), tallyLast)
	if err != nil {
		return fmt.Errorf("failed to load tally: %w", err)
	}
	return board.RenderTally(cmd.OutOrStdout(), tally)
}

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <text>",
		Short: "Convert a raw answer using the question bank's rules",
		Args:  cobra.ExactArgs(1),
		RunE:  runConvertCmd,
	}
	cmd.Flags().StringVar(&convertContext, "context", "", "context the conversion is keyed by")
	cmd.Flags().StringVar(&playQuestions, "questions", "", "question bank path (default: XDG config dir)")
	return cmd
}

func runConvertCmd(cmd *cobra.Command, args []string) error {
	questionsPath := playQuestions
	if questionsPath == "" {
		questionsPath = config.DefaultQuestionsPath()
	}
	bank, err := question.Load(questionsPath)
	if err != nil {
		return questionLoadError(questionsPath, err)
	}
	converted := bank.Conversions.Convert(args[0], convertContext)
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), convertContext+converted); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# kanata configuration
# Uncomment a value to enable it. CLI flags override config values.

[game]
# questions = ""          # Question bank path (default: XDG config dir)
# sample = %d             # Questions per game
# deadline = %.1f         # Seconds allowed per question
# countdown = %d          # Countdown seconds before the game starts
# name = ""               # Default player name for the board
`,
		defaultSampleSize,
		defaultDeadlineSec,
		defaultCountdown,
	)
}

func validateConfig(cfg model.Config) error {
	if cfg.SampleSize <= 0 {
		return fmt.Errorf("--sample must be > 0")
	}
	if cfg.Deadline <= 0 {
		return fmt.Errorf("--deadline must be > 0")
	}
	if cfg.Countdown < 0 {
		return fmt.Errorf("--countdown must be >= 0")
	}
	return nil
}

func questionLoadError(path string, err error) error {
	lines := []string{
		fmt.Sprintf("failed to load question bank: %v", err),
		fmt.Sprintf("expected question bank at: %s", path),
		"Provide one with --questions or set it in the config file.",
		"Edit config: kanata config",
	}
	return fmt.Errorf("%s", strings.Join(lines, "\n"))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
