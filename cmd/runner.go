package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundmatch/internal/formatter"
	"github.com/desertthunder/soundmatch/internal/models"
	"github.com/desertthunder/soundmatch/internal/repositories"
	"github.com/desertthunder/soundmatch/internal/server"
	"github.com/desertthunder/soundmatch/internal/shared"
	"github.com/desertthunder/soundmatch/internal/tasks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
)

// HistoryStore is the history surface the CLI needs.
type HistoryStore interface {
	server.HistoryStore
	List(ctx context.Context, filter repositories.HistoryFilter) ([]models.HistoryRecord, error)
	Clear(ctx context.Context, userID string) (int64, error)
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	search      *tasks.SearchEngine
	recommender *tasks.Recommender
	identifier  *tasks.Identifier
	history     HistoryStore
	gatherer    prometheus.Gatherer
	logger      *log.Logger
	output      io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	Search      *tasks.SearchEngine
	Recommender *tasks.Recommender
	Identifier  *tasks.Identifier
	History     HistoryStore
	Gatherer    prometheus.Gatherer
	Logger      *log.Logger
	Output      io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Search == nil {
		opts.Search = tasks.NewSearchEngine(nil, opts.Config.Search.Timeout(), opts.Logger)
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		search:      opts.Search,
		recommender: opts.Recommender,
		identifier:  opts.Identifier,
		history:     opts.History,
		gatherer:    opts.Gatherer,
		logger:      opts.Logger,
		output:      opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, searchCommand, identifyCommand, recommendCommand,
		historyCommand, statsCommand, analyzeCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:     "soundmatch",
		Usage:    "Find songs across streaming platforms and get recommendations from your listening history",
		Version:  version,
		Commands: r.register(),
	}
}

// requireHistory reports a configuration error when no store is wired.
func (r *Runner) requireHistory() error {
	if r.history == nil {
		return fmt.Errorf("%w: history database is not configured", shared.ErrServiceUnavailable)
	}
	return nil
}

// outputFormat reads --json and --format.
func outputFormat(cmd *cli.Command) (formatter.Format, error) {
	if cmd.Bool("json") {
		return formatter.JSON, nil
	}
	return formatter.ParseFormat(cmd.String("format"))
}

// emit writes data to --output when set, otherwise to the runner's output.
func (r *Runner) emit(cmd *cli.Command, base string, f formatter.Format, data []byte) error {
	path := cmd.String("output")
	if path == "" && !cmd.Bool("save") {
		_, err := r.output.Write(data)
		if err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	written, err := formatter.WriteExport(path, base, f, data)
	if err != nil {
		return err
	}
	r.logger.Info("export written", "path", written, "format", f)
	return r.writePlain("Saved %s export to %s\n", f, written)
}

// watch drains progress updates into the log until the returned stop func is called.
func (r *Runner) watch(verbose bool) (chan<- tasks.ProgressUpdate, func()) {
	progressCh := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.logger.Debug(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
			if verbose {
				r.writePlain("  %s\n", update.Message)
			}
		}
	}()
	return progressCh, func() {
		close(progressCh)
		<-done
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
