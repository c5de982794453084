package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/favsync/internal/repos"
	"github.com/desertthunder/favsync/internal/services"
	"github.com/desertthunder/favsync/internal/shared"
	"github.com/desertthunder/favsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config       *shared.Config
	service      services.CollectionService
	store        *repos.Store
	materializer tasks.Materializer
	engine       *tasks.SyncEngine
	history      tasks.HistoryRecorder
	logger       *log.Logger
	output       io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config       *shared.Config
	Service      services.CollectionService
	Store        *repos.Store
	Materializer tasks.Materializer
	History      tasks.HistoryRecorder
	Logger       *log.Logger
	Output       io.Writer
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
	if opts.Service == nil {
		pageDelay := time.Duration(opts.Config.Download.PageDelayMS) * time.Millisecond
		opts.Service = services.NewBilibiliService(opts.Config.API, pageDelay, opts.Logger)
	}
	if opts.Store == nil {
		opts.Store = repos.NewStore(opts.Config.Storage.BaseDir, opts.Logger)
	}
	if opts.Materializer == nil {
		opts.Materializer = tasks.NewFFmpegMaterializer(opts.Service, opts.Config.Download.FFmpegPath, opts.Logger)
	}

	engine := tasks.NewSyncEngine(opts.Store, opts.Service, opts.Materializer, tasks.SyncEngineOpts{
		ItemDelay: time.Duration(opts.Config.Download.ItemDelayMS) * time.Millisecond,
		History:   opts.History,
		Logger:    opts.Logger,
	})

	return &Runner{
		config:       opts.Config,
		service:      opts.Service,
		store:        opts.Store,
		materializer: opts.Materializer,
		engine:       engine,
		history:      opts.History,
		logger:       opts.Logger,
		output:       opts.Output,
	}
}

// SetLogger swaps the runner's logger, used when the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, initCommand, pullCommand, listCommand, updateCommand, exportCommand, historyCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
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

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
