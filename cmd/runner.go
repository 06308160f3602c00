package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibecast/internal/analysis"
	"github.com/desertthunder/vibecast/internal/repositories"
	"github.com/desertthunder/vibecast/internal/services"
	"github.com/desertthunder/vibecast/internal/shared"
	"github.com/desertthunder/vibecast/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	catalog    services.Catalog
	auth       *services.Authenticator
	generator  services.TextGenerator
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Collaborators left nil are built from Config by [Runner.wire].
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Catalog    services.Catalog
	Auth       *services.Authenticator
	Generator  services.TextGenerator
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
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

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		catalog:    opts.Catalog,
		auth:       opts.Auth,
		generator:  opts.Generator,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, analyzeCommand, browseCommand, playlistsCommand, loginCommand, historyCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Init is the root command's Before hook: it loads the dotenv file and the config file,
// applies environment overrides, and wires the upstream clients.
func (r *Runner) Init(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if err := shared.LoadEnv(cmd.String("env")); err != nil {
		r.logger.Warn("failed to load env file", "error", err)
	}

	path := cmd.String("config")
	config, err := loadConfig(path)
	if err != nil {
		return ctx, err
	}
	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return ctx, err
	}
	if err := shared.SetLogLevel(r.logger, config.Log.Level); err != nil {
		r.logger.Warn("unknown log level, keeping default", "level", config.Log.Level)
	}

	r.config = config
	r.configPath = path
	return ctx, r.wire()
}

// loadConfig reads path, falling back to the embedded defaults when the file does not exist.
func loadConfig(path string) (*shared.Config, error) {
	if path == "" {
		return shared.DefaultConfig(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return shared.DefaultConfig(), nil
	}
	return shared.LoadConfig(path)
}

// wire builds every collaborator not injected through [RunnerOpts].
//
// The authenticator is only built when client credentials are configured; commands needing it check for nil.
func (r *Runner) wire() error {
	up := r.config.Upstream
	if r.httpClient == nil {
		r.httpClient = services.NewHTTPClient(up.Timeout())
	}
	if r.limiter == nil {
		r.limiter = services.NewLimiter(up.RateLimit)
	}

	if r.catalog == nil {
		catalog, err := services.NewSpotifyClient(services.SpotifyOpts{
			BaseURL:    up.APIBaseURL,
			HTTPClient: r.httpClient,
			Limiter:    r.limiter,
			Logger:     r.logger,
		})
		if err != nil {
			return err
		}
		r.catalog = catalog
	}

	creds := r.config.Credentials.Spotify
	if r.auth == nil && creds.ClientID != "" && creds.ClientSecret != "" {
		auth, err := services.NewAuthenticator(services.AuthOpts{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURI:  creds.RedirectURI,
			AccountsURL:  up.AccountsBaseURL,
			HTTPClient:   r.httpClient,
			Logger:       r.logger,
		})
		if err != nil {
			return err
		}
		r.auth = auth
	}

	if r.generator == nil {
		gen, err := r.newGenerator()
		if err != nil {
			return err
		}
		r.generator = gen
	}

	return nil
}

// newGenerator returns the configured text generator, or nil when Gemini has no key.
// The generative strategy then reports the missing generator per request.
func (r *Runner) newGenerator() (services.TextGenerator, error) {
	creds := r.config.Credentials
	switch r.config.Analysis.Generator {
	case shared.GeneratorOllama:
		return services.NewOllamaClient(services.OllamaOpts{
			Host:       creds.Ollama.Host,
			Model:      creds.Ollama.Model,
			HTTPClient: r.httpClient,
			Limiter:    r.limiter,
			Logger:     r.logger,
		}), nil
	default:
		if creds.Gemini.APIKey == "" {
			r.logger.Debug("no gemini api key configured, generative analysis unavailable")
			return nil, nil
		}
		gen, err := services.NewGeminiClient(services.GeminiOpts{
			APIKey:     creds.Gemini.APIKey,
			Model:      creds.Gemini.Model,
			BaseURL:    creds.Gemini.BaseURL,
			HTTPClient: r.httpClient,
			Limiter:    r.limiter,
			Logger:     r.logger,
		})
		if err != nil {
			return nil, err
		}
		return gen, nil
	}
}

// newEngine builds an analysis engine for strategy, recording runs when the run log is enabled.
//
// The returned close func must be called once the engine is no longer used.
func (r *Runner) newEngine(strategy string) (*tasks.AnalysisEngine, func(), error) {
	cfg := r.config.Analysis
	if strategy != "" {
		cfg.Strategy = strategy
	}

	aggregator, err := analysis.New(cfg, r.generator, r.logger)
	if err != nil {
		return nil, nil, err
	}

	opts := []tasks.EngineOption{tasks.WithLogger(r.logger)}
	closer := func() {}

	runs, db, err := repositories.Open(r.config.Database)
	switch {
	case err != nil:
		r.logger.Warn("run log unavailable, analyses will not be recorded", "error", err)
	case runs != nil:
		opts = append(opts, tasks.WithRecorder(runs))
		closer = func() { db.Close() }
	}

	return tasks.NewAnalysisEngine(r.catalog, aggregator, opts...), closer, nil
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
