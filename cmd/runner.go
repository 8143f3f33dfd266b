package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotunisia/internal/fallback"
	"github.com/desertthunder/spotunisia/internal/formatter"
	"github.com/desertthunder/spotunisia/internal/repositories"
	"github.com/desertthunder/spotunisia/internal/services"
	"github.com/desertthunder/spotunisia/internal/session"
	"github.com/desertthunder/spotunisia/internal/shared"
	"github.com/desertthunder/spotunisia/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Catalog is the catalog client the commands drive. Implemented by [services.SpotifyService].
type Catalog interface {
	services.Catalog
	Authenticate(ctx context.Context, accessToken string) error
	ImplicitGrantURL(state string) string
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database, session guard and catalog are opened on first use so that commands such as
// setup work before any of them exist.
type Runner struct {
	config    *shared.Config
	catalog   Catalog
	guard     *session.Guard
	api       *services.APIService
	db        *sql.DB
	downloads *repositories.DownloadRepository
	loader    *tasks.Loader
	resolver  *fallback.Resolver
	opener    shared.Opener
	logger    *log.Logger
	output    io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config  *shared.Config
	Catalog Catalog
	Store   session.Store
	API     *services.APIService
	Opener  shared.Opener
	Logger  *log.Logger
	Output  io.Writer
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
	if opts.Opener == nil {
		opts.Opener = shared.OpenBrowser
	}
	if opts.API == nil {
		timeout := time.Duration(max(opts.Config.Fallback.TimeoutSeconds, 1)) * time.Second
		opts.API = services.NewAPIService(&http.Client{Timeout: timeout})
	}

	r := &Runner{
		config:  opts.Config,
		catalog: opts.Catalog,
		api:     opts.API,
		opener:  opts.Opener,
		logger:  opts.Logger,
		output:  opts.Output,
	}
	if opts.Store != nil {
		r.guard = session.NewGuard(opts.Store, session.WithLogger(opts.Logger))
	}
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, loginCommand, logoutCommand, statusCommand,
		homeCommand, searchCommand, libraryCommand, likedCommand, playlistCommand, albumCommand,
		resolveCommand, downloadCommand, downloadsCommand, exportCommand, playCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger swaps the logger used by the runner and everything it builds afterwards.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// connect opens the session store and builds the catalog client, the loader and the resolver.
func (r *Runner) connect() error {
	if r.guard == nil {
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		r.db = db
		r.downloads = repositories.NewDownloadRepository(db)
		r.guard = session.NewGuard(repositories.NewKVRepository(db), session.WithLogger(r.logger))
	}

	if r.catalog == nil {
		if err := r.config.Validate(); err != nil {
			return fmt.Errorf("%w (set it in config.toml or %sCLIENT_ID)", err, shared.EnvPrefix)
		}
		spotify, err := services.NewSpotifyService(services.SpotifyOptions{
			ClientID:    r.config.Credentials.Spotify.ClientID,
			RedirectURI: r.config.Credentials.Spotify.RedirectURI,
			AuthURL:     r.config.Catalog.AuthURL,
			BaseURL:     r.config.Catalog.BaseURL,
			Country:     r.config.Catalog.Country,
			Logger:      r.logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create catalog client: %w", err)
		}
		r.catalog = spotify
	}

	if r.loader == nil {
		r.loader = tasks.NewLoader(r.catalog, r.guard, r.logger)
	}
	if r.resolver == nil {
		opts := fallback.OptionsFromConfig(r.config.Fallback)
		opts.Opener = r.opener
		opts.Logger = r.logger
		r.resolver = fallback.NewResolver(r.api, opts)
	}
	return nil
}

// authorize restores the stored session and hands its token to the catalog client.
func (r *Runner) authorize(ctx context.Context) error {
	if err := r.connect(); err != nil {
		return err
	}
	if _, err := r.guard.Restore(ctx); err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}
	token, err := r.guard.Require(ctx)
	if err != nil {
		return loginHint(err)
	}
	return r.catalog.Authenticate(ctx, token)
}

// check points the user at login when a load failed for lack of a session.
func (r *Runner) check(err error) error {
	if err != nil && session.IsAuthError(err) {
		return loginHint(err)
	}
	return err
}

func loginHint(err error) error {
	return fmt.Errorf("%w: run `spotunisia login` first", err)
}

// Close releases the database handle.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := formatter.MarshalJSON(data, pretty)
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
