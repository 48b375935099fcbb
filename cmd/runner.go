package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"anisync/internal/anilist"
	"anisync/internal/auth"
	"anisync/internal/cache"
	"anisync/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	client *anilist.Client
	logger *log.Logger
	output io.Writer
	input  io.Reader
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Client *anilist.Client
	Logger *log.Logger
	Output io.Writer
	Input  io.Reader
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
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Client == nil {
		opts.Client = anilist.NewClient(anilist.ClientOpts{
			URL:               opts.Config.API.URL,
			RequestsPerMinute: opts.Config.API.RequestsPerMinute,
			Logger:            opts.Logger,
		})
	}

	return &Runner{
		config: opts.Config,
		client: opts.Client,
		logger: opts.Logger,
		output: opts.Output,
		input:  opts.Input,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		syncCommand, listCommand, authCommand, cacheCommand, initCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// tokenStore opens the token store at the configured path, seeding the OAuth
// client pair from the config when the store has none yet.
func (r *Runner) tokenStore() (*auth.Store, error) {
	path := r.config.Auth.TokenPath
	if path == "" {
		var err error
		if path, err = auth.DefaultStorePath(); err != nil {
			return nil, err
		}
	}

	store, err := auth.OpenStore(path)
	if err != nil {
		return nil, err
	}

	if id, _ := store.Credentials(); id == "" {
		store.SetCredentials(r.config.Auth.ClientID, r.config.Auth.ClientSecret)
	}

	return store, nil
}

// tokenManager wires the token store to the API client. flow may be nil,
// which yields a store-only manager that never starts an OAuth exchange.
func (r *Runner) tokenManager(flow auth.Flow) (*auth.Manager, error) {
	store, err := r.tokenStore()
	if err != nil {
		return nil, err
	}

	return auth.NewManager(store, r.client, flow, r.config.Auth.RedirectURI, r.logger), nil
}

// authFlow picks the OAuth flow for interactive commands: a localhost
// callback by default, or the paste-the-redirect-URL fallback with --manual.
func (r *Runner) authFlow(manual bool) auth.Flow {
	if manual {
		return auth.NewManualFlow(r.input, r.output)
	}

	return auth.NewCallbackFlow(fmt.Sprintf("localhost:%d", r.config.Auth.CallbackPort), r.output)
}

// openCache opens the named result cache file under the configured cache
// directory. Callers own the returned store and must Close it to flush.
func (r *Runner) openCache(name string) *cache.Store {
	return cache.Open(filepath.Join(r.config.Cache.Dir, name+".json"))
}

// userIDMaxAge converts the configured cache age to a duration.
func (r *Runner) userIDMaxAge() time.Duration {
	return time.Duration(r.config.Cache.UserIDMaxAgeDays) * 24 * time.Hour
}

// cachedAPI serves user id lookups from the on-disk result cache; every
// other call passes through to the client.
type cachedAPI struct {
	*anilist.Client
	userID func(context.Context, string) (int, error)
}

func newCachedAPI(client *anilist.Client, store *cache.Store, maxAge time.Duration) *cachedAPI {
	return &cachedAPI{
		Client: client,
		userID: cache.Cached(store, maxAge, func(ctx context.Context, username string) (int, error) {
			return client.UserIDByName(ctx, username)
		}),
	}
}

func (a *cachedAPI) UserIDByName(ctx context.Context, username string) (int, error) {
	return a.userID(ctx, username)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return err
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
