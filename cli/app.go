// cli/app.go
package cli

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/ViniZap4/lumi-notes/api"
	"github.com/ViniZap4/lumi-notes/auth"
	"github.com/ViniZap4/lumi-notes/config"
	"github.com/ViniZap4/lumi-notes/notes"
	"github.com/ViniZap4/lumi-notes/query"
	"github.com/ViniZap4/lumi-notes/session"
	"github.com/ViniZap4/lumi-notes/storage"
)

// App is the wired client: storage, session, API client, auth and notes.
type App struct {
	Config   *config.Config
	Log      zerolog.Logger
	KV       storage.Store
	Sessions *session.Store
	Session  *session.Cache
	Client   *api.Client
	Auth     *auth.Manager
	Queries  *query.Cache
	Notes    *notes.Service
}

func storageConfig(cfg *config.Config) storage.Config {
	return storage.Config{
		Driver: cfg.Storage.Driver,
		Path:   cfg.Storage.Path,
		SQLite: &storage.SQLiteConfig{DSN: cfg.Storage.Path},
		Redis: &storage.RedisConfig{
			Addr:     cfg.Storage.RedisAddr,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
		},
		Keychain:    cfg.Storage.Keychain,
		KeychainDir: cfg.Storage.KeychainDir,
	}
}

func NewApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	sc := storageConfig(cfg)
	kv, err := storage.New(sc)
	if err != nil {
		return nil, err
	}
	keychain, err := storage.NewKeychain(sc)
	if err != nil {
		kv.Close()
		return nil, err
	}

	store := session.NewStore(kv, keychain, log)
	cache := session.NewCache(store)
	cache.Hydrate(ctx)

	client := api.New(api.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		TraceSize: cfg.API.TraceSize,
	}, cache, log)

	var remoteClient *api.Client
	if cfg.Notes.Backend == notes.BackendRemote {
		remoteClient = client
	}
	backend, err := notes.Open(cfg.Notes.Backend, remoteClient, cfg.Notes.Dir, log)
	if err != nil {
		kv.Close()
		return nil, err
	}
	queries := query.New(cfg.Notes.StaleTime, log)

	return &App{
		Config:   cfg,
		Log:      log,
		KV:       kv,
		Sessions: store,
		Session:  cache,
		Client:   client,
		Auth:     auth.NewManager(auth.NewRemote(client), store, cache, log),
		Queries:  queries,
		Notes:    notes.NewService(backend, queries, log),
	}, nil
}

// RequireSession fails unless someone is signed in. The local backend works
// without an account.
func (a *App) RequireSession() error {
	if a.Config.Notes.Backend == notes.BackendLocal || a.Auth.IsAuthenticated() {
		return nil
	}
	return errors.New("not signed in, run `lumi login` first")
}

func (a *App) Close() error {
	a.Queries.Close()
	return a.KV.Close()
}
