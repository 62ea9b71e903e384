package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/foreman/internal/buildservice"
	"github.com/five82/foreman/internal/config"
	"github.com/five82/foreman/internal/prefs"
	"github.com/five82/foreman/internal/session"
	"github.com/five82/foreman/internal/state"
	"github.com/five82/foreman/internal/ui"
)

// Options configure the foreman application.
type Options struct {
	Config config.Config
	// Factory builds service clients; nil uses session.DefaultFactory.
	Factory session.Factory
}

// Run boots the foreman TUI until the user quits or the context is
// cancelled. Preferences changed in the UI are written back on exit.
func Run(ctx context.Context, opts Options) error {
	cfg := opts.Config

	userPrefs, err := prefs.Load(cfg.PrefsPath)
	if err != nil {
		return fmt.Errorf("load prefs: %w", err)
	}

	clientOpts := ClientOptions(cfg)
	clientOpts.APIURL = StartURL(cfg, userPrefs)
	sess, err := session.New(clientOpts, cfg.Servers, opts.Factory)
	if err != nil {
		return err
	}
	userPrefs.LastAPIURL = sess.URL()

	logFile, err := openLog(cfg.LogFile)
	if err != nil {
		return err
	}
	defer logFile.Close()
	log.Printf("foreman starting on %s", sess.URL())

	final, err := ui.Run(ui.Options{
		Context:         ctx,
		Session:         sess,
		Store:           &state.Store{},
		Prefs:           userPrefs,
		PrefsPath:       cfg.PrefsPath,
		RefreshInterval: cfg.RefreshInterval,
		LogStreamDelay:  cfg.LogStreamDelay,
	})
	if saveErr := prefs.Save(cfg.PrefsPath, final); saveErr != nil {
		log.Printf("save prefs: %v", saveErr)
	}
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

// ClientOptions maps the configuration onto service client options.
func ClientOptions(cfg config.Config) buildservice.Options {
	return buildservice.Options{
		APIURL:   cfg.APIURL,
		User:     cfg.User,
		Password: cfg.Password,
		Timeout:  cfg.RequestTimeout,
	}
}

// StartURL picks the server to open: the one used last time when it is
// still configured, otherwise the configured api_url.
func StartURL(cfg config.Config, p prefs.Prefs) string {
	if p.LastAPIURL == "" || p.LastAPIURL == cfg.APIURL {
		return cfg.APIURL
	}
	for _, srv := range cfg.Servers {
		if srv == p.LastAPIURL {
			return srv
		}
	}
	return cfg.APIURL
}

// openLog sends the standard logger to path so diagnostics do not draw over
// the terminal UI.
func openLog(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := tea.LogToFile(path, "foreman")
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
