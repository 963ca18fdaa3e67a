package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/dixieflatline76/Potd/config"
	"github.com/dixieflatline76/Potd/pkg/background"
	"github.com/dixieflatline76/Potd/pkg/download"
	"github.com/dixieflatline76/Potd/pkg/network"
	"github.com/dixieflatline76/Potd/pkg/source"
	"github.com/dixieflatline76/Potd/pkg/sources"
	"github.com/dixieflatline76/Potd/pkg/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// SettingsPath is the preferences file. Set before calling Run().
	SettingsPath string

	// Collaborators, replaceable for end-to-end testing.
	Sources     *source.Registry
	Client      *http.Client
	Directories download.Directories
	Setter      background.Setter
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		SettingsPath: defaultSettingsPath(),
		Sources:      sources.Registry(),
		Client:       network.NewClient(),
		Directories:  download.BaseDirectories(),
		Setter:       background.NewSetter(),
	}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name(config.AppID),
		kong.Description("Sets a picture of the day as desktop background."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Vars{"version": config.AppVersion},
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run '%s --help' to see available commands", config.AppID)
	}
	if cmd := args[0]; cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	prefs, err := config.NewFilePreferences(m.SettingsPath)
	if err != nil {
		fmt.Fprintln(stderr, "Hint: Set POTD_SETTINGS to use a different settings file")
		return err
	}

	deps := &Dependencies{
		Ctx:         ctx,
		Stdout:      stdout,
		Stderr:      stderr,
		Prefs:       prefs,
		Config:      config.NewAppConfig(prefs),
		Store:       store.NewImageMetadataStore(prefs),
		Sources:     m.Sources,
		Client:      m.Client,
		Directories: m.Directories,
		Setter:      m.Setter,
	}
	return kongCtx.Run(deps)
}

func defaultSettingsPath() string {
	if path := os.Getenv("POTD_SETTINGS"); path != "" {
		return path
	}
	return config.SettingsFile()
}
