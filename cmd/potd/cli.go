package main

import (
	"context"
	"io"
	"net/http"

	"github.com/alecthomas/kong"
	"github.com/dixieflatline76/Potd/config"
	"github.com/dixieflatline76/Potd/pkg/background"
	"github.com/dixieflatline76/Potd/pkg/download"
	"github.com/dixieflatline76/Potd/pkg/source"
	"github.com/dixieflatline76/Potd/pkg/store"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx         context.Context
	Stdout      io.Writer
	Stderr      io.Writer
	Prefs       *config.FilePreferences
	Config      *config.AppConfig
	Store       *store.ImageMetadataStore
	Sources     *source.Registry
	Client      *http.Client
	Directories download.Directories
	Setter      background.Setter
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Version kong.VersionFlag `help:"Show version and exit"`

	Run       RunCmd       `cmd:"" help:"Refresh the desktop background on a schedule"`
	Refresh   RefreshCmd   `cmd:"" help:"Download a new picture of the day now"`
	Sources   SourcesCmd   `cmd:"" help:"List available image sources"`
	Select    SelectCmd    `cmd:"" help:"Select the image source"`
	SetAPIKey SetAPIKeyCmd `cmd:"" name:"set-api-key" help:"Store the API key of a source in the keyring"`
	Status    StatusCmd    `cmd:"" help:"Show the current image and refresh state"`
}

// RunCmd is the "run" subcommand.
type RunCmd struct {
	MetricsAddr     string `name:"metrics-addr" placeholder:"ADDR" help:"Serve Prometheus metrics on this address (overrides the settings file)"`
	NoNotifications bool   `help:"Log errors instead of showing desktop notifications"`
}

// RefreshCmd is the "refresh" subcommand.
type RefreshCmd struct {
	NoBackground bool `help:"Only download, leave the desktop background alone"`
}

// SourcesCmd is the "sources" subcommand.
type SourcesCmd struct{}

// SelectCmd is the "select" subcommand.
type SelectCmd struct {
	Key string `arg:"" help:"Source key as listed by 'sources'"`
}

// SetAPIKeyCmd is the "set-api-key" subcommand.
type SetAPIKeyCmd struct {
	Source string `arg:"" help:"Source key"`
	Key    string `arg:"" optional:"" help:"API key; omit to remove the stored key"`
}

// StatusCmd is the "status" subcommand.
type StatusCmd struct{}
