package main

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/dixieflatline76/Potd/config"
	"github.com/dixieflatline76/Potd/pkg/app"
	"github.com/dixieflatline76/Potd/pkg/metrics"
	"github.com/dixieflatline76/Potd/pkg/network"
	"github.com/dixieflatline76/Potd/pkg/notify"
	"github.com/dixieflatline76/Potd/pkg/refresh"
	"github.com/dixieflatline76/Potd/util/log"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// Run executes the run command. It returns once deps.Ctx is done.
func (c *RunCmd) Run(deps *Dependencies) error {
	lock, err := acquireLock(filepath.Join(config.StateDir(), config.AppID+".lock"))
	if errors.Is(err, errAlreadyRunning) {
		return fmt.Errorf("another instance of %s is already running", config.AppName)
	}
	if err != nil {
		return err
	}
	defer lock.release()

	log.Printf("Starting %s %s, settings in %s", config.AppName, config.AppVersion, deps.Prefs.Path())

	g, ctx := errgroup.WithContext(deps.Ctx)

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	addr := c.MetricsAddr
	if addr == "" {
		addr = deps.Config.GetMetricsAddr()
	}
	if addr != "" {
		g.Go(func() error { return metrics.Serve(ctx, addr, reg) })
	}

	var (
		errs    refresh.ErrorHandler = notify.LogHandler{}
		desktop *notify.DesktopHandler
	)
	if !c.NoNotifications {
		notifier, err := notify.NewDBusNotifier()
		if err != nil {
			log.Printf("Desktop notifications unavailable, logging errors only: %v", err)
		} else {
			defer notifier.Close()
			desktop = notify.NewDesktopHandler(notifier, notify.WithEnabled(deps.Config.GetAppNotificationsEnabled))
			errs = desktop
			g.Go(func() error { return notifier.Listen(ctx, desktop) })
		}
	}

	a, err := app.New(app.Options{
		Prefs:        deps.Prefs,
		Registry:     deps.Sources,
		Client:       deps.Client,
		Directories:  deps.Directories,
		Setter:       deps.Setter,
		Errors:       errs,
		Metrics:      collector,
		Connectivity: network.NewConnectivityMonitor(deps.Client),
	})
	if err != nil {
		return err
	}
	defer a.Destroy()

	if desktop != nil {
		desktop.OnAction(notify.ActionRetry, a.RefreshAsync)
		desktop.OnAction(notify.ActionConfigure, func() {
			openExternal(ctx, "xdg-open", deps.Prefs.Path())
		})
		desktop.OnAction(notify.ActionNetworkSettings, func() {
			openExternal(ctx, "gnome-control-center", "network")
		})
	}

	g.Go(func() error { return deps.Prefs.Watch(ctx) })

	a.Start()
	<-ctx.Done()
	log.Printf("Shutting down %s", config.AppName)
	return g.Wait()
}

func openExternal(ctx context.Context, name string, args ...string) {
	cmd := exec.CommandContext(ctx, name, args...)
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to run %s: %v", name, err)
		return
	}
	go func() { _ = cmd.Wait() }()
}
