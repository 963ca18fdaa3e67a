// Package app wires sources, the refresh machinery and the desktop together.
package app

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dixieflatline76/Potd/config"
	"github.com/dixieflatline76/Potd/pkg/background"
	"github.com/dixieflatline76/Potd/pkg/download"
	"github.com/dixieflatline76/Potd/pkg/network"
	"github.com/dixieflatline76/Potd/pkg/refresh"
	"github.com/dixieflatline76/Potd/pkg/source"
	"github.com/dixieflatline76/Potd/pkg/store"
	"github.com/dixieflatline76/Potd/util"
	"github.com/dixieflatline76/Potd/util/log"
)

// backgroundTimeout bounds changing the desktop background after a refresh.
const backgroundTimeout = 30 * time.Second

// Options holds the collaborators of an App. Prefs and Registry are required.
type Options struct {
	Prefs    *config.FilePreferences
	Registry *source.Registry
	// Client defaults to network.NewClient().
	Client *http.Client
	// Directories defaults to download.BaseDirectories().
	Directories download.Directories
	// Setter changes the desktop background. Nil leaves the background alone.
	Setter background.Setter
	// Errors defaults to logging.
	Errors       refresh.ErrorHandler
	Metrics      refresh.Metrics
	Connectivity network.ConnectivityMonitor
	// SchedulerOptions are appended to the options derived from the above.
	SchedulerOptions []refresh.SchedulerOption
}

// App is a running picture of the day refresher.
type App struct {
	config     *config.AppConfig
	registry   *source.Registry
	client     *http.Client
	dirs       download.Directories
	errors     refresh.ErrorHandler
	store      *store.ImageMetadataStore
	background *background.Service

	selector  *source.Selector
	service   *refresh.Service
	scheduler *refresh.Scheduler

	ctx       context.Context
	destroy   context.CancelFunc
	destroyed *util.SafeFlag

	mu        sync.Mutex
	started   bool
	automatic bool
	wg        sync.WaitGroup
}

type logErrors struct{}

func (logErrors) ShowError(err error) { log.Printf("Refresh failed: %v", err) }

// New creates an App for the selected source. An unknown selected source
// falls back to config.DefaultSourceKey.
func New(opts Options) (*App, error) {
	if opts.Prefs == nil || opts.Registry == nil {
		return nil, errors.New("app: preferences and source registry are required")
	}
	a := &App{
		config:   config.NewAppConfig(opts.Prefs),
		registry: opts.Registry,
		client:   opts.Client,
		dirs:     opts.Directories,
		errors:   opts.Errors,
		store:    store.NewImageMetadataStore(opts.Prefs),
	}
	if a.client == nil {
		a.client = network.NewClient()
	}
	if a.dirs == (download.Directories{}) {
		a.dirs = download.BaseDirectories()
	}
	if a.errors == nil {
		a.errors = logErrors{}
	}
	if opts.Setter != nil {
		a.background = background.NewService(opts.Setter)
	}
	a.ctx, a.destroy = context.WithCancel(context.Background())
	a.destroyed = util.NewSafeFlag(false)

	selector, err := source.NewSelector(a.registry, a.config.GetSelectedSource())
	if err != nil {
		log.Printf("Selected source unavailable, using %s: %v", config.DefaultSourceKey, err)
		selector, err = source.NewSelector(a.registry, config.DefaultSourceKey)
		if err != nil {
			return nil, err
		}
	}
	a.selector = selector

	var serviceOpts []refresh.ServiceOption
	schedulerOpts := []refresh.SchedulerOption{
		refresh.WithLastRefresh(a.config.GetLastScheduledRefresh()),
	}
	if opts.Metrics != nil {
		serviceOpts = append(serviceOpts, refresh.WithServiceMetrics(opts.Metrics))
		schedulerOpts = append(schedulerOpts, refresh.WithMetrics(opts.Metrics))
	}
	if opts.Connectivity != nil {
		schedulerOpts = append(schedulerOpts, refresh.WithConnectivity(opts.Connectivity))
	}
	schedulerOpts = append(schedulerOpts, opts.SchedulerOptions...)

	a.service = refresh.NewService(serviceOpts...)
	a.service.SetDownloader(a.downloader(selector.Selected()))
	a.service.OnRefreshCompleted(a.imageDownloaded)

	a.scheduler = refresh.NewScheduler(a.service, a.errors, schedulerOpts...)
	a.scheduler.OnRefreshCompleted(a.config.SetLastScheduledRefresh)

	a.selector.OnChanged(a.sourceChanged)
	opts.Prefs.AddChangeListener(a.preferencesChanged)

	if image, ok := a.store.Load(); ok {
		log.Printf("Current image is %q at %s", image.Metadata.Title, image.File)
	}
	return a, nil
}

func (a *App) downloader(src source.Source) refresh.DownloadFunc {
	settings := config.NewSourceSettings(a.config.Preferences(), src.Metadata.Key)
	return download.NewDownloader(a.client, a.dirs, src, settings)
}

// Start refreshes on schedule if automatic refreshes are enabled.
func (a *App) Start() {
	automatic := a.config.GetRefreshAutomatically()
	a.mu.Lock()
	a.started = true
	a.automatic = automatic
	a.mu.Unlock()
	if automatic {
		a.scheduler.Start()
	} else {
		log.Println("Automatic refreshes disabled")
	}
}

// Refresh downloads a new image right away and surfaces every failure.
func (a *App) Refresh(ctx context.Context) (refresh.Result[source.ImageFile], error) {
	result, err := a.service.ForceRefresh(ctx)
	if err != nil && a.ctx.Err() == nil {
		a.errors.ShowError(err)
	}
	return result, err
}

// RefreshAsync is like Refresh but does not wait for the result. It does
// nothing after Destroy.
func (a *App) RefreshAsync() {
	a.mu.Lock()
	if a.destroyed.Value() {
		a.mu.Unlock()
		return
	}
	a.wg.Add(1)
	a.mu.Unlock()
	go func() {
		defer a.wg.Done()
		_, _ = a.Refresh(a.ctx)
	}()
}

// Current returns the current image, if any.
func (a *App) Current() (source.ImageFile, bool) {
	return a.store.Load()
}

// Selected returns the active source.
func (a *App) Selected() source.Source {
	return a.selector.Selected()
}

// Scheduler returns the refresh scheduler.
func (a *App) Scheduler() *refresh.Scheduler {
	return a.scheduler
}

// Service returns the refresh service.
func (a *App) Service() *refresh.Service {
	return a.service
}

// Destroy stops all refreshes and waits for pending background updates.
// Calling it again is a no-op.
func (a *App) Destroy() {
	a.mu.Lock()
	raised := a.destroyed.Raise()
	a.mu.Unlock()
	if !raised {
		return
	}
	a.destroy()
	a.scheduler.Destroy()
	a.service.Destroy()
	a.wg.Wait()
}

func (a *App) imageDownloaded(image source.ImageFile) {
	a.store.Store(image)
	if a.background == nil {
		return
	}
	ctx, cancel := context.WithTimeout(a.ctx, backgroundTimeout)
	defer cancel()
	// Failures are logged by Apply.
	_ = a.background.Apply(ctx, image)
}

func (a *App) sourceChanged(src source.Source) {
	if a.ctx.Err() != nil {
		return
	}
	log.Printf("Source changed to %s", src.Metadata.Name)
	a.service.SetDownloader(a.downloader(src))
	a.RefreshAsync()
}

// preferencesChanged applies changes made by other processes, e.g. the
// command line.
func (a *App) preferencesChanged() {
	if a.ctx.Err() != nil {
		return
	}
	if key := a.config.GetSelectedSource(); key != a.selector.Selected().Metadata.Key {
		if err := a.selector.Select(key); err != nil {
			log.Printf("Ignoring selected source %q: %v", key, err)
		}
	}

	automatic := a.config.GetRefreshAutomatically()
	a.mu.Lock()
	changed := a.started && automatic != a.automatic
	if a.started {
		a.automatic = automatic
	}
	a.mu.Unlock()
	switch {
	case !changed:
	case automatic:
		log.Println("Automatic refreshes enabled")
		a.scheduler.Start()
	default:
		log.Println("Automatic refreshes disabled")
		a.scheduler.Stop()
	}
}
