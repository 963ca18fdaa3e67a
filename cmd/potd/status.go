package main

import (
	"fmt"

	"github.com/dixieflatline76/Potd/pkg/refresh"
	"github.com/dustin/go-humanize"
)

// Run executes the status command.
func (c *StatusCmd) Run(deps *Dependencies) error {
	w := deps.Stdout
	key := deps.Config.GetSelectedSource()
	if src, err := deps.Sources.Lookup(key); err == nil {
		fmt.Fprintf(w, "Source:     %s (%s)\n", src.Metadata.Name, key)
	} else {
		fmt.Fprintf(w, "Source:     %s (unknown)\n", key)
	}

	if deps.Config.GetRefreshAutomatically() {
		fmt.Fprintln(w, "Automatic:  on")
	} else {
		fmt.Fprintln(w, "Automatic:  off")
	}

	last := deps.Config.GetLastScheduledRefresh()
	if last.IsZero() {
		fmt.Fprintln(w, "Last:       never")
	} else {
		fmt.Fprintf(w, "Last:       %s (%s)\n", humanize.Time(last), last.Local().Format("2006-01-02 15:04"))
		if deps.Config.GetRefreshAutomatically() {
			fmt.Fprintf(w, "Next:       %s\n", humanize.Time(last.Add(refresh.DefaultPolicy().Interval)))
		}
	}

	image, ok := deps.Store.Load()
	if !ok {
		fmt.Fprintln(w, "Image:      none")
		return nil
	}
	fmt.Fprintf(w, "Image:      %s\n", image.Metadata.Title)
	fmt.Fprintf(w, "File:       %s\n", image.File.Path())
	if image.Metadata.Copyright != "" {
		fmt.Fprintf(w, "Copyright:  %s\n", image.Metadata.Copyright)
	}
	if image.Metadata.URL != "" {
		fmt.Fprintf(w, "URL:        %s\n", image.Metadata.URL)
	}
	return nil
}
