package main

import (
	"fmt"

	"github.com/dixieflatline76/Potd/config"
)

// Run executes the sources command.
func (c *SourcesCmd) Run(deps *Dependencies) error {
	selected := deps.Config.GetSelectedSource()
	for _, src := range deps.Sources.All() {
		marker := " "
		if src.Metadata.Key == selected {
			marker = "*"
		}
		line := fmt.Sprintf("%s %-10s %s", marker, src.Metadata.Key, src.Metadata.Name)
		if src.Metadata.Website != "" {
			line += " <" + src.Metadata.Website + ">"
		}
		if src.NeedsSettings() && config.NewSourceSettings(deps.Prefs, src.Metadata.Key).String(config.APIKeySetting) == "" {
			line += " (needs API key)"
		}
		fmt.Fprintln(deps.Stdout, line)
	}
	return nil
}

// Run executes the select command.
func (c *SelectCmd) Run(deps *Dependencies) error {
	src, err := deps.Sources.Lookup(c.Key)
	if err != nil {
		return fmt.Errorf("%w. Run '%s sources' to list them", err, config.AppID)
	}
	deps.Config.SetSelectedSource(src.Metadata.Key)
	fmt.Fprintf(deps.Stdout, "Selected %s\n", src.Metadata.Name)
	return nil
}

// Run executes the set-api-key command.
func (c *SetAPIKeyCmd) Run(deps *Dependencies) error {
	src, err := deps.Sources.Lookup(c.Source)
	if err != nil {
		return err
	}
	if !src.NeedsSettings() {
		return fmt.Errorf("%s does not use an API key", src.Metadata.Name)
	}
	settings := config.NewSourceSettings(deps.Prefs, src.Metadata.Key)
	if err := settings.SetString(config.APIKeySetting, c.Key); err != nil {
		return err
	}
	if c.Key == "" {
		fmt.Fprintf(deps.Stdout, "Removed API key of %s\n", src.Metadata.Name)
	} else {
		fmt.Fprintf(deps.Stdout, "Stored API key of %s\n", src.Metadata.Name)
	}
	return nil
}
