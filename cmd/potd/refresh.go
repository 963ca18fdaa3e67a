package main

import (
	"errors"
	"fmt"

	"github.com/dixieflatline76/Potd/pkg/app"
	"github.com/dixieflatline76/Potd/pkg/background"
	"github.com/dixieflatline76/Potd/pkg/notify"
	"github.com/dixieflatline76/Potd/pkg/refresh"
)

// Run executes the refresh command.
func (c *RefreshCmd) Run(deps *Dependencies) error {
	var setter background.Setter
	if !c.NoBackground {
		setter = deps.Setter
	}
	a, err := app.New(app.Options{
		Prefs:       deps.Prefs,
		Registry:    deps.Sources,
		Client:      deps.Client,
		Directories: deps.Directories,
		Setter:      setter,
		Errors: refresh.ErrorHandlerFunc(func(err error) {
			msg := notify.Describe(err)
			fmt.Fprintf(deps.Stderr, "%s\n%s\n", msg.Summary, msg.Body)
		}),
	})
	if err != nil {
		return err
	}
	defer a.Destroy()

	fmt.Fprintf(deps.Stdout, "Refreshing from %s...\n", a.Selected().Metadata.Name)
	result, err := a.Refresh(deps.Ctx)
	if err != nil {
		return err
	}
	if result.Cancelled {
		return errors.New("refresh cancelled")
	}
	image := result.Value
	fmt.Fprintf(deps.Stdout, "%s\n%s\n", image.Metadata.Title, image.File.Path())
	return nil
}
