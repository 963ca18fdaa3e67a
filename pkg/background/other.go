//go:build !linux

package background

import (
	"context"
	"fmt"
	"runtime"

	"fyne.io/fyne/v2"
)

type unsupportedSetter struct{}

// NewSetter returns the setter for the current desktop environment.
func NewSetter() Setter {
	return unsupportedSetter{}
}

func (unsupportedSetter) SetBackground(context.Context, fyne.URI) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedDesktop, runtime.GOOS)
}
