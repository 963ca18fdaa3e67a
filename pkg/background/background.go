// Package background changes the desktop background.
package background

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"fyne.io/fyne/v2"
	"github.com/dixieflatline76/Potd/pkg/source"
	"github.com/dixieflatline76/Potd/util/log"
)

// ErrUnsupportedDesktop is returned when the desktop environment is unknown.
var ErrUnsupportedDesktop = errors.New("unsupported desktop environment")

// Setter changes the desktop background.
type Setter interface {
	SetBackground(ctx context.Context, image fyne.URI) error
}

// commandRunner runs an external command.
type commandRunner func(ctx context.Context, name string, args ...string) error

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %w: %s", name, err, out)
	}
	return nil
}

// Service updates the background whenever a new image was downloaded.
type Service struct {
	setter Setter
}

// NewService creates a service using setter.
func NewService(setter Setter) *Service {
	return &Service{setter: setter}
}

// Apply sets image as desktop background. Failures are logged.
func (s *Service) Apply(ctx context.Context, image source.ImageFile) error {
	if image.File == nil {
		return errors.New("image has no file")
	}
	log.Printf("Changing desktop background to %s", image.File)
	if err := s.setter.SetBackground(ctx, image.File); err != nil {
		log.Printf("Failed to change desktop background: %v", err)
		return err
	}
	return nil
}
