package source

import (
	"errors"
	"fmt"
)

// ErrInvalidAPIKey matches configuration errors caused by a missing or
// rejected API key.
var ErrInvalidAPIKey = errors.New("invalid API key")

// ConfigurationError denotes a wrong configuration of a source.
type ConfigurationError struct {
	Source Metadata
	Msg    string
	Err    error

	invalidAPIKey bool
}

// NewConfigurationError creates a configuration error for src.
func NewConfigurationError(src Metadata, msg string, cause error) *ConfigurationError {
	return &ConfigurationError{Source: src, Msg: msg, Err: cause}
}

// NewInvalidAPIKeyError reports that no API key was configured for src or that
// the remote side rejected it.
func NewInvalidAPIKeyError(src Metadata, cause error) *ConfigurationError {
	return &ConfigurationError{
		Source:        src,
		Msg:           "API key invalid for " + src.Key,
		Err:           cause,
		invalidAPIKey: true,
	}
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Is matches ErrInvalidAPIKey for invalid key errors.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidAPIKey && e.invalidAPIKey
}

// RateLimitedError reports that the source throttled this client.
type RateLimitedError struct {
	Source Metadata
	Err    error
}

func (e *RateLimitedError) Error() string {
	msg := e.Source.Name + " rate limited this client"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RateLimitedError) Unwrap() error { return e.Err }

// NotAnImageError reports that today's picture is some other media, e.g. a video.
type NotAnImageError struct {
	Metadata  ImageMetadata
	MediaType string
	Err       error
}

func (e *NotAnImageError) Error() string {
	if e.MediaType == "" {
		return fmt.Sprintf("%q is not an image", e.Metadata.Title)
	}
	return fmt.Sprintf("media type %s of %q not supported", e.MediaType, e.Metadata.Title)
}

func (e *NotAnImageError) Unwrap() error { return e.Err }

// NoPictureTodayError reports that a source offered no image at all.
type NoPictureTodayError struct {
	Source Metadata
}

func (e *NoPictureTodayError) Error() string {
	return e.Source.Name + " does not provide a picture today"
}

// NoSuchSourceError reports a lookup of an unknown source key.
type NoSuchSourceError struct {
	Key string
}

func (e *NoSuchSourceError) Error() string {
	return fmt.Sprintf("no source with key %q exists", e.Key)
}
