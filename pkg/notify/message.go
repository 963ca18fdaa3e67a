// Package notify shows refresh errors to the user.
package notify

import (
	"errors"
	"fmt"

	"github.com/dixieflatline76/Potd/pkg/refresh"
	"github.com/dixieflatline76/Potd/pkg/source"
)

// Action is something the user can do about an error.
type Action string

// Actions offered with error notifications.
const (
	ActionConfigure       Action = "configure"
	ActionRetry           Action = "retry"
	ActionNetworkSettings Action = "network-settings"
)

// Label returns the button label of a.
func (a Action) Label() string {
	switch a {
	case ActionConfigure:
		return "Configure"
	case ActionRetry:
		return "Retry"
	case ActionNetworkSettings:
		return "Network settings"
	default:
		return string(a)
	}
}

// Message is a user facing description of an error.
type Message struct {
	Summary string
	Body    string
	Actions []Action
}

// Describe explains err to the user and suggests what to do about it.
func Describe(err error) Message {
	kind := refresh.Classify(err)
	switch kind {
	case refresh.KindConfiguration:
		var cfgErr *source.ConfigurationError
		if errors.Is(err, source.ErrInvalidAPIKey) && errors.As(err, &cfgErr) {
			return Message{
				Summary: "API key invalid",
				Body:    fmt.Sprintf("Please configure a valid API key for %s.", cfgErr.Source.Name),
				Actions: []Action{ActionConfigure},
			}
		}
		return Message{
			Summary: "Picture of the Day needs configuration",
			Body:    err.Error(),
			Actions: []Action{ActionConfigure},
		}
	case refresh.KindRateLimited:
		var rateErr *source.RateLimitedError
		name := "The source"
		if errors.As(err, &rateErr) && rateErr.Source.Name != "" {
			name = rateErr.Source.Name
		}
		return Message{
			Summary: "Too many requests",
			Body:    name + " rejected the request due to rate limiting. Please try again later.",
			Actions: []Action{ActionRetry},
		}
	case refresh.KindHTTPRequest:
		return Message{
			Summary: "Picture of the Day download failed",
			Body:    "The picture could not be downloaded. Please check your network connection.",
			Actions: []Action{ActionRetry, ActionNetworkSettings},
		}
	case refresh.KindIO:
		return Message{
			Summary: "Failed to save picture",
			Body:    err.Error(),
			Actions: []Action{ActionRetry},
		}
	case refresh.KindNotAnImage:
		var notImage *source.NotAnImageError
		if errors.As(err, &notImage) && notImage.MediaType != "" {
			return Message{
				Summary: "No picture today",
				Body:    fmt.Sprintf("Today's %q is a %s, not an image.", notImage.Metadata.Title, notImage.MediaType),
			}
		}
		return Message{Summary: "No picture today", Body: err.Error()}
	case refresh.KindNoPictureToday:
		return Message{Summary: "No picture today", Body: err.Error()}
	case refresh.KindNoSuchSource:
		return Message{
			Summary: "Unknown picture source",
			Body:    err.Error(),
			Actions: []Action{ActionConfigure},
		}
	default:
		return Message{
			Summary: "Picture of the Day failed",
			Body:    "We are sorry but there seems to be an error: " + err.Error(),
			Actions: []Action{ActionRetry},
		}
	}
}
