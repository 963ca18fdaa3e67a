package refresh

import (
	"errors"

	"github.com/dixieflatline76/Potd/pkg/network"
	"github.com/dixieflatline76/Potd/pkg/source"
	"github.com/dixieflatline76/Potd/util"
)

// ErrorKind is the category of a refresh failure.
type ErrorKind int

// Error kinds, see Classify.
const (
	KindUnknown ErrorKind = iota
	KindConfiguration
	KindRateLimited
	KindHTTPRequest
	KindIO
	KindNotAnImage
	KindNoPictureToday
	KindNoSuchSource
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindRateLimited:
		return "rate_limited"
	case KindHTTPRequest:
		return "http_request"
	case KindIO:
		return "io"
	case KindNotAnImage:
		return "not_an_image"
	case KindNoPictureToday:
		return "no_picture_today"
	case KindNoSuchSource:
		return "no_such_source"
	default:
		return "unknown"
	}
}

// Transient reports whether failures of this kind are likely to go away on
// their own, so that retrying soon makes sense.
func (k ErrorKind) Transient() bool {
	switch k {
	case KindRateLimited, KindHTTPRequest, KindIO:
		return true
	default:
		return false
	}
}

// ErrNoDownloader is returned by Service.Refresh before SetDownloader was called.
var ErrNoDownloader = errors.New("no downloader configured")

// Classify returns the kind of err. It walks the cause chain from the
// outermost error and stops at the first error of a known kind, so a
// configuration error caused by an HTTP failure is a configuration error.
func Classify(err error) ErrorKind {
	for _, cause := range util.Causes(err) {
		switch cause.(type) {
		case *source.ConfigurationError:
			return KindConfiguration
		case *source.RateLimitedError:
			return KindRateLimited
		case *network.RequestError:
			return KindHTTPRequest
		case *network.IOError:
			return KindIO
		case *source.NotAnImageError:
			return KindNotAnImage
		case *source.NoPictureTodayError:
			return KindNoPictureToday
		case *source.NoSuchSourceError:
			return KindNoSuchSource
		}
		if cause == ErrNoDownloader {
			return KindConfiguration
		}
	}
	return KindUnknown
}
