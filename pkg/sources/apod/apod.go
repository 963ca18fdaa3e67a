// Package apod provides the NASA Astronomy Picture of the Day.
package apod

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dixieflatline76/Potd/config"
	"github.com/dixieflatline76/Potd/pkg/network"
	"github.com/dixieflatline76/Potd/pkg/source"
	"github.com/dixieflatline76/Potd/util/log"
)

// Metadata describes the APOD source.
var Metadata = source.Metadata{
	Key:     "apod",
	Name:    "NASA Astronomy Picture of the Day",
	Website: "https://apod.nasa.gov/apod/astropix.html",
}

// Error is a detailed error response of the APOD API.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("APOD error %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

type apodImage struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	URL         string `json:"url"`
	HDURL       string `json:"hdurl"`
	MediaType   string `json:"media_type"`
	Explanation string `json:"explanation"`
	Copyright   string `json:"copyright"`
}

type apodErrorBody struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Source returns the APOD source. It reads the API key from its settings.
func Source() source.Source {
	return newSource(APIURL)
}

func newSource(apiURL string) source.Source {
	return source.Source{
		Metadata: Metadata,
		GetImages: source.GetImagesWithSettings(func(settings source.Settings) source.GetImages {
			return func(ctx context.Context, client *http.Client) ([]source.DownloadableImage, error) {
				image, err := getImage(ctx, client, apiURL, settings.String(config.APIKeySetting))
				if err != nil {
					return nil, err
				}
				return []source.DownloadableImage{image}, nil
			}
		}),
	}
}

func getImage(ctx context.Context, client *http.Client, apiURL, apiKey string) (source.DownloadableImage, error) {
	if apiKey == "" {
		return source.DownloadableImage{}, source.NewInvalidAPIKeyError(Metadata, nil)
	}
	meta, err := queryMetadata(ctx, client, apiURL, apiKey)
	if err != nil {
		return source.DownloadableImage{}, err
	}

	imageURL := meta.HDURL
	if imageURL == "" {
		imageURL = meta.URL
	}
	image := source.DownloadableImage{
		ImageURL: imageURL,
		Pubdate:  meta.Date,
		Metadata: source.ImageMetadata{
			Title:       meta.Title,
			Description: meta.Explanation,
			Copyright:   strings.TrimSpace(meta.Copyright),
			URL:         pageURL(meta.Date),
		},
	}
	if meta.MediaType != "image" {
		return source.DownloadableImage{}, &source.NotAnImageError{Metadata: image.Metadata, MediaType: meta.MediaType}
	}
	return image, nil
}

// pageURL returns the web page of the APOD published at date (YYYY-MM-DD).
func pageURL(date string) string {
	compact := strings.ReplaceAll(date, "-", "")
	if len(compact) != 8 {
		return PageURL
	}
	return PageURL + "ap" + compact[2:] + ".html"
}

func queryMetadata(ctx context.Context, client *http.Client, apiURL, apiKey string) (apodImage, error) {
	u := apiURL + "?" + url.Values{"api_key": {apiKey}}.Encode()
	log.Printf("Querying APOD image metadata from %s", apiURL)
	var meta apodImage
	err := network.GetJSON(ctx, client, u, &meta)
	if err == nil {
		return meta, nil
	}

	// Check if the API gave us a more specific response
	status, ok := network.Status(err)
	if !ok || len(status.Body) == 0 {
		return meta, err
	}
	var body apodErrorBody
	if json.Unmarshal(status.Body, &body) != nil || body.Error == nil || body.Error.Code == "" {
		return meta, err
	}
	apodErr := &Error{Code: body.Error.Code, Message: body.Error.Message, Err: err}
	switch apodErr.Code {
	case codeInvalidAPIKey:
		return meta, source.NewInvalidAPIKeyError(Metadata, apodErr)
	case codeRateLimit:
		return meta, &source.RateLimitedError{Source: Metadata, Err: apodErr}
	default:
		return meta, apodErr
	}
}
