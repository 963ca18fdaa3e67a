// Package source defines the contract between the refresh machinery and the
// remote services that publish a picture of the day.
package source

import (
	"context"
	"net/http"

	"fyne.io/fyne/v2"
)

// Metadata describes an image source.
type Metadata struct {
	// Key identifies the source in settings. Unique within a Registry.
	Key string `json:"key"`
	// Name is the human readable name.
	Name string `json:"name"`
	// Website is the home page of the source.
	Website string `json:"website"`
}

// ImageMetadata describes a single image. Empty strings denote absent values.
type ImageMetadata struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Copyright   string `json:"copyright,omitempty"`
	// URL is the page of the image on the source's website.
	URL string `json:"url,omitempty"`
}

// DownloadableImage is a candidate image announced by a source.
type DownloadableImage struct {
	Metadata ImageMetadata
	// ImageURL is the direct URL of the image data.
	ImageURL string
	// Pubdate is the publication date as YYYY-MM-DD, or empty for sources
	// without a notion of publication date.
	Pubdate string
	// SuggestedFilename overrides the file name derived from ImageURL.
	SuggestedFilename string
}

// ImageFile is a downloaded image.
type ImageFile struct {
	Metadata ImageMetadata
	File     fyne.URI
}

// GetImages lists the images a source offers right now. Implementations must
// pass ctx to every request and must not write files.
type GetImages func(ctx context.Context, client *http.Client) ([]DownloadableImage, error)

// Settings is the read-only configuration view of a single source.
type Settings interface {
	String(name string) string
	StringList(name string) []string
}

// GetImagesFactory produces the GetImages function of a source. It is either
// SimpleGetImages or GetImagesWithSettings.
type GetImagesFactory interface {
	resolve(settings Settings) GetImages
}

// SimpleGetImages is a GetImages function that needs no configuration.
type SimpleGetImages GetImages

func (f SimpleGetImages) resolve(Settings) GetImages {
	return GetImages(f)
}

// GetImagesWithSettings creates a GetImages function from source settings.
type GetImagesWithSettings func(settings Settings) GetImages

func (f GetImagesWithSettings) resolve(settings Settings) GetImages {
	return f(settings)
}

// Source is a pluggable provider of pictures of the day.
type Source struct {
	Metadata  Metadata
	GetImages GetImagesFactory
}

// NeedsSettings reports whether the source reads its own settings.
func (s Source) NeedsSettings() bool {
	_, ok := s.GetImages.(GetImagesWithSettings)
	return ok
}

// Images resolves the GetImages function of s. settings is ignored for
// sources that need none.
func (s Source) Images(settings Settings) GetImages {
	return s.GetImages.resolve(settings)
}
