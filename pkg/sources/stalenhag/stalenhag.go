// Package stalenhag cycles through the artwork of Simon Stålenhag.
package stalenhag

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/dixieflatline76/Potd/asset"
	"github.com/dixieflatline76/Potd/pkg/source"
)

// Metadata describes the Stålenhag source.
var Metadata = source.Metadata{
	Key:     "stalenhag",
	Name:    "Simon Stålenhag",
	Website: "https://simonstalenhag.se",
}

// DisabledCollectionsSetting lists the tags of collections to skip.
const DisabledCollectionsSetting = "disabled-collections"

// Image is a single artwork.
type Image struct {
	Src string `json:"src"`
}

// Collection is a named series of artworks on the website.
type Collection struct {
	Tag    string  `json:"tag"`
	Title  string  `json:"title"`
	URL    string  `json:"url"`
	Images []Image `json:"images"`
}

// baseDate anchors the daily rotation: the 84th anniversary of Georg Elser's
// attempt on Hitler's life.
func baseDate() time.Time {
	return time.Date(2023, time.November, 8, 21, 20, 0, 0, time.Local)
}

// LoadCollections returns the embedded collection index.
func LoadCollections() ([]Collection, error) {
	var collections []Collection
	if err := asset.NewManager().GetJSON(asset.StalenhagData, &collections); err != nil {
		return nil, err
	}
	return collections, nil
}

// Source returns the Stålenhag source. It shows one image per day, cycling
// through all images of the enabled collections.
func Source() source.Source {
	return newSource(LoadCollections, time.Now)
}

func newSource(load func() ([]Collection, error), now func() time.Time) source.Source {
	return source.Source{
		Metadata: Metadata,
		GetImages: source.GetImagesWithSettings(func(settings source.Settings) source.GetImages {
			return func(ctx context.Context, _ *http.Client) ([]source.DownloadableImage, error) {
				collections, err := load()
				if err != nil {
					return nil, err
				}
				disabled := settings.StringList(DisabledCollectionsSetting)
				image, ok := pickTodaysImage(enabledImages(collections, disabled), now())
				if !ok {
					return nil, nil
				}
				return []source.DownloadableImage{image}, nil
			}
		}),
	}
}

type imageInCollection struct {
	Image
	collection *Collection
}

func enabledImages(collections []Collection, disabled []string) []imageInCollection {
	var images []imageInCollection
	for i := range collections {
		c := &collections[i]
		if slices.Contains(disabled, c.Tag) {
			continue
		}
		for _, img := range c.Images {
			images = append(images, imageInCollection{Image: img, collection: c})
		}
	}
	return images
}

// dayOffset returns the number of days from baseDate to now, rounded.
func dayOffset(now time.Time) int {
	return int(math.Round(now.Sub(baseDate()).Hours() / 24))
}

func pickTodaysImage(images []imageInCollection, now time.Time) (source.DownloadableImage, bool) {
	if len(images) == 0 {
		return source.DownloadableImage{}, false
	}
	n := len(images)
	image := images[((dayOffset(now)%n)+n)%n]
	baseName := basename(image.Src)
	return source.DownloadableImage{
		ImageURL:          image.Src,
		SuggestedFilename: image.collection.Tag + "-" + baseName,
		// No publication date, the rotation shows every image again eventually.
		Metadata: source.ImageMetadata{
			Title:     strings.TrimSuffix(baseName, path.Ext(baseName)),
			Copyright: "All rights reserved.",
			URL:       image.collection.URL,
		},
	}, true
}

func basename(src string) string {
	if u, err := url.Parse(src); err == nil {
		return path.Base(u.Path)
	}
	return path.Base(src)
}
