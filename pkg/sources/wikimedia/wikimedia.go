// Package wikimedia provides the featured picture of Wikimedia Commons.
package wikimedia

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/dixieflatline76/Potd/pkg/network"
	"github.com/dixieflatline76/Potd/pkg/source"
	"github.com/dixieflatline76/Potd/util/log"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/language"
)

// Metadata describes the Wikimedia source.
var Metadata = source.Metadata{
	Key:     "wikimedia",
	Name:    "Wikimedia Picture of the Day",
	Website: "https://commons.wikimedia.org/wiki/Main_Page",
}

// titleAffixes matches the File: prefix and the extension of a file page title.
var titleAffixes = regexp.MustCompile(`^File:|\.[^.]+$`)

type text struct {
	Text string `json:"text"`
}

type featuredImage struct {
	Title string `json:"title"`
	Image struct {
		Source string `json:"source"`
	} `json:"image"`
	FilePage string `json:"file_page"`
	Artist   text   `json:"artist"`
	Credit   text   `json:"credit"`
	License  struct {
		Type string `json:"type"`
	} `json:"license"`
	Description text `json:"description"`
}

type featuredContent struct {
	Image *featuredImage `json:"image"`
}

// Source returns the Wikimedia source for today's featured picture in the
// language of the user's locale.
func Source() source.Source {
	return newSource(FeedURL, source.Locale, time.Now)
}

func newSource(feedURL string, locale func() language.Tag, now func() time.Time) source.Source {
	return source.Source{
		Metadata: Metadata,
		GetImages: source.SimpleGetImages(func(ctx context.Context, client *http.Client) ([]source.DownloadableImage, error) {
			image, err := getLatestImage(ctx, client, feedURL, languageCode(locale()), now())
			if err != nil {
				return nil, err
			}
			if image == nil {
				return nil, nil
			}
			return []source.DownloadableImage{*image}, nil
		}),
	}
}

func languageCode(tag language.Tag) string {
	if tag == language.Und {
		return defaultLanguage
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return defaultLanguage
	}
	return base.String()
}

func getLatestImage(ctx context.Context, client *http.Client, feedURL, lang string, date time.Time) (*source.DownloadableImage, error) {
	url := fmt.Sprintf("%s/%s/featured/%s", strings.TrimSuffix(feedURL, "/"), lang, date.Format("2006/01/02"))
	log.Printf("Fetching featured content from %s", url)
	var content featuredContent
	if err := network.GetJSON(ctx, client, url, &content); err != nil {
		return nil, err
	}
	if content.Image == nil || content.Image.Image.Source == "" {
		// No featured picture for this day and language.
		return nil, nil
	}
	img := content.Image
	return &source.DownloadableImage{
		ImageURL: img.Image.Source,
		Pubdate:  date.Format(time.DateOnly),
		Metadata: source.ImageMetadata{
			Title:       titleAffixes.ReplaceAllString(img.Title, ""),
			Description: plainText(img.Description.Text),
			Copyright:   copyright(img),
			URL:         img.FilePage,
		},
	}, nil
}

func copyright(img *featuredImage) string {
	artist := plainText(img.Artist.Text)
	var details []string
	for _, s := range []string{plainText(img.Credit.Text), img.License.Type} {
		if s != "" {
			details = append(details, s)
		}
	}
	if len(details) == 0 {
		return artist
	}
	return strings.TrimSpace(fmt.Sprintf("%s (%s)", artist, strings.Join(details, ", ")))
}

// plainText strips any markup left in the text fields of the feed.
func plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(bluemonday.StrictPolicy().Sanitize(s)))
}
