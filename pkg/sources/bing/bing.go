// Package bing provides the Bing image of the day.
package bing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dixieflatline76/Potd/pkg/network"
	"github.com/dixieflatline76/Potd/pkg/source"
	"github.com/dixieflatline76/Potd/util/log"
	"golang.org/x/text/language"
)

// Metadata describes the Bing source.
var Metadata = source.Metadata{
	Key:     "bing",
	Name:    "Bing",
	Website: "https://www.bing.com",
}

type bingImage struct {
	Title         string `json:"title"`
	Copyright     string `json:"copyright"`
	CopyrightLink string `json:"copyrightlink"`
	StartDate     string `json:"startdate"`
	URLBase       string `json:"urlbase"`
}

type bingResponse struct {
	Images []bingImage `json:"images"`
}

// Source returns the Bing source. Images depend on the market derived from
// the user's locale.
func Source() source.Source {
	return newSource(BaseURL, source.Locale)
}

func newSource(baseURL string, locale func() language.Tag) source.Source {
	return source.Source{
		Metadata: Metadata,
		GetImages: source.SimpleGetImages(func(ctx context.Context, client *http.Client) ([]source.DownloadableImage, error) {
			return getImages(ctx, client, baseURL, locale())
		}),
	}
}

func getImages(ctx context.Context, client *http.Client, baseURL string, locale language.Tag) ([]source.DownloadableImage, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Bing URL %s: %w", baseURL, err)
	}
	query := url.Values{
		"format": {"js"},
		"idx":    {"0"},
		"n":      {strconv.Itoa(numberOfImages)},
	}
	// With an invalid or missing market Bing falls back to geo IP.
	if locale != language.Und {
		query.Set("mkt", locale.String())
	}
	archive := base.ResolveReference(&url.URL{Path: archivePath, RawQuery: query.Encode()})
	log.Printf("Querying latest Bing images from %s", archive)

	var resp bingResponse
	if err := network.GetJSON(ctx, client, archive.String(), &resp); err != nil {
		return nil, err
	}

	images := make([]source.DownloadableImage, 0, len(resp.Images))
	for _, img := range resp.Images {
		ref, err := url.Parse(img.URLBase + "_UHD.jpg")
		if err != nil {
			log.Printf("Skipping Bing image with invalid URL base %q: %v", img.URLBase, err)
			continue
		}
		imageURL := base.ResolveReference(ref)
		images = append(images, source.DownloadableImage{
			ImageURL:          imageURL.String(),
			Pubdate:           pubdate(img.StartDate),
			SuggestedFilename: imageURL.Query().Get("id"),
			Metadata: source.ImageMetadata{
				Title: img.Title,
				// The copyright field is rather a description.
				Description: img.Copyright,
				URL:         img.CopyrightLink,
			},
		})
	}
	return images, nil
}

// pubdate turns Bing's YYYYMMDD into YYYY-MM-DD.
func pubdate(startdate string) string {
	if len(startdate) != 8 {
		return ""
	}
	return startdate[:4] + "-" + startdate[4:6] + "-" + startdate[6:]
}
