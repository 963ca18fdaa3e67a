// Package eopod provides the NASA Earth Observatory image of the day.
package eopod

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dixieflatline76/Potd/pkg/network"
	"github.com/dixieflatline76/Potd/pkg/source"
	"github.com/dixieflatline76/Potd/util/log"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
)

// Metadata describes the EOPOD source.
var Metadata = source.Metadata{
	Key:     "eopod",
	Name:    "NASA Earth Observatory Image of the Day",
	Website: "https://earthobservatory.nasa.gov/topic/image-of-the-day",
}

// Source returns the EOPOD source.
func Source() source.Source {
	return newSource(FeedURL)
}

func newSource(feedURL string) source.Source {
	return source.Source{
		Metadata: Metadata,
		GetImages: source.SimpleGetImages(func(ctx context.Context, client *http.Client) ([]source.DownloadableImage, error) {
			image, err := getImage(ctx, client, feedURL)
			if err != nil {
				return nil, err
			}
			return []source.DownloadableImage{image}, nil
		}),
	}
}

func getImage(ctx context.Context, client *http.Client, feedURL string) (source.DownloadableImage, error) {
	log.Printf("Requesting EOPOD feed from %s", feedURL)
	rss, err := network.GetString(ctx, client, feedURL)
	if err != nil {
		return source.DownloadableImage{}, err
	}
	image, err := parseFeed(rss)
	if err != nil {
		return source.DownloadableImage{}, &network.RequestError{
			URL: feedURL,
			Msg: fmt.Sprintf("Failed to parse RSS from %s", feedURL),
			Err: err,
		}
	}
	return image, nil
}

func parseFeed(rss string) (source.DownloadableImage, error) {
	feed, err := gofeed.NewParser().ParseString(rss)
	if err != nil {
		return source.DownloadableImage{}, err
	}
	if len(feed.Items) == 0 {
		return source.DownloadableImage{}, errors.New("no 'item' elements found")
	}
	item := feed.Items[0]
	if item.Title == "" {
		return source.DownloadableImage{}, errors.New("item had no 'title'")
	}
	if item.Content == "" {
		return source.DownloadableImage{}, errors.New("item had no 'content'")
	}
	if item.PublishedParsed == nil {
		return source.DownloadableImage{}, errors.New("item had no 'pubDate'")
	}
	imageURL, err := firstImage(item.Content)
	if err != nil {
		return source.DownloadableImage{}, err
	}

	var creator string
	if len(item.Authors) > 0 && item.Authors[0] != nil {
		creator = strings.TrimSpace(item.Authors[0].Name)
	}
	return source.DownloadableImage{
		ImageURL: imageURL,
		Pubdate:  item.PublishedParsed.UTC().Format(time.DateOnly),
		Metadata: source.ImageMetadata{
			Title:       strings.TrimSpace(item.Title),
			Description: plainText(item.Description),
			Copyright:   creator,
			URL:         strings.TrimSpace(item.Link),
		},
	}, nil
}

func firstImage(content string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("parsing item content: %w", err)
	}
	src, ok := doc.Find("img[src]").First().Attr("src")
	if !ok || strings.TrimSpace(src) == "" {
		return "", errors.New("no 'img' found in content")
	}
	return strings.TrimSpace(src), nil
}

func plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(bluemonday.StrictPolicy().Sanitize(s)))
}
