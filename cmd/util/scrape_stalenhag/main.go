// Command scrape_stalenhag regenerates the embedded index of Simon Stålenhag's
// artwork from the collection pages of his website.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dixieflatline76/Potd/pkg/network"
	"github.com/dixieflatline76/Potd/pkg/sources/stalenhag"
	"golang.org/x/sync/errgroup"
)

const defaultBaseURL = "https://simonstalenhag.se/"

type knownCollection struct {
	Tag   string
	Title string
}

var knownCollections = []knownCollection{
	{Title: "SWEDISH MACHINES (2024)", Tag: "svema"},
	{Title: "THE LABYRINTH (2020)", Tag: "labyrinth"},
	{Title: "THE ELECTRIC STATE (2017)", Tag: "es"},
	{Title: "THINGS FROM THE FLOOD (2016)", Tag: "tftf"},
	{Title: "TALES FROM THE LOOP (2014)", Tag: "tftl"},
	{Title: "PALEOART", Tag: "paleo"},
	{Title: "COMMISSIONS, UNPUBLISHED WORK AND SOLO PIECES", Tag: "other"},
}

func main() {
	output := flag.String("o", filepath.Join("asset", "data", "stalenhag.json"), "output file, - for stdout")
	base := flag.String("base", defaultBaseURL, "website to scrape")
	flag.Parse()

	baseURL, err := url.Parse(*base)
	if err != nil {
		log.Fatalf("Invalid base URL: %v", err)
	}

	collections, err := scrapeAll(context.Background(), network.NewClient(), baseURL, knownCollections)
	if err != nil {
		log.Fatal(err)
	}

	data, err := json.MarshalIndent(collections, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	data = append(data, '\n')

	if *output == "-" {
		os.Stdout.Write(data)
		return
	}
	if err := os.WriteFile(*output, data, 0644); err != nil {
		log.Fatalf("Failed to write %s: %v", *output, err)
	}
	total := 0
	for _, c := range collections {
		total += len(c.Images)
	}
	log.Printf("Wrote %d collections with %d images to %s", len(collections), total, *output)
}

// scrapeAll scrapes all collections concurrently, keeping their order.
func scrapeAll(ctx context.Context, client *http.Client, base *url.URL, known []knownCollection) ([]stalenhag.Collection, error) {
	collections := make([]stalenhag.Collection, len(known))
	g, ctx := errgroup.WithContext(ctx)
	for i, k := range known {
		g.Go(func() error {
			c, err := scrapeCollection(ctx, client, base, k)
			if err != nil {
				return err
			}
			collections[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return collections, nil
}

// scrapeCollection lists the full size images linked from thumbnails on the
// collection page, without duplicates.
func scrapeCollection(ctx context.Context, client *http.Client, base *url.URL, known knownCollection) (stalenhag.Collection, error) {
	page := base.ResolveReference(&url.URL{Path: known.Tag + ".html"})
	body, err := network.GetString(ctx, client, page.String())
	if err != nil {
		return stalenhag.Collection{}, fmt.Errorf("failed to scrape collection from %s: %w", page, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return stalenhag.Collection{}, fmt.Errorf("failed to parse %s: %w", page, err)
	}

	seen := make(map[string]bool)
	images := []stalenhag.Image{}
	var linkErr error
	doc.Find("a > img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		href, ok := img.Parent().Attr("href")
		if !ok || href == "" {
			linkErr = fmt.Errorf("link without href on %s", page)
			return false
		}
		if !strings.HasSuffix(href, ".jpg") {
			return true
		}
		ref, err := url.Parse(href)
		if err != nil {
			linkErr = fmt.Errorf("invalid image link %q on %s: %w", href, page, err)
			return false
		}
		src := base.ResolveReference(ref).String()
		if !seen[src] {
			seen[src] = true
			images = append(images, stalenhag.Image{Src: src})
		}
		return true
	})
	if linkErr != nil {
		return stalenhag.Collection{}, linkErr
	}
	return stalenhag.Collection{
		Tag:    known.Tag,
		Title:  known.Title,
		URL:    page.String(),
		Images: images,
	}, nil
}
