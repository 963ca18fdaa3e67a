package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tftlPage = `<html><body>
<a href="4k/tftl_01.jpg"><img src="thumbs/tftl_01.jpg"></a>
<a href="https://simonstalenhag.se/4k/tftl_02.jpg"><img src="thumbs/tftl_02.jpg"></a>
<a href="4k/tftl_01.jpg"><img src="thumbs/tftl_01_alt.jpg"></a>
<a href="index.html"><img src="logo.png"></a>
<p><img src="inline.jpg"></p>
</body></html>`

func testServer(t *testing.T) (*httptest.Server, *url.URL) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tftl.html":
			_, _ = w.Write([]byte(tftlPage))
		case "/broken.html":
			_, _ = w.Write([]byte(`<a><img src="x.jpg"></a>`))
		case "/empty.html":
			_, _ = w.Write([]byte(`<html></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	return srv, base
}

func TestScrapeCollection(t *testing.T) {
	srv, base := testServer(t)

	t.Run("collects linked jpgs once", func(t *testing.T) {
		c, err := scrapeCollection(context.Background(), srv.Client(), base, knownCollection{Tag: "tftl", Title: "TALES FROM THE LOOP (2014)"})
		require.NoError(t, err)
		assert.Equal(t, "tftl", c.Tag)
		assert.Equal(t, "TALES FROM THE LOOP (2014)", c.Title)
		assert.Equal(t, srv.URL+"/tftl.html", c.URL)
		require.Len(t, c.Images, 2)
		assert.Equal(t, srv.URL+"/4k/tftl_01.jpg", c.Images[0].Src)
		assert.Equal(t, "https://simonstalenhag.se/4k/tftl_02.jpg", c.Images[1].Src)
	})

	t.Run("empty page", func(t *testing.T) {
		c, err := scrapeCollection(context.Background(), srv.Client(), base, knownCollection{Tag: "empty"})
		require.NoError(t, err)
		assert.NotNil(t, c.Images)
		assert.Empty(t, c.Images)
	})

	t.Run("link without href", func(t *testing.T) {
		_, err := scrapeCollection(context.Background(), srv.Client(), base, knownCollection{Tag: "broken"})
		assert.ErrorContains(t, err, "link without href")
	})

	t.Run("missing page", func(t *testing.T) {
		_, err := scrapeCollection(context.Background(), srv.Client(), base, knownCollection{Tag: "gone"})
		assert.ErrorContains(t, err, "failed to scrape collection")
	})
}

func TestScrapeAll(t *testing.T) {
	srv, base := testServer(t)

	collections, err := scrapeAll(context.Background(), srv.Client(), base, []knownCollection{
		{Tag: "empty"}, {Tag: "tftl"},
	})
	require.NoError(t, err)
	require.Len(t, collections, 2)
	assert.Equal(t, "empty", collections[0].Tag)
	assert.Equal(t, "tftl", collections[1].Tag)

	_, err = scrapeAll(context.Background(), srv.Client(), base, []knownCollection{{Tag: "tftl"}, {Tag: "gone"}})
	assert.Error(t, err)
}
