// Package download turns the images announced by a source into files.
package download

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2/storage"
	"github.com/disintegration/imaging"
	"github.com/dixieflatline76/Potd/pkg/network"
	"github.com/dixieflatline76/Potd/pkg/refresh"
	"github.com/dixieflatline76/Potd/pkg/source"
	"github.com/dixieflatline76/Potd/util/log"

	_ "golang.org/x/image/webp" // Register WebP decoder for validation
)

var filenameReplacer = strings.NewReplacer("/", "_", "\\", "_", "\n", "_", "\r", "")

// sanitize returns name usable as a single path element, or "" if there
// is none.
func sanitize(name string) string {
	name = filenameReplacer.Replace(strings.TrimSpace(name))
	if name == "." || name == ".." {
		return ""
	}
	return name
}

// Filename returns the file name for image: its publication date followed by
// the suggested file name, the base name of the image URL or the title, in
// this order of preference.
func Filename(image source.DownloadableImage) string {
	name := sanitize(image.SuggestedFilename)
	if name == "" {
		name = sanitize(urlBasename(image.ImageURL))
	}
	if name == "" {
		name = sanitize(image.Metadata.Title)
	}
	if image.Pubdate == "" {
		return name
	}
	return image.Pubdate + "-" + name
}

func urlBasename(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	base := path.Base(u.Path)
	if base == "." || base == ".." || base == "/" {
		return ""
	}
	return base
}

// Image downloads image into dirs.Images and checks that the result decodes
// as an image. Files that do not decode are deleted again.
func Image(ctx context.Context, client *http.Client, dirs Directories, image source.DownloadableImage) (source.ImageFile, error) {
	name := Filename(image)
	if name == "" {
		return source.ImageFile{}, fmt.Errorf("no file name for image at %s", image.ImageURL)
	}
	target := filepath.Join(dirs.Images, name)
	log.Printf("Downloading image from %s to %s", image.ImageURL, target)
	if err := network.DownloadToFile(ctx, client, image.ImageURL, target); err != nil {
		return source.ImageFile{}, err
	}
	if err := validate(target); err != nil {
		if rmErr := os.Remove(target); rmErr != nil {
			log.Printf("Failed to delete invalid image at %s: %v", target, rmErr)
		}
		return source.ImageFile{}, &source.NotAnImageError{Metadata: image.Metadata, Err: err}
	}
	return source.ImageFile{Metadata: image.Metadata, File: storage.NewFileURI(target)}, nil
}

func validate(file string) error {
	if _, err := imaging.Open(file); err != nil {
		return fmt.Errorf("decoding %s: %w", file, err)
	}
	return nil
}

// NewDownloader returns the download function for src. It lists the images
// of src, picks one and downloads it into the source's directories below
// base. settings is only consulted by sources that need them.
func NewDownloader(client *http.Client, base Directories, src source.Source, settings source.Settings) refresh.DownloadFunc {
	getImages := src.Images(settings)
	dirs := base.ForSource(src.Metadata)
	return func(ctx context.Context) (source.ImageFile, error) {
		images, err := getImages(ctx, client)
		if err != nil {
			return source.ImageFile{}, err
		}
		image, err := source.Pick(src.Metadata, images)
		if err != nil {
			return source.ImageFile{}, err
		}
		return Image(ctx, client, dirs, image)
	}
}
