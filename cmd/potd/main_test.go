package main_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/dixieflatline76/Potd/config"
	main "github.com/dixieflatline76/Potd/cmd/potd"
	"github.com/dixieflatline76/Potd/pkg/download"
	"github.com/dixieflatline76/Potd/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func testRegistry(imageURL string) *source.Registry {
	return source.MustRegistry(
		source.Source{
			Metadata: source.Metadata{Key: "apod", Name: "NASA APOD", Website: "https://apod.nasa.gov"},
			GetImages: source.GetImagesWithSettings(func(source.Settings) source.GetImages {
				return func(context.Context, *http.Client) ([]source.DownloadableImage, error) {
					return nil, nil
				}
			}),
		},
		source.Source{
			Metadata: source.Metadata{Key: "bing", Name: "Bing"},
			GetImages: source.SimpleGetImages(func(context.Context, *http.Client) ([]source.DownloadableImage, error) {
				return []source.DownloadableImage{{
					Metadata: source.ImageMetadata{Title: "Aurora", Copyright: "© Someone"},
					ImageURL: imageURL,
					Pubdate:  "2024-03-01",
				}}, nil
			}),
		},
	)
}

func newMain(t *testing.T, imageURL string) *main.Main {
	t.Helper()
	dir := t.TempDir()
	return &main.Main{
		SettingsPath: filepath.Join(dir, "settings.json"),
		Sources:      testRegistry(imageURL),
		Client:       http.DefaultClient,
		Directories: download.Directories{
			State:  filepath.Join(dir, "state"),
			Cache:  filepath.Join(dir, "cache"),
			Images: filepath.Join(dir, "images"),
		},
	}
}

func run(t *testing.T, m *main.Main, args ...string) (string, string, error) {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	err := m.Run(context.Background(), args, stdout, stderr)
	return stdout.String(), stderr.String(), err
}

func loadConfig(t *testing.T, m *main.Main) *config.AppConfig {
	t.Helper()
	prefs, err := config.NewFilePreferences(m.SettingsPath)
	require.NoError(t, err)
	return config.NewAppConfig(prefs)
}

func TestMain_Run(t *testing.T) {
	t.Run("no command prints help", func(t *testing.T) {
		stdout, _, err := run(t, newMain(t, ""))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no command specified")
		assert.Contains(t, stdout, "refresh")
	})

	t.Run("help", func(t *testing.T) {
		stdout, _, err := run(t, newMain(t, ""), "--help")
		require.NoError(t, err)
		assert.Contains(t, stdout, "set-api-key")
	})

	t.Run("unknown command", func(t *testing.T) {
		_, _, err := run(t, newMain(t, ""), "frobnicate")
		assert.Error(t, err)
	})
}

func TestSourcesCmd_Run(t *testing.T) {
	keyring.MockInit()
	stdout, _, err := run(t, newMain(t, ""), "sources")
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimSpace([]byte(stdout)), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), "apod")
	assert.Contains(t, string(lines[0]), "<https://apod.nasa.gov>")
	assert.Contains(t, string(lines[0]), "(needs API key)")
	assert.True(t, bytes.HasPrefix(lines[1], []byte("* bing")), "default source is marked: %q", lines[1])
}

func TestSelectCmd_Run(t *testing.T) {
	t.Run("stores the selected source", func(t *testing.T) {
		m := newMain(t, "")
		stdout, _, err := run(t, m, "select", "apod")
		require.NoError(t, err)
		assert.Equal(t, "Selected NASA APOD\n", stdout)
		assert.Equal(t, "apod", loadConfig(t, m).GetSelectedSource())
	})

	t.Run("rejects unknown sources", func(t *testing.T) {
		m := newMain(t, "")
		_, _, err := run(t, m, "select", "nope")
		var noSuch *source.NoSuchSourceError
		require.ErrorAs(t, err, &noSuch)
		assert.Equal(t, config.DefaultSourceKey, loadConfig(t, m).GetSelectedSource())
	})
}

func TestSetAPIKeyCmd_Run(t *testing.T) {
	keyring.MockInit()

	t.Run("stores and removes the key", func(t *testing.T) {
		m := newMain(t, "")
		stdout, _, err := run(t, m, "set-api-key", "apod", "s3cret")
		require.NoError(t, err)
		assert.Contains(t, stdout, "Stored API key of NASA APOD")

		prefs, err := config.NewFilePreferences(m.SettingsPath)
		require.NoError(t, err)
		settings := config.NewSourceSettings(prefs, "apod")
		assert.Equal(t, "s3cret", settings.String(config.APIKeySetting))

		stdout, _, err = run(t, m, "set-api-key", "apod")
		require.NoError(t, err)
		assert.Contains(t, stdout, "Removed API key of NASA APOD")
		assert.Empty(t, settings.String(config.APIKeySetting))
	})

	t.Run("rejects sources without settings", func(t *testing.T) {
		_, _, err := run(t, newMain(t, ""), "set-api-key", "bing", "s3cret")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not use an API key")
	})
}

func TestRefreshAndStatus(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	m := newMain(t, srv.URL+"/aurora.png")

	stdout, _, err := run(t, m, "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Source:     Bing (bing)")
	assert.Contains(t, stdout, "Last:       never")
	assert.Contains(t, stdout, "Image:      none")

	stdout, _, err = run(t, m, "refresh", "--no-background")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Refreshing from Bing")
	assert.Contains(t, stdout, "Aurora\n")
	assert.Contains(t, stdout, filepath.Join(m.Directories.Images, "Bing", "2024-03-01-aurora.png"))

	cfg := loadConfig(t, m)
	cfg.SetLastScheduledRefresh(time.Now().Add(-2 * time.Hour))

	stdout, _, err = run(t, m, "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Image:      Aurora")
	assert.Contains(t, stdout, "Copyright:  © Someone")
	assert.Contains(t, stdout, "Last:       2 hours ago")
	assert.Contains(t, stdout, "Next:       3 hours from now")
}

func TestRefreshCmd_Failure(t *testing.T) {
	keyring.MockInit()
	m := newMain(t, "")
	_, _, err := run(t, m, "select", "apod")
	require.NoError(t, err)

	_, stderr, err := run(t, m, "refresh", "--no-background")
	var noPicture *source.NoPictureTodayError
	require.ErrorAs(t, err, &noPicture)
	assert.NotEmpty(t, stderr)
}
