package download

import (
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/dixieflatline76/Potd/config"
	"github.com/dixieflatline76/Potd/pkg/source"
)

// Directories are the places a source may write to.
type Directories struct {
	// State holds persistent download state.
	State string
	// Cache holds data that can be fetched again.
	Cache string
	// Images holds the downloaded images. It is meant to be browsed by the user.
	Images string
}

// BaseDirectories returns the per-user directories of the application.
func BaseDirectories() Directories {
	state := filepath.Join(xdg.StateHome, config.AppID)
	return Directories{
		State:  filepath.Join(state, "sources"),
		Cache:  filepath.Join(xdg.CacheHome, config.AppID),
		Images: filepath.Join(state, "images"),
	}
}

// ForSource returns the directories of a single source below d. The image
// directory uses the human readable source name.
func (d Directories) ForSource(meta source.Metadata) Directories {
	return Directories{
		State:  filepath.Join(d.State, meta.Key),
		Cache:  filepath.Join(d.Cache, meta.Key),
		Images: filepath.Join(d.Images, sanitize(meta.Name)),
	}
}
