// Package sources lists all built-in image sources.
package sources

import (
	"github.com/dixieflatline76/Potd/pkg/source"
	"github.com/dixieflatline76/Potd/pkg/sources/apod"
	"github.com/dixieflatline76/Potd/pkg/sources/bing"
	"github.com/dixieflatline76/Potd/pkg/sources/eopod"
	"github.com/dixieflatline76/Potd/pkg/sources/stalenhag"
	"github.com/dixieflatline76/Potd/pkg/sources/wikimedia"
)

// Registry returns all built-in sources, ordered by key.
func Registry() *source.Registry {
	return source.MustRegistry(
		apod.Source(),
		bing.Source(),
		eopod.Source(),
		stalenhag.Source(),
		wikimedia.Source(),
	)
}
