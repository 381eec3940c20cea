package kitchenforms

import (
	"io/fs"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/definition"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/optionsource"
)

// LoadDefinitions parses every definition document in fsys.
func LoadDefinitions(fsys fs.FS, options ...definition.Option) (*definition.Store, error) {
	return definition.LoadFS(fsys, options...)
}

// NewSourceLoader constructs an option source loader while keeping the
// concrete type hidden from consumers.
func NewSourceLoader(options ...optionsource.LoaderOption) optionsource.Loader {
	return optionsource.New(options...)
}
