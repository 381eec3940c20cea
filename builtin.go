package kitchenforms

import (
	"embed"
	"io/fs"
)

//go:embed forms/*.yaml forms/*.json options/*.yaml
var embedded embed.FS

// FormsFS exposes the form definitions shipped with the module (committed
// under forms/) so applications can load them without a copy on disk.
func FormsFS() fs.FS {
	return sub("forms")
}

// OptionsFS exposes the option documents the built-in forms reference
// through "fs" option sources.
func OptionsFS() fs.FS {
	return sub("options")
}

func sub(dir string) fs.FS {
	fsys, err := fs.Sub(embedded, dir)
	if err != nil {
		return embedded
	}
	return fsys
}
