package formwizard

import (
	"embed"
	"io/fs"
)

//go:embed assets/*.css
var embeddedAssets embed.FS

// AssetsFS exposes the stylesheet used by the embedded templates.
//
// Typical mount:
//
//	router.PathPrefix("/assets/").Handler(
//	  http.StripPrefix("/assets/", http.FileServerFS(formwizard.AssetsFS())),
//	)
func AssetsFS() fs.FS {
	sub, err := fs.Sub(embeddedAssets, "assets")
	if err != nil {
		return embeddedAssets
	}
	return sub
}
