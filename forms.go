package formflow

import (
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed forms/*.yaml
var embeddedForms embed.FS

// SampleForms exposes the bundled sample form documents (signup.yaml,
// order.yaml) so demos and tests can load them without touching disk.
//
//	cfg, err := formflow.LoadFS(formflow.SampleForms(), "order.yaml")
func SampleForms() fs.FS {
	sub, err := fs.Sub(embeddedForms, "forms")
	if err != nil {
		return embeddedForms
	}
	return sub
}

// SampleFormNames lists the bundled sample documents.
func SampleFormNames() []string {
	entries, err := fs.ReadDir(SampleForms(), ".")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(path.Ext(entry.Name()), ".yaml") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names
}
