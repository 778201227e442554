// Package assets embeds the built-in fractal catalog and shader sources.
package assets

import (
	"embed"
	"fmt"
	"io/fs"
	"os"

	"github.com/san-kum/fractalzoo/internal/fractal"
)

// CatalogFile is the path of the built-in catalog inside FS.
const CatalogFile = "catalog/fractals.json"

//go:embed catalog/fractals.json shaders/*.glsl
var files embed.FS

// FS returns the embedded files. Shader sources live under shaders/.
func FS() fs.FS { return files }

// Catalog decodes the built-in catalog.
func Catalog() ([]fractal.RawDescriptor, error) {
	f, err := files.Open(CatalogFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return fractal.DecodeCatalog(f)
}

// LoadCatalog decodes a catalog from disk, or the built-in one when path is
// empty. JSON and YAML files are both accepted.
func LoadCatalog(path string) ([]fractal.RawDescriptor, error) {
	if path == "" {
		return Catalog()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	raws, err := fractal.DecodeCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return raws, nil
}

// Shaders returns the shader source tree: dir on disk when set, otherwise
// the embedded sources.
func Shaders(dir string) fs.FS {
	if dir == "" {
		return files
	}
	return os.DirFS(dir)
}

// Load builds a registry from the given catalog and shader locations.
// Dropped entries are logged by the registry and do not fail the load.
func Load(catalogPath, shaderDir, defaultName string) (*fractal.Registry, error) {
	raws, err := LoadCatalog(catalogPath)
	if err != nil {
		return nil, err
	}
	reg := fractal.NewRegistry(defaultName)
	_ = reg.Init(raws, Shaders(shaderDir))
	if reg.Len() == 0 {
		return nil, fmt.Errorf("catalog %q: no usable fractals", catalogPath)
	}
	return reg, nil
}
