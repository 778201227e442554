package fractal

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/san-kum/fractalzoo/internal/catalog"
	"github.com/san-kum/fractalzoo/internal/logging"
	"github.com/san-kum/fractalzoo/internal/palette"
)

// RootLabel is the label of the catalog tree root.
const RootLabel = "All fractals"

// DefaultName is the fractal selected when nothing else is configured.
const DefaultName = "Mandelbrot"

const (
	shaderDir           = "shaders"
	defaultVertexShader = "shaders/default_vertex.glsl"
	thumbDir            = "thumbs"
)

// Registry owns every loaded descriptor, the catalog tree and the current
// selection. It is loaded once by Init.
type Registry struct {
	mu          sync.RWMutex
	initialized bool
	byName      map[string]*Descriptor
	order       []*Descriptor
	tree        *catalog.Tree[string]
	defaultName string

	current atomic.Pointer[Descriptor]
}

// NewRegistry creates an empty registry. defaultName names the trusted
// fallback fractal; empty means DefaultName.
func NewRegistry(defaultName string) *Registry {
	if defaultName == "" {
		defaultName = DefaultName
	}
	return &Registry{
		byName:      make(map[string]*Descriptor),
		tree:        catalog.New(RootLabel),
		defaultName: defaultName,
	}
}

// Init loads the catalog. Only the first call has any effect. Entries that
// cannot be resolved are logged and dropped; their errors are joined into
// the result, which never means the batch was aborted.
func (r *Registry) Init(raws []RawDescriptor, shaders fs.FS) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.initialized {
		return nil
	}
	r.initialized = true

	log := logging.Logger()
	var errs []error
	for i, raw := range raws {
		d, err := r.build(raw, shaders)
		if err != nil {
			e := &EntryError{Name: raw.Name, Index: i, Wrapped: err}
			log.Warn("dropping fractal", "err", e)
			errs = append(errs, e)
			continue
		}
		r.byName[d.Name] = d
		r.order = append(r.order, d)
		r.tree.InsertPath(d.Path, d.Name)
	}
	log.Info("fractal catalog loaded", "fractals", len(r.order), "dropped", len(errs))
	return errors.Join(errs...)
}

func (r *Registry) build(raw RawDescriptor, shaders fs.FS) (*Descriptor, error) {
	if raw.Name == "" {
		return nil, ErrNoName
	}
	if _, dup := r.byName[raw.Name]; dup {
		return nil, ErrDuplicateName
	}
	v, ok := LookupVariant(raw.Class)
	if !ok {
		return nil, fmt.Errorf("%w: %q, known: %s", ErrUnknownVariant, raw.Class, strings.Join(VariantIDs(), ", "))
	}

	d := &Descriptor{
		Name:    raw.Name,
		Kind:    v.Kind,
		Variant: v,
		Params:  NewParams(),
		Path:    SplitPath(raw.Path),
	}
	if raw.Thumbnail != "" {
		d.ThumbnailRef = path.Join(thumbDir, raw.Thumbnail)
	}
	if v.Kind == ShaderBased {
		pair, err := loadShaders(shaders, raw.Shaders)
		if err != nil {
			return nil, err
		}
		d.Shaders = pair
	}
	for _, p := range raw.Parameters {
		d.Params.put(p.Name, p.Value)
	}
	if raw.Palette != "" {
		pal, ok := palette.Lookup(raw.Palette)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPalette, raw.Palette)
		}
		d.Palette = pal
	}
	return d, nil
}

// loadShaders reads <name>_fragment.glsl and <name>_vertex.glsl. Bare names
// are looked up in the shaders directory. A missing vertex shader falls back
// to the default one.
func loadShaders(fsys fs.FS, name string) (*ShaderPair, error) {
	if fsys == nil || name == "" {
		return nil, ErrMissingShaders
	}
	base := name
	if !strings.Contains(base, "/") {
		base = path.Join(shaderDir, base)
	}

	frag, err := fs.ReadFile(fsys, base+"_fragment.glsl")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMissingShaders, err)
	}
	vert, err := fs.ReadFile(fsys, base+"_vertex.glsl")
	if err != nil {
		logging.Logger().Debug("using default vertex shader", "shaders", base)
		vert, err = fs.ReadFile(fsys, defaultVertexShader)
		if err != nil {
			return nil, fmt.Errorf("%w: no default vertex shader: %w", ErrMissingShaders, err)
		}
	}
	return &ShaderPair{Vertex: string(vert), Fragment: string(frag)}, nil
}

// Get looks a descriptor up by name.
func (r *Registry) Get(name string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byName[name]
	return d, ok
}

// Names lists descriptor names in load order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	for i, d := range r.order {
		out[i] = d.Name
	}
	return out
}

// All returns the descriptors in load order.
func (r *Registry) All() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Descriptor, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Children lists the catalog entries under path. The boolean is false when
// some segment does not exist.
func (r *Registry) Children(path []string) ([]string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tree.Children(path)
}

// Walk visits the catalog tree depth first.
func (r *Registry) Walk(fn func(level int, label string, leaf bool)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	r.tree.Walk(fn)
}

// Current returns the selected descriptor, or nil before any selection.
func (r *Registry) Current() *Descriptor {
	return r.current.Load()
}

// SetCurrent changes the selection. It does not render anything.
func (r *Registry) SetCurrent(d *Descriptor) {
	r.current.Store(d)
}

// MustDefault returns the configured default fractal, or the first loaded
// one when the default is missing. It is nil only for an empty registry.
func (r *Registry) MustDefault() *Descriptor {
	if d, ok := r.Get(r.defaultName); ok {
		return d
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.order) == 0 {
		return nil
	}
	return r.order[0]
}

// FallbackFrom picks the fractal to show after failed could not be set up.
// The default is trusted unless it is the one that failed, in which case the
// first fractal not needing a shader program is used, so the fallback never
// lands on another program link.
func (r *Registry) FallbackFrom(failed string) *Descriptor {
	log := logging.Logger()
	if d, ok := r.Get(r.defaultName); ok && d.Name != failed {
		log.Error("falling back to default fractal", "failed", failed, "fallback", d.Name)
		return d
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.order {
		if d.Name != failed && d.Kind != ShaderBased {
			log.Error("default fractal unusable, falling back", "failed", failed, "fallback", d.Name)
			return d
		}
	}
	log.Error("no fallback fractal available", "failed", failed)
	return nil
}
