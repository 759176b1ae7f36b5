package resolve

import (
	"context"
	"strings"
	"time"

	"github.com/IronManRust/culvers-ice-cream-ical/apperr"
	"github.com/IronManRust/culvers-ice-cream-ical/cache"
	"github.com/IronManRust/culvers-ice-cream-ical/model"
	"github.com/IronManRust/culvers-ice-cream-ical/upstream"
)

// Flavors resolves the flavor catalog.
type Flavors struct {
	base
	src upstream.Source
}

func NewFlavors(c cache.Cache, src upstream.Source, opts ...Option) *Flavors {
	return &Flavors{base: newBase(c, opts), src: src}
}

// Catalog returns the full flavor catalog.
func (f *Flavors) Catalog(ctx context.Context) (cache.CachedAsset[[]model.FlavorDetail], error) {
	return load(ctx, &f.base, "flavors", cache.FlavorsKey(), f.src.Flavors)
}

// ByKey returns the catalog entry with the given key. Keys compare
// case-insensitively.
func (f *Flavors) ByKey(ctx context.Context, key string) (cache.CachedAsset[model.FlavorDetail], error) {
	catalog, err := f.Catalog(ctx)
	if err != nil {
		return cache.CachedAsset[model.FlavorDetail]{}, err
	}
	key = model.NormalizeKey(key)
	for _, fl := range catalog.Data {
		if model.NormalizeKey(fl.Key) == key {
			return cache.CachedAsset[model.FlavorDetail]{Data: fl, Expires: catalog.Expires}, nil
		}
	}
	return cache.CachedAsset[model.FlavorDetail]{}, apperr.NotFound("flavor", key)
}

// ByName returns the catalog entry whose display name matches name,
// ignoring case and surrounding space. An unmatched name, or a catalog that
// cannot be resolved, yields model.UnknownFlavor(name); in the latter case
// the asset expires immediately.
func (f *Flavors) ByName(ctx context.Context, name string) cache.CachedAsset[model.FlavorDetail] {
	ix, err := f.Index(ctx)
	if err != nil {
		return cache.CachedAsset[model.FlavorDetail]{Data: model.UnknownFlavor(name), Expires: f.now()}
	}
	fl, ok := ix.ByName(name)
	if !ok {
		f.log.Warn("flavor %q is not in the catalog", strings.TrimSpace(name))
	}
	return cache.CachedAsset[model.FlavorDetail]{Data: fl, Expires: ix.Expires()}
}

// Index resolves the catalog once and returns a snapshot for repeated
// lookups. On failure the returned index is unavailable but usable: every
// lookup yields a placeholder.
func (f *Flavors) Index(ctx context.Context) (*FlavorIndex, error) {
	catalog, err := f.Catalog(ctx)
	if err != nil {
		return &FlavorIndex{}, err
	}
	return NewFlavorIndex(catalog), nil
}

// FlavorIndex is a catalog snapshot keyed by normalized key and by display
// name. The zero value is an unavailable catalog.
type FlavorIndex struct {
	byKey   map[string]model.FlavorDetail
	byName  map[string]model.FlavorDetail
	expires time.Time
}

// NewFlavorIndex indexes a resolved catalog.
func NewFlavorIndex(catalog cache.CachedAsset[[]model.FlavorDetail]) *FlavorIndex {
	ix := &FlavorIndex{
		byKey:   make(map[string]model.FlavorDetail, len(catalog.Data)),
		byName:  make(map[string]model.FlavorDetail, len(catalog.Data)),
		expires: catalog.Expires,
	}
	for _, fl := range catalog.Data {
		ix.byKey[model.NormalizeKey(fl.Key)] = fl
		ix.byName[model.NormalizeKey(fl.Name)] = fl
	}
	return ix
}

// Available reports whether the index was built from a resolved catalog.
func (ix *FlavorIndex) Available() bool {
	return ix != nil && ix.byKey != nil
}

// Expires returns the catalog expiration, zero when unavailable.
func (ix *FlavorIndex) Expires() time.Time {
	if ix == nil {
		return time.Time{}
	}
	return ix.expires
}

// ByKey returns the entry with the given key. Keys compare
// case-insensitively.
func (ix *FlavorIndex) ByKey(key string) (model.FlavorDetail, bool) {
	if !ix.Available() {
		return model.FlavorDetail{}, false
	}
	fl, ok := ix.byKey[model.NormalizeKey(key)]
	return fl, ok
}

// ByName returns the entry whose display name matches name. Unmatched
// names yield model.UnknownFlavor(name) and false.
func (ix *FlavorIndex) ByName(name string) (model.FlavorDetail, bool) {
	if ix.Available() {
		if fl, ok := ix.byName[model.NormalizeKey(name)]; ok {
			return fl, true
		}
	}
	return model.UnknownFlavor(name), false
}
