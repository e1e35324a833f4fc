package imagery

import (
	"log/slog"
	"strings"
)

// DefaultPlaceholder is returned when no local image is available.
const DefaultPlaceholder = "https://via.placeholder.com/600x400?text=No+Local+Image"

// DefaultFallbacks are tried in order when no keyword matches.
var DefaultFallbacks = []string{"forest.jpg", "default.jpg"}

// Mapping associates a canonical keyword with an image asset.
// Several keywords may point at the same asset.
type Mapping struct {
	Keyword string
	Asset   string
}

// DefaultMappings returns the built-in keyword table in match order.
func DefaultMappings() []Mapping {
	return []Mapping{
		{Keyword: "forest", Asset: "forest.jpg"},
		{Keyword: "woods", Asset: "forest.jpg"},
		{Keyword: "trees", Asset: "forest.jpg"},
		{Keyword: "castle", Asset: "castle.jpg"},
		{Keyword: "city", Asset: "city.jpg"},
		{Keyword: "town", Asset: "city.jpg"},
		{Keyword: "village", Asset: "city.jpg"},
		{Keyword: "mountain", Asset: "mountain.jpg"},
		{Keyword: "cave", Asset: "cave.jpg"},
		{Keyword: "river", Asset: "river.jpg"},
		{Keyword: "hero", Asset: "hero.jpg"},
		{Keyword: "celebration", Asset: "celebration.jpg"},
		{Keyword: "dark", Asset: "dark.jpg"},
		{Keyword: "mystery", Asset: "mystery.jpg"},
		{Keyword: "adventure", Asset: "adventure.jpg"},
	}
}

//go:generate mockgen -source=resolver.go -destination=../mocks/imagery/mock_asset_store.go -package=mock_imagery

// AssetStore reports whether an image asset is available locally.
type AssetStore interface {
	Exists(ref string) bool
}

type Resolver struct {
	store       AssetStore
	mappings    []Mapping
	fallbacks   []string
	placeholder string
}

type Option func(*Resolver)

func WithMappings(mappings []Mapping) Option {
	return func(r *Resolver) {
		r.mappings = make([]Mapping, len(mappings))
		for i, m := range mappings {
			r.mappings[i] = Mapping{Keyword: strings.ToLower(m.Keyword), Asset: m.Asset}
		}
	}
}

func WithFallbacks(fallbacks ...string) Option {
	return func(r *Resolver) {
		r.fallbacks = append([]string(nil), fallbacks...)
	}
}

func WithPlaceholder(placeholder string) Option {
	return func(r *Resolver) {
		r.placeholder = placeholder
	}
}

func NewResolver(store AssetStore, opts ...Option) *Resolver {
	r := &Resolver{
		store:       store,
		mappings:    DefaultMappings(),
		fallbacks:   append([]string(nil), DefaultFallbacks...),
		placeholder: DefaultPlaceholder,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve picks an image reference for the given keyword candidates.
// The first candidate that contains a table keyword with an existing asset wins;
// otherwise the fallbacks are tried in order, then the placeholder is returned.
func (r *Resolver) Resolve(candidates []string) string {
	for _, candidate := range candidates {
		candidate = strings.ToLower(strings.TrimSpace(candidate))
		if candidate == "" {
			continue
		}
		for _, m := range r.mappings {
			if m.Keyword == "" || !strings.Contains(candidate, m.Keyword) {
				continue
			}
			if r.store.Exists(m.Asset) {
				return m.Asset
			}
		}
	}

	for _, fallback := range r.fallbacks {
		if r.store.Exists(fallback) {
			return fallback
		}
	}

	slog.Default().Debug("no local image available",
		"candidates", candidates)
	return r.placeholder
}
