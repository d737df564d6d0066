// Package index keeps the external search index synchronized with the entity
// store. Writes to related entities are announced to a Notifier, which
// resolves the affected documents through a registered dependency graph,
// re-projects them, and pushes the flat records out. The index is a derived,
// best-effort view: propagation failures are logged, never returned to the
// write path.
package index

import "context"

// EntityKind is the closed set of entity kinds the dependency graph can
// dispatch on.
type EntityKind string

const (
	KindDocument     EntityKind = "document"
	KindCitation     EntityKind = "citation"
	KindPlacement    EntityKind = "placement"
	KindFragment     EntityKind = "fragment"
	KindTag          EntityKind = "tag"
	KindDocumentType EntityKind = "document_type"
	KindLogEntry     EntityKind = "log_entry"
	KindSource       EntityKind = "source"
)

// ParseEntityKind maps a wire string onto the closed kind set.
func ParseEntityKind(s string) (EntityKind, bool) {
	switch kind := EntityKind(s); kind {
	case KindDocument, KindCitation, KindPlacement, KindFragment,
		KindTag, KindDocumentType, KindLogEntry, KindSource:
		return kind, true
	}
	return "", false
}

// Change describes one write to an entity.
type Change struct {
	Kind  EntityKind
	Event string
	// EntityID identifies the written entity within its kind.
	EntityID int64
	// DocumentIDs pre-resolves the affected documents when the caller already
	// knows them (e.g. a citation write knows its document). When empty the
	// dependency's resolver runs.
	DocumentIDs []int64
	// Raw marks bulk-load or replayed writes that must not trigger
	// re-derivation.
	Raw bool
	// Unchanged marks writes where no indexed-relevant field changed.
	Unchanged bool
}

// Resolver locates the documents affected by a change.
type Resolver func(ctx context.Context, change Change) ([]int64, error)

// Dependency declares how one entity kind reaches affected documents and
// which events trigger re-derivation.
type Dependency struct {
	Events  []string
	Resolve Resolver
}

// Triggers reports whether the event is one this dependency reacts to.
func (d Dependency) Triggers(event string) bool {
	for _, e := range d.Events {
		if e == event {
			return true
		}
	}
	return false
}

// Graph is the registration table mapping entity kinds to dependencies. It is
// populated explicitly at wiring time; there is no global registry.
type Graph struct {
	deps map[EntityKind]Dependency
}

func NewGraph() *Graph {
	return &Graph{deps: make(map[EntityKind]Dependency)}
}

func (g *Graph) Register(kind EntityKind, dep Dependency) {
	g.deps[kind] = dep
}

func (g *Graph) Lookup(kind EntityKind) (Dependency, bool) {
	dep, ok := g.deps[kind]
	return dep, ok
}
