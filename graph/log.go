package graph

import (
	"log/slog"
)

// nodeRef logs a compiled node by its ID, with the label and shape it has in its store
type nodeRef struct {
	store *Store
	id    NodeID
}

func (s *Store) ref(id NodeID) nodeRef { return nodeRef{store: s, id: id} }

func (r nodeRef) LogValue() slog.Value {
	if r.id < 0 || int(r.id) >= len(r.store.nodes) {
		return slog.GroupValue(slog.Int("id", int(r.id)))
	}
	n := &r.store.nodes[r.id]
	return slog.GroupValue(
		slog.Int("id", int(r.id)),
		slog.String("kind", n.kind.String()),
		slog.Int("depth", n.depth),
		slog.Int("children", len(n.children)),
		slog.String("label", n.label),
	)
}
