package services

import (
	"ride-relay/internal/relay-service/core/domain/model"
	"ride-relay/internal/relay-service/core/ports"
)

// Registry maps live connections to participant identities in both
// directions. It is not safe for concurrent use; the Dispatcher serializes
// access.
type Registry struct {
	byConn     map[ports.Conn]model.Identity
	byIdentity map[model.Identity]ports.Conn
}

func NewRegistry() *Registry {
	return &Registry{
		byConn:     make(map[ports.Conn]model.Identity),
		byIdentity: make(map[model.Identity]ports.Conn),
	}
}

// Register binds conn to id. A different connection already holding id is
// removed and closed, and returned as evicted. If conn was bound to another
// identity, that binding is replaced.
func (r *Registry) Register(conn ports.Conn, id model.Identity) (evicted ports.Conn) {
	if prev, ok := r.byIdentity[id]; ok && prev != conn {
		delete(r.byConn, prev)
		delete(r.byIdentity, id)
		_ = prev.Close()
		evicted = prev
	}

	if old, ok := r.byConn[conn]; ok && old != id {
		delete(r.byIdentity, old)
	}

	r.byConn[conn] = id
	r.byIdentity[id] = conn
	return evicted
}

func (r *Registry) Lookup(role model.Role, id string) (ports.Conn, bool) {
	conn, ok := r.byIdentity[model.Identity{Role: role, ID: id}]
	return conn, ok
}

func (r *Registry) LookupByConn(conn ports.Conn) (model.Identity, bool) {
	id, ok := r.byConn[conn]
	return id, ok
}

// Remove drops conn from both indexes. Removing an unknown conn is a no-op.
func (r *Registry) Remove(conn ports.Conn) (model.Identity, bool) {
	id, ok := r.byConn[conn]
	if !ok {
		return model.Identity{}, false
	}
	delete(r.byConn, conn)
	if r.byIdentity[id] == conn {
		delete(r.byIdentity, id)
	}
	return id, true
}

// ForEachOfRole calls fn for every connection registered under role. It
// iterates over a snapshot, so fn may mutate the registry.
func (r *Registry) ForEachOfRole(role model.Role, fn func(conn ports.Conn, id model.Identity)) {
	type entry struct {
		conn ports.Conn
		id   model.Identity
	}
	snapshot := make([]entry, 0, len(r.byConn))
	for conn, id := range r.byConn {
		if id.Role == role {
			snapshot = append(snapshot, entry{conn, id})
		}
	}
	for _, e := range snapshot {
		fn(e.conn, e.id)
	}
}

func (r *Registry) Len() int {
	return len(r.byConn)
}

func (r *Registry) Count(role model.Role) int {
	n := 0
	for id := range r.byIdentity {
		if id.Role == role {
			n++
		}
	}
	return n
}
