package tracker

// Gate decides whether a task belongs to an allowed lineage.
type Gate struct {
	allow    map[string]bool
	resolver *Resolver
}

// NewGate creates a gate over the given allow-list and resolver.
func NewGate(allow map[string]bool, resolver *Resolver) *Gate {
	return &Gate{allow: allow, resolver: resolver}
}

// Allowed reports whether taskID or any of its ancestors is in the
// allow-list.
//
// Direct membership admits immediately with no chain walk. Otherwise the
// parent chain is walked through the resolver; an unresolvable link
// rejects the task (fail-closed: missing lineage information is never
// read as consent). A visited set guards against a malformed cyclic
// parent chain.
func (g *Gate) Allowed(taskID, parentID string) bool {
	if g.allow[taskID] {
		return true
	}

	visited := map[string]bool{taskID: true}

	current := parentID
	for current != "" {
		if visited[current] {
			return false // cyclic parent chain
		}

		visited[current] = true

		if g.allow[current] {
			return true
		}

		info, ok := g.resolver.Resolve(current)
		if !ok {
			return false
		}

		current = info.ParentID
	}

	return false
}
