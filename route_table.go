package fluo

type routeEntry[S, E comparable] struct {
	key        RegistrationKey
	seq        uint64
	transition Transition[S]
	condition  Condition[S, E]
}

// routeTable maps transition -> registrations sharing that transition.
// Several registrations may share a transition, each removable on its own.
// entries holds the same registrations ordered by seq.
type routeTable[S, E comparable] struct {
	buckets map[Transition[S]][]*routeEntry[S, E]
	entries []*routeEntry[S, E]
}

func newRouteTable[S, E comparable]() *routeTable[S, E] {
	return &routeTable[S, E]{buckets: make(map[Transition[S]][]*routeEntry[S, E])}
}

func (t *routeTable[S, E]) add(entry *routeEntry[S, E]) {
	t.buckets[entry.transition] = append(t.buckets[entry.transition], entry)

	index := len(t.entries)
	for index > 0 && t.entries[index-1].seq > entry.seq {
		index--
	}
	t.entries = append(t.entries, nil)
	copy(t.entries[index+1:], t.entries[index:])
	t.entries[index] = entry
}

func (t *routeTable[S, E]) remove(transition Transition[S], key RegistrationKey) bool {
	bucket := t.buckets[transition]
	for i, entry := range bucket {
		if entry.key == key {
			bucket = append(bucket[:i:i], bucket[i+1:]...)
			if len(bucket) == 0 {
				delete(t.buckets, transition)
			} else {
				t.buckets[transition] = bucket
			}
			t.removeOrdered(key)
			return true
		}
	}
	return false
}

func (t *routeTable[S, E]) removeOrdered(key RegistrationKey) {
	for i, entry := range t.entries {
		if entry.key == key {
			t.entries = append(t.entries[:i:i], t.entries[i+1:]...)
			return
		}
	}
}

func (t *routeTable[S, E]) len() int {
	return len(t.entries)
}

// match reports whether any route registered under one of the valid
// transitions for (from, to) passes its condition.
func (t *routeTable[S, E]) match(from, to S, ctx *Context[S, E]) bool {
	for _, transition := range validTransitions(from, to) {
		for _, entry := range t.buckets[transition] {
			if passes(entry.condition, ctx) {
				return true
			}
		}
	}
	return false
}

// ordered returns a snapshot of every entry in registration order
func (t *routeTable[S, E]) ordered() []*routeEntry[S, E] {
	return append([]*routeEntry[S, E](nil), t.entries...)
}

// resolve finds the target of the first registered route leaving from
// whose condition passes. A route to Any resolves to from itself.
func (t *routeTable[S, E]) resolve(from S, ctx *Context[S, E]) (S, bool) {
	for _, entry := range t.ordered() {
		if !entry.transition.From.Matches(from) {
			continue
		}
		to, ok := entry.transition.To.Value()
		if !ok {
			to = from
		}
		ctx.ToState = to
		if passes(entry.condition, ctx) {
			return to, true
		}
	}
	var zero S
	return zero, false
}

// routeIndex holds state-triggered routes and per-event route tables
type routeIndex[S, E comparable] struct {
	stateRoutes *routeTable[S, E]
	eventRoutes map[Wildcard[E]]*routeTable[S, E]
}

func newRouteIndex[S, E comparable]() *routeIndex[S, E] {
	return &routeIndex[S, E]{
		stateRoutes: newRouteTable[S, E](),
		eventRoutes: make(map[Wildcard[E]]*routeTable[S, E]),
	}
}

func (ri *routeIndex[S, E]) addStateRoute(entry *routeEntry[S, E]) {
	ri.stateRoutes.add(entry)
}

func (ri *routeIndex[S, E]) addEventRoute(event Wildcard[E], entry *routeEntry[S, E]) {
	table, ok := ri.eventRoutes[event]
	if !ok {
		table = newRouteTable[S, E]()
		ri.eventRoutes[event] = table
	}
	table.add(entry)
}

func (ri *routeIndex[S, E]) removeStateRoute(transition Transition[S], key RegistrationKey) bool {
	return ri.stateRoutes.remove(transition, key)
}

func (ri *routeIndex[S, E]) removeEventRoute(event Wildcard[E], transition Transition[S], key RegistrationKey) bool {
	table, ok := ri.eventRoutes[event]
	if !ok {
		return false
	}
	removed := table.remove(transition, key)
	if table.len() == 0 {
		delete(ri.eventRoutes, event)
	}
	return removed
}

// hasStateRoute checks state routes and every event bucket, since both
// kinds are eligible for a state-triggered attempt.
func (ri *routeIndex[S, E]) hasStateRoute(from, to S, ctx *Context[S, E]) bool {
	if ri.stateRoutes.match(from, to, ctx) {
		return true
	}
	for _, table := range ri.eventRoutes {
		if table.match(from, to, ctx) {
			return true
		}
	}
	return false
}

// hasEventRoute checks only the concrete event bucket and the Any bucket
func (ri *routeIndex[S, E]) hasEventRoute(event E, from, to S, ctx *Context[S, E]) bool {
	for _, key := range [2]Wildcard[E]{Concrete(event), Any[E]()} {
		if table, ok := ri.eventRoutes[key]; ok && table.match(from, to, ctx) {
			return true
		}
	}
	return false
}

// resolveEvent scans the concrete event bucket before the Any bucket,
// each in registration order.
func (ri *routeIndex[S, E]) resolveEvent(event E, from S, ctx *Context[S, E]) (S, bool) {
	for _, key := range [2]Wildcard[E]{Concrete(event), Any[E]()} {
		table, ok := ri.eventRoutes[key]
		if !ok {
			continue
		}
		if to, ok := table.resolve(from, ctx); ok {
			return to, true
		}
	}
	var zero S
	return zero, false
}
