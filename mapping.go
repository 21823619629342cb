package fluo

// EventRouteMapping computes the preferred target for an event from a
// state. Returning false means the mapping has no opinion.
type EventRouteMapping[S, E comparable] func(event E, from S, userInfo any) (S, bool)

// StateRouteMapping lists every legal target from a state.
// A nil or empty result means the mapping has no opinion.
type StateRouteMapping[S comparable] func(from S, userInfo any) []S

type eventMappingEntry[S, E comparable] struct {
	key     RegistrationKey
	mapping EventRouteMapping[S, E]
}

type stateMappingEntry[S comparable] struct {
	key     RegistrationKey
	mapping StateRouteMapping[S]
}

// mappingRegistry keeps mappings in registration order; the first
// mapping with a matching answer wins.
type mappingRegistry[S, E comparable] struct {
	eventMappings []eventMappingEntry[S, E]
	stateMappings []stateMappingEntry[S]
}

func newMappingRegistry[S, E comparable]() *mappingRegistry[S, E] {
	return &mappingRegistry[S, E]{}
}

func (r *mappingRegistry[S, E]) addEvent(key RegistrationKey, mapping EventRouteMapping[S, E]) {
	r.eventMappings = append(r.eventMappings, eventMappingEntry[S, E]{key: key, mapping: mapping})
}

func (r *mappingRegistry[S, E]) addState(key RegistrationKey, mapping StateRouteMapping[S]) {
	r.stateMappings = append(r.stateMappings, stateMappingEntry[S]{key: key, mapping: mapping})
}

func (r *mappingRegistry[S, E]) removeEvent(key RegistrationKey) bool {
	for i, entry := range r.eventMappings {
		if entry.key == key {
			r.eventMappings = append(r.eventMappings[:i:i], r.eventMappings[i+1:]...)
			return true
		}
	}
	return false
}

func (r *mappingRegistry[S, E]) removeState(key RegistrationKey) bool {
	for i, entry := range r.stateMappings {
		if entry.key == key {
			r.stateMappings = append(r.stateMappings[:i:i], r.stateMappings[i+1:]...)
			return true
		}
	}
	return false
}

// resolveEvent returns the answer of the first mapping with an opinion
func (r *mappingRegistry[S, E]) resolveEvent(event E, from S, userInfo any) (S, bool) {
	for _, entry := range r.snapshotEvent() {
		if to, ok := entry.mapping(event, from, userInfo); ok {
			return to, true
		}
	}
	var zero S
	return zero, false
}

// hasEventRoute reports whether some mapping sends event from -> to
func (r *mappingRegistry[S, E]) hasEventRoute(event E, from, to S, userInfo any) bool {
	for _, entry := range r.snapshotEvent() {
		if mapped, ok := entry.mapping(event, from, userInfo); ok && mapped == to {
			return true
		}
	}
	return false
}

// hasStateRoute reports whether some state mapping lists to as a target
func (r *mappingRegistry[S, E]) hasStateRoute(from, to S, userInfo any) bool {
	for _, entry := range r.snapshotState() {
		for _, candidate := range entry.mapping(from, userInfo) {
			if candidate == to {
				return true
			}
		}
	}
	return false
}

func (r *mappingRegistry[S, E]) snapshotEvent() []eventMappingEntry[S, E] {
	return append([]eventMappingEntry[S, E](nil), r.eventMappings...)
}

func (r *mappingRegistry[S, E]) snapshotState() []stateMappingEntry[S] {
	return append([]stateMappingEntry[S](nil), r.stateMappings...)
}

func (r *mappingRegistry[S, E]) len() int {
	return len(r.eventMappings) + len(r.stateMappings)
}
