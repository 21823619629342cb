package fluo

import "sort"

// Handler runs after a transition commits, or after an attempt fails
// when registered as an error handler.
type Handler[S, E comparable] func(ctx *Context[S, E])

// Priority orders handlers of one transition; lower runs first
type Priority = uint8

const (
	// DefaultPriority is used when no priority option is given
	DefaultPriority Priority = 100

	chainAllRoutesPriority Priority = 150
	chainLastRoutePriority Priority = 200
)

type handlerEntry[S, E comparable] struct {
	key        RegistrationKey
	priority   Priority
	transition Transition[S]
	handler    Handler[S, E]
	removed    bool
}

type handlerTable[S, E comparable] struct {
	buckets       map[Transition[S]][]*handlerEntry[S, E]
	errorHandlers []*handlerEntry[S, E]
}

func newHandlerTable[S, E comparable]() *handlerTable[S, E] {
	return &handlerTable[S, E]{buckets: make(map[Transition[S]][]*handlerEntry[S, E])}
}

// insertSorted places entry just before the first strictly greater
// priority, scanning from the end, so ties keep registration order.
func insertSorted[S, E comparable](list []*handlerEntry[S, E], entry *handlerEntry[S, E]) []*handlerEntry[S, E] {
	index := len(list)
	for index > 0 && list[index-1].priority > entry.priority {
		index--
	}
	list = append(list, nil)
	copy(list[index+1:], list[index:])
	list[index] = entry
	return list
}

func removeEntry[S, E comparable](list []*handlerEntry[S, E], key RegistrationKey) ([]*handlerEntry[S, E], bool) {
	for i, entry := range list {
		if entry.key == key {
			entry.removed = true
			return append(list[:i:i], list[i+1:]...), true
		}
	}
	return list, false
}

func (t *handlerTable[S, E]) add(entry *handlerEntry[S, E]) {
	t.buckets[entry.transition] = insertSorted(t.buckets[entry.transition], entry)
}

func (t *handlerTable[S, E]) addError(entry *handlerEntry[S, E]) {
	t.errorHandlers = insertSorted(t.errorHandlers, entry)
}

func (t *handlerTable[S, E]) remove(transition Transition[S], key RegistrationKey) bool {
	bucket, removed := removeEntry(t.buckets[transition], key)
	if !removed {
		return false
	}
	if len(bucket) == 0 {
		delete(t.buckets, transition)
	} else {
		t.buckets[transition] = bucket
	}
	return true
}

func (t *handlerTable[S, E]) removeError(key RegistrationKey) bool {
	var removed bool
	t.errorHandlers, removed = removeEntry(t.errorHandlers, key)
	return removed
}

// collect gathers the handlers of every valid transition for (from, to)
// and orders them by priority. The returned slice is a snapshot.
func (t *handlerTable[S, E]) collect(from, to S) []*handlerEntry[S, E] {
	var collected []*handlerEntry[S, E]
	for _, transition := range validTransitions(from, to) {
		collected = append(collected, t.buckets[transition]...)
	}
	sort.SliceStable(collected, func(i, j int) bool {
		return collected[i].priority < collected[j].priority
	})
	return collected
}

func (t *handlerTable[S, E]) errors() []*handlerEntry[S, E] {
	return append([]*handlerEntry[S, E](nil), t.errorHandlers...)
}

func (t *handlerTable[S, E]) len() int {
	n := len(t.errorHandlers)
	for _, bucket := range t.buckets {
		n += len(bucket)
	}
	return n
}
