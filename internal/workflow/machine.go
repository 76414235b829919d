// Package workflow holds the recruitment state machines and the outcome
// taxonomy shared by every lifecycle manager.
package workflow

import (
	"fmt"
	"sort"
)

// Rule declares that event moves any of From to To.
type Rule[S ~string, E ~string] struct {
	From  []S
	Event E
	To    S
}

// Machine is a transition table {from, event} -> to for one entity.
//
// Every event has exactly one target state. Free events are allowed from any
// state and carry their target with the request.
type Machine[S ~string, E ~string] struct {
	name    string
	next    map[transitionKey[S, E]]S
	sources map[E][]S
	targets map[E]S
	free    map[E]bool
}

type transitionKey[S ~string, E ~string] struct {
	from  S
	event E
}

// NewMachine builds a machine from rules. It panics on a malformed table.
func NewMachine[S ~string, E ~string](name string, rules ...Rule[S, E]) *Machine[S, E] {
	m := &Machine[S, E]{
		name:    name,
		next:    make(map[transitionKey[S, E]]S),
		sources: make(map[E][]S),
		targets: make(map[E]S),
		free:    make(map[E]bool),
	}
	for _, r := range rules {
		if prev, ok := m.targets[r.Event]; ok && prev != r.To {
			panic(fmt.Sprintf("workflow: %s event %q has two targets (%q, %q)", name, r.Event, prev, r.To))
		}
		m.targets[r.Event] = r.To
		for _, from := range r.From {
			k := transitionKey[S, E]{from: from, event: r.Event}
			if _, dup := m.next[k]; dup {
				panic(fmt.Sprintf("workflow: %s duplicate rule %q on %q", name, r.Event, from))
			}
			m.next[k] = r.To
			m.sources[r.Event] = append(m.sources[r.Event], from)
		}
	}
	for ev := range m.sources {
		src := m.sources[ev]
		sort.Slice(src, func(i, j int) bool { return src[i] < src[j] })
	}
	return m
}

// WithFree marks events that are permitted from every state.
func (m *Machine[S, E]) WithFree(events ...E) *Machine[S, E] {
	for _, ev := range events {
		m.free[ev] = true
	}
	return m
}

// Name returns the entity the machine governs.
func (m *Machine[S, E]) Name() string { return m.name }

// Can reports whether event is legal from state from.
func (m *Machine[S, E]) Can(from S, event E) bool {
	if m.free[event] {
		return true
	}
	_, ok := m.next[transitionKey[S, E]{from: from, event: event}]
	return ok
}

// Next returns the state reached by applying event to from.
func (m *Machine[S, E]) Next(from S, event E) (S, error) {
	to, ok := m.next[transitionKey[S, E]{from: from, event: event}]
	if !ok {
		var zero S
		return zero, &IllegalTransitionError{Entity: m.name, From: string(from), Event: string(event)}
	}
	return to, nil
}

// Transition returns every source state of event and its single target.
// The returned slice is a copy in stable order.
func (m *Machine[S, E]) Transition(event E) ([]S, S, error) {
	to, ok := m.targets[event]
	if !ok {
		var zero S
		return nil, zero, fmt.Errorf("workflow: %s has no event %q", m.name, event)
	}
	return append([]S(nil), m.sources[event]...), to, nil
}

// Sources returns the states from which event is legal.
func (m *Machine[S, E]) Sources(event E) []S {
	return append([]S(nil), m.sources[event]...)
}

// Strings converts typed states to raw literals for query arguments.
func Strings[S ~string](states []S) []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = string(s)
	}
	return out
}

// Contains reports whether s is one of states.
func Contains[S ~string](states []S, s S) bool {
	for _, candidate := range states {
		if candidate == s {
			return true
		}
	}
	return false
}
