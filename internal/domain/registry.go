package domain

import "fmt"

// ReactorDebugInfo describes where a reactor instance sits in the
// program hierarchy. It exists purely for diagnostics: error messages,
// log fields, and graph dumps.
type ReactorDebugInfo struct {
	// TypeName is the Go type of the reactor implementation.
	TypeName string
	// InstName is the last segment of the instantiation path.
	InstName string
	// InstPath is the full instantiation path, e.g. "/parent/child/".
	InstPath string
}

// RootDebugInfo returns the debug info of the top-level reactor.
func RootDebugInfo(typeName string) ReactorDebugInfo {
	return ReactorDebugInfo{TypeName: typeName, InstName: "/", InstPath: "/"}
}

// Derive returns the debug info of a child instantiated under this
// reactor with the given name.
func (d ReactorDebugInfo) Derive(typeName, instName string) ReactorDebugInfo {
	return ReactorDebugInfo{
		TypeName: typeName,
		InstName: instName,
		InstPath: d.InstPath + instName + "/",
	}
}

func (d ReactorDebugInfo) String() string { return d.InstPath }

// IDRegistry maps global identifiers to the labels they were declared
// under, and reactor IDs to their instantiation paths. It is populated
// during assembly and read-only afterwards, so concurrent reads from
// observers and links are safe.
// Reactions and components draw their local indices from separate
// counters, so their packed identifiers may coincide; the registry
// keeps the two label spaces apart.
type IDRegistry struct {
	labels         map[GlobalID]string
	reactionLabels map[GlobalReactionID]string
	reactorInfos   []ReactorDebugInfo
}

// NewIDRegistry returns an empty registry.
func NewIDRegistry() *IDRegistry {
	return &IDRegistry{
		labels:         make(map[GlobalID]string),
		reactionLabels: make(map[GlobalReactionID]string),
	}
}

// Record stores the declared label for a component. Recording the same
// identifier twice indicates an assembler bug and panics.
func (r *IDRegistry) Record(id GlobalID, label string) {
	if _, dup := r.labels[id]; dup {
		panic(fmt.Sprintf("label already recorded for %s", id))
	}
	r.labels[id] = label
}

// RecordReaction stores the declared label for a reaction. Recording
// the same identifier twice indicates an assembler bug and panics.
func (r *IDRegistry) RecordReaction(id GlobalReactionID, label string) {
	if _, dup := r.reactionLabels[id]; dup {
		panic(fmt.Sprintf("label already recorded for reaction %s", id))
	}
	r.reactionLabels[id] = label
}

// RecordReactor stores the debug info for the next reactor. Reactor
// IDs are sequential, so infos are appended in registration order.
func (r *IDRegistry) RecordReactor(id ReactorID, info ReactorDebugInfo) {
	if int(id) != len(r.reactorInfos) {
		panic(fmt.Sprintf("reactor %d registered out of order", id))
	}
	r.reactorInfos = append(r.reactorInfos, info)
}

// Label returns the declared label of a component, or the empty string
// when none was recorded.
func (r *IDRegistry) Label(id GlobalID) string { return r.labels[id] }

// ReactorInfo returns the debug info of a reactor. Unknown IDs yield a
// placeholder rather than panicking, since diagnostics must never make
// things worse.
func (r *IDRegistry) ReactorInfo(id ReactorID) ReactorDebugInfo {
	if int(id) >= len(r.reactorInfos) {
		return ReactorDebugInfo{TypeName: "?", InstName: "?", InstPath: fmt.Sprintf("/?%d/", id)}
	}
	return r.reactorInfos[int(id)]
}

// ComponentPath renders a component as its hierarchical path, using
// the declared label when one exists and the numeric local index
// otherwise, e.g. "/parent/child/out".
func (r *IDRegistry) ComponentPath(id GlobalID) string {
	info := r.ReactorInfo(id.Container())
	if label := r.Label(id); label != "" {
		return info.InstPath + label
	}
	return fmt.Sprintf("%s%d", info.InstPath, id.Local())
}

// ReactionPath renders a reaction as its hierarchical path followed by
// its label when one was declared, e.g. "/parent/child/1@emit".
func (r *IDRegistry) ReactionPath(id GlobalReactionID) string {
	info := r.ReactorInfo(id.Container())
	path := fmt.Sprintf("%s%d", info.InstPath, id.Local())
	if label := r.reactionLabels[id]; label != "" {
		path += "@" + label
	}
	return path
}
