// Package message defines the uniform record exchanged on every edge of the
// routing engine: from an input transport into the engine, from the engine
// into a service, and from a service out to the output transport.
package message

import "unicode"

// Message is a plain value. Handlers must not share mutable state through
// it; a response built from a request should copy only User and
// ServiceName, independent of the request's Args/Body/Attachments.
type Message struct {
	// User is the originator on the input side, the intended recipient on
	// the output side. Never empty for a dispatchable message; empty is
	// permitted only for transport-internal intermediates.
	User string

	// ServiceName is the routing key, matched verbatim (after any
	// configured mapping) against the engine's service registry.
	ServiceName string

	// Args is service-defined. The engine neither inspects nor mutates it.
	Args []string

	// Body is service-defined.
	Body string

	// Attachments maps filename to opaque content. Key insertion order is
	// not preserved nor required.
	Attachments map[string][]byte
}

// Response builds a reply to req, carrying over User and ServiceName and
// leaving Args, Body, and Attachments at their zero values for the caller
// to fill in.
func Response(req Message) Message {
	return Message{
		User:        req.User,
		ServiceName: req.ServiceName,
	}
}

// Clone returns a deep copy so a service can hand the message to a spawned
// goroutine without sharing the caller's backing arrays/maps.
func (m Message) Clone() Message {
	clone := m
	if m.Args != nil {
		clone.Args = append([]string(nil), m.Args...)
	}
	if m.Attachments != nil {
		clone.Attachments = make(map[string][]byte, len(m.Attachments))
		for name, content := range m.Attachments {
			data := make([]byte, len(content))
			copy(data, content)
			clone.Attachments[name] = data
		}
	}

	return clone
}

// FirstCharLowercase lowercases the first Unicode scalar of ServiceName and
// leaves the rest unchanged. Empty-safe: an empty ServiceName stays empty.
// This is the canonical input-mapping preset for sources (e.g. email
// clients) that auto-capitalize the subject line.
func FirstCharLowercase(m Message) Message {
	if m.ServiceName == "" {
		return m
	}

	r := []rune(m.ServiceName)
	r[0] = unicode.ToLower(r[0])
	m.ServiceName = string(r)

	return m
}
