package transport

import "strings"

type headerField struct {
	key   string
	value string
}

// Header is an ordered HTTP header mapping. Lookup is case-insensitive
// but the casing given to Set is what goes on the wire, and response
// headers keep whatever casing the daemon sent.
type Header struct {
	fields []headerField
}

// Set replaces any existing values for key with value.
func (h *Header) Set(key, value string) {
	h.Del(key)
	h.fields = append(h.fields, headerField{key: key, value: value})
}

// Add appends a value without removing existing ones.
func (h *Header) Add(key, value string) {
	h.fields = append(h.fields, headerField{key: key, value: value})
}

// Get returns the first value for key, or "" if absent.
func (h *Header) Get(key string) string {
	for _, f := range h.fields {
		if strings.EqualFold(f.key, key) {
			return f.value
		}
	}
	return ""
}

// Values returns all values for key in insertion order.
func (h *Header) Values(key string) []string {
	var out []string
	for _, f := range h.fields {
		if strings.EqualFold(f.key, key) {
			out = append(out, f.value)
		}
	}
	return out
}

// Del removes all values for key.
func (h *Header) Del(key string) {
	kept := h.fields[:0]
	for _, f := range h.fields {
		if !strings.EqualFold(f.key, key) {
			kept = append(kept, f)
		}
	}
	h.fields = kept
}

// Has reports whether key is present.
func (h *Header) Has(key string) bool {
	for _, f := range h.fields {
		if strings.EqualFold(f.key, key) {
			return true
		}
	}
	return false
}

// Len returns the number of header fields.
func (h *Header) Len() int { return len(h.fields) }

func (h *Header) writeTo(b *strings.Builder) {
	for _, f := range h.fields {
		b.WriteString(f.key)
		b.WriteString(": ")
		b.WriteString(f.value)
		b.WriteString("\r\n")
	}
}
