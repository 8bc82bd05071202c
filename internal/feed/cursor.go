package feed

import (
	"encoding/base64"
	"encoding/json"
)

// EncodeCursors serializes a cursor map into a single opaque token the
// caller can persist and replay. An empty map encodes to "" meaning no
// source has further pages.
func EncodeCursors(m CursorMap) string {
	if len(m) == 0 {
		return ""
	}
	raw, err := json.Marshal(m)
	if err != nil {
		// A map[string]string cannot fail to marshal; treat it as
		// end of feed rather than propagating an impossible error.
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursors parses an outer cursor token back into a cursor map.
// It never fails: an empty, corrupted, or foreign token decodes to an
// empty map, which the engine treats as the start of every source.
func DecodeCursors(token string) CursorMap {
	if token == "" {
		return CursorMap{}
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return CursorMap{}
	}
	var m CursorMap
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		return CursorMap{}
	}
	return m
}
