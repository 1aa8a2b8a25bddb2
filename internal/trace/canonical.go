package trace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/emonkak/barebind-sub006/internal/engine"
)

// MarshalCanonical produces the canonical JSON form of one event. This is
// the only serialization used for persisted traces and golden files.
//
// Properties:
//  1. Object keys in fixed sorted order
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings are NFC normalized
//  4. Zero-valued optional fields are omitted
func MarshalCanonical(ev engine.Event) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	wrote := false
	field := func(name, value string) error {
		if value == "" {
			return nil
		}
		if wrote {
			buf.WriteByte(',')
		}
		wrote = true
		buf.WriteByte('"')
		buf.WriteString(name)
		buf.WriteString(`":`)
		s, err := canonicalString(value)
		if err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
		buf.Write(s)
		return nil
	}

	// Alphabetical field order; seq and kind are always present.
	if err := field("detail", ev.Detail); err != nil {
		return nil, err
	}
	if err := field("key", ev.Key); err != nil {
		return nil, err
	}
	if err := field("kind", string(ev.Kind)); err != nil {
		return nil, err
	}
	if err := field("op", ev.Op); err != nil {
		return nil, err
	}
	if err := field("phase", ev.Phase); err != nil {
		return nil, err
	}
	if err := field("priority", ev.Priority); err != nil {
		return nil, err
	}
	if wrote {
		buf.WriteByte(',')
	}
	fmt.Fprintf(&buf, `"seq":%d`, ev.Seq)
	wrote = true
	if err := field("token", ev.Token); err != nil {
		return nil, err
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// canonicalString serializes one JSON string with NFC normalization and no
// HTML escaping. U+2028 and U+2029 are not escaped; only control
// characters, backslash, and quote are.
func canonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}
	// Encoder appends a trailing newline.
	return []byte(strings.TrimSpace(buf.String())), nil
}

// FormatEvents renders events one canonical JSON object per line, the
// layout used by golden trace files and the CLI trace output.
func FormatEvents(events []engine.Event) (string, error) {
	var b strings.Builder
	for _, ev := range events {
		line, err := MarshalCanonical(ev)
		if err != nil {
			return "", err
		}
		b.Write(line)
		b.WriteByte('\n')
	}
	return b.String(), nil
}
