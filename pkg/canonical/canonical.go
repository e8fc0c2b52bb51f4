// Package canonical renders opaque payloads into a canonical JSON form and
// hashes it. Any implementation, in any language, that sorts object keys and
// strips insignificant whitespace reproduces the same digest for the same
// logical payload; that is what makes stored content hashes verifiable later.
package canonical

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Marshal renders v as canonical JSON: object keys sorted lexicographically
// at every depth, no insignificant whitespace.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Hash returns the lowercase hex SHA-256 digest of the canonical form of v.
func Hash(v any) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func writeValue(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case map[string]any:
		return writeObject(buf, val)
	case []any:
		return writeArray(buf, val)
	case json.RawMessage:
		// Re-parse so embedded objects are canonicalized too.
		var decoded any
		if err := json.Unmarshal(val, &decoded); err != nil {
			return fmt.Errorf("canonicalize raw message: %w", err)
		}
		return writeValue(buf, decoded)
	default:
		// Scalars (string, bool, nil, numbers) follow encoding/json rules.
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Errorf("canonicalize scalar: %w", err)
		}
		buf.Write(data)
		return nil
	}
}

func writeObject(buf *bytes.Buffer, obj map[string]any) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(k)
		if err != nil {
			return fmt.Errorf("canonicalize key %q: %w", k, err)
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		if err := writeValue(buf, obj[k]); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeArray(buf *bytes.Buffer, arr []any) error {
	buf.WriteByte('[')
	for i, item := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeValue(buf, item); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}
