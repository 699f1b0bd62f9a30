package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// EncodeAttrs serializes an attribute set to JSON TEXT for storage.
// Nil encodes as the empty object so columns are never NULL.
func EncodeAttrs(a Attrs) (string, error) {
	if len(a) == 0 {
		return "{}", nil
	}
	return encodeJSON(a)
}

// DecodeAttrs parses JSON TEXT from storage into an attribute set.
// Numbers decode as json.Number to avoid precision loss above 2^53.
func DecodeAttrs(data string) (Attrs, error) {
	if data == "" || data == "{}" {
		return Attrs{}, nil
	}
	var a Attrs
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&a); err != nil {
		return nil, fmt.Errorf("decode attrs: %w", err)
	}
	return a, nil
}

// EncodePayload serializes a fact payload to JSON TEXT for storage.
// Unlike attrs, payloads may be any JSON value, including null.
func EncodePayload(v any) (string, error) {
	return encodeJSON(v)
}

// DecodePayload parses a stored fact payload.
func DecodePayload(data string) (any, error) {
	if data == "" {
		return nil, nil
	}
	var v any
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return v, nil
}

// encodeJSON marshals with HTML escaping disabled so stored text matches
// what canonical hashing and golden files see.
func encodeJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}
