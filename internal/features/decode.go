package features

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Decoding errors.
var (
	ErrNoData    = errors.New("no data provided")
	ErrNotObject = errors.New("request body must be a JSON object")
)

// DecodePairs reads one JSON object and returns its members in document
// order. Numbers are kept as json.Number. An empty body, null, or an empty
// object yields ErrNoData.
func DecodePairs(r io.Reader) ([]Pair, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrNoData
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("malformed JSON: %w", err)
	}
	if tok == nil {
		return nil, ErrNoData
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, ErrNotObject
	}

	var pairs []Pair
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("malformed JSON: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("malformed JSON: unexpected %v", keyTok)
		}

		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("malformed JSON: %w", err)
		}
		pairs = append(pairs, Pair{Key: key, Value: value})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("malformed JSON: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("malformed JSON: trailing data after object")
	}

	if len(pairs) == 0 {
		return nil, ErrNoData
	}
	return pairs, nil
}
