// Package schema validates pipeline artifacts against their JSON wire shapes.
package schema

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Kind names an artifact with a registered schema.
type Kind string

const (
	KindSOP        Kind = "sop"
	KindExecution  Kind = "execution"
	KindValidation Kind = "validation"
)

var (
	ErrInvalidDocument = errors.New("document does not match schema")
	ErrUnknownKind     = errors.New("unknown schema kind")
)

//go:embed schemas/*.json
var files embed.FS

var (
	loadOnce sync.Once
	compiled map[Kind]*gojsonschema.Schema
	loadErr  error
)

func load() {
	compiled = make(map[Kind]*gojsonschema.Schema)

	for _, kind := range []Kind{KindSOP, KindExecution, KindValidation} {
		data, err := files.ReadFile("schemas/" + string(kind) + ".json")
		if err != nil {
			loadErr = fmt.Errorf("failed to read %s schema: %w", kind, err)

			return
		}

		s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
		if err != nil {
			loadErr = fmt.Errorf("failed to compile %s schema: %w", kind, err)

			return
		}

		compiled[kind] = s
	}
}

func schemaFor(kind Kind) (*gojsonschema.Schema, error) {
	loadOnce.Do(load)

	if loadErr != nil {
		return nil, loadErr
	}

	s, ok := compiled[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	return s, nil
}

// ValidateJSON checks raw JSON against the schema of kind.
func ValidateJSON(kind Kind, data []byte) error {
	s, err := schemaFor(kind)
	if err != nil {
		return err
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	return resultError(kind, result)
}

// Validate marshals document and checks it against the schema of kind.
func Validate(kind Kind, document any) error {
	data, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", kind, err)
	}

	return ValidateJSON(kind, data)
}

func resultError(kind Kind, result *gojsonschema.Result) error {
	if result.Valid() {
		return nil
	}

	descriptions := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		descriptions = append(descriptions, desc.String())
	}

	return fmt.Errorf("%w: %s: %s", ErrInvalidDocument, kind, strings.Join(descriptions, "; "))
}
