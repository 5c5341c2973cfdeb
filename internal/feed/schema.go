package feed

import (
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/feed_v2.json
var feedSchemaV2 string

const schemaURL = "feed_v2.json"

// feedSchema holds the compiled document and job-container schemas.
// The container is validated on its own because its tag is configurable.
type feedSchema struct {
	document  *jsonschema.Schema
	container *jsonschema.Schema
}

var (
	schemaOnce   sync.Once
	schemaCached *feedSchema
	schemaErr    error
)

func loadSchema() (*feedSchema, error) {
	schemaOnce.Do(func() {
		schemaCached, schemaErr = compileSchema()
	})
	return schemaCached, schemaErr
}

func compileSchema() (*feedSchema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, strings.NewReader(feedSchemaV2)); err != nil {
		return nil, fmt.Errorf("adding feed schema resource: %w", err)
	}

	doc, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compiling feed schema: %w", err)
	}
	container, err := compiler.Compile(schemaURL + "#/definitions/container")
	if err != nil {
		return nil, fmt.Errorf("compiling job container schema: %w", err)
	}
	return &feedSchema{document: doc, container: container}, nil
}

// validate checks root and its job container, returning nil when both pass.
func (s *feedSchema) validate(root *element, nodeTag string, buid int64) *ValidationError {
	if verr := validateElement(s.document, root, buid); verr != nil {
		return verr
	}

	container := root.child(nodeTag)
	if container == nil {
		return &ValidationError{
			BusinessUnitID: buid,
			Line:           root.line,
			Message:        fmt.Sprintf("element '%s': missing child element '%s'", root.name, nodeTag),
		}
	}
	return validateElement(s.container, container, buid)
}

func validateElement(schema *jsonschema.Schema, el *element, buid int64) *ValidationError {
	err := schema.Validate(el.instance())
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return &ValidationError{BusinessUnitID: buid, Line: el.line, Message: err.Error()}
	}

	leaf := deepestCause(verr)
	target := el.resolve(leaf.InstanceLocation)
	return &ValidationError{
		BusinessUnitID: buid,
		Line:           target.line,
		Message:        fmt.Sprintf("element '%s': %s", elementName(leaf.InstanceLocation, el.name), leaf.Message),
	}
}

func deepestCause(verr *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(verr.Causes) > 0 {
		verr = verr.Causes[0]
	}
	return verr
}

// elementName picks the last element name out of an instance pointer,
// skipping array indices.
func elementName(pointer, fallback string) string {
	tokens := strings.Split(strings.TrimPrefix(pointer, "/"), "/")
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i] == "" {
			continue
		}
		if _, err := strconv.Atoi(tokens[i]); err == nil {
			continue
		}
		return unescapePointer(tokens[i])
	}
	return fallback
}
