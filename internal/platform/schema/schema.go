// Package schema valida los bodies de entrada contra un JSON Schema reflejado
// desde el struct de request de cada operación, antes de decodificarlos.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// MaxBodyBytes limita lo que se lee de un body JSON.
const MaxBodyBytes = 1 << 20

var ErrInvalidJSON = errors.New("invalid json")

// ValidationError indica que el input no cumple el schema de la operación.
type ValidationError struct {
	Detail string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return "invalid input"
	}
	return "invalid input: " + e.Detail
}

func (e *ValidationError) Unwrap() error { return e.Err }

var compiled sync.Map // reflect.Type -> *jschema.Schema

// For devuelve (y cachea) el schema compilado para el tipo de v.
func For(v any) (*jschema.Schema, error) {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema: %T is not a struct", v)
	}
	if s, ok := compiled.Load(t); ok {
		return s.(*jschema.Schema), nil
	}

	r := jsonschema.Reflector{DoNotReference: true, Anonymous: true}
	reflected := r.ReflectFromType(t)

	raw, err := json.Marshal(reflected)
	if err != nil {
		return nil, fmt.Errorf("schema: marshal %s: %w", t.Name(), err)
	}
	doc, err := jschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("schema: parse %s: %w", t.Name(), err)
	}

	url := t.Name() + ".json"
	c := jschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("schema: add %s: %w", t.Name(), err)
	}
	sch, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("schema: compile %s: %w", t.Name(), err)
	}

	actual, _ := compiled.LoadOrStore(t, sch)
	return actual.(*jschema.Schema), nil
}

// Decode lee un body JSON, lo valida contra el schema de dst y recién ahí lo decodifica.
func Decode(r io.Reader, dst any) error {
	raw, err := io.ReadAll(io.LimitReader(r, MaxBodyBytes))
	if err != nil {
		return ErrInvalidJSON
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return &ValidationError{Detail: "empty body"}
	}

	doc, err := jschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return ErrInvalidJSON
	}
	if err := validate(doc, dst); err != nil {
		return err
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return ErrInvalidJSON
	}
	return nil
}

// ValidateFields valida un documento ya armado (ej. campos de un multipart form).
func ValidateFields(fields map[string]any, dst any) error {
	return validate(fields, dst)
}

func validate(doc any, dst any) error {
	sch, err := For(dst)
	if err != nil {
		return err
	}
	if err := sch.Validate(doc); err != nil {
		var ve *jschema.ValidationError
		if errors.As(err, &ve) {
			return &ValidationError{Detail: summarize(ve), Err: err}
		}
		return &ValidationError{Detail: err.Error(), Err: err}
	}
	return nil
}

// summarize toma la causa más profunda; el mensaje completo de la lib es muy verboso.
func summarize(ve *jschema.ValidationError) string {
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	loc := "/"
	if len(leaf.InstanceLocation) > 0 {
		loc = ""
		for _, p := range leaf.InstanceLocation {
			loc += "/" + p
		}
	}
	return loc + ": " + strings.Join(leaf.ErrorKind.KeywordPath(), "/")
}
