// Package forms validates submitted HTML forms before anything reaches the
// backend.
package forms

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Form names.
const (
	Startup = "startup"
	Signup  = "signup"
	Login   = "login"
	Meeting = "meeting"
)

// fallbackMessage is used when a field has no configured message.
const fallbackMessage = "Invalid value."

// Messages maps a JSON Schema keyword (minLength, format, ...) to the message
// shown next to the field. The "*" entry applies to any keyword.
type Messages map[string]string

var messages = map[string]map[string]Messages{
	Startup: {
		"name":    {"*": "Company name must be at least 2 characters."},
		"website": {"*": "Please enter a valid URL."},
		"sector":  {"*": "Please select a sector."},
		"stage":   {"*": "Please select a stage."},
		"description": {
			"*":         "Must be at least 10 characters.",
			"maxLength": "Must not be longer than 160 characters.",
		},
	},
	Signup: {
		"email":    {"*": "Please enter a valid email address."},
		"password": {"*": "Password must be at least 6 characters."},
		"role":     {"*": "Please choose founder or investor."},
	},
	Login: {
		"email":    {"*": "Please enter a valid email address."},
		"password": {"*": "Please enter your password."},
	},
	Meeting: {
		"investorId": {"*": "Please select an investor."},
		"title":      {"*": "Please give the meeting a title."},
		"date":       {"*": "Please pick a date."},
		"time":       {"*": "Please select a time."},
		"mode":       {"*": "Please choose Agent or 1-on-1."},
		"type":       {"*": "Please choose voice or video."},
		"notes":      {"*": "Notes must not be longer than 500 characters."},
	},
}

// ValidationError carries one message per invalid field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsValidationError unwraps err into a *ValidationError.
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

type form struct {
	schema   *jsonschema.Schema
	fields   []string
	messages map[string]Messages
}

// Validator checks submitted values against the embedded form schemas.
type Validator struct {
	forms map[string]*form
}

// NewValidator compiles every embedded schema.
func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.DefaultDraft(jsonschema.Draft7)
	compiler.AssertFormat()

	v := &Validator{forms: make(map[string]*form, len(messages))}
	for name, msgs := range messages {
		location := "schemas/" + name + ".json"
		data, err := schemaFS.ReadFile(location)
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", name, err)
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("parse schema %s: %w", name, err)
		}
		if err := compiler.AddResource(location, doc); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", name, err)
		}
		schema, err := compiler.Compile(location)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}

		v.forms[name] = &form{
			schema:   schema,
			fields:   schemaProperties(doc),
			messages: msgs,
		}
	}
	return v, nil
}

// Validate checks values against the named form. Blank values count as
// missing. On success the cleaned values are returned.
func (v *Validator) Validate(name string, values url.Values) (map[string]any, error) {
	f, ok := v.forms[name]
	if !ok {
		return nil, fmt.Errorf("unknown form %q", name)
	}

	instance := make(map[string]any, len(f.fields))
	for _, field := range f.fields {
		value := values.Get(field)
		if strings.TrimSpace(value) == "" {
			continue
		}
		if field != "password" {
			value = strings.TrimSpace(value)
		}
		instance[field] = value
	}

	err := f.schema.Validate(instance)
	if err == nil {
		return instance, nil
	}

	var schemaErr *jsonschema.ValidationError
	if !errors.As(err, &schemaErr) {
		return nil, fmt.Errorf("validate %s: %w", name, err)
	}

	verr := &ValidationError{Fields: map[string]string{}}
	for _, leaf := range leaves(schemaErr) {
		keyword := ""
		if path := leaf.ErrorKind.KeywordPath(); len(path) > 0 {
			keyword = path[0]
		}

		fieldNames := []string{fieldName(leaf.InstanceLocation)}
		if required, ok := leaf.ErrorKind.(*kind.Required); ok {
			fieldNames = required.Missing
		}
		for _, field := range fieldNames {
			if _, seen := verr.Fields[field]; seen {
				continue
			}
			verr.Fields[field] = f.message(field, keyword)
		}
	}
	return nil, verr
}

// Decode validates values and decodes them into out, a pointer to a struct
// with mapstructure tags.
func (v *Validator) Decode(name string, values url.Values, out any) error {
	clean, err := v.Validate(name, values)
	if err != nil {
		return err
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}
	if err := decoder.Decode(clean); err != nil {
		return fmt.Errorf("decode %s form: %w", name, err)
	}
	return nil
}

func (f *form) message(field, keyword string) string {
	msgs := f.messages[field]
	if m, ok := msgs[keyword]; ok {
		return m
	}
	if m, ok := msgs["*"]; ok {
		return m
	}
	return fallbackMessage
}

func leaves(err *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(err.Causes) == 0 {
		return []*jsonschema.ValidationError{err}
	}
	var out []*jsonschema.ValidationError
	for _, cause := range err.Causes {
		out = append(out, leaves(cause)...)
	}
	return out
}

func fieldName(location []string) string {
	parts := make([]string, 0, len(location))
	for _, part := range location {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ".")
}

func schemaProperties(doc any) []string {
	obj, _ := doc.(map[string]any)
	props, _ := obj["properties"].(map[string]any)
	fields := make([]string, 0, len(props))
	for name := range props {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields
}
