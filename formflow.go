// Package formflow is the top-level entry point. It re-exports the core
// types and wires the definition loader, OpenAPI importer and session so
// simple callers need a single import.
package formflow

import (
	"context"
	"io/fs"

	"github.com/goliatone/go-formflow/pkg/definition"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/openapi"
	"github.com/goliatone/go-formflow/pkg/session"
)

// Descriptor aliases model.Descriptor.
type Descriptor = model.Descriptor

// Step aliases model.Step.
type Step = model.Step

// Definition aliases definition.Definition.
type Definition = definition.Definition

// Session aliases session.Session.
type Session = session.Session

// LoadDefinition reads and builds the definition at path inside fsys.
func LoadDefinition(fsys fs.FS, path string, opts ...definition.Option) (*Definition, error) {
	return definition.LoadFS(fsys, path, opts...)
}

// NewSession starts a form session for def.
func NewSession(def *Definition, opts ...session.Option) (*Session, error) {
	return session.New(def.SessionConfig(), opts...)
}

// ImportOpenAPI builds a definition from one operation of an OpenAPI
// document.
func ImportOpenAPI(ctx context.Context, data []byte, operation string, importOpts []openapi.Option, opts ...definition.Option) (*Definition, error) {
	doc, err := openapi.Import(ctx, data, operation, importOpts...)
	if err != nil {
		return nil, err
	}
	return definition.Build(doc, opts...)
}
