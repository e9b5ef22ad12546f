package formflow

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/session"
)

const signup = `
name: signup
controllers:
  - name: email
    type: email
  - name: plan
    type: select
    default: free
    options: [free, pro]
`

func TestLoadDefinitionAndSession(t *testing.T) {
	fsys := fstest.MapFS{"forms/signup.yaml": {Data: []byte(signup)}}
	def, err := LoadDefinition(fsys, "forms/signup.yaml")
	if err != nil {
		t.Fatalf("LoadDefinition: %v", err)
	}

	sess, err := NewSession(def)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer sess.Close()
	if diff := cmp.Diff(map[string]any{"plan": "free"}, sess.Values()); diff != "" {
		t.Fatalf("values (-want +got):\n%s", diff)
	}
}

func TestImportOpenAPI(t *testing.T) {
	spec := `
openapi: 3.0.3
info: {title: t, version: "1"}
paths:
  /users:
    post:
      operationId: createUser
      requestBody:
        content:
          application/json:
            schema:
              type: object
              required: [email]
              properties:
                email: {type: string, format: email}
      responses:
        "201": {description: created}
`
	def, err := ImportOpenAPI(context.Background(), []byte(spec), "createUser", nil)
	if err != nil {
		t.Fatalf("ImportOpenAPI: %v", err)
	}
	if def.Name != "createUser" || len(def.Controllers) != 1 {
		t.Fatalf("unexpected definition %+v", def)
	}
	want := session.SubmitConfig{Endpoint: "/users", Method: "POST"}
	if diff := cmp.Diff(want, def.Submit); diff != "" {
		t.Fatalf("submit (-want +got):\n%s", diff)
	}
}
