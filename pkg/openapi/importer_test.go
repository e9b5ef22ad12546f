package openapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/definition"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/validation"
)

const petstore = `
openapi: 3.0.3
info:
  title: Signup
  version: "1.0"
paths:
  /accounts:
    post:
      operationId: createAccount
      requestBody:
        required: true
        content:
          application/json:
            schema:
              type: object
              required: [email, plan]
              properties:
                id:
                  type: string
                  readOnly: true
                email:
                  type: string
                  format: email
                  pattern: "@"
                plan:
                  type: string
                  enum: [free, pro]
                  default: free
                bio:
                  type: string
                  maxLength: 500
                newsletter:
                  type: boolean
                seats:
                  type: integer
                country:
                  type: string
                  x-endpoint:
                    url: /countries
                    method: get
                tags:
                  type: array
                  items:
                    type: string
                members:
                  type: array
                  items:
                    type: object
                    required: [memberEmail]
                    properties:
                      memberEmail:
                        type: string
                        format: email
                      role:
                        type: string
                        default: member
      responses:
        "201":
          description: created
    get:
      operationId: listAccounts
      responses:
        "200":
          description: ok
`

func TestImportBuildsControllers(t *testing.T) {
	doc, err := Import(context.Background(), []byte(petstore), "createAccount")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	want := &definition.Document{
		Name:   "createAccount",
		Type:   "flat",
		Submit: &definition.SubmitDoc{Endpoint: "/accounts", Method: http.MethodPost},
		Validation: validation.Rules{
			"email": {Required: true, Pattern: "@"},
			"plan":  {Required: true},
			"bio":   {MaxLength: 500},
		},
		Controllers: []definition.ControllerDoc{
			{Name: "bio", Label: "Bio", Type: "textarea", MaxLength: 500},
			{
				Name: "country", Label: "Country", Type: "select",
				Options:      model.OptionsFromAPI,
				OptionsFetch: &model.OptionsFetch{Endpoint: "/countries", Method: "GET"},
			},
			{Name: "email", Label: "Email", Type: "email"},
			{
				Name: "members", Label: "Members", Type: "sub-form", AllowMultipleItems: true,
				SubForm: &definition.SubFormDoc{
					Validation: validation.Rules{"memberEmail": {Required: true}},
					Controllers: []definition.ControllerDoc{
						{Name: "memberEmail", Label: "Member email", Type: "email"},
						{Name: "role", Label: "Role", Type: "text", Default: "member"},
					},
				},
			},
			{Name: "newsletter", Label: "Newsletter", Type: "checkbox"},
			{
				Name: "plan", Label: "Plan", Type: "select", Default: "free",
				Options: []any{
					map[string]any{"label": "Free", "value": "free"},
					map[string]any{"label": "Pro", "value": "pro"},
				},
			},
			{Name: "seats", Label: "Seats", Type: "number"},
			{Name: "tags", Label: "Tags", Type: "tags-input"},
		},
	}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestImportedDocumentBuilds(t *testing.T) {
	doc, err := Import(context.Background(), []byte(petstore), "POST /accounts", WithName("signup"))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if doc.Name != "signup" {
		t.Fatalf("name = %q, want signup", doc.Name)
	}
	def, err := definition.Build(doc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := len(def.Controllers); got != 8 {
		t.Fatalf("controllers = %d, want 8", got)
	}
	defaults := model.DefaultValues(def.Controllers)
	if diff := cmp.Diff(map[string]any{"plan": "free"}, defaults); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestImportErrors(t *testing.T) {
	tests := []struct {
		name     string
		selector string
		want     error
	}{
		{name: "unknown operation", selector: "deleteAccount", want: ErrOperationNotFound},
		{name: "no body", selector: "listAccounts", want: ErrNoRequestBody},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Import(context.Background(), []byte(petstore), tt.selector)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := Import(context.Background(), nil, "createAccount"); err == nil {
		t.Fatal("expected error for empty document")
	}
}

func TestOperations(t *testing.T) {
	got, err := Operations(context.Background(), []byte(petstore))
	if err != nil {
		t.Fatalf("Operations: %v", err)
	}
	want := []string{"createAccount (POST /accounts)", "listAccounts (GET /accounts)"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("operations mismatch (-want +got):\n%s", diff)
	}
}

func TestHumanize(t *testing.T) {
	for in, want := range map[string]string{
		"first_name": "First name",
		"firstName":  "First name",
		"email":      "Email",
		"zip-code":   "Zip code",
	} {
		if got := humanize(in); got != want {
			t.Errorf("humanize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadSources(t *testing.T) {
	ctx := context.Background()
	fsys := fstest.MapFS{"api/openapi.yaml": {Data: []byte(petstore)}}

	data, err := Load(ctx, "api/openapi.yaml", WithFileSystem(fsys))
	if err != nil {
		t.Fatalf("Load fs: %v", err)
	}
	if string(data) != petstore {
		t.Fatal("fs content mismatch")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openapi.yaml" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(petstore))
	}))
	defer server.Close()

	if _, err := Load(ctx, server.URL+"/openapi.yaml"); err == nil {
		t.Fatal("expected http to be disabled by default")
	}
	data, err = Load(ctx, server.URL+"/openapi.yaml", WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("Load http: %v", err)
	}
	if string(data) != petstore {
		t.Fatal("http content mismatch")
	}
	if _, err := Load(ctx, server.URL+"/missing", WithHTTPClient(server.Client())); err == nil {
		t.Fatal("expected status error")
	}
}
