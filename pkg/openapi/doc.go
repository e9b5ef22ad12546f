// Package openapi imports form definitions from OpenAPI 3 documents. The
// JSON request body of one operation becomes the form's controllers, its
// required properties a validation block and its path and method the
// submit target.
package openapi
