package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
)

// Contract checks outgoing requests against the backend's OpenAPI document.
type Contract struct {
	doc    *openapi3.T
	router routers.Router
}

// LoadContract reads an OpenAPI document and binds it to baseURL, so routes
// match no matter which servers the document lists.
func LoadContract(ctx context.Context, path, baseURL string) (*Contract, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load contract %s: %w", path, err)
	}
	return newContract(ctx, doc, baseURL)
}

// ParseContract is LoadContract for an in-memory document.
func ParseContract(ctx context.Context, data []byte, baseURL string) (*Contract, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("parse contract: %w", err)
	}
	return newContract(ctx, doc, baseURL)
}

func newContract(ctx context.Context, doc *openapi3.T, baseURL string) (*Contract, error) {
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid contract: %w", err)
	}

	doc.Servers = openapi3.Servers{{URL: baseURL}}
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build contract router: %w", err)
	}
	return &Contract{doc: doc, router: router}, nil
}

// Validate returns an error when req does not match a documented operation.
// The request body must be re-readable through GetBody.
func (c *Contract) Validate(ctx context.Context, req *http.Request) error {
	route, params, err := c.router.FindRoute(req)
	if err != nil {
		return fmt.Errorf("%s %s is not documented: %w", req.Method, req.URL.Path, err)
	}

	input := &openapi3filter.RequestValidationInput{
		Request:    req,
		PathParams: params,
		Route:      route,
		Options: &openapi3filter.Options{
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
			MultiError:         true,
		},
	}
	if err := openapi3filter.ValidateRequest(ctx, input); err != nil {
		return fmt.Errorf("%s %s violates the contract: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

// Operations counts documented operations, for startup logs.
func (c *Contract) Operations() int {
	n := 0
	for _, item := range c.doc.Paths.Map() {
		n += len(item.Operations())
	}
	return n
}
