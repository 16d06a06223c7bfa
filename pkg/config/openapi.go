package config

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formflow/pkg/model"
)

// LoadOpenAPI reads and validates an OpenAPI document from a file path or
// http(s) URL.
func LoadOpenAPI(ctx context.Context, location string) (*openapi3.T, error) {
	loader := &openapi3.Loader{Context: ctx, IsExternalRefsAllowed: true}

	var (
		doc *openapi3.T
		err error
	)
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		u, parseErr := url.Parse(location)
		if parseErr != nil {
			return nil, fmt.Errorf("config: openapi location %q: %w", location, parseErr)
		}
		doc, err = loader.LoadFromURI(u)
	} else {
		doc, err = loader.LoadFromFile(location)
	}
	if err != nil {
		return nil, fmt.Errorf("config: load openapi %s: %w", location, err)
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("config: validate openapi %s: %w", location, err)
	}
	return doc, nil
}

// ParseOpenAPI decodes an OpenAPI document held in memory.
func ParseOpenAPI(ctx context.Context, data []byte) (*openapi3.T, error) {
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("config: load openapi: %w", err)
	}
	return doc, nil
}

type boundOperation struct {
	method string
	path   string
}

// BindOpenAPI fills URL and method of every source that declares an
// operationId, using the first server URL of doc joined with the operation
// path. Sources that already set a url keep it and only inherit the method.
// Bind before handing the configuration to a session.
func BindOpenAPI(cfg *model.FormConfig, doc *openapi3.T) error {
	if cfg == nil || doc == nil {
		return fmt.Errorf("config: bind openapi: configuration and document are required")
	}

	operations := make(map[string]boundOperation)
	if doc.Paths != nil {
		for path, item := range doc.Paths.Map() {
			if item == nil {
				continue
			}
			for method, op := range item.Operations() {
				if op == nil || op.OperationID == "" {
					continue
				}
				operations[op.OperationID] = boundOperation{method: strings.ToUpper(method), path: path}
			}
		}
	}

	base := serverBase(doc)
	var issues []Issue
	for name, src := range cfg.Sources {
		opID := strings.TrimSpace(src.OperationID)
		if opID == "" {
			continue
		}
		op, ok := operations[opID]
		if !ok {
			issues = append(issues, Issue{Path: "sources." + name, Message: fmt.Sprintf("unknown operationId %q", opID)})
			continue
		}
		if src.Target() == "" {
			src.URL = joinURL(base, op.path)
		}
		if strings.TrimSpace(src.Method) == "" {
			src.Method = op.method
		}
		cfg.Sources[name] = src
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

func serverBase(doc *openapi3.T) string {
	if len(doc.Servers) == 0 || doc.Servers[0] == nil {
		return ""
	}
	server := doc.Servers[0]
	target := server.URL
	for name, variable := range server.Variables {
		if variable == nil {
			continue
		}
		target = strings.ReplaceAll(target, "{"+name+"}", variable.Default)
	}
	return target
}

func joinURL(base, path string) string {
	if base == "" {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
