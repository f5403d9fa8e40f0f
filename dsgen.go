// Package dsgen generates JavaScript proxy classes for data services.
//
// A data service is a directory holding a service.json declaration and, for
// every operation, a *.api function declaration next to the main module that
// implements it on the database server. The generated class exposes one
// method per operation that forwards its arguments to the client's proxy.
//
// Typical usage:
//
//	report, err := dsgen.Generate().
//		WithConcurrency(4).
//		Run(ctx, []string{"services/docs", "services/users"}, sink.NewDir("lib/proxies"))
package dsgen

import (
	"context"
	"fmt"

	"github.com/broady/dsgen/decl"
	"github.com/broady/dsgen/javascript"
	"github.com/broady/dsgen/proxy"
	"github.com/broady/dsgen/scan"
)

// GenerateSource validates the declarations, builds the proxy class named
// after moduleName and renders it with the default JavaScript renderer.
func GenerateSource(moduleName string, service *decl.ServiceDescriptor, endpoints []*decl.EndpointDescriptor) (string, error) {
	m, err := proxy.Generate(moduleName, service, endpoints)
	if err != nil {
		return "", err
	}
	src, err := javascript.New(javascript.DefaultConfig()).Render(m)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", moduleName, err)
	}
	return string(src), nil
}

// ReadDeclarations reads the service directory dir from the local file
// system. It returns nil, nil when the directory has nothing to generate.
func ReadDeclarations(ctx context.Context, dir string) (*scan.Declarations, error) {
	return (&scan.Reader{}).Read(ctx, dir)
}
