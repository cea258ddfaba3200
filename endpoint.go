package ruwuma

import (
	"fmt"
	"net/http"
	"net/url"
)

// Endpoint ties a typed request and response pair to its metadata and field
// roles. Req must be a struct type. Endpoints are immutable and safe for
// concurrent use.
type Endpoint[Req, Res any] struct {
	name     string
	metadata *Metadata
	fields   Fields
}

// NewEndpoint checks that fields fit every template in md's history: no
// template may have more placeholders than there are path fields.
func NewEndpoint[Req, Res any](name string, md *Metadata, fields ...Field) (*Endpoint[Req, Res], error) {
	if md == nil {
		return nil, fmt.Errorf("%w: endpoint %q has no metadata", ErrInvalidMetadata, name)
	}
	fs := Fields(fields)
	if err := fs.validate(); err != nil {
		return nil, fmt.Errorf("endpoint %q: %w", name, err)
	}
	if n := len(fs.ByRole(RolePath)); md.MaxParams() > n {
		return nil, fmt.Errorf("%w: endpoint %q declares %d path fields but a template has %d placeholders",
			ErrInvalidMetadata, name, n, md.MaxParams())
	}
	return &Endpoint[Req, Res]{name: name, metadata: md, fields: fs}, nil
}

// MustEndpoint is like NewEndpoint but panics on error.
func MustEndpoint[Req, Res any](name string, md *Metadata, fields ...Field) *Endpoint[Req, Res] {
	e, err := NewEndpoint[Req, Res](name, md, fields...)
	if err != nil {
		panic(err)
	}
	return e
}

// Name identifies the endpoint, e.g. "get_profile".
func (e *Endpoint[Req, Res]) Name() string { return e.name }

// Metadata returns the endpoint's static metadata.
func (e *Endpoint[Req, Res]) Metadata() *Metadata { return e.metadata }

// Fields returns a copy of the request field descriptors.
func (e *Endpoint[Req, Res]) Fields() Fields { return append(Fields(nil), e.fields...) }

// BuildFromArgs decodes args into a new request by field name and builds it.
// It serves callers that do not know Req statically.
func (e *Endpoint[Req, Res]) BuildFromArgs(args url.Values, baseURL string, cred Credential, supported SupportedVersions) (*http.Request, error) {
	req := new(Req)
	if err := decodeValues(req, args, ErrEncoding); err != nil {
		return nil, err
	}
	return e.Build(req, baseURL, cred, supported)
}

// Descriptor is the type-erased view of an Endpoint.
type Descriptor interface {
	Name() string
	Metadata() *Metadata
	Fields() Fields
	BuildFromArgs(args url.Values, baseURL string, cred Credential, supported SupportedVersions) (*http.Request, error)
}

var _ Descriptor = (*Endpoint[struct{}, struct{}])(nil)
