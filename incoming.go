package ruwuma

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

var validate = validator.New()

// IncomingRequest is a wire request already taken apart by a router.
// PathArgs holds the raw, still percent-encoded, placeholder values.
type IncomingRequest struct {
	Method   string
	PathArgs []string
	RawQuery string
	Header   http.Header
	Body     []byte
}

// Parse reconstructs the typed request from its wire pieces.
//
// The path arguments may match any template of the endpoint's history,
// including the one-short form accepted by DecodePath. Authentication is only
// checked for presence. An empty body decodes as {}. The decoded request is
// validated against its `validate` struct tags.
func (e *Endpoint[Req, Res]) Parse(in IncomingRequest) (*Req, error) {
	md := e.metadata
	if in.Method != md.Method && !(in.Method == http.MethodHead && md.Method == http.MethodGet) {
		return nil, fmt.Errorf("%w: %s %s", ErrMethodNotAllowed, in.Method, e.name)
	}

	tmpl, err := e.matchTemplate(len(in.PathArgs))
	if err != nil {
		return nil, err
	}
	pathValues, err := DecodePath(tmpl, in.PathArgs)
	if err != nil {
		return nil, err
	}
	query, err := DecodeQuery(e.fields, in.RawQuery)
	if err != nil {
		return nil, err
	}
	if err := checkAuthentication(md.Authentication, in.Header, in.RawQuery); err != nil {
		return nil, err
	}

	req := new(Req)
	if e.fields.HasBody() {
		body := in.Body
		if len(bytes.TrimSpace(body)) == 0 {
			body = []byte("{}")
		}
		if err := json.Unmarshal(body, req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBodyDecoding, err)
		}
	}

	pathFields := e.fields.ByRole(RolePath)
	pv := make(url.Values, len(pathValues))
	for i, v := range pathValues {
		pv.Set(pathFields[i].Name, v)
	}
	if err := decodeValues(req, pv, ErrMalformedPath); err != nil {
		return nil, err
	}
	if err := decodeValues(req, query, ErrQueryDecoding); err != nil {
		return nil, err
	}
	hv := make(url.Values)
	for _, f := range e.fields.ByRole(RoleHeader) {
		if v := in.Header.Get(f.Header); v != "" {
			hv.Set(f.Name, v)
		}
	}
	if err := decodeValues(req, hv, ErrInvalidParam); err != nil {
		return nil, err
	}

	if err := validate.Struct(req); err != nil {
		var invalid *validator.InvalidValidationError
		if !errors.As(err, &invalid) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidParam, err)
		}
	}
	return req, nil
}

// matchTemplate finds the most recent template that takes n arguments,
// preferring an exact match over the one-short form.
func (e *Endpoint[Req, Res]) matchTemplate(n int) (PathTemplate, error) {
	templates := e.metadata.History.Templates()
	var shimmed *PathTemplate
	for i, t := range templates {
		ok, shim := arityMatches(t, n)
		if !ok {
			continue
		}
		if !shim {
			return t, nil
		}
		if shimmed == nil {
			shimmed = &templates[i]
		}
	}
	if shimmed != nil {
		return *shimmed, nil
	}
	return PathTemplate{}, fmt.Errorf("%w: %s takes %d path segments", ErrMalformedPath, e.name, e.metadata.MaxParams())
}

func checkAuthentication(scheme AuthScheme, header http.Header, rawQuery string) error {
	switch scheme {
	case AuthAccessTokenRequired:
		if _, ok := BearerToken(header, rawQuery); !ok {
			return fmt.Errorf("%w: missing access token", ErrAuthenticationRequired)
		}
	case AuthServerSignatureRequired:
		if !hasServerSignature(header) {
			return fmt.Errorf("%w: missing X-Matrix authorization", ErrAuthenticationRequired)
		}
	}
	return nil
}
