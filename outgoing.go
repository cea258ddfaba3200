package ruwuma

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

// Build turns req into a wire request against baseURL.
//
// The path template is resolved from the endpoint's history for supported.
// When the chosen template has fewer placeholders than the request has path
// fields, only the leading fields are sent. Build performs no I/O; the
// returned request has a background context.
func (e *Endpoint[Req, Res]) Build(req *Req, baseURL string, cred Credential, supported SupportedVersions) (*http.Request, error) {
	md := e.metadata
	resolved, err := md.Resolve(supported)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.name, err)
	}

	token, sendToken, err := outgoingToken(md.Authentication, cred)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.name, err)
	}

	values, err := encodeValues(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.name, err)
	}

	pathFields := e.fields.ByRole(RolePath)
	args := make([]string, resolved.Path.ParamCount())
	for i := range args {
		args[i] = values.Get(pathFields[i].Name)
	}
	path, err := EncodePath(resolved.Path, args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.name, err)
	}

	var body []byte
	switch {
	case e.fields.HasBody():
		body, err = json.Marshal(req)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %v", e.name, ErrEncoding, err)
		}
	case md.Method == http.MethodPost || md.Method == http.MethodPut:
		body = []byte("{}")
	}

	target := strings.TrimRight(baseURL, "/") + path
	if query := EncodeQuery(e.fields, values); query != "" {
		target += "?" + query
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	hr, err := http.NewRequest(md.Method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", e.name, ErrEncoding, err)
	}
	if body != nil {
		hr.Header.Set("Content-Type", "application/json")
	}
	for _, f := range e.fields.ByRole(RoleHeader) {
		if v := values.Get(f.Name); v != "" {
			hr.Header.Set(f.Header, v)
		}
	}
	if sendToken {
		hr.Header.Set("Authorization", "Bearer "+token)
	}
	return hr, nil
}

// outgoingToken decides whether the credential is sent for scheme.
func outgoingToken(scheme AuthScheme, cred Credential) (string, bool, error) {
	if cred == nil {
		cred = NoAccessToken
	}
	switch scheme {
	case AuthAccessTokenRequired:
		token, ok := cred.RequiredToken()
		if !ok {
			return "", false, fmt.Errorf("%w: endpoint requires an access token", ErrMissingCredential)
		}
		return token, true, nil
	case AuthAccessTokenOptional:
		token, ok := cred.RequiredToken()
		return token, ok, nil
	case AuthNone:
		token, ok := cred.OptionalToken()
		return token, ok, nil
	default:
		// Server signatures are added by the federation transport.
		return "", false, nil
	}
}
