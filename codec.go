package ruwuma

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/schema"
)

var (
	schemaEncoder = schema.NewEncoder()
	schemaDecoder = schema.NewDecoder()
)

func init() {
	schemaDecoder.IgnoreUnknownKeys(true)
}

// EscapeSegment percent-encodes everything outside the unreserved set, so
// "@alice:example.org" becomes "%40alice%3Aexample.org".
func EscapeSegment(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// EncodePath substitutes values into the placeholders of tmpl, in order.
// Literal segments are written verbatim.
func EncodePath(tmpl PathTemplate, values []string) (string, error) {
	if len(values) != tmpl.ParamCount() {
		return "", fmt.Errorf("%w: path %s takes %d values, got %d", ErrEncoding, tmpl, tmpl.ParamCount(), len(values))
	}
	var b strings.Builder
	i := 0
	for _, seg := range tmpl.segments {
		b.WriteByte('/')
		if seg.IsParam() {
			b.WriteString(EscapeSegment(values[i]))
			i++
			continue
		}
		b.WriteString(seg.Literal)
	}
	return b.String(), nil
}

// DecodePath percent-decodes args and returns one value per placeholder of
// tmpl.
//
// One argument fewer than the placeholder count is accepted and the last
// placeholder decodes as "". This keeps routers that deliver the shorter
// legacy form of an optional trailing parameter working; it cannot tell that
// form apart from a request that is one segment short by mistake. Any other
// arity mismatch is ErrMalformedPath.
func DecodePath(tmpl PathTemplate, args []string) ([]string, error) {
	n := tmpl.ParamCount()
	if len(args) != n && len(args) != n-1 {
		return nil, fmt.Errorf("%w: %s takes %d segments, got %d", ErrMalformedPath, tmpl, n, len(args))
	}
	out := make([]string, n)
	for i, arg := range args {
		v, err := url.PathUnescape(arg)
		if err != nil {
			return nil, fmt.Errorf("%w: segment %d: %v", ErrMalformedPath, i, err)
		}
		out[i] = v
	}
	return out, nil
}

// arityMatches reports whether DecodePath accepts n arguments for tmpl and
// whether the shim is needed to do so.
func arityMatches(tmpl PathTemplate, n int) (ok, shim bool) {
	switch tmpl.ParamCount() {
	case n:
		return true, false
	case n + 1:
		return true, true
	}
	return false, false
}

// EncodeQuery renders the query fields of fields, in declaration order, as a
// form-encoded query string. Only keys missing from values are left out; a
// present empty value is sent as "name=". Unset struct fields are kept out of
// values by the `omitempty` schema tag.
func EncodeQuery(fields Fields, values url.Values) string {
	var b strings.Builder
	for _, f := range fields {
		if f.Role != RoleQuery {
			continue
		}
		for _, v := range values[f.Name] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(f.Name))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

// DecodeQuery parses raw and keeps only the declared query fields. A
// required field that is missing is an error.
func DecodeQuery(fields Fields, raw string) (url.Values, error) {
	parsed, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryDecoding, err)
	}
	out := make(url.Values)
	for _, f := range fields {
		if f.Role != RoleQuery {
			continue
		}
		vs, ok := parsed[f.Name]
		if !ok {
			if !f.Optional {
				return nil, fmt.Errorf("%w: missing required parameter %q", ErrQueryDecoding, f.Name)
			}
			continue
		}
		out[f.Name] = vs
	}
	return out, nil
}

// encodeValues flattens the schema-tagged fields of v into strings.
func encodeValues(v any) (url.Values, error) {
	dst := make(map[string][]string)
	if err := schemaEncoder.Encode(v, dst); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return dst, nil
}

// decodeValues sets the schema-tagged fields of dst from values. Failures are
// wrapped in kind.
func decodeValues(dst any, values url.Values, kind error) error {
	if len(values) == 0 {
		return nil
	}
	if err := schemaDecoder.Decode(dst, values); err != nil {
		return fmt.Errorf("%w: %v", kind, err)
	}
	return nil
}
