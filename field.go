package ruwuma

import (
	"fmt"
	"net/http"
)

// Role says where on the wire a request field travels.
type Role uint8

const (
	RolePath Role = iota + 1
	RoleQuery
	RoleBody
	RoleHeader
)

func (r Role) String() string {
	switch r {
	case RolePath:
		return "path"
	case RoleQuery:
		return "query"
	case RoleBody:
		return "body"
	case RoleHeader:
		return "header"
	default:
		return fmt.Sprintf("Role(%d)", r)
	}
}

// Field binds one request struct field to its wire role.
//
// Name is the field's `schema` tag key for path, query and header fields and
// its JSON key for body fields. Body fields travel in the JSON encoding of the
// whole request struct, so path, query and header fields must be tagged
// `json:"-"`, and body fields whose types gorilla/schema cannot encode (maps,
// raw JSON) must be tagged `schema:"-"`.
type Field struct {
	Name string
	Role Role
	// Optional marks a query parameter that may be absent, or a trailing path
	// parameter that older clients may omit.
	Optional bool
	// Header is the HTTP header name of a RoleHeader field.
	Header string
}

// PathField declares the next path placeholder.
func PathField(name string) Field {
	return Field{Name: name, Role: RolePath}
}

// OptionalPathField declares a trailing path placeholder that may be missing
// on incoming requests; it then decodes as the empty string.
func OptionalPathField(name string) Field {
	return Field{Name: name, Role: RolePath, Optional: true}
}

// QueryField declares an optional query parameter.
func QueryField(name string) Field {
	return Field{Name: name, Role: RoleQuery, Optional: true}
}

// RequiredQueryField declares a query parameter that must be present.
func RequiredQueryField(name string) Field {
	return Field{Name: name, Role: RoleQuery}
}

// BodyField declares a JSON body field.
func BodyField(name string) Field {
	return Field{Name: name, Role: RoleBody}
}

// HeaderField declares a field carried in an HTTP header.
func HeaderField(name, header string) Field {
	return Field{Name: name, Role: RoleHeader, Optional: true, Header: http.CanonicalHeaderKey(header)}
}

// Fields is an ordered list of field descriptors.
type Fields []Field

// ByRole returns the fields with the given role, in declaration order.
func (fs Fields) ByRole(role Role) Fields {
	var out Fields
	for _, f := range fs {
		if f.Role == role {
			out = append(out, f)
		}
	}
	return out
}

// HasBody reports whether any field travels in the body.
func (fs Fields) HasBody() bool {
	return len(fs.ByRole(RoleBody)) > 0
}

// TrailingOptional reports whether the last path field may be omitted.
func (fs Fields) TrailingOptional() bool {
	path := fs.ByRole(RolePath)
	return len(path) > 0 && path[len(path)-1].Optional
}

func (fs Fields) validate() error {
	seen := make(map[string]bool, len(fs))
	path := fs.ByRole(RolePath)
	for i, f := range fs {
		if f.Name == "" {
			return fmt.Errorf("%w: field %d has no name", ErrInvalidMetadata, i)
		}
		if f.Role < RolePath || f.Role > RoleHeader {
			return fmt.Errorf("%w: field %q has unknown role %d", ErrInvalidMetadata, f.Name, f.Role)
		}
		if f.Role == RoleHeader && f.Header == "" {
			return fmt.Errorf("%w: header field %q has no header name", ErrInvalidMetadata, f.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: field %q declared twice", ErrInvalidMetadata, f.Name)
		}
		seen[f.Name] = true
	}
	for i, f := range path {
		if f.Optional && i != len(path)-1 {
			return fmt.Errorf("%w: only the last path field may be optional, not %q", ErrInvalidMetadata, f.Name)
		}
	}
	return nil
}
