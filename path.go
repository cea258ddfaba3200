package ruwuma

import (
	"fmt"
	"strings"
)

// Segment is one element of a PathTemplate: either a literal or a named
// parameter.
type Segment struct {
	Literal string
	Param   string
}

// IsParam reports whether the segment is a placeholder.
func (s Segment) IsParam() bool {
	return s.Param != ""
}

// PathTemplate is an immutable path pattern such as
// "/_matrix/client/v3/profile/:user_id". Segments prefixed with ':' are
// named parameters.
type PathTemplate struct {
	segments []Segment
	params   []string
}

// ParsePathTemplate parses a template. Parameter names must be unique and no
// segment may be empty.
func ParsePathTemplate(s string) (PathTemplate, error) {
	if !strings.HasPrefix(s, "/") {
		return PathTemplate{}, fmt.Errorf("%w: path %q must start with '/'", ErrInvalidMetadata, s)
	}
	parts := strings.Split(s[1:], "/")
	t := PathTemplate{segments: make([]Segment, 0, len(parts))}
	seen := make(map[string]bool)
	for _, part := range parts {
		switch {
		case part == "":
			return PathTemplate{}, fmt.Errorf("%w: path %q has an empty segment", ErrInvalidMetadata, s)
		case strings.HasPrefix(part, ":"):
			name := part[1:]
			if name == "" {
				return PathTemplate{}, fmt.Errorf("%w: path %q has an unnamed parameter", ErrInvalidMetadata, s)
			}
			if seen[name] {
				return PathTemplate{}, fmt.Errorf("%w: path %q repeats parameter %q", ErrInvalidMetadata, s, name)
			}
			seen[name] = true
			t.segments = append(t.segments, Segment{Param: name})
			t.params = append(t.params, name)
		default:
			t.segments = append(t.segments, Segment{Literal: part})
		}
	}
	return t, nil
}

// MustPathTemplate is like ParsePathTemplate but panics on error. It is meant
// for static endpoint declarations.
func MustPathTemplate(s string) PathTemplate {
	t, err := ParsePathTemplate(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Segments returns a copy of the template's segments.
func (t PathTemplate) Segments() []Segment {
	return append([]Segment(nil), t.segments...)
}

// Params returns the parameter names in declaration order.
func (t PathTemplate) Params() []string {
	return append([]string(nil), t.params...)
}

// ParamCount is the number of placeholders.
func (t PathTemplate) ParamCount() int {
	return len(t.params)
}

// IsZero reports whether t is the zero template.
func (t PathTemplate) IsZero() bool {
	return len(t.segments) == 0
}

// EndsWithParam reports whether the last segment is a placeholder.
func (t PathTemplate) EndsWithParam() bool {
	return len(t.segments) > 0 && t.segments[len(t.segments)-1].IsParam()
}

// Equal reports whether both templates have the same segments.
func (t PathTemplate) Equal(other PathTemplate) bool {
	if len(t.segments) != len(other.segments) {
		return false
	}
	for i := range t.segments {
		if t.segments[i] != other.segments[i] {
			return false
		}
	}
	return true
}

func (t PathTemplate) String() string {
	var b strings.Builder
	for _, seg := range t.segments {
		b.WriteByte('/')
		if seg.IsParam() {
			b.WriteByte(':')
			b.WriteString(seg.Param)
		} else {
			b.WriteString(seg.Literal)
		}
	}
	return b.String()
}
