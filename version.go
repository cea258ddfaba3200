// Package ruwuma describes versioned Matrix-style HTTP endpoints and marshals
// typed requests and responses to and from their wire forms.
//
// An endpoint is declared once as an immutable [Metadata] value whose
// [History] lists every path shape the endpoint has had across protocol
// versions. [Resolve] picks the one path template valid for a caller's
// [SupportedVersions]; [Endpoint.Build] turns a typed request into an
// *http.Request and [Endpoint.Parse] reconstructs the typed request on the
// serving side.
package ruwuma

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// MatrixVersion is a stable protocol version.
type MatrixVersion struct {
	Major int
	Minor int
}

// V is shorthand for MatrixVersion{major, minor}.
func V(major, minor int) MatrixVersion {
	return MatrixVersion{Major: major, Minor: minor}
}

// Compare orders versions by (major, minor).
func (v MatrixVersion) Compare(other MatrixVersion) int {
	if c := cmp.Compare(v.Major, other.Major); c != 0 {
		return c
	}
	return cmp.Compare(v.Minor, other.Minor)
}

// String renders the version the way the versions endpoint advertises it.
func (v MatrixVersion) String() string {
	return fmt.Sprintf("v%d.%d", v.Major, v.Minor)
}

// ParseMatrixVersion accepts "1.1", "v1.1" and the legacy "r0.x.y" forms.
// Every r0 release maps to 1.0.
func ParseMatrixVersion(s string) (MatrixVersion, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "r0.") {
		return V(1, 0), nil
	}
	major, minor, ok := strings.Cut(strings.TrimPrefix(s, "v"), ".")
	if !ok {
		return MatrixVersion{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}
	ma, err := strconv.Atoi(major)
	if err != nil || ma < 0 {
		return MatrixVersion{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}
	mi, err := strconv.Atoi(minor)
	if err != nil || mi < 0 {
		return MatrixVersion{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}
	return V(ma, mi), nil
}

// TokenKind is the status an endpoint shape has at a given version.
type TokenKind uint8

const (
	TokenUnstable TokenKind = iota
	TokenStable
	TokenDeprecated
	TokenRemoved
)

func (k TokenKind) String() string {
	switch k {
	case TokenUnstable:
		return "unstable"
	case TokenStable:
		return "stable"
	case TokenDeprecated:
		return "deprecated"
	case TokenRemoved:
		return "removed"
	default:
		return fmt.Sprintf("TokenKind(%d)", k)
	}
}

// VersionToken marks one history entry. Version is meaningless for
// TokenUnstable.
type VersionToken struct {
	Kind    TokenKind
	Version MatrixVersion
}

func (t VersionToken) String() string {
	switch t.Kind {
	case TokenUnstable:
		return "unstable"
	case TokenStable:
		return fmt.Sprintf("%d.%d", t.Version.Major, t.Version.Minor)
	default:
		return fmt.Sprintf("%d.%d (%s)", t.Version.Major, t.Version.Minor, t.Kind)
	}
}

// ParseVersionToken parses the literal "unstable" or a major.minor pair.
func ParseVersionToken(s string) (VersionToken, error) {
	if strings.TrimSpace(s) == "unstable" {
		return VersionToken{Kind: TokenUnstable}, nil
	}
	v, err := ParseMatrixVersion(s)
	if err != nil {
		return VersionToken{}, err
	}
	return VersionToken{Kind: TokenStable, Version: v}, nil
}

// SupportedVersions is the negotiated set of versions a call may use.
// It is supplied per call and never retained.
type SupportedVersions struct {
	Versions      []MatrixVersion
	AllowUnstable bool
}

// Supported builds a set from the given versions with unstable paths disabled.
func Supported(versions ...MatrixVersion) SupportedVersions {
	return SupportedVersions{Versions: versions}
}

// ParseSupportedVersions parses version strings such as "v1.1" or "r0.6.1".
func ParseSupportedVersions(versions []string, allowUnstable bool) (SupportedVersions, error) {
	out := SupportedVersions{AllowUnstable: allowUnstable}
	for _, s := range versions {
		v, err := ParseMatrixVersion(s)
		if err != nil {
			return SupportedVersions{}, err
		}
		if !out.Contains(v) {
			out.Versions = append(out.Versions, v)
		}
	}
	return out, nil
}

// WithUnstable returns a copy of s that also accepts unstable paths.
func (s SupportedVersions) WithUnstable() SupportedVersions {
	s.Versions = slices.Clone(s.Versions)
	s.AllowUnstable = true
	return s
}

// Max returns the highest version in the set.
func (s SupportedVersions) Max() (MatrixVersion, bool) {
	if len(s.Versions) == 0 {
		return MatrixVersion{}, false
	}
	return slices.MaxFunc(s.Versions, MatrixVersion.Compare), true
}

// Contains reports whether v is in the set.
func (s SupportedVersions) Contains(v MatrixVersion) bool {
	return slices.Contains(s.Versions, v)
}
