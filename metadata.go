package ruwuma

import (
	"fmt"
	"net/http"
)

// AuthScheme is the credential an endpoint expects.
type AuthScheme uint8

const (
	AuthNone AuthScheme = iota
	AuthAccessTokenRequired
	AuthAccessTokenOptional
	AuthServerSignatureRequired
)

func (a AuthScheme) String() string {
	switch a {
	case AuthNone:
		return "none"
	case AuthAccessTokenRequired:
		return "access_token"
	case AuthAccessTokenOptional:
		return "access_token_optional"
	case AuthServerSignatureRequired:
		return "server_signatures"
	default:
		return fmt.Sprintf("AuthScheme(%d)", a)
	}
}

// Metadata is the static description of one endpoint. Values are built once,
// usually in a package-level var, and must not be modified afterwards; a
// *Metadata may be shared by any number of goroutines.
type Metadata struct {
	Method         string
	RateLimited    bool
	Authentication AuthScheme
	History        History
}

// NewMetadata validates m and returns a copy.
func NewMetadata(m Metadata) (*Metadata, error) {
	switch m.Method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch, http.MethodHead:
	default:
		return nil, fmt.Errorf("%w: unsupported method %q", ErrInvalidMetadata, m.Method)
	}
	if m.Authentication > AuthServerSignatureRequired {
		return nil, fmt.Errorf("%w: unknown authentication scheme %d", ErrInvalidMetadata, m.Authentication)
	}
	if m.History.Len() == 0 {
		return nil, fmt.Errorf("%w: empty history", ErrInvalidMetadata)
	}
	return &m, nil
}

// MustMetadata is like NewMetadata but panics on error.
func MustMetadata(m Metadata) *Metadata {
	md, err := NewMetadata(m)
	if err != nil {
		panic(err)
	}
	return md
}

// Resolve picks the path template for the given versions, honoring
// supported.AllowUnstable.
func (m *Metadata) Resolve(supported SupportedVersions) (Resolution, error) {
	return Resolve(m.History, supported.AllowUnstable, supported)
}

// AddedIn is the first stable version of the endpoint.
func (m *Metadata) AddedIn() (MatrixVersion, bool) {
	e, ok := m.History.find(TokenStable)
	return e.Token.Version, ok
}

// DeprecatedIn is the version that deprecated the endpoint.
func (m *Metadata) DeprecatedIn() (MatrixVersion, bool) {
	e, ok := m.History.find(TokenDeprecated)
	return e.Token.Version, ok
}

// RemovedIn is the version that removed the endpoint.
func (m *Metadata) RemovedIn() (MatrixVersion, bool) {
	e, ok := m.History.find(TokenRemoved)
	return e.Token.Version, ok
}

// UnstablePath returns the unstable template, if declared.
func (m *Metadata) UnstablePath() (PathTemplate, bool) {
	e, ok := m.History.find(TokenUnstable)
	return e.Path, ok
}

// StablePaths returns the stable entries, oldest first.
func (m *Metadata) StablePaths() []HistoryEntry {
	var out []HistoryEntry
	for _, e := range m.History.entries {
		if e.Token.Kind == TokenStable {
			out = append(out, e)
		}
	}
	return out
}

// MaxParams is the largest placeholder count across the history.
func (m *Metadata) MaxParams() int {
	n := 0
	for _, e := range m.History.entries {
		n = max(n, e.Path.ParamCount())
	}
	return n
}
