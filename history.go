package ruwuma

import (
	"fmt"
	"strings"
)

// HistoryEntry pairs a version token with the path shape valid from it on.
type HistoryEntry struct {
	Token VersionToken
	Path  PathTemplate
}

// Unstable declares the unstable path of an endpoint.
func Unstable(path string) HistoryEntry {
	return HistoryEntry{Token: VersionToken{Kind: TokenUnstable}, Path: MustPathTemplate(path)}
}

// Stable declares the path used from version major.minor on.
func Stable(major, minor int, path string) HistoryEntry {
	return HistoryEntry{Token: VersionToken{Kind: TokenStable, Version: V(major, minor)}, Path: MustPathTemplate(path)}
}

// Deprecated marks the endpoint deprecated from major.minor on. The entry
// keeps the path of the latest stable entry.
func Deprecated(major, minor int) HistoryEntry {
	return HistoryEntry{Token: VersionToken{Kind: TokenDeprecated, Version: V(major, minor)}}
}

// Removed marks the endpoint removed from major.minor on.
func Removed(major, minor int) HistoryEntry {
	return HistoryEntry{Token: VersionToken{Kind: TokenRemoved, Version: V(major, minor)}}
}

// ParseHistoryLine parses one declaration line:
//
//	unstable => /_matrix/client/unstable/org.example/thing/:id
//	1.1 => /_matrix/client/v3/thing/:id
//	1.3 => deprecated
//	1.5 => removed
func ParseHistoryLine(line string) (HistoryEntry, error) {
	version, rest, ok := strings.Cut(line, "=>")
	if !ok {
		return HistoryEntry{}, fmt.Errorf("%w: history line %q lacks '=>'", ErrInvalidMetadata, line)
	}
	token, err := ParseVersionToken(version)
	if err != nil {
		return HistoryEntry{}, err
	}
	rest = strings.TrimSpace(rest)
	switch rest {
	case "deprecated", "removed":
		if token.Kind == TokenUnstable {
			return HistoryEntry{}, fmt.Errorf("%w: unstable entry cannot be %s", ErrInvalidMetadata, rest)
		}
		if rest == "deprecated" {
			token.Kind = TokenDeprecated
		} else {
			token.Kind = TokenRemoved
		}
		return HistoryEntry{Token: token}, nil
	}
	path, err := ParsePathTemplate(rest)
	if err != nil {
		return HistoryEntry{}, err
	}
	return HistoryEntry{Token: token, Path: path}, nil
}

// History is the ordered list of shapes one endpoint has had, oldest first.
// The zero History is empty and rejected by NewMetadata.
type History struct {
	entries []HistoryEntry
}

// NewHistory validates entries and fills in the inherited paths of
// deprecated and removed entries.
func NewHistory(entries ...HistoryEntry) (History, error) {
	if len(entries) == 0 {
		return History{}, fmt.Errorf("%w: empty history", ErrInvalidMetadata)
	}
	h := History{entries: make([]HistoryEntry, 0, len(entries))}
	var (
		last       *MatrixVersion
		lastStable PathTemplate
		removed    bool
	)
	for i, e := range entries {
		if removed {
			return History{}, fmt.Errorf("%w: entry %s follows a removal", ErrInvalidMetadata, e.Token)
		}
		switch e.Token.Kind {
		case TokenUnstable:
			if i != 0 {
				return History{}, fmt.Errorf("%w: unstable entry must come first and only once", ErrInvalidMetadata)
			}
			if e.Path.IsZero() {
				return History{}, fmt.Errorf("%w: unstable entry has no path", ErrInvalidMetadata)
			}
		case TokenStable, TokenDeprecated, TokenRemoved:
			if last != nil && e.Token.Version.Compare(*last) <= 0 {
				return History{}, fmt.Errorf("%w: %s does not follow %s", ErrInvalidMetadata, e.Token, *last)
			}
			v := e.Token.Version
			last = &v
			if e.Token.Kind == TokenStable {
				if e.Path.IsZero() {
					return History{}, fmt.Errorf("%w: stable entry %s has no path", ErrInvalidMetadata, e.Token)
				}
				lastStable = e.Path
				break
			}
			if lastStable.IsZero() {
				return History{}, fmt.Errorf("%w: %s entry without a preceding stable path", ErrInvalidMetadata, e.Token.Kind)
			}
			if e.Path.IsZero() {
				e.Path = lastStable
			}
			removed = e.Token.Kind == TokenRemoved
		default:
			return History{}, fmt.Errorf("%w: unknown token kind %d", ErrInvalidMetadata, e.Token.Kind)
		}
		h.entries = append(h.entries, e)
	}
	return h, nil
}

// MustHistory is like NewHistory but panics on error.
func MustHistory(entries ...HistoryEntry) History {
	h, err := NewHistory(entries...)
	if err != nil {
		panic(err)
	}
	return h
}

// ParseHistory builds a History from declaration lines.
func ParseHistory(lines ...string) (History, error) {
	entries := make([]HistoryEntry, 0, len(lines))
	for _, line := range lines {
		e, err := ParseHistoryLine(line)
		if err != nil {
			return History{}, err
		}
		entries = append(entries, e)
	}
	return NewHistory(entries...)
}

// Entries returns a copy of the entries, oldest first.
func (h History) Entries() []HistoryEntry {
	return append([]HistoryEntry(nil), h.entries...)
}

// Len is the number of entries.
func (h History) Len() int {
	return len(h.entries)
}

// Templates returns the distinct path templates, most recent first.
func (h History) Templates() []PathTemplate {
	var out []PathTemplate
	for i := len(h.entries) - 1; i >= 0; i-- {
		p := h.entries[i].Path
		dup := false
		for _, q := range out {
			if q.Equal(p) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, p)
		}
	}
	return out
}

func (h History) find(kind TokenKind) (HistoryEntry, bool) {
	for _, e := range h.entries {
		if e.Token.Kind == kind {
			return e, true
		}
	}
	return HistoryEntry{}, false
}
