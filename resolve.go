package ruwuma

import "fmt"

// Resolution is the outcome of version resolution.
type Resolution struct {
	Path  PathTemplate
	Token VersionToken
	// Deprecated is set when the endpoint is deprecated at the highest
	// supported version. The path is still usable.
	Deprecated bool
}

// Resolve selects the one path template of h usable with supported.
//
// Stable and deprecated entries at or below the highest supported version are
// preferred, most recent first. A removal at or below that version makes the
// endpoint unreachable. The unstable entry is only used when allowUnstable is
// set and no stable entry is eligible.
func Resolve(h History, allowUnstable bool, supported SupportedVersions) (Resolution, error) {
	top, hasTop := supported.Max()
	if hasTop {
		deprecated := false
		for _, e := range h.entries {
			if e.Token.Kind == TokenUnstable || e.Token.Version.Compare(top) > 0 {
				continue
			}
			switch e.Token.Kind {
			case TokenRemoved:
				return Resolution{}, fmt.Errorf("%w: removed in %s", ErrNoMatchingVersion, e.Token.Version)
			case TokenDeprecated:
				deprecated = true
			}
		}
		for i := len(h.entries) - 1; i >= 0; i-- {
			e := h.entries[i]
			switch e.Token.Kind {
			case TokenStable, TokenDeprecated:
				if e.Token.Version.Compare(top) <= 0 {
					return Resolution{Path: e.Path, Token: e.Token, Deprecated: deprecated}, nil
				}
			}
		}
	}
	if allowUnstable {
		if e, ok := h.find(TokenUnstable); ok {
			return Resolution{Path: e.Path, Token: e.Token}, nil
		}
	}
	if !hasTop {
		return Resolution{}, fmt.Errorf("%w: no supported versions", ErrNoMatchingVersion)
	}
	return Resolution{}, fmt.Errorf("%w: nothing at or below %s", ErrNoMatchingVersion, top)
}
