package ruwuma

import (
	"fmt"

	"github.com/goccy/go-json"
)

// VersionsPath is where servers advertise their supported versions.
const VersionsPath = "/_matrix/client/versions"

// VersionsResponse is the body of the versions endpoint.
type VersionsResponse struct {
	Versions         []string        `json:"versions"`
	UnstableFeatures map[string]bool `json:"unstable_features,omitempty"`
}

// ParseVersionsResponse decodes a versions document.
func ParseVersionsResponse(body []byte) (*VersionsResponse, error) {
	var v VersionsResponse
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("%w: versions: %v", ErrBodyDecoding, err)
	}
	return &v, nil
}

// Supported converts the advertised versions. Forms that are not understood
// are skipped, since servers may advertise versions newer than this package.
func (v *VersionsResponse) Supported(allowUnstable bool) SupportedVersions {
	out := SupportedVersions{AllowUnstable: allowUnstable}
	for _, s := range v.Versions {
		mv, err := ParseMatrixVersion(s)
		if err != nil || out.Contains(mv) {
			continue
		}
		out.Versions = append(out.Versions, mv)
	}
	return out
}

// HasFeature reports whether the server enables an unstable feature flag.
func (v *VersionsResponse) HasFeature(name string) bool {
	return v.UnstableFeatures[name]
}
