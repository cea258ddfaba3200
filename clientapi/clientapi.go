// Package clientapi collects the client-server API endpoints declared in its
// subpackages.
package clientapi

import (
	"slices"
	"strings"

	"github.com/tirr-c/ruwuma"
	"github.com/tirr-c/ruwuma/clientapi/profile"
	"github.com/tirr-c/ruwuma/clientapi/room"
	"github.com/tirr-c/ruwuma/clientapi/state"
)

var catalogue = []ruwuma.Descriptor{
	profile.GetProfile,
	profile.GetProfileKey,
	profile.DeleteProfileKey,
	profile.GetTimeZoneKey,
	profile.SetTimeZoneKey,
	profile.DeleteTimeZoneKey,
	room.ReportRoom,
	state.GetStateEventsForKey,
}

// Catalogue returns every known endpoint, sorted by name.
func Catalogue() []ruwuma.Descriptor {
	out := slices.Clone(catalogue)
	slices.SortFunc(out, func(a, b ruwuma.Descriptor) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return out
}

// Lookup finds an endpoint by name.
func Lookup(name string) (ruwuma.Descriptor, bool) {
	i := slices.IndexFunc(catalogue, func(d ruwuma.Descriptor) bool {
		return d.Name() == name
	})
	if i < 0 {
		return nil, false
	}
	return catalogue[i], true
}
