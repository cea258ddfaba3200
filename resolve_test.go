package ruwuma

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_PrefersMostRecent(t *testing.T) {
	t.Parallel()

	h := MustHistory(
		Stable(1, 0, "/_matrix/client/r0/profile/:user_id"),
		Stable(1, 1, "/_matrix/client/v3/profile/:user_id"),
	)

	res, err := Resolve(h, false, Supported(V(1, 1)))
	require.NoError(t, err)
	assert.Equal(t, "/_matrix/client/v3/profile/:user_id", res.Path.String())
	assert.Equal(t, VersionToken{Kind: TokenStable, Version: V(1, 1)}, res.Token)

	res, err = Resolve(h, false, Supported(V(1, 0)))
	require.NoError(t, err)
	assert.Equal(t, "/_matrix/client/r0/profile/:user_id", res.Path.String())
}

func TestResolve_UsesHighestSupportedVersion(t *testing.T) {
	t.Parallel()

	h := MustHistory(
		Stable(1, 0, "/r0/thing"),
		Stable(1, 1, "/v3/thing"),
	)

	res, err := Resolve(h, false, Supported(V(1, 0), V(1, 4), V(1, 2)))
	require.NoError(t, err)
	assert.Equal(t, "/v3/thing", res.Path.String())
}

func TestResolve_Unstable(t *testing.T) {
	t.Parallel()

	h := MustHistory(Unstable("/_matrix/client/unstable/uk.tcpip.msc4133/profile/:user_id/:key_name"))

	tests := []struct {
		name          string
		allowUnstable bool
		supported     SupportedVersions
		wantErr       bool
	}{
		{name: "allowed", allowUnstable: true, supported: Supported(V(1, 11))},
		{name: "allowed without versions", allowUnstable: true, supported: Supported()},
		{name: "not requested", allowUnstable: false, supported: Supported(V(1, 11)), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := Resolve(h, tt.allowUnstable, tt.supported)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrNoMatchingVersion)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, TokenUnstable, res.Token.Kind)
		})
	}
}

func TestResolve_StablePreferredOverUnstable(t *testing.T) {
	t.Parallel()

	h := MustHistory(
		Unstable("/_matrix/client/unstable/org.matrix.msc4151/rooms/:room_id/report"),
		Stable(1, 13, "/_matrix/client/v3/rooms/:room_id/report"),
	)

	res, err := Resolve(h, true, Supported(V(1, 13)))
	require.NoError(t, err)
	assert.Equal(t, TokenStable, res.Token.Kind)

	res, err = Resolve(h, true, Supported(V(1, 12)))
	require.NoError(t, err)
	assert.Equal(t, TokenUnstable, res.Token.Kind)

	_, err = Resolve(h, false, Supported(V(1, 12)))
	require.ErrorIs(t, err, ErrNoMatchingVersion)
}

func TestResolve_Removal(t *testing.T) {
	t.Parallel()

	h := MustHistory(
		Stable(1, 0, "/p"),
		Removed(1, 2),
	)

	_, err := Resolve(h, false, Supported(V(1, 2)))
	require.ErrorIs(t, err, ErrNoMatchingVersion)

	_, err = Resolve(h, false, Supported(V(1, 1), V(1, 3)))
	require.ErrorIs(t, err, ErrNoMatchingVersion)

	res, err := Resolve(h, false, Supported(V(1, 1)))
	require.NoError(t, err)
	assert.Equal(t, "/p", res.Path.String())
}

func TestResolve_RemovalBlocksUnstable(t *testing.T) {
	t.Parallel()

	h := MustHistory(
		Unstable("/unstable/p"),
		Stable(1, 0, "/p"),
		Removed(1, 2),
	)

	_, err := Resolve(h, true, Supported(V(1, 2)))
	require.ErrorIs(t, err, ErrNoMatchingVersion)
}

func TestResolve_Deprecated(t *testing.T) {
	t.Parallel()

	h := MustHistory(
		Stable(1, 0, "/r0/p"),
		Stable(1, 1, "/v3/p"),
		Deprecated(1, 4),
	)

	res, err := Resolve(h, false, Supported(V(1, 5)))
	require.NoError(t, err)
	assert.True(t, res.Deprecated)
	assert.Equal(t, TokenDeprecated, res.Token.Kind)
	assert.Equal(t, "/v3/p", res.Path.String())

	res, err = Resolve(h, false, Supported(V(1, 3)))
	require.NoError(t, err)
	assert.False(t, res.Deprecated)
	assert.Equal(t, "/v3/p", res.Path.String())
}

func TestResolve_TooOld(t *testing.T) {
	t.Parallel()

	h := MustHistory(Stable(1, 1, "/v3/p"))

	_, err := Resolve(h, false, Supported(V(1, 0)))
	require.ErrorIs(t, err, ErrNoMatchingVersion)

	_, err = Resolve(h, false, Supported())
	require.ErrorIs(t, err, ErrNoMatchingVersion)
}

func TestResolve_Deterministic(t *testing.T) {
	t.Parallel()

	h := MustHistory(
		Unstable("/unstable/p/:id"),
		Stable(1, 0, "/r0/p/:id"),
		Stable(1, 1, "/v3/p/:id"),
	)
	supported := Supported(V(1, 0), V(1, 1))

	want, err := Resolve(h, true, supported)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]Resolution, 64)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = Resolve(h, true, supported)
		}()
	}
	wg.Wait()

	for _, got := range results {
		assert.True(t, want.Path.Equal(got.Path))
		assert.Equal(t, want.Token, got.Token)
	}
}

func TestMetadata_Resolve(t *testing.T) {
	t.Parallel()

	md := MustMetadata(Metadata{
		Method:         "GET",
		Authentication: AuthNone,
		History: MustHistory(
			Stable(1, 0, "/v3/profile/:user_id"),
			Stable(1, 1, "/v3/profile/:user_id"),
		),
	})

	res, err := md.Resolve(Supported(V(1, 1)))
	require.NoError(t, err)
	assert.Equal(t, "/v3/profile/:user_id", res.Path.String())

	path, err := EncodePath(res.Path, []string{"@alice:example.org"})
	require.NoError(t, err)
	assert.Equal(t, "/v3/profile/%40alice%3Aexample.org", path)
}
