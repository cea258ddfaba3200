package profile_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tirr-c/ruwuma"
	"github.com/tirr-c/ruwuma/clientapi/profile"
	"github.com/tirr-c/ruwuma/server"
)

const baseURL = "https://matrix.example.org"

var (
	v11      = ruwuma.Supported(ruwuma.V(1, 1))
	unstable = ruwuma.Supported().WithUnstable()
	token    = ruwuma.SendIfRequired("secret")
)

// serve sends hr through an App serving endpoint with fn and returns what
// the handler received along with the decoded answer.
func serve[Req, Res any](t *testing.T, endpoint *ruwuma.Endpoint[Req, Res], hr *http.Request, res *Res) (*Req, *Res, error) {
	t.Helper()
	var got *Req
	app := server.NewApp().Register(server.NewHandler(endpoint, func(ctx context.Context, req *Req) (*Res, error) {
		got = req
		return res, nil
	}))
	w := httptest.NewRecorder()
	app.Handler().ServeHTTP(w, hr)
	decoded, err := endpoint.ReadResponse(w.Result())
	return got, decoded, err
}

func body(t *testing.T, hr *http.Request) string {
	t.Helper()
	if hr.Body == nil {
		return ""
	}
	b, err := io.ReadAll(hr.Body)
	require.NoError(t, err)
	return string(b)
}

func TestGetProfile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		supported ruwuma.SupportedVersions
		path      string
	}{
		{"v3", v11, "/_matrix/client/v3/profile/%40alice%3Aexample.org"},
		{"r0", ruwuma.Supported(ruwuma.V(1, 0)), "/_matrix/client/r0/profile/%40alice%3Aexample.org"},
		{"unstable", unstable, "/_matrix/client/unstable/uk.tcpip.msc4133/profile/%40alice%3Aexample.org"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			hr, err := profile.GetProfile.Build(&profile.GetProfileRequest{UserID: "@alice:example.org"}, baseURL, ruwuma.NoAccessToken, tt.supported)
			require.NoError(t, err)
			assert.Equal(t, http.MethodGet, hr.Method)
			assert.Equal(t, tt.path, hr.URL.EscapedPath())
			assert.Empty(t, hr.Header.Get("Authorization"))

			got, res, err := serve(t, profile.GetProfile, hr, &profile.GetProfileResponse{
				DisplayName: "Alice",
				TimeZone:    "Europe/London",
			})
			require.NoError(t, err)
			assert.Equal(t, "@alice:example.org", got.UserID)
			assert.Equal(t, &profile.GetProfileResponse{DisplayName: "Alice", TimeZone: "Europe/London"}, res)
		})
	}
}

func TestGetProfile_ResponseKeys(t *testing.T) {
	t.Parallel()

	out, err := profile.GetProfile.EncodeResponse(&profile.GetProfileResponse{
		AvatarURL: "mxc://example.org/abc",
		TimeZone:  "Asia/Seoul",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"avatar_url":"mxc://example.org/abc","us.cloke.msc4175.tz":"Asia/Seoul"}`, string(out.Body))
}

func TestGetProfile_InvalidUserID(t *testing.T) {
	t.Parallel()

	_, err := profile.GetProfile.Parse(ruwuma.IncomingRequest{
		Method:   http.MethodGet,
		PathArgs: []string{"alice"},
	})
	assert.ErrorIs(t, err, ruwuma.ErrInvalidParam)
}

func TestGetProfileKey(t *testing.T) {
	t.Parallel()

	req := &profile.GetProfileKeyRequest{UserID: "@alice:example.org", Key: "m.custom"}
	_, err := profile.GetProfileKey.Build(req, baseURL, ruwuma.NoAccessToken, v11)
	require.ErrorIs(t, err, ruwuma.ErrNoMatchingVersion)

	hr, err := profile.GetProfileKey.Build(req, baseURL, ruwuma.NoAccessToken, unstable)
	require.NoError(t, err)
	assert.Equal(t, "/_matrix/client/unstable/uk.tcpip.msc4133/profile/%40alice%3Aexample.org/m.custom", hr.URL.EscapedPath())

	got, res, err := serve(t, profile.GetProfileKey, hr, &profile.Fields{"m.custom": map[string]any{"a": 1}})
	require.NoError(t, err)
	assert.Equal(t, "m.custom", got.Key)
	assert.Equal(t, map[string]any{"a": float64(1)}, (*res)["m.custom"])
}

func TestDeleteProfileKey(t *testing.T) {
	t.Parallel()

	req := &profile.DeleteProfileKeyRequest{
		UserID: "@alice:example.org",
		Key:    "m.custom",
		Fields: profile.Fields{"m.custom": nil},
	}
	_, err := profile.DeleteProfileKey.Build(req, baseURL, ruwuma.NoAccessToken, unstable)
	require.ErrorIs(t, err, ruwuma.ErrMissingCredential)

	hr, err := profile.DeleteProfileKey.Build(req, baseURL, token, unstable)
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, hr.Method)
	assert.Equal(t, "Bearer secret", hr.Header.Get("Authorization"))
	assert.JSONEq(t, `{"m.custom":null}`, body(t, hr))

	hr, err = profile.DeleteProfileKey.Build(req, baseURL, token, unstable)
	require.NoError(t, err)
	got, _, err := serve(t, profile.DeleteProfileKey, hr, nil)
	require.NoError(t, err)
	assert.Equal(t, "@alice:example.org", got.UserID)
	assert.Equal(t, "m.custom", got.Key)
	assert.Equal(t, profile.Fields{"m.custom": nil}, got.Fields)
}

func TestDeleteProfileKey_EmptyFields(t *testing.T) {
	t.Parallel()

	hr, err := profile.DeleteProfileKey.Build(&profile.DeleteProfileKeyRequest{UserID: "@alice:example.org", Key: "m.custom"}, baseURL, token, unstable)
	require.NoError(t, err)
	assert.Equal(t, "{}", body(t, hr))
}

func TestTimeZoneKey(t *testing.T) {
	t.Parallel()
	const path = "/_matrix/client/unstable/uk.tcpip.msc4133/profile/%40alice%3Aexample.org/us.cloke.msc4175.tz"

	t.Run("set", func(t *testing.T) {
		t.Parallel()
		hr, err := profile.SetTimeZoneKey.Build(&profile.SetTimeZoneKeyRequest{UserID: "@alice:example.org", TimeZone: "Europe/London"}, baseURL, token, unstable)
		require.NoError(t, err)
		assert.Equal(t, http.MethodPut, hr.Method)
		assert.Equal(t, path, hr.URL.EscapedPath())
		assert.JSONEq(t, `{"us.cloke.msc4175.tz":"Europe/London"}`, body(t, hr))

		hr, err = profile.SetTimeZoneKey.Build(&profile.SetTimeZoneKeyRequest{UserID: "@alice:example.org", TimeZone: "Europe/London"}, baseURL, token, unstable)
		require.NoError(t, err)
		got, _, err := serve(t, profile.SetTimeZoneKey, hr, nil)
		require.NoError(t, err)
		assert.Equal(t, "Europe/London", got.TimeZone)
	})

	t.Run("set empty", func(t *testing.T) {
		t.Parallel()
		hr, err := profile.SetTimeZoneKey.Build(&profile.SetTimeZoneKeyRequest{UserID: "@alice:example.org"}, baseURL, token, unstable)
		require.NoError(t, err)
		assert.Equal(t, "{}", body(t, hr))
	})

	t.Run("get", func(t *testing.T) {
		t.Parallel()
		hr, err := profile.GetTimeZoneKey.Build(&profile.TimeZoneRequest{UserID: "@alice:example.org"}, baseURL, ruwuma.NoAccessToken, unstable)
		require.NoError(t, err)
		assert.Equal(t, path, hr.URL.EscapedPath())

		_, res, err := serve(t, profile.GetTimeZoneKey, hr, &profile.TimeZoneResponse{TimeZone: "Asia/Seoul"})
		require.NoError(t, err)
		assert.Equal(t, "Asia/Seoul", res.TimeZone)
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()
		hr, err := profile.DeleteTimeZoneKey.Build(&profile.TimeZoneRequest{UserID: "@alice:example.org"}, baseURL, token, unstable)
		require.NoError(t, err)
		assert.Equal(t, http.MethodDelete, hr.Method)
		assert.Nil(t, hr.Body)
	})

	t.Run("stable only", func(t *testing.T) {
		t.Parallel()
		_, err := profile.GetTimeZoneKey.Build(&profile.TimeZoneRequest{UserID: "@alice:example.org"}, baseURL, ruwuma.NoAccessToken, v11)
		assert.ErrorIs(t, err, ruwuma.ErrNoMatchingVersion)
	})
}

func TestTimeZoneRoutes(t *testing.T) {
	t.Parallel()

	// The fixed time zone path and the generic key path share a prefix.
	var hit string
	app := server.NewApp().Register(
		server.NewHandler(profile.GetTimeZoneKey, func(ctx context.Context, req *profile.TimeZoneRequest) (*profile.TimeZoneResponse, error) {
			hit = "timezone"
			return &profile.TimeZoneResponse{}, nil
		}),
		server.NewHandler(profile.GetProfileKey, func(ctx context.Context, req *profile.GetProfileKeyRequest) (*profile.Fields, error) {
			hit = "key:" + req.Key
			return &profile.Fields{}, nil
		}),
	)
	assert.Len(t, app.Endpoints(), 2)

	for path, want := range map[string]string{
		"/_matrix/client/unstable/uk.tcpip.msc4133/profile/%40alice%3Aexample.org/us.cloke.msc4175.tz": "timezone",
		"/_matrix/client/unstable/uk.tcpip.msc4133/profile/%40alice%3Aexample.org/m.custom":            "key:m.custom",
	} {
		w := httptest.NewRecorder()
		app.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, want, hit, path)
	}
}
