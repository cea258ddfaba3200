package ruwuma

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeResponse(t *testing.T) {
	t.Parallel()

	res, err := profileEndpoint.EncodeResponse(&profileResponse{DisplayName: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"displayname":"Alice"}`, string(res.Body))

	res, err = reportEndpoint.EncodeResponse(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(res.Body))
}

func TestDecodeResponse(t *testing.T) {
	t.Parallel()

	got, err := profileEndpoint.DecodeResponse(http.StatusOK, []byte(`{"displayname":"Alice","avatar_url":"mxc://example.org/abc"}`))
	require.NoError(t, err)
	assert.Equal(t, &profileResponse{DisplayName: "Alice", AvatarURL: "mxc://example.org/abc"}, got)

	_, err = reportEndpoint.DecodeResponse(http.StatusOK, nil)
	require.NoError(t, err)

	_, err = profileEndpoint.DecodeResponse(http.StatusOK, []byte(`[`))
	require.ErrorIs(t, err, ErrBodyDecoding)
}

func TestDecodeResponse_Error(t *testing.T) {
	t.Parallel()

	_, err := profileEndpoint.DecodeResponse(http.StatusTooManyRequests, []byte(`{"errcode":"M_LIMIT_EXCEEDED","error":"Too many requests","retry_after_ms":2000}`))
	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, CodeLimitExceeded, perr.Code)
	assert.Equal(t, http.StatusTooManyRequests, perr.HTTPStatus())
	assert.InDelta(t, 2000, perr.Details["retry_after_ms"], 0)

	_, err = profileEndpoint.DecodeResponse(http.StatusBadGateway, []byte("<html>bad gateway</html>"))
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, CodeUnknown, perr.Code)
	assert.Equal(t, http.StatusBadGateway, perr.Status)
	assert.Contains(t, perr.Message, "bad gateway")
}

func TestDecodeResponse_FlattenedMap(t *testing.T) {
	t.Parallel()

	got, err := stateEndpoint.DecodeResponse(http.StatusOK, []byte(`{"name":"Room","m.custom":{"a":1}}`))
	require.NoError(t, err)
	assert.Equal(t, "Room", (*got)["name"])
}

func TestDecodeError_MissingCode(t *testing.T) {
	t.Parallel()

	perr := DecodeError(http.StatusForbidden, []byte(`{"error":"no"}`))
	assert.Equal(t, CodeUnknown, perr.Code)
	assert.Equal(t, http.StatusForbidden, perr.HTTPStatus())

	perr = DecodeError(http.StatusForbidden, []byte(`{"errcode":"M_FORBIDDEN","error":"no"}`))
	assert.Equal(t, CodeForbidden, perr.Code)
	assert.Equal(t, "no", perr.Message)
}
