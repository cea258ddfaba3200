package ruwuma

import (
	"net/http"
	"net/url"
	"strings"
)

// Credential hands out the access token for outgoing requests.
type Credential interface {
	// RequiredToken returns the token for endpoints that need or accept one.
	RequiredToken() (string, bool)
	// OptionalToken returns the token for endpoints that do not ask for one.
	OptionalToken() (string, bool)
}

// AccessToken is a Credential holding at most one bearer token.
type AccessToken struct {
	token  string
	always bool
}

// NoAccessToken sends no token at all.
var NoAccessToken = AccessToken{}

// SendIfRequired sends token only to endpoints that require or accept it.
func SendIfRequired(token string) AccessToken {
	return AccessToken{token: token}
}

// SendAlways sends token to every endpoint, including unauthenticated ones.
func SendAlways(token string) AccessToken {
	return AccessToken{token: token, always: true}
}

func (t AccessToken) RequiredToken() (string, bool) {
	return t.token, t.token != ""
}

func (t AccessToken) OptionalToken() (string, bool) {
	if !t.always {
		return "", false
	}
	return t.token, t.token != ""
}

// BearerToken extracts the access token of an incoming request from the
// Authorization header or, failing that, the access_token query parameter.
func BearerToken(header http.Header, rawQuery string) (string, bool) {
	if scheme, token, ok := strings.Cut(header.Get("Authorization"), " "); ok && strings.EqualFold(scheme, "Bearer") {
		token = strings.TrimSpace(token)
		return token, token != ""
	}
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", false
	}
	token := q.Get("access_token")
	return token, token != ""
}

// hasServerSignature reports whether the request carries an X-Matrix
// Authorization header. Verifying it is left to the caller.
func hasServerSignature(header http.Header) bool {
	for _, v := range header.Values("Authorization") {
		if scheme, _, ok := strings.Cut(v, " "); ok && scheme == "X-Matrix" {
			return true
		}
	}
	return false
}
