package ruwuma

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"
)

// Response is an outgoing wire response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// WriteTo sends the response through w.
func (r *Response) WriteTo(w http.ResponseWriter) error {
	for k, vs := range r.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(r.Status)
	_, err := w.Write(r.Body)
	return err
}

// EncodeResponse serializes res as a 200 JSON response. A nil res is sent
// as {}.
func (e *Endpoint[Req, Res]) EncodeResponse(res *Res) (*Response, error) {
	body := []byte("{}")
	if res != nil {
		var err error
		body, err = json.Marshal(res)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %v", e.name, ErrEncoding, err)
		}
	}
	return &Response{
		Status: http.StatusOK,
		Header: http.Header{"Content-Type": {"application/json"}},
		Body:   body,
	}, nil
}

// EncodeError renders a protocol error as a wire response.
func EncodeError(perr *Error) *Response {
	body, err := json.Marshal(perr)
	if err != nil {
		// Details held something unencodable; drop them.
		body, _ = json.Marshal(NewError(perr.Code, perr.Message))
	}
	return &Response{
		Status: perr.HTTPStatus(),
		Header: http.Header{"Content-Type": {"application/json"}},
		Body:   body,
	}
}

// DecodeResponse parses a wire response. Success statuses decode into Res;
// anything else is returned as a *Error carrying the received status.
func (e *Endpoint[Req, Res]) DecodeResponse(status int, body []byte) (*Res, error) {
	if status >= 200 && status < 300 {
		if len(bytes.TrimSpace(body)) == 0 {
			body = []byte("{}")
		}
		res := new(Res)
		if err := json.Unmarshal(body, res); err != nil {
			return nil, fmt.Errorf("%s: %w: %v", e.name, ErrBodyDecoding, err)
		}
		return res, nil
	}
	return nil, DecodeError(status, body)
}

// DecodeError parses an error response body. Bodies that are not a protocol
// error become M_UNKNOWN carrying the raw text. The received status is kept.
func DecodeError(status int, body []byte) *Error {
	perr := new(Error)
	if err := json.Unmarshal(body, perr); err != nil || perr.Code == "" {
		perr = Errorf(CodeUnknown, "unexpected status %d: %s", status, bytes.TrimSpace(body))
	}
	perr.Status = status
	return perr
}

// ReadResponse reads and closes the body of hr and decodes it like
// DecodeResponse.
func (e *Endpoint[Req, Res]) ReadResponse(hr *http.Response) (*Res, error) {
	defer hr.Body.Close()
	body, err := io.ReadAll(hr.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", e.name, ErrBodyDecoding, err)
	}
	return e.DecodeResponse(hr.StatusCode, body)
}
