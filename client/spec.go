package client

import (
	"fmt"
	"net/http"
	"net/url"
)

// DefaultBaseURL prefixes relative query paths.
const DefaultBaseURL = "https://api.nexusmods.com/v1/"

// Header names every query must carry before dispatch.
const (
	HeaderAPIKey = "apikey"
	HeaderAccept = "accept"
)

// AcceptJSON is the accept header value the API expects.
const AcceptJSON = "application/json"

// QuerySpec describes one request. A fresh spec is constructed per
// call; nothing in it is reused or mutated between queries.
type QuerySpec struct {
	// Path is relative to the base URL unless already absolute.
	Path string
	// Method defaults to GET.
	Method string
	// Headers must include apikey and accept.
	Headers map[string]string
	// Params are encoded into the query string.
	Params map[string]string
}

// NewQuerySpec returns a GET spec for path carrying the required
// headers for the given API key.
func NewQuerySpec(path, apiKey string) QuerySpec {
	return QuerySpec{
		Path:   path,
		Method: http.MethodGet,
		Headers: map[string]string{
			HeaderAPIKey: apiKey,
			HeaderAccept: AcceptJSON,
		},
	}
}

// validate checks the spec is dispatchable. A violation here is a
// configuration error: the request is never sent.
func (s QuerySpec) validate() error {
	for _, h := range []string{HeaderAPIKey, HeaderAccept} {
		if s.Headers[h] == "" {
			return fmt.Errorf("%w: %s", ErrMissingHeader, h)
		}
	}

	switch s.Method {
	case "", http.MethodGet, http.MethodPost:
	default:
		return fmt.Errorf("unsupported method %q", s.Method)
	}

	return nil
}

// resolveURL expands the spec's path against base and attaches the
// query string. The ok flag is false when no dispatchable URL can be
// built, which callers classify as the MissingURL failure.
func (s QuerySpec) resolveURL(base string) (string, bool) {
	if s.Path == "" {
		return "", false
	}

	raw := s.Path
	if u, err := url.Parse(raw); err != nil {
		return "", false
	} else if !u.IsAbs() {
		raw = base + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}

	if len(s.Params) > 0 {
		q := u.Query()
		for k, v := range s.Params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	return u.String(), true
}
