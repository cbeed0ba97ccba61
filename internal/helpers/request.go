package helpers

import (
	"errors"
	"net/http"
	"strings"
)

// RequestAttributes flattens the access-control relevant parts of an HTTP request into a
// map suitable for env lookups. Header names are lower-cased and only the first value
// of each header and query parameter is kept. The body is never read.
func RequestAttributes(r *http.Request) (map[string]any, error) {
	if r == nil {
		return nil, errors.New("request is nil")
	}

	attrs := map[string]any{
		"method":      r.Method,
		"host":        r.Host,
		"remote_addr": r.RemoteAddr,
		"path":        "/",
		"scheme":      "",
	}
	if r.URL != nil {
		if r.URL.Path != "" {
			attrs["path"] = r.URL.Path
		}
		attrs["scheme"] = r.URL.Scheme
		if attrs["host"] == "" {
			attrs["host"] = r.URL.Host
		}
	}

	headers := make(map[string]any, len(r.Header))
	for k, v := range r.Header {
		if len(v) > 0 {
			headers[strings.ToLower(k)] = v[0]
		}
	}
	attrs["headers"] = headers

	query := make(map[string]any)
	if r.URL != nil {
		for k, v := range r.URL.Query() {
			if len(v) > 0 {
				query[k] = v[0]
			}
		}
	}
	attrs["query"] = query

	return attrs, nil
}
