package jsonresp

import (
	"mime"
	"net/http"
	"strings"
)

// RequestedWithHeader lets non-JSON API writes, such as multipart uploads,
// through RequireAPIClient.
const RequestedWithHeader = "X-Requested-With"

// RequireAPIClient refuses state-changing requests that a plain HTML form on
// another site could send. Unsafe methods must carry a JSON content type or
// an X-Requested-With header; both force a CORS preflight in browsers.
func RequireAPIClient(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		if strings.TrimSpace(r.Header.Get(RequestedWithHeader)) != "" || isJSON(r.Header.Get("Content-Type")) {
			next.ServeHTTP(w, r)
			return
		}
		Fail(w, r, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE",
			"API requests must send JSON or an X-Requested-With header.")
	})
}

func isJSON(ct string) bool {
	mt, _, err := mime.ParseMediaType(ct)
	return err == nil && mt == "application/json"
}
