package response

import (
	"net/http"

	"github.com/google/uuid"
)

// HeaderRequestID correlates a client request with the service's logs.
const HeaderRequestID = "X-Request-ID"

// SetRequestID stamps req with a fresh request ID unless one is already set,
// and returns the ID in use.
func SetRequestID(req *http.Request) string {
	id := req.Header.Get(HeaderRequestID)
	if id == "" {
		id = uuid.New().String()
		req.Header.Set(HeaderRequestID, id)
	}
	return id
}
