package httpapi

import (
	"context"
	"net/http"
)

// requestContext is the context handed to the service. It keeps r's values
// (request id) and ends with the request or with the base context.
func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(r.Context())
	stop := context.AfterFunc(current.BaseContext, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
