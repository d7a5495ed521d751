package httpapi

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestContext_CanceledByBase(t *testing.T) {
	base, cancelBase := context.WithCancel(context.Background())
	Configure(Settings{BaseContext: base})
	t.Cleanup(func() { Configure(Settings{}) })

	r := httptest.NewRequest("POST", "/api/convert", nil)
	ctx, done := requestContext(r)
	defer done()

	cancelBase()
	select {
	case <-ctx.Done():
	case <-time.After(500 * time.Millisecond):
		t.Fatal("request context survived base cancellation")
	}
}

func TestRequestContext_CanceledByRequestKeepsValues(t *testing.T) {
	Configure(Settings{})
	parent, cancelReq := context.WithCancel(context.WithValue(context.Background(), middleware.RequestIDKey, "rid-1"))
	r := httptest.NewRequest("POST", "/api/convert", nil).WithContext(parent)

	ctx, done := requestContext(r)
	defer done()
	assert.Equal(t, "rid-1", middleware.GetReqID(ctx))

	cancelReq()
	select {
	case <-ctx.Done():
	case <-time.After(500 * time.Millisecond):
		t.Fatal("request context survived client cancellation")
	}
}

func TestRequestContext_DoneReleasesBase(t *testing.T) {
	base, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	Configure(Settings{BaseContext: base})
	t.Cleanup(func() { Configure(Settings{}) })

	ctx, done := requestContext(httptest.NewRequest("GET", "/", nil))
	done()
	require.Error(t, ctx.Err())
	assert.NoError(t, base.Err())
}
