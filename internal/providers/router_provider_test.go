package providers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func replyHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	})
}

func serve(h http.Handler, method, url string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, url, nil))
	return rr
}

func TestRouterProvider_GetAddsRoute(t *testing.T) {
	rp := NewRouterProvider()
	rp.Get("/regions", replyHandler("ok"))

	routes := rp.GetRoutes()
	require.Len(t, routes, 1)
	assert.Equal(t, "/regions", routes[0].Url)
}

func TestRouterProvider_KeepsRegistrationOrder(t *testing.T) {
	rp := NewRouterProvider()
	rp.Post("/samples", replyHandler("ok"))
	rp.Get("/regions", replyHandler("ok"))
	rp.Get("/badges", replyHandler("ok"))

	routes := rp.GetRoutes()
	require.Len(t, routes, 3)
	assert.Equal(t, "/samples", routes[0].Url)
	assert.Equal(t, "/badges", routes[2].Url)
}

func TestRouterProvider_SamePathTwoMethods(t *testing.T) {
	rp := NewRouterProvider()
	rp.Get("/settings", replyHandler("read"))
	rp.Post("/settings", replyHandler("write"))

	routes := rp.GetRoutes()
	require.Len(t, routes, 1, "one mux entry per path")

	assert.Equal(t, "read", serve(routes[0].Handler, http.MethodGet, "/settings").Body.String())
	assert.Equal(t, "write", serve(routes[0].Handler, http.MethodPost, "/settings").Body.String())

	rr := serve(routes[0].Handler, http.MethodDelete, "/settings")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "GET, POST", rr.Header().Get("Allow"))
}

func TestRouterProvider_GetRouteRejectsPost(t *testing.T) {
	rp := NewRouterProvider()
	rp.Get("/regions", replyHandler("ok"))

	rr := serve(rp.GetRoutes()[0].Handler, http.MethodPost, "/regions")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestRouterProvider_PostRouteRejectsGet(t *testing.T) {
	rp := NewRouterProvider()
	rp.Post("/samples", replyHandler("ok"))

	rr := serve(rp.GetRoutes()[0].Handler, http.MethodGet, "/samples")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr = serve(rp.GetRoutes()[0].Handler, http.MethodPost, "/samples")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}
