package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"versify/internal/httputil"
)

func TestProjectMiddleware_InjectsFixedProjectID(t *testing.T) {
	var observed string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		observed = httputil.GetProjectID(r)
		w.WriteHeader(http.StatusOK)
	})

	handler := ProjectMiddleware("project-1")(next)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, "project-1", observed)
	assert.Equal(t, http.StatusOK, w.Code)
}
