package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/asaidimu/go-tabula/core/table"
	"github.com/asaidimu/go-tabula/core/workspace"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestMiddleware(t *testing.T) {
	m := New()
	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/datasets/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/datasets/"+id, nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestTotal.WithLabelValues("GET", "/datasets/:id", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.DatasetsLoaded.Inc()

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "tabula_datasets_loaded_total 1"))
}

func TestObserve(t *testing.T) {
	m := New()
	ws, err := workspace.New(nil)
	require.NoError(t, err)
	stop := m.Observe(ws)
	assert.Len(t, ws.Subscriptions(), 4)

	tbl := table.New([]string{"a", "b"}, []table.Record{{"a": "1", "b": "2"}})
	ds, err := ws.Load("a.csv", tbl)
	require.NoError(t, err)
	_, err = ws.Query(context.Background(), ds.ID, nil)
	require.NoError(t, err)
	require.NoError(t, ws.Remove(ds.ID))

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(m.DatasetsLoaded) == 1 &&
			testutil.ToFloat64(m.DatasetsActive) == 0 &&
			testutil.ToFloat64(m.QueriesTotal.WithLabelValues("ok")) == 1
	}, time.Second, 10*time.Millisecond)

	stop()
	assert.Empty(t, ws.Subscriptions())
}
