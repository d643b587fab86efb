package http_server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jaennil/guide_helper/backend/rastertiles/pkg/config"
	"github.com/jaennil/guide_helper/backend/rastertiles/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func TestNewServerAttachesLogger(t *testing.T) {
	l := logger.NewNoOpLogger()
	ctx := logger.WithLogger(context.Background(), l)

	var got logger.Logger
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = logger.FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	srv := NewServer(ctx, config.Server{Port: "3011", ReadTimeout: time.Second}, h)
	assert.Equal(t, ":3011", srv.Addr)
	assert.Equal(t, time.Second, srv.ReadTimeout)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Same(t, l, got)
}
