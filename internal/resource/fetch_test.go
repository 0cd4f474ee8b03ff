package resource

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticFetcher struct {
	sources map[string]string
}

func (f *staticFetcher) Fetch(_ context.Context, uri string) ([]byte, error) {
	src, ok := f.sources[uri]
	if !ok {
		return nil, fmt.Errorf("%s not found", uri)
	}
	return []byte(src), nil
}

func contextWithCancel(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx, cancel
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/vjconsole/page-resource/demo.js":
			fmt.Fprint(w, "demo()")
		default:
			http.Error(w, "no such resource", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	f, err := NewHTTPFetcher(srv.URL+"/vjconsole/", time.Second)
	require.NoError(t, err)

	data, err := f.Fetch(context.Background(), "page-resource/demo.js")
	require.NoError(t, err)
	assert.Equal(t, "demo()", string(data))

	data, err = f.Fetch(context.Background(), "/vjconsole/page-resource/demo.js")
	require.NoError(t, err)
	assert.Equal(t, "demo()", string(data))

	_, err = f.Fetch(context.Background(), "page-resource/missing.js")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
