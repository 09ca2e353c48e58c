package httpapi

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	petstore "github.com/afinana/go-server-petstore"
	"github.com/afinana/go-server-petstore/kv"
	"github.com/afinana/go-server-petstore/utils"
)

func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mr := miniredis.RunT(t)
	log := utils.NewDefaultLogger(slog.LevelError)
	client, err := kv.Open(kv.Options{Addr: mr.Addr()}, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	api := NewServer(petstore.NewStore(client, log), log)
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, body string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(out)
}

func TestPetLifecycle(t *testing.T) {
	srv := newTestAPI(t)

	code, _ := doJSON(t, "POST", srv.URL+"/v2/pet",
		`{"id":1,"name":"rex","status":"available","tags":[{"name":"dog"}]}`)
	require.Equal(t, http.StatusOK, code)

	code, body := doJSON(t, "GET", srv.URL+"/v2/pet/1", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"name":"rex"`)

	code, body = doJSON(t, "GET", srv.URL+"/v2/pet/findByStatus?status=available,sold", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"id":1`)

	code, body = doJSON(t, "GET", srv.URL+"/v2/pet/findByTags?tags=dog", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"id":1`)

	code, _ = doJSON(t, "PUT", srv.URL+"/v2/pet", `{"id":1,"name":"rex","status":"sold"}`)
	require.Equal(t, http.StatusOK, code)

	code, body = doJSON(t, "GET", srv.URL+"/v2/pet/findByStatus?status=available", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "[]", strings.TrimSpace(body))

	code, _ = doJSON(t, "DELETE", srv.URL+"/v2/pet/1", "")
	require.Equal(t, http.StatusOK, code)

	code, _ = doJSON(t, "GET", srv.URL+"/v2/pet/1", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestPetErrors(t *testing.T) {
	srv := newTestAPI(t)

	code, _ := doJSON(t, "POST", srv.URL+"/v2/pet", `{"id":1}`)
	assert.Equal(t, http.StatusBadRequest, code, "missing status")

	code, _ = doJSON(t, "POST", srv.URL+"/v2/pet", `{broken`)
	assert.Equal(t, http.StatusBadRequest, code, "bad JSON")

	code, _ = doJSON(t, "PUT", srv.URL+"/v2/pet", `{"id":9,"status":"sold"}`)
	assert.Equal(t, http.StatusNotFound, code, "updating a pet that was never stored")

	code, _ = doJSON(t, "DELETE", srv.URL+"/v2/pet/9", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = doJSON(t, "GET", srv.URL+"/v2/pet/findByStatus", "")
	assert.Equal(t, http.StatusBadRequest, code, "missing status parameter")
}

func TestUserLifecycle(t *testing.T) {
	srv := newTestAPI(t)

	code, _ := doJSON(t, "POST", srv.URL+"/v2/user", `{"id":1,"username":"bob","email":"bob@example.com"}`)
	require.Equal(t, http.StatusOK, code)
	code, _ = doJSON(t, "POST", srv.URL+"/v2/user", `{"id":2,"username":"alice"}`)
	require.Equal(t, http.StatusOK, code)

	code, body := doJSON(t, "GET", srv.URL+"/v2/user", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"username":"bob"`)
	assert.Contains(t, body, `"username":"alice"`)

	code, body = doJSON(t, "GET", srv.URL+"/v2/user/bob", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"email":"bob@example.com"`)

	code, _ = doJSON(t, "DELETE", srv.URL+"/v2/user/bob", "")
	require.Equal(t, http.StatusOK, code)

	code, body = doJSON(t, "GET", srv.URL+"/v2/user/bob", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "[]", strings.TrimSpace(body))

	code, _ = doJSON(t, "DELETE", srv.URL+"/v2/user/bob", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestLoginLogout(t *testing.T) {
	srv := newTestAPI(t)

	code, body := doJSON(t, "POST", srv.URL+"/v2/user/login", `{"username":"admin","password":"admin"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"token"`)

	code, _ = doJSON(t, "POST", srv.URL+"/v2/user/login", `{"username":"admin","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = doJSON(t, "POST", srv.URL+"/v2/user/login", `{"username":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = doJSON(t, "POST", srv.URL+"/v2/user/logout?username=admin", "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = doJSON(t, "POST", srv.URL+"/v2/user/logout", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestAPI(t)
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
