package server

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/AutoMQ/collection-store/pkg/server/config"
	tempurl "github.com/AutoMQ/collection-store/pkg/util/testutil/url"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestServer(t *testing.T) {
	t.Parallel()
	re := require.New(t)

	svr := startServer(t, "test-store")
	addr := svr.Addr().String()
	url := fmt.Sprintf("http://%s", addr)
	client := &http.Client{Transport: &http.Transport{}}
	defer client.CloseIdleConnections()

	resp := do(re, client, http.MethodPut, url+"/api/c1", "")
	re.Equal(http.StatusCreated, resp.StatusCode)
	resp = do(re, client, http.MethodPut, url+"/api/c1/k1", `{"a":1}`)
	re.Equal(http.StatusOK, resp.StatusCode)
	resp = do(re, client, http.MethodGet, url+"/api/c1/k1", "")
	re.Equal(http.StatusOK, resp.StatusCode)
	re.JSONEq(`{"a":1}`, readAll(re, resp))
	resp = do(re, client, http.MethodGet, url+"/status", "")
	re.Equal(http.StatusOK, resp.StatusCode)
	re.Contains(readAll(re, resp), `"name":"test-store"`)
	re.Equal(1, svr.Registry().Count())

	client.CloseIdleConnections()
	svr.Close()
	re.True(svr.IsClosed())
	re.Eventually(func() bool {
		return tempurl.Released(t, addr)
	}, 5*time.Second, 10*time.Millisecond)

	// close twice
	svr.Close()
}

func TestServer_CloseWithSubscriber(t *testing.T) {
	t.Parallel()
	re := require.New(t)

	svr := startServer(t, "test-store")
	url := fmt.Sprintf("http://%s", svr.Addr().String())
	client := &http.Client{Transport: &http.Transport{}}
	defer client.CloseIdleConnections()

	resp := do(re, client, http.MethodPut, url+"/api/c1", "")
	re.Equal(http.StatusCreated, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, url+"/api/c1/_subscribe", nil)
	re.NoError(err)
	stream, err := client.Do(req)
	re.NoError(err)
	defer stream.Body.Close()
	re.Equal(http.StatusOK, stream.StatusCode)
	re.Eventually(func() bool {
		return svr.hub.Count() == 1
	}, 5*time.Second, 10*time.Millisecond)

	resp = do(re, client, http.MethodPut, url+"/api/c1/k1", `"v1"`)
	re.Equal(http.StatusOK, resp.StatusCode)
	reader := bufio.NewReader(stream.Body)
	line, err := reader.ReadString('\n')
	re.NoError(err)
	re.Equal("event: put\n", line)

	// Close returns without waiting for the shutdown timeout
	start := time.Now()
	svr.Close()
	re.Less(time.Since(start), 5*time.Second)

	_, err = io.ReadAll(reader)
	re.NoError(err)
}

func TestServer_StartError(t *testing.T) {
	t.Parallel()
	re := require.New(t)

	svr := startServer(t, "test-store")
	defer svr.Close()

	cfg := newConfig(t, "test-store-2")
	cfg.HTTP.Addr = svr.Addr().String()
	svr2, err := NewServer(context.Background(), cfg, zap.NewNop())
	re.NoError(err)
	err = svr2.Start()
	re.ErrorContains(err, "listen on")
	re.True(svr2.IsClosed())
	svr2.Close()
}

func newConfig(tb testing.TB, name string) *config.Config {
	re := require.New(tb)

	cfg, err := config.NewConfig([]string{
		"--name=" + name,
		"--http-addr=" + tempurl.AllocAddr(tb),
		"--http-shutdown-timeout=5s",
		"--log-level=error",
	}, io.Discard)
	re.NoError(err)
	err = cfg.Adjust()
	re.NoError(err)
	err = cfg.Validate()
	re.NoError(err)
	return cfg
}

func startServer(tb testing.TB, name string) *Server {
	re := require.New(tb)

	svr, err := NewServer(context.Background(), newConfig(tb, name), zap.NewNop())
	re.NoError(err)
	err = svr.Start()
	re.NoError(err)
	re.False(svr.IsClosed())

	return svr
}

func do(re *require.Assertions, client *http.Client, method, url, body string) *http.Response {
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	re.NoError(err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	re.NoError(err)
	if method != http.MethodGet {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}
	return resp
}

func readAll(re *require.Assertions, resp *http.Response) string {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	re.NoError(err)
	return string(body)
}
