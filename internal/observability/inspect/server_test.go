package inspect

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"localnotify/internal/notification"
	"localnotify/internal/notifier"
	"localnotify/internal/platform/memory"
	"localnotify/internal/schedule"
	logx "localnotify/pkg/logx"
)

type fakeNotifier struct{ pending []notification.Request }

func (f *fakeNotifier) ListPending(context.Context) ([]notification.Request, error) {
	return f.pending, nil
}

func (f *fakeNotifier) CheckPermissions(context.Context) (notification.PermissionStatus, error) {
	return notification.PermissionStatus{Display: notification.PermissionGranted}, nil
}

func (f *fakeNotifier) Snapshot() []notifier.HistoryItem {
	return []notifier.HistoryItem{{ID: 1, Title: "Hi"}}
}

type fakeDeliveries struct{}

func (fakeDeliveries) History() []memory.HistoryItem { return nil }

func startInspector(t *testing.T, cfg Config) *Service {
	t.Helper()
	n := &fakeNotifier{pending: []notification.Request{{
		ID:       3,
		Title:    "Later",
		Body:     "b",
		Schedule: schedule.Once(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)),
	}}}
	s := New(cfg, n, fakeDeliveries{}, logx.Nop())
	s.Start(context.Background())
	t.Cleanup(func() { s.Stop(context.Background()) })
	require.Eventually(t, func() bool { return s.Addr() != "" }, 3*time.Second, 10*time.Millisecond)
	return s
}

func get(t *testing.T, url string, header map[string]string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestPendingAndHistory(t *testing.T) {
	s := startInspector(t, Config{Enabled: true, Addr: "127.0.0.1:0"})
	base := "http://" + s.Addr()

	code, body := get(t, base+"/pending", nil)
	require.Equal(t, http.StatusOK, code)
	var reqs []notification.Request
	require.NoError(t, json.Unmarshal(body, &reqs))
	require.Len(t, reqs, 1)
	require.Equal(t, 3, reqs[0].ID)

	code, body = get(t, base+"/history", nil)
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, string(body), `"submitted"`)

	code, body = get(t, base+"/permissions", nil)
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, string(body), "granted")

	code, _ = get(t, base+"/debug/pprof/", nil)
	require.Equal(t, http.StatusNotFound, code)
}

func TestTokenRequired(t *testing.T) {
	s := startInspector(t, Config{Enabled: true, Addr: "127.0.0.1:0", Token: "s3cret", Pprof: true})
	base := "http://" + s.Addr()

	code, _ := get(t, base+"/healthz", nil)
	require.Equal(t, http.StatusUnauthorized, code)

	code, _ = get(t, base+"/healthz?token=nope", nil)
	require.Equal(t, http.StatusUnauthorized, code)

	code, _ = get(t, base+"/healthz?token=s3cret", nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = get(t, base+"/debug/pprof/", map[string]string{"Authorization": "Bearer s3cret"})
	require.Equal(t, http.StatusOK, code)
}

func TestReconfigureDisables(t *testing.T) {
	s := startInspector(t, Config{Enabled: true, Addr: "127.0.0.1:0"})
	s.Reconfigure(context.Background(), Config{Enabled: false})
	require.Empty(t, s.Addr())
}

func TestInsecureBindRefused(t *testing.T) {
	s := New(Config{Enabled: true, Addr: "0.0.0.0:0"}, &fakeNotifier{}, fakeDeliveries{}, logx.Nop())
	s.Start(context.Background())
	defer s.Stop(context.Background())
	time.Sleep(100 * time.Millisecond)
	require.Empty(t, s.Addr())
}

func TestIsLoopbackAddr(t *testing.T) {
	t.Parallel()
	require.True(t, isLoopbackAddr("127.0.0.1:80"))
	require.True(t, isLoopbackAddr("localhost:80"))
	require.True(t, isLoopbackAddr("[::1]:80"))
	require.False(t, isLoopbackAddr(":80"))
	require.False(t, isLoopbackAddr("10.0.0.1:80"))
	require.False(t, isLoopbackAddr("nonsense"))
}
