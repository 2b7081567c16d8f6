package router

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeRouterAPI struct {
	filters    FilterFlags
	blocklist  []string
	upstream   UpstreamConfig
	connected  bool
	disconnected uint64
	vpilotMsg  string
}

func (f *fakeRouterAPI) Stats() HTTPStats { return HTTPStats{QueueDepths: map[uint64]int{1: 3}} }
func (f *fakeRouterAPI) ClientRows() []HTTPClientRow {
	return []HTTPClientRow{{ID: 1, DisplayName: "pilot"}}
}
func (f *fakeRouterAPI) DisconnectClient(id uint64) bool {
	f.disconnected = id
	return id == 1
}
func (f *fakeRouterAPI) RouterInfoSnapshot() map[string]routerInfoEntry { return map[string]routerInfoEntry{} }
func (f *fakeRouterAPI) SharedInfoSnapshot() map[string]SharedInfo      { return map[string]SharedInfo{} }
func (f *fakeRouterAPI) Filters() FilterFlags                          { return f.filters }
func (f *fakeRouterAPI) SetElevationFilter(on bool)                    { f.filters.Elevation = on }
func (f *fakeRouterAPI) SetTrafficFilter(on bool)                      { f.filters.Traffic = on }
func (f *fakeRouterAPI) Blocklist() []string                          { return f.blocklist }
func (f *fakeRouterAPI) BlockAdd(ip string)                           { f.blocklist = append(f.blocklist, ip) }
func (f *fakeRouterAPI) BlockRemove(ip string) {
	out := f.blocklist[:0]
	for _, b := range f.blocklist {
		if b != ip {
			out = append(out, b)
		}
	}
	f.blocklist = out
}
func (f *fakeRouterAPI) UpstreamTarget() (UpstreamConfig, bool) { return f.upstream, f.connected }
func (f *fakeRouterAPI) SetUpstreamTarget(host string, port int, password string) error {
	f.upstream = UpstreamConfig{Host: host, Port: port, Password: password}
	return nil
}
func (f *fakeRouterAPI) VPilotPrint(message string) error {
	f.vpilotMsg = message
	return nil
}

func TestHTTPAPIClients(t *testing.T) {
	api := &fakeRouterAPI{}
	h := NewHTTPAPI(api)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/clients", nil))
	require.Equal(t, 200, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "pilot"))
}

func TestHTTPAPIDisconnect(t *testing.T) {
	api := &fakeRouterAPI{}
	h := NewHTTPAPI(api)
	rec := httptest.NewRecorder()
	form := url.Values{"client_id": {"1"}}
	req := httptest.NewRequest(http.MethodPost, "/api/disconnect", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	h.ServeHTTP(rec, req)
	require.Equal(t, 200, rec.Code)
	require.Equal(t, uint64(1), api.disconnected)
}

func TestHTTPAPIFilterToggleTwiceReturnsToInitialState(t *testing.T) {
	api := &fakeRouterAPI{filters: FilterFlags{Elevation: false}}
	h := NewHTTPAPI(api)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/filter/elevation/enable", nil))
	require.True(t, api.filters.Elevation)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/filter/elevation/disable", nil))
	require.False(t, api.filters.Elevation)
}

func TestHTTPAPIBlocklistAddRemove(t *testing.T) {
	api := &fakeRouterAPI{}
	h := NewHTTPAPI(api)

	rec := httptest.NewRecorder()
	form := url.Values{"ip": {"1.2.3.4"}}
	req := httptest.NewRequest(http.MethodPost, "/api/blocklist/add", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	h.ServeHTTP(rec, req)
	require.Contains(t, api.blocklist, "1.2.3.4")

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/blocklist/remove", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	h.ServeHTTP(rec, req)
	require.NotContains(t, api.blocklist, "1.2.3.4")
}

func TestHTTPAPIUpstreamSwitchover(t *testing.T) {
	api := &fakeRouterAPI{upstream: UpstreamConfig{Host: "old", Port: 1}}
	h := NewHTTPAPI(api)
	rec := httptest.NewRecorder()
	form := url.Values{"host": {"localhost"}, "port": {"20748"}, "password": {""}}
	req := httptest.NewRequest(http.MethodPost, "/api/upstream", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	h.ServeHTTP(rec, req)
	require.Equal(t, "localhost", api.upstream.Host)
	require.Equal(t, 20748, api.upstream.Port)
}
