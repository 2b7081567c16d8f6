package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// HTTPClientRow is the per-client payload for GET /api/clients, per
// spec.md §6.
type HTTPClientRow struct {
	ID                       uint64 `json:"id"`
	IP                       string `json:"ip"`
	Port                     string `json:"port"`
	DisplayName              string `json:"display_name"`
	MessagesSent             uint64 `json:"messages_sent"`
	MessagesReceived         uint64 `json:"messages_received"`
	ClientProvidedID         string `json:"client_provided_id"`
	ClientProvidedDisplayName string `json:"client_provided_display_name"`
}

// HTTPStats is the GET /api/stats payload, per spec.md §6: "queue
// depths, write-time statistics (max/median/mean/stdev), rates."
type HTTPStats struct {
	QueueDepths    map[uint64]int `json:"queue_depths"`
	WriteTimeMaxMs float64        `json:"write_time_max_ms"`
	WriteTimeMedMs float64        `json:"write_time_median_ms"`
	WriteTimeMeanMs float64       `json:"write_time_mean_ms"`
	WriteTimeStdDevMs float64     `json:"write_time_stddev_ms"`
	LinesInPerSec  float64        `json:"lines_in_per_sec"`
	LinesOutPerSec float64        `json:"lines_out_per_sec"`
}

// RouterAPI is the set of operations the HTTP surface needs from the
// core router. Keeping it as a narrow interface (rather than passing
// *Router directly) lets httpapi_test.go exercise routing and payload
// shape with a fake, matching spec.md §9's "HTTP handlers acquire
// [router state] via a thread-safe accessor that snapshots at entry".
type RouterAPI interface {
	Stats() HTTPStats
	ClientRows() []HTTPClientRow
	DisconnectClient(id uint64) bool
	RouterInfoSnapshot() map[string]routerInfoEntry
	SharedInfoSnapshot() map[string]SharedInfo
	Filters() FilterFlags
	SetElevationFilter(bool)
	SetTrafficFilter(bool)
	Blocklist() []string
	BlockAdd(string)
	BlockRemove(string)
	UpstreamTarget() (UpstreamConfig, bool)
	SetUpstreamTarget(host string, port int, password string) error
	VPilotPrint(message string) error
}

// HTTPAPI implements spec.md §6's REST surface over api. Routes are
// registered on a plain http.ServeMux, per SPEC_FULL.md's decision to
// not pull in a router framework the rest of the pack never
// exercises.
type HTTPAPI struct {
	api RouterAPI
	mux *http.ServeMux
}

func NewHTTPAPI(api RouterAPI) *HTTPAPI {
	h := &HTTPAPI{api: api, mux: http.NewServeMux()}
	h.routes()
	return h
}

func (h *HTTPAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) { h.mux.ServeHTTP(w, r) }

func (h *HTTPAPI) routes() {
	h.mux.HandleFunc("/api/stats", h.handleStats)
	h.mux.HandleFunc("/api/clients", h.handleClients)
	h.mux.HandleFunc("/api/disconnect", h.handleDisconnect)
	h.mux.HandleFunc("/api/routerinfo", h.handleRouterInfo)
	h.mux.HandleFunc("/api/sharedinfo", h.handleSharedInfo)
	h.mux.HandleFunc("/api/upstream", h.handleUpstream)
	h.mux.HandleFunc("/api/filter/elevation/enable", h.handleFilter(filterElevation, true))
	h.mux.HandleFunc("/api/filter/elevation/disable", h.handleFilter(filterElevation, false))
	h.mux.HandleFunc("/api/filter/traffic/enable", h.handleFilter(filterTraffic, true))
	h.mux.HandleFunc("/api/filter/traffic/disable", h.handleFilter(filterTraffic, false))
	h.mux.HandleFunc("/api/blocklist", h.handleBlocklist)
	h.mux.HandleFunc("/api/blocklist/add", h.handleBlocklistMutate(true))
	h.mux.HandleFunc("/api/blocklist/remove", h.handleBlocklistMutate(false))
	h.mux.HandleFunc("/api/vpilotprint/message", h.handleVPilotPrint)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (h *HTTPAPI) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.api.Stats())
}

func (h *HTTPAPI) handleClients(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.api.ClientRows())
}

func (h *HTTPAPI) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	idStr := r.FormValue("client_id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid client_id %q", idStr), http.StatusBadRequest)
		return
	}
	if !h.api.DisconnectClient(id) {
		http.Error(w, "no such client", http.StatusNotFound)
		return
	}
	fmt.Fprintf(w, "disconnected %d", id)
}

func (h *HTTPAPI) handleRouterInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.api.RouterInfoSnapshot())
}

func (h *HTTPAPI) handleSharedInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.api.SharedInfoSnapshot())
}

func (h *HTTPAPI) handleUpstream(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		port, err := strconv.Atoi(r.FormValue("port"))
		if err != nil {
			http.Error(w, "invalid port", http.StatusBadRequest)
			return
		}
		if err := h.api.SetUpstreamTarget(r.FormValue("host"), port, r.FormValue("password")); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	target, connected := h.api.UpstreamTarget()
	writeJSON(w, struct {
		Host      string `json:"host"`
		Port      int    `json:"port"`
		Connected bool   `json:"connected"`
	}{target.Host, target.Port, connected})
}

type filterKind int

const (
	filterElevation filterKind = iota
	filterTraffic
)

func (h *HTTPAPI) handleFilter(kind filterKind, on bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch kind {
		case filterElevation:
			h.api.SetElevationFilter(on)
		case filterTraffic:
			h.api.SetTrafficFilter(on)
		}
		writeJSON(w, h.api.Filters())
	}
}

func (h *HTTPAPI) handleBlocklist(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.api.Blocklist())
}

func (h *HTTPAPI) handleBlocklistMutate(add bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		ip := r.FormValue("ip")
		if ip == "" {
			http.Error(w, "missing ip", http.StatusBadRequest)
			return
		}
		if add {
			h.api.BlockAdd(ip)
		} else {
			h.api.BlockRemove(ip)
		}
		writeJSON(w, h.api.Blocklist())
	}
}

func (h *HTTPAPI) handleVPilotPrint(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	msg := r.FormValue("message")
	if err := h.api.VPilotPrint(msg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fmt.Fprint(w, "ok")
}
