package bridge

import (
	"encoding/json"
	"net/http"
)

// AdminHandler 管理与监控接口
// GET  /admin/config  返回当前开关
// POST /admin/config  以 JSON 载荷更新部分字段，例如 {"enabled":false}
// GET  /metrics       运行指标
// GET  /healthz       发布端处于 Bound 时返回 ok
func AdminHandler(d *Driver, m *Metrics, pub *Publisher) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/config", func(w http.ResponseWriter, r *http.Request) {
		handleAdminConfig(d, w, r)
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"state":       pub.State().String(),
			"subscribers": pub.Subscribers(),
			"metrics":     m.Snapshot(),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if !pub.IsBound() {
			http.Error(w, pub.State().String(), http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func handleAdminConfig(d *Driver, w http.ResponseWriter, r *http.Request) {
	type cfg struct {
		Enabled *bool `json:"enabled,omitempty"`
	}

	switch r.Method {
	case http.MethodGet:
		on := d.Enabled()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(cfg{Enabled: &on})
	case http.MethodPost:
		var body cfg
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if body.Enabled != nil {
			d.SetEnabled(*body.Enabled)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
		Log.Infof("config updated: enabled=%v", d.Enabled())
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
