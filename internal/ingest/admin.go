package ingest

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"

	"tailscale.com/tsweb"
)

//go:embed templates/*
var adminTemplateFS embed.FS

var statusTemplate = template.Must(template.ParseFS(adminTemplateFS, "templates/status.html.tmpl"))

// AttachAdminRoutes attaches diagnostics under /debug/ on mux. tsweb
// restricts these to loopback and tailnet peers.
func (s *Server) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	debug.Handle("targets", "latest target batch and live vision connections", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := bytes.NewBuffer(nil)
		if err := statusTemplate.Execute(buf, s.Status()); err != nil {
			http.Error(w, "Failed to render template", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(buf.Bytes())
	}))

	debug.HandleSilent("targets.json", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(s.Status()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}))
}
