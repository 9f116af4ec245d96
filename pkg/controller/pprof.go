package controller

import (
	"net/http"
	"net/http/pprof"
)

// PprofPrefix is the path net/http/pprof expects its handlers to be served under.
const PprofPrefix = "/debug/pprof/"

// PprofMux returns an http.ServeMux with net/http/pprof handlers registered
// under PprofPrefix. Named profiles (heap, goroutine, ...) are served by the
// index handler. Mount it at PprofPrefix in the main HTTP server.
func PprofMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc(PprofPrefix, pprof.Index)
	mux.HandleFunc(PprofPrefix+"cmdline", pprof.Cmdline)
	mux.HandleFunc(PprofPrefix+"profile", pprof.Profile)
	mux.HandleFunc(PprofPrefix+"symbol", pprof.Symbol)
	mux.HandleFunc(PprofPrefix+"trace", pprof.Trace)

	return mux
}
