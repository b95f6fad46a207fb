// Package pprof exposes the runtime profiles on the calculator's router.
package pprof

import (
	"net/http"
	netpprof "net/http/pprof"
	"strings"

	"github.com/julienschmidt/httprouter"
)

// Prefix is where the profiles are mounted
const Prefix = "/debug/pprof/"

// Register mounts the profile handlers under Prefix. httprouter does not let
// a catch-all share a segment with static routes, so one route dispatches.
func Register(router *httprouter.Router) {
	router.GET(Prefix+"*item", serve)
	router.POST(Prefix+"symbol", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		netpprof.Symbol(w, r)
	})
}

func serve(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	switch strings.TrimPrefix(ps.ByName("item"), "/") {
	case "cmdline":
		netpprof.Cmdline(w, r)
	case "profile":
		netpprof.Profile(w, r)
	case "symbol":
		netpprof.Symbol(w, r)
	case "trace":
		netpprof.Trace(w, r)
	default:
		// Index serves both the listing and named profiles such as heap
		netpprof.Index(w, r)
	}
}
