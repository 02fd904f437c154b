// Package planout renders planning results for collaborators: JSON matching
// the planning response shape of spec §6, or a one-line-per-route text table
// for terminal use.
package planout

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/asgard/cgr/internal/cgr"
)

// routeJSON mirrors cgr.Route with six-decimal-place numeric formatting,
// following the private-mirror-struct pattern used for bundle JSON
// serialization.
type routeJSON struct {
	Found     bool    `json:"found"`
	ETA       string  `json:"eta,omitempty"`
	Latency   string  `json:"latency,omitempty"`
	Hops      int     `json:"hops"`
	ContactID []int   `json:"contact_ids"`
}

// RouteJSON marshals a single route as the planning response object.
func RouteJSON(rt cgr.Route, t0 float64) ([]byte, error) {
	return json.Marshal(toRouteJSON(rt, t0))
}

// RoutesJSON marshals a list of routes as the multi-route planning
// response object: `{found, routes: [...]}`. found is true iff at least one
// route was found.
func RoutesJSON(routes []cgr.Route, t0 float64) ([]byte, error) {
	out := struct {
		Found  bool        `json:"found"`
		Routes []routeJSON `json:"routes"`
	}{
		Routes: make([]routeJSON, len(routes)),
	}
	for i, rt := range routes {
		out.Routes[i] = toRouteJSON(rt, t0)
		if rt.Found {
			out.Found = true
		}
	}
	return json.Marshal(out)
}

func toRouteJSON(rt cgr.Route, t0 float64) routeJSON {
	if !rt.Found {
		return routeJSON{Found: false, ContactID: []int{}}
	}
	return routeJSON{
		Found:     true,
		ETA:       formatSix(rt.ETA),
		Latency:   formatSix(rt.Latency(t0)),
		Hops:      rt.Hops,
		ContactID: rt.ContactID,
	}
}

func formatSix(v float64) string {
	return fmt.Sprintf("%.6f", v)
}

// WriteText renders a list of routes as a compact one-line-per-route table;
// each line lists the route's contact ids in path order.
func WriteText(w io.Writer, routes []cgr.Route, t0 float64) error {
	for i, rt := range routes {
		if !rt.Found {
			if _, err := fmt.Fprintf(w, "route %d: not found\n", i); err != nil {
				return err
			}
			continue
		}
		ids := make([]string, len(rt.ContactID))
		for j, id := range rt.ContactID {
			ids[j] = fmt.Sprintf("%d", id)
		}
		_, err := fmt.Fprintf(w, "route %d: hops=%d eta=%.6f latency=%.6f path=[%s]\n",
			i, rt.Hops, rt.ETA, rt.Latency(t0), strings.Join(ids, ","))
		if err != nil {
			return err
		}
	}
	return nil
}
