// Command cgrplan runs a single planning request, a K-route request, or the
// live loop against a contact plan loaded from CSV, fetched over HTTP, or
// synthesized on the fly.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel"
	stdouttrace "go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/trace"

	"github.com/asgard/cgr/internal/api"
	"github.com/asgard/cgr/internal/cgr"
	"github.com/asgard/cgr/internal/liveloop"
	"github.com/asgard/cgr/internal/planingest"
	"github.com/asgard/cgr/internal/planout"
	"github.com/asgard/cgr/internal/synthplan"
	"github.com/asgard/cgr/internal/utils"
	"github.com/asgard/cgr/pkg/bundle"
)

func main() {
	planFile := flag.String("plan", "", "path to a CSV contact plan")
	planURL := flag.String("plan-url", "", "URL to fetch a JSON contact plan from")
	demo := flag.Bool("demo", false, "use a synthetic demo plan instead of -plan/-plan-url")

	src := flag.Int("src", 0, "source node id")
	dst := flag.Int("dst", 1, "destination node id")
	t0 := flag.Float64("t0", 0, "request time")
	bundleBytes := flag.Float64("bundle-bytes", 5e7, "bundle size in bytes")
	payloadBytes := flag.Int("payload-bytes", 0, "if set, wrap a synthetic payload of this many bytes in a BPv7 bundle and derive -bundle-bytes from its estimated size (header estimate plus payload) instead")
	expiryRel := flag.Float64("expiry-rel", 0, "relative expiry, 0 for none")
	k := flag.Int("k", 0, "K for the capacity-consumption variant")
	kYen := flag.Int("k-yen", 0, "K for the diversification variant (takes precedence over -k)")

	serve := flag.Bool("serve", false, "run the HTTP planning API instead of a one-shot request")
	listenAddr := flag.String("listen", ":8080", "HTTP listen address when -serve is set")

	liveLoopMode := flag.Bool("live", false, "run the live loop instead of a one-shot request")
	configPath := flag.String("config", "", "YAML live-loop config file")

	flag.Parse()

	shutdownTracing := initTracing()
	defer shutdownTracing()

	plan, err := loadPlan(*planFile, *planURL, *demo)
	if err != nil {
		log.Fatalf("cgrplan: failed to load plan: %v", err)
	}
	log.Printf("cgrplan: loaded plan with %d contacts", len(plan))

	effectiveBundleBytes := *bundleBytes
	if *payloadBytes > 0 {
		effectiveBundleBytes = bundleRouteBytes(*src, *dst, *payloadBytes)
	}

	switch {
	case *serve:
		runServer(plan, *listenAddr)
	case *liveLoopMode:
		runLiveLoop(plan, *configPath)
	default:
		runOnce(plan, *src, *dst, *t0, effectiveBundleBytes, *expiryRel, *k, *kYen)
	}
}

// bundleRouteBytes wraps a synthetic payload in a BPv7 bundle addressed
// between the request's source and destination nodes, and returns its
// estimated size (Bundle.Size: a fixed header estimate plus EIDs and
// payload, not the length of its binary encoding) for use as
// RouteRequest.BundleBytes — giving the CLI's
// -payload-bytes flag a concrete bundle to size instead of a bare number.
func bundleRouteBytes(src, dst, payloadBytes int) float64 {
	b := bundle.NewBundle(nodeEID(src), nodeEID(dst), make([]byte, payloadBytes))
	log.Printf("cgrplan: sizing route request from %s (bundle_bytes=%.0f)", b, b.RouteBytes())
	return b.RouteBytes()
}

func nodeEID(node int) string {
	return fmt.Sprintf("dtn://node/%d", node)
}

func loadPlan(planFile, planURL string, demo bool) (cgr.Plan, error) {
	switch {
	case demo:
		return synthplan.Generate(synthplan.DefaultConfig()), nil
	case planURL != "":
		client := planingest.NewClient(planingest.DefaultConfig())
		return client.FetchPlan(context.Background(), planURL)
	case planFile != "":
		f, err := os.Open(planFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		plan, skipped, err := planingest.LoadPlan(f)
		if skipped > 0 {
			log.Printf("cgrplan: skipped %d malformed rows in %s", skipped, planFile)
		}
		return plan, err
	default:
		log.Println("cgrplan: no -plan/-plan-url/-demo given, falling back to a synthetic demo plan")
		return synthplan.Generate(synthplan.DefaultConfig()), nil
	}
}

func runOnce(plan cgr.Plan, src, dst int, t0, bundleBytes, expiryRel float64, k, kYen int) {
	idx := cgr.BuildNeighborIndex(plan)
	req := cgr.RouteRequest{Src: src, Dst: dst, T0: t0, BundleBytes: bundleBytes, ExpiryRel: expiryRel}

	var routes []cgr.Route
	var err error
	switch {
	case kYen > 0:
		routes, err = cgr.KYenRoutes(plan, idx, req, cgr.Filters{}, kYen)
	case k > 0:
		routes, err = cgr.KConsumeRoutes(plan, req, cgr.Filters{}, k)
	default:
		var rt cgr.Route
		rt, err = cgr.FindRoute(plan, idx, req, cgr.Filters{})
		routes = []cgr.Route{rt}
	}
	if err != nil {
		log.Fatalf("cgrplan: planning failed: %v", err)
	}

	if err := planout.WriteText(os.Stdout, routes, t0); err != nil {
		log.Fatalf("cgrplan: failed to write output: %v", err)
	}
}

func runServer(plan cgr.Plan, listenAddr string) {
	period := cgr.InferPeriod(plan)
	server := api.NewServer(plan, period)

	log.Printf("cgrplan: serving planning API on %s (period=%.0fs)", listenAddr, period)
	if err := http.ListenAndServe(listenAddr, server.Routes()); err != nil {
		log.Fatalf("cgrplan: HTTP server failed: %v", err)
	}
}

func runLiveLoop(plan cgr.Plan, configPath string) {
	cfg, err := liveloop.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("cgrplan: failed to load live-loop config: %v", err)
	}

	loop := liveloop.NewLoop(plan, cfg, utils.NewLogger())

	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("cgrplan: interrupt received, stopping live loop")
		loop.Stop()
		cancel()
	}()

	loop.Run(ctx)
}

func initTracing() func() {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		log.Printf("cgrplan: tracing disabled, failed to create exporter: %v", err)
		return func() {}
	}
	tp := trace.NewTracerProvider(trace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Printf("cgrplan: tracer shutdown error: %v", err)
		}
	}
}
