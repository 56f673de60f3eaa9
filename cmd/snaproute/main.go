package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rnltlabs/runicorn/internal/gpx"
	"github.com/rnltlabs/runicorn/internal/route"
	"github.com/rnltlabs/runicorn/internal/simplify"
)

func main() {
	var (
		inputFile  = flag.String("i", "", "Input GPX file with the drawn track")
		outputFile = flag.String("o", "", "Output GPX file (default: <input>_snapped.gpx)")
		tolerance  = flag.Float64("tolerance", simplify.DefaultTolerance, "Simplification tolerance in coordinate degrees")
		profile    = flag.String("profile", "foot", "Routing profile (foot, bike, car)")
		apiKey     = flag.String("api-key", "", "GraphHopper API key (default: GRAPHHOPPER_API_KEY env)")
		dryRun     = flag.Bool("dry-run", false, "Simplify only, show statistics without routing or writing")
		showStats  = flag.Bool("stats", false, "Show routing statistics")
		statsJSON  = flag.Bool("stats-json", false, "Output routing statistics as JSON")
		version    = flag.Bool("version", false, "Show version information")
	)

	flag.Usage = func() {
		fmt.Printf("snaproute - Snap drawn GPX tracks to real-world paths\n\n")
		fmt.Printf("usage: snaproute -i /path/to/drawn.gpx\n\n")
		fmt.Printf("examples:\n")
		fmt.Printf("  snaproute -i drawn.gpx\n")
		fmt.Printf("  snaproute -i drawn.gpx -profile bike -o route.gpx\n")
		fmt.Printf("  GRAPHHOPPER_API_KEY=... snaproute -i drawn.gpx -stats\n\n")
		fmt.Printf("options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *version {
		fmt.Println("snaproute v1.0.0 - drawn-track router")
		fmt.Println("https://github.com/rnltlabs/runicorn")
		os.Exit(0)
	}

	if *inputFile == "" {
		flag.Usage()
		os.Exit(2)
	}

	if *outputFile == "" {
		ext := filepath.Ext(*inputFile)
		base := strings.TrimSuffix(*inputFile, ext)
		*outputFile = base + "_snapped" + ext
	}

	key := *apiKey
	if key == "" {
		key = os.Getenv("GRAPHHOPPER_API_KEY")
	}

	fmt.Printf("📖 Reading drawn track: %s\n", *inputFile)
	drawn, err := gpx.ReadTrackFile(*inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading GPX file: %v\n", err)
		os.Exit(1)
	}
	if len(drawn) == 0 {
		fmt.Printf("❌ No GPS points found in file\n")
		os.Exit(1)
	}

	simplified := simplify.Path(drawn, *tolerance)
	fmt.Printf("📊 Drawn track: %d points, %d after simplification\n", len(drawn), len(simplified))

	if *dryRun {
		fmt.Printf("🔍 Dry run completed - no routing requests sent, no files written\n")
		os.Exit(0)
	}

	if key == "" {
		fmt.Fprintf(os.Stderr, "Error: no API key; set GRAPHHOPPER_API_KEY or pass -api-key\n")
		os.Exit(1)
	}

	router := route.NewGraphHopper(route.GraphHopperConfig{
		APIKey:  key,
		Profile: *profile,
	})

	opts := route.DefaultOptions()
	opts.Tolerance = *tolerance
	pipeline := route.New(router, opts, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("🗺️  Snapping to %s paths...\n", *profile)
	result := pipeline.Route(ctx, drawn, func(completed, total int) {
		fmt.Printf("   batch %d/%d\n", completed, total)
	})

	if ctx.Err() != nil {
		fmt.Fprintf(os.Stderr, "Interrupted: wrote nothing\n")
		os.Exit(1)
	}
	if len(result.Route) == 0 {
		fmt.Fprintf(os.Stderr, "Error: routing produced no points (%d batches failed)\n", result.FailedBatches)
		os.Exit(1)
	}

	if *showStats || *statsJSON {
		if *statsJSON {
			jsonData, err := json.MarshalIndent(result.Stats, "", "  ")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling stats: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(jsonData))
		} else {
			printStats(result)
		}
	}

	fmt.Printf("💾 Writing snapped route: %s\n", *outputFile)
	out, err := os.Create(*outputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		os.Exit(1)
	}
	if err := gpx.Export(out, result.Route, time.Now().UTC()); err != nil {
		out.Close()
		fmt.Fprintf(os.Stderr, "Error writing GPX file: %v\n", err)
		os.Exit(1)
	}
	if err := out.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing GPX file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Route snapped successfully!\n")
	fmt.Printf("   %d → %d points\n", len(drawn), len(result.Route))
	if result.FailedBatches > 0 {
		fmt.Printf("⚠️  %d batches failed and were skipped\n", result.FailedBatches)
	}
}

func printStats(result route.Result) {
	fmt.Printf("\n📊 Routing Statistics:\n")
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Printf("📏 Distance: %.2f km\n", result.Stats.Distance/1000)
	fmt.Printf("⛰️  Ascent: %.0f m, Descent: %.0f m\n", result.Stats.Ascend, result.Stats.Descend)
	fmt.Printf("📍 Route points: %d\n", len(result.Route))
	fmt.Printf("🔄 Failed batches: %d\n", result.FailedBatches)
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
}
