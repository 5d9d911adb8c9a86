package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"

	"lintang/greenwave/pkg/datastructure"
	"lintang/greenwave/pkg/engine/clustering"
	"lintang/greenwave/pkg/geodata"
	"lintang/greenwave/pkg/kv"

	"github.com/k0kubun/go-ansi"
	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
)

var (
	mapFile   = flag.String("f", "bengaluru.osm.pbf", "openstreetmap pbf extract yang berisi node highway=traffic_signals")
	cacheDir  = flag.String("cache", "signal-cache", "direktori pebble signal cache")
	res       = flag.Int("res", kv.DefaultResolution, "h3 resolution key cache")
	threshold = flag.Float64("cluster", 60, "clustering threshold (meter) untuk report junction")
	procs     = flag.Int("procs", 3, "jumlah goroutine decoder pbf")
	logLevel  = flag.String("log.level", "info", "log level")
)

func newBar(max int64, desc string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(max,
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()), //you should install "github.com/k0kubun/go-ansi"
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(15),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

func main() {
	flag.Parse()
	if level, err := logrus.ParseLevel(*logLevel); err == nil {
		logrus.SetLevel(level)
	}
	log := logrus.WithField("module", "signalindex")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	f, err := os.Open(*mapFile)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	// total node di pbf tidak diketahui di awal -> spinner
	bar := newBar(-1, "[cyan][1/3][reset] Scan traffic signal...")
	scanned := 0
	signals, err := geodata.ScanSignals(ctx, f, geodata.ScanOptions{
		Procs: *procs,
		OnNode: func() {
			scanned++
			if scanned%10000 == 0 {
				bar.Add(10000)
			}
		},
	})
	bar.Finish()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("\n%d osm nodes scanned, %d traffic signals found\n", scanned, len(signals))

	bar = newBar(1, "[cyan][2/3][reset] Clustering junction...")
	clusters := clustering.Cluster(signals, *threshold)
	bar.Add(1)

	sizes := lo.CountValuesBy(clusters, func(c datastructure.SignalCluster) int { return len(c.Members) })
	keys := lo.Keys(sizes)
	sort.Ints(keys)
	fmt.Printf("\n%d junctions (threshold %.0f m)\n", len(clusters), *threshold)
	for _, k := range keys {
		fmt.Printf("  %3d signal/junction: %d\n", k, sizes[k])
	}
	named := lo.CountBy(clusters, func(c datastructure.SignalCluster) bool { return c.Label != datastructure.UnnamedLabel })
	fmt.Printf("  named junctions: %d\n", named)

	cache, err := kv.OpenSignalCache(*cacheDir, *res, log)
	if err != nil {
		log.Fatal(err)
	}
	defer cache.Close()

	bar = newBar(1, "[cyan][3/3][reset] Simpan signal ke cache...")
	if err := cache.PutSignals(signals); err != nil {
		log.Fatal(err)
	}
	bar.Add(1)
	fmt.Printf("\nsignal cache ready at %s\n", *cacheDir)
}
