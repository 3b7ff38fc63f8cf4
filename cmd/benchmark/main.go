package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v3"

	"github.com/m93a/sklep/store"
)

const (
	wavesKey = "waves"
	widthKey = "width"
	depthKey = "depth"
)

func main() {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		TimeFormat: time.Kitchen,
	})))

	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Measure propagation latency of the store engine",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  wavesKey,
				Usage: "Number of Set waves to drive per scenario",
				Value: 10_000,
			},
			&cli.IntFlag{
				Name:  widthKey,
				Usage: "Fan-out width for the wide scenario",
				Value: 100,
			},
			&cli.IntFlag{
				Name:  depthKey,
				Usage: "Chain depth for the deep scenario",
				Value: 100,
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("benchmark failed", "err", err)
		os.Exit(1)
	}
}

// scenarioResult is one rendered table row: latency percentiles over
// the waves plus a digest of every value the sink observed, so two
// runs can be compared for identical propagation behavior.
type scenarioResult struct {
	name          string
	waves         int
	notifications int64
	calc          *tachymeter.Metrics
	digest        uint64
}

func run(ctx context.Context, cmd *cli.Command) error {
	waves := int(cmd.Int(wavesKey))
	width := int(cmd.Int(widthKey))
	depth := int(cmd.Int(depthKey))

	slog.Info("starting benchmark",
		"waves", humanize.Comma(int64(waves)),
		"width", width,
		"depth", depth,
	)

	results := []scenarioResult{
		runDiamond(waves),
		runFanOut(waves, width),
		runChain(waves, depth),
	}

	tbl := table.NewWriter()
	tbl.SetTitle("sklep store")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"scenario", "waves", "notifications", "avg", "p75", "p99", "max", "digest"})
	for _, r := range results {
		tbl.AppendRows([]table.Row{{
			r.name,
			humanize.Comma(int64(r.waves)),
			humanize.Comma(r.notifications),
			r.calc.Time.Avg,
			r.calc.Time.P75,
			r.calc.Time.P99,
			r.calc.Time.Max,
			fmt.Sprintf("%016x", r.digest),
		}})
	}
	tbl.Render()
	return nil
}

// runDiamond drives S through A=f(S), B=g(S), C=h(A,B). The sink on C
// must fire exactly once per wave; more would be a glitch, fewer a
// dropped update.
func runDiamond(waves int) scenarioResult {
	src := store.NewWritable(0)
	a := store.Derive[int, int](src, func(x int) int { return x + 1 })
	b := store.Derive[int, int](src, func(x int) int { return x * 2 })
	c := store.Derive2[int, int, int](a, b, func(x, y int) int { return x + y })

	digest := xxhash.New()
	var notifications int64
	unsub := c.Listen(func(v, _ int) {
		notifications++
		writeInt(digest, v)
	})
	defer unsub()

	tach := tachymeter.New(&tachymeter.Config{Size: waves})
	for i := 1; i <= waves; i++ {
		start := time.Now()
		src.Set(i)
		tach.AddTime(time.Since(start))
	}

	if notifications != int64(waves) {
		slog.Warn("diamond sink fired off-count", "want", waves, "got", notifications)
	}

	return scenarioResult{
		name:          "diamond",
		waves:         waves,
		notifications: notifications,
		calc:          tach.Calc(),
		digest:        digest.Sum64(),
	}
}

// runFanOut drives one cell observed by width subscribers.
func runFanOut(waves, width int) scenarioResult {
	src := store.NewWritable(0)

	digest := xxhash.New()
	var notifications int64
	unsubs := make([]store.Unsubscriber, 0, width)
	for i := 0; i < width; i++ {
		unsubs = append(unsubs, src.Listen(func(v, _ int) {
			notifications++
			writeInt(digest, v)
		}))
	}
	defer func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}()

	tach := tachymeter.New(&tachymeter.Config{Size: waves})
	for i := 1; i <= waves; i++ {
		start := time.Now()
		src.Set(i)
		tach.AddTime(time.Since(start))
	}

	return scenarioResult{
		name:          fmt.Sprintf("fan-out %d", width),
		waves:         waves,
		notifications: notifications,
		calc:          tach.Calc(),
		digest:        digest.Sum64(),
	}
}

// runChain drives a linear chain of depth derived cells.
func runChain(waves, depth int) scenarioResult {
	src := store.NewWritable(0)

	var last store.Readable[int] = src
	for i := 0; i < depth; i++ {
		last = store.Derive[int, int](last, func(x int) int { return x + 1 })
	}

	digest := xxhash.New()
	var notifications int64
	unsub := last.Listen(func(v, _ int) {
		notifications++
		writeInt(digest, v)
	})
	defer unsub()

	tach := tachymeter.New(&tachymeter.Config{Size: waves})
	for i := 1; i <= waves; i++ {
		start := time.Now()
		src.Set(i)
		tach.AddTime(time.Since(start))
	}

	return scenarioResult{
		name:          fmt.Sprintf("chain %d", depth),
		waves:         waves,
		notifications: notifications,
		calc:          tach.Calc(),
		digest:        digest.Sum64(),
	}
}

func writeInt(d *xxhash.Digest, v int) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	d.Write(buf[:])
}
