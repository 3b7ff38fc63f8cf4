package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/m93a/sklep/store"
)

var testRepeats = flag.Int("repeats", 5, "runs per config, best time wins")

func main() {
	flag.Parse()

	log.Print("Starting layered store benchmark, please wait...")
	defer log.Print("Finished layered store benchmark")

	configs := []layerTestConfig{
		{
			name:        "shallow wide",
			width:       100,
			totalLayers: 5,
			nSources:    2,
			iterations:  5000,
		},
		{
			name:        "narrow deep",
			width:       5,
			totalLayers: 100,
			nSources:    2,
			iterations:  2000,
		},
		{
			name:        "dense",
			width:       50,
			totalLayers: 10,
			nSources:    4,
			iterations:  2000,
		},
		{
			name:        "large web app",
			width:       500,
			totalLayers: 12,
			nSources:    3,
			iterations:  500,
		},
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{
		"engine", "size", "nSources", "nTimes", "test", "time", "updateRate",
	})

	for _, cfg := range configs {
		log.Printf("Running '%s' config", cfg.name)

		best := results{duration: time.Hour}
		for i := 0; i < *testRepeats; i++ {
			g := makeGraph(cfg)
			start := time.Now()
			sum, count := runGraph(g, cfg.iterations)
			duration := time.Since(start)
			g.teardown()

			if duration < best.duration {
				best = results{sum: sum, count: count, duration: duration}
			}
		}

		updateRate := float64(best.count) / (float64(best.duration) / float64(time.Millisecond))

		table.Append([]string{
			"sklep",
			fmt.Sprintf("%dx%d", cfg.width, cfg.totalLayers),
			fmt.Sprint(cfg.nSources),
			humanize.Comma(int64(cfg.iterations)),
			cfg.name,
			fmt.Sprint(best.duration),
			humanize.Comma(int64(updateRate)),
		})
	}
	table.Render()
}

type layerTestConfig struct {
	name        string // friendly name for the test, should be unique
	width       int    // cells per layer
	totalLayers int    // depth of the graph
	nSources    int    // sources per derived cell
	iterations  int    // Set waves to drive
}

type results struct {
	sum      int
	count    int64
	duration time.Duration
}

type graph struct {
	sources []*store.Writable[int]
	bottom  []store.Readable[int]
	counter *int64
	unsubs  []store.Unsubscriber
}

func (g *graph) teardown() {
	for _, unsub := range g.unsubs {
		unsub()
	}
}

// makeGraph builds width writables and stacks totalLayers of derived
// cells on top, each combining nSources cells of the layer below
// through the canonical config. The bottom layer gets listeners so the
// whole graph stays active and counts every notification.
func makeGraph(cfg layerTestConfig) *graph {
	g := &graph{counter: new(int64)}

	prev := make([]store.Readable[int], cfg.width)
	for i := 0; i < cfg.width; i++ {
		src := store.NewWritable(i)
		g.sources = append(g.sources, src)
		prev[i] = src
	}

	for layer := 1; layer < cfg.totalLayers; layer++ {
		next := make([]store.Readable[int], cfg.width)
		for i := 0; i < cfg.width; i++ {
			sources := make([]store.Readable[any], cfg.nSources)
			for s := 0; s < cfg.nSources; s++ {
				sources[s] = store.AsAny(prev[(i+s)%cfg.width])
			}
			counter := g.counter
			next[i] = store.NewDerived(store.DerivedConfig[int]{
				Sources: sources,
				Update: func(values []any, set func(int) int, _ int, _ []any) store.Cleanup {
					(*counter)++
					sum := 0
					for _, v := range values {
						sum += v.(int)
					}
					set(sum)
					return nil
				},
			})
		}
		prev = next
	}

	g.bottom = prev
	for _, cell := range g.bottom {
		g.unsubs = append(g.unsubs, cell.Listen(func(int, int) {}))
	}
	return g
}

func runGraph(g *graph, iterations int) (sum int, count int64) {
	for i := 0; i < iterations; i++ {
		src := g.sources[i%len(g.sources)]
		src.Set(src.Get() + 1)
	}
	for _, cell := range g.bottom {
		v, err := store.Get[int](cell)
		if err != nil {
			log.Fatal(err)
		}
		sum += v
	}
	return sum, *g.counter
}
