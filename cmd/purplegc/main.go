// Command purplegc drives the heap package outside of any embedding
// runtime: it allocates synthetic workloads and reports the collector's
// behavior, for tuning and for exercising the finalizer and metrics
// paths without a full language front end attached.
package main

import (
	"fmt"
	"math/rand"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"purplegc/pkg/heap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "purplegc",
		Short: "Drive the purplegc heap outside of a language runtime",
	}
	root.PersistentFlags().String("config", "", "config file (yaml/json/toml), overrides defaults")
	root.PersistentFlags().Int("n-size", 0, "initial node-count ceiling (0 = default)")
	root.PersistentFlags().Int("v-size", 0, "initial vector-cell ceiling (0 = default)")
	root.PersistentFlags().Bool("gc-info", false, "log a report after every collection")
	root.PersistentFlags().Bool("gc-torture", false, "force a collection before every allocation")
	_ = viper.BindPFlags(root.PersistentFlags())

	root.AddCommand(newRunCmd(), newStressCmd(), newGCCmd(), newProfileCmd(), newServeMetricsCmd())
	return root
}

func loadConfig(cmd *cobra.Command) heap.Config {
	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		_ = viper.ReadInConfig()
	}

	cfg := heap.DefaultConfig()
	if n := viper.GetInt("n-size"); n > 0 {
		cfg.InitNSize = n
	}
	if v := viper.GetInt("v-size"); v > 0 {
		cfg.InitVSize = v
	}
	cfg.GCInfo = viper.GetBool("gc-info")
	cfg.GCTorture = viper.GetBool("gc-torture")
	return cfg
}

func newHeap(cmd *cobra.Command) *heap.Heap {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return heap.NewHeap(loadConfig(cmd), logger)
}

// newRunCmd allocates a small, fixed workload of cons cells and a few
// vectors, then forces a full collection and prints occupancy.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [file]",
		Short: "Allocate a small fixed workload and report heap occupancy",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				// No evaluator is wired into this standalone harness; the
				// heap has no way to turn source text into allocations on
				// its own, so this is purely an acknowledgment hook for an
				// embedding runtime that wants to reuse this subcommand.
				fmt.Printf("no evaluator wired, ignoring %s\n", args[0])
			}
			h := newHeap(cmd)
			list := h.AllocList(1000)
			h.Protect(list)
			_ = h.AllocVector(heap.TagRealVector, 4096)
			_ = h.AllocVector(heap.TagCharString, 256)
			h.ForceFullCollection()
			fmt.Printf("nodes in use: %d / %d\n", h.NodesInUse(), h.NSize())
			fmt.Printf("vector cells in use: %d / %d\n", h.VCellsInUse(), h.VSize())
			return nil
		},
	}
}

// newStressCmd repeatedly allocates and drops cons cells and vectors
// of random size, relying entirely on the collector's own triggering
// to keep the process from exhausting memory.
func newStressCmd() *cobra.Command {
	var iterations int
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Churn allocations to exercise promotion, the write barrier, and sizing",
		RunE: func(cmd *cobra.Command, args []string) error {
			h := newHeap(cmd)
			rng := rand.New(rand.NewSource(1))

			var survivors []*heap.Node
			for i := 0; i < iterations; i++ {
				n := h.Cons(h.Nil(), h.Nil())
				if rng.Intn(10) == 0 {
					survivors = append(survivors, h.Protect(n))
				}
				if rng.Intn(500) == 0 {
					v := h.AllocVector(heap.TagRealVector, rng.Intn(10000))
					h.SetCar(n, v)
				}
				if len(survivors) > 200 {
					_ = h.Unprotect(1)
					survivors = survivors[:len(survivors)-1]
				}
			}
			fmt.Printf("survivors retained: %d\n", len(survivors))
			fmt.Printf("nodes in use: %d / %d\n", h.NodesInUse(), h.NSize())
			return nil
		},
	}
	cmd.Flags().IntVar(&iterations, "iterations", 200000, "allocation/drop cycles to run")
	return cmd
}

// newGCCmd builds a fresh heap holding a protected 100-cell list, turns
// on the textual report and forces one full collection.
func newGCCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gc",
		Short: "Force a full collection and print the textual report",
		RunE: func(cmd *cobra.Command, args []string) error {
			h := newHeap(cmd)
			h.GCInfo(true)
			h.Protect(h.AllocList(100))
			h.ForceFullCollection()
			fmt.Printf("nodes in use: %d\n", h.NodesInUse())
			return nil
		},
	}
}

// newProfileCmd dumps memory_profile() per-tag counts as a table.
func newProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Allocate a mixed workload and dump per-type live counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			h := newHeap(cmd)
			h.Protect(h.AllocList(500))
			h.Protect(h.NewSymbol("example"))
			h.Protect(h.AllocVector(heap.TagIntVector, 64))

			profile := h.MemoryProfile()
			for tag, n := range profile {
				fmt.Printf("%-12s %d\n", tag, n)
			}
			return nil
		},
	}
}

// newServeMetricsCmd mounts the heap's private prometheus registry on
// an HTTP listener for scraping during a long stress run.
func newServeMetricsCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve-metrics",
		Short: "Serve /metrics for the heap's private prometheus registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			h := newHeap(cmd)
			go func() {
				rng := rand.New(rand.NewSource(2))
				for {
					n := h.Cons(h.Nil(), h.Nil())
					_ = n
					if rng.Intn(1000) == 0 {
						h.Collect(0)
					}
				}
			}()

			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(h.Registry(), promhttp.HandlerOpts{}))
			fmt.Printf("serving metrics on %s/metrics\n", addr)
			return http.ListenAndServe(addr, mux)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":9090", "listen address")
	return cmd
}
