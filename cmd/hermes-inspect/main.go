package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/simpleton/hermes/pkg/vm"
)

// hermes-inspect exercises the object model against a demo object graph and
// dumps the observable state, for poking at shapes, caches and storage
// layouts from the command line.

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:           "hermes-inspect",
		Short:         "Inspect the object model on a demo object graph",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.AddCommand(snapshotCmd(), statsCmd(), configCmd())
	return cmd
}

func snapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Dump the demo objects as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := vm.NewRuntime()
			defer r.Shutdown()
			for _, o := range buildDemoGraph(r) {
				data, err := r.SnapshotJSON(o)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			}
			return nil
		},
	}
}

func statsCmd() *cobra.Command {
	var reads int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Run cached reads over the demo objects and report cache behavior",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := vm.NewRuntime()
			defer r.Shutdown()
			objects := buildDemoGraph(r)
			name := r.Intern("name")

			var site vm.PropInlineCache
			for i := 0; i < reads; i++ {
				for _, o := range objects {
					if _, err := r.GetNamedCached(o, name, vm.PropOpFlags{}, &site); err != nil {
						return err
					}
				}
			}

			stats := r.CacheStats()
			fmt.Fprintf(cmd.OutOrStdout(), "site state:   %s\n", site.State())
			fmt.Fprintf(cmd.OutOrStdout(), "hits:         %d\n", stats.TotalHits())
			fmt.Fprintf(cmd.OutOrStdout(), "misses:       %d\n", stats.TotalMisses())
			fmt.Fprintf(cmd.OutOrStdout(), "hit rate:     %.2f\n", stats.HitRate())
			fmt.Fprintf(cmd.OutOrStdout(), "shapes:       %d\n", vm.ShapeCount())
			fmt.Fprintf(cmd.OutOrStdout(), "allocations:  %d\n", r.Heap().Allocations())
			fmt.Fprintf(cmd.OutOrStdout(), "barriers:     %d\n", r.Heap().Barriers())
			r.LogCacheStats()
			return nil
		},
	}
	cmd.Flags().IntVar(&reads, "reads", 1000, "number of read rounds over the demo objects")
	return cmd
}

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective object model configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := vm.LoadConfig()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "transition fan-out threshold: %d\n", cfg.TransitionFanOutThreshold)
			fmt.Fprintf(cmd.OutOrStdout(), "initial property capacity:    %d\n", cfg.InitialPropertyCapacity)
			fmt.Fprintf(cmd.OutOrStdout(), "cache max entries:            %d\n", cfg.CacheMaxEntries)
			fmt.Fprintf(cmd.OutOrStdout(), "trace shapes:                 %v\n", cfg.TraceShapes)
			return nil
		},
	}
}

// buildDemoGraph creates a small mix of object kinds: plain objects sharing
// a shape, a dictionary-mode object, a dense array with a shadowing named
// property, and a sealed object.
func buildDemoGraph(r *vm.Runtime) []*vm.Object {
	name := r.Intern("name")
	count := r.Intern("count")

	proto := r.NewObject(nil)
	mustPut(r, proto, r.Intern("kind"), vm.StringValue("demo"))

	a := r.NewObject(proto)
	mustPut(r, a, name, vm.StringValue("alpha"))
	mustPut(r, a, count, vm.NumberValue(1))

	b := r.NewObject(proto)
	mustPut(r, b, name, vm.StringValue("beta"))
	mustPut(r, b, count, vm.NumberValue(2))

	dict := r.NewObject(proto)
	mustPut(r, dict, name, vm.StringValue("gamma"))
	mustPut(r, dict, r.Intern("temp"), vm.NumberValue(0))
	if _, err := r.DeleteNamed(dict, r.Intern("temp"), vm.PropOpFlags{}); err != nil {
		panic(err)
	}

	arr := r.NewDenseArray(proto, 4)
	for i := 0; i < 4; i++ {
		if _, err := r.PutComputed(arr, vm.NumberValue(float64(i)), vm.NumberValue(float64(i*10)), vm.PropOpFlags{}); err != nil {
			panic(err)
		}
	}
	mustPut(r, arr, name, vm.StringValue("delta"))

	sealed := r.NewObject(proto)
	mustPut(r, sealed, name, vm.StringValue("epsilon"))
	r.Seal(sealed)

	return []*vm.Object{a, b, dict, arr, sealed}
}

func mustPut(r *vm.Runtime, o *vm.Object, name vm.SymbolID, v vm.Value) {
	if _, err := r.PutNamed(o, name, v, vm.PropOpFlags{ThrowOnError: true}); err != nil {
		panic(err)
	}
}
