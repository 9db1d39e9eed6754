package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"game-assets/internal/assetcache"
	"game-assets/internal/config"
	"game-assets/internal/export"
	"game-assets/internal/logging"
	"game-assets/internal/manager"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	configFile string
	root       string
	dirs       []string
	recursive  bool
	workers    int
	logLevel   string
	exportDir  string
	exportSize int
)

var rootCmd = &cobra.Command{
	Use:   "assetinspect [path...]",
	Short: "Load game assets through the asset cache and report what it holds.",
	Long: `assetinspect preloads texture, sound and font directories through the
asset cache, resolves any paths given as arguments, and prints per-kind
statistics. Paths that fail to decode are reported with the fallback that
replaced them. With --export, every cached texture is written as a WebP
thumbnail next to a manifest.json.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.OutOrStdout(), args)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "path to a YAML config file")
	rootCmd.Flags().StringVar(&root, "root", "", "directory asset paths are resolved in (default: as given)")
	rootCmd.Flags().StringSliceVarP(&dirs, "dir", "d", nil, "directory to preload into every cache (repeatable)")
	rootCmd.Flags().BoolVarP(&recursive, "recursive", "r", true, "preload subdirectories too")
	rootCmd.Flags().IntVarP(&workers, "workers", "w", 0, "decode workers (default: NumCPU)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level (default: info)")
	rootCmd.Flags().StringVar(&exportDir, "export", "", "write texture thumbnails to this directory")
	rootCmd.Flags().IntVar(&exportSize, "size", 0, "longest thumbnail side in pixels (default: 128)")
}

func run(out io.Writer, paths []string) error {
	var cfg config.Config
	if configFile != "" {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return err
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		Root:       root,
		Workers:    workers,
		LogLevel:   logLevel,
		ExportDir:  exportDir,
		ExportSize: exportSize,
	})
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := logging.Init(cfg.LogLevel, os.Stderr); err != nil {
		return err
	}

	var substitutions []string
	m := manager.New(cfg, manager.WithSubstitutionHook(func(kind string, s assetcache.Substitution) {
		line := fmt.Sprintf("%s %s -> %s (%v)", kind, s.Path, s.Fallback, s.Err)
		if s.FallbackErr != nil {
			line = fmt.Sprintf("%s %s: fallback %s failed too (%v)", kind, s.Path, s.Fallback, s.FallbackErr)
		}
		substitutions = append(substitutions, line)
	}))

	start := time.Now()

	reports, err := m.PreloadConfigured()
	if err != nil {
		return err
	}
	for _, d := range dirs {
		r, err := m.PreloadAll(d, recursive)
		if err != nil {
			return err
		}
		reports = append(reports, r...)
	}

	for _, p := range paths {
		if _, err := m.Resolve(p); err != nil {
			fmt.Fprintf(out, "Skipped %s: %v\n", p, err)
		}
	}

	fmt.Fprintf(out, "Loaded in %.2fs\n", time.Since(start).Seconds())
	fmt.Fprintln(out, "------------------------------------------------------------")

	for _, s := range m.Stats() {
		fmt.Fprintf(out, "%-8s %6s entries  %3d substituted  %s\n",
			s.Kind, humanize.Comma(int64(s.Entries)), s.Substituted, humanize.Bytes(uint64(s.Bytes)))
	}

	failed := 0
	for _, r := range reports {
		for _, res := range r.Results {
			if res.Err != nil {
				if failed == 0 {
					fmt.Fprintln(out, "\nFailed to preload:")
				}
				failed++
				fmt.Fprintf(out, "  %s: %v\n", res.Path, res.Err)
			}
		}
	}

	if len(substitutions) > 0 {
		fmt.Fprintf(out, "\nSubstituted (%d):\n", len(substitutions))
		for _, s := range substitutions {
			fmt.Fprintf(out, "  %s\n", s)
		}
	}

	if cfg.Export.Dir != "" {
		results, err := export.Textures(export.Config{
			OutputDir: cfg.Export.Dir,
			Size:      cfg.Export.Size,
			Workers:   cfg.Workers,
		}, m.Textures())
		if err != nil {
			return err
		}
		ok := 0
		for _, r := range results {
			if r.Success {
				ok++
			} else {
				fmt.Fprintf(out, "  export %s: %s\n", r.Key, r.Error)
			}
		}
		fmt.Fprintf(out, "\nExported: %d/%d textures to %s\n", ok, len(results), cfg.Export.Dir)
	}

	m.Clear()
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
