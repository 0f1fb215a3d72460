package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hbollon/go-edlib"
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/hivegen/internal/config"
	"github.com/standardbeagle/hivegen/internal/display"
	"github.com/standardbeagle/hivegen/internal/emitter"
	"github.com/standardbeagle/hivegen/internal/generate"
	"github.com/standardbeagle/hivegen/internal/project"
	"github.com/standardbeagle/hivegen/internal/regf"
	"github.com/standardbeagle/hivegen/internal/version"
	"github.com/standardbeagle/hivegen/internal/watch"
	"github.com/standardbeagle/hivegen/pkg/pathutil"
)

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	configPath := c.String("config")

	// If root is specified and config path is default, look for config in root directory
	if rootFlag := c.String("root"); rootFlag != "" && configPath == config.ConfigFileName {
		configPath = filepath.Join(rootFlag, config.ConfigFileName)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	if rootFlag := c.String("root"); rootFlag != "" {
		absRoot, err := filepath.Abs(rootFlag)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root path %q: %w", rootFlag, err)
		}
		cfg.Project.Root = absRoot
	}
	if d := c.String("delimiter"); d != "" {
		cfg.Generator.Delimiter = d
	}
	if tn := c.String("type-name"); tn != "" {
		cfg.Generator.TypeName = tn
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveOutputDir picks the destination for generated files:
// --output flag, then --into-crate detection, then the config file,
// then stdout (empty string).
func resolveOutputDir(flagOutput string, intoCrate bool, cfg *config.Config) (string, error) {
	if flagOutput != "" {
		return pathutil.ToAbsolute(flagOutput, cfg.Project.Root), nil
	}
	if intoCrate {
		crate, err := project.DetectRustCrate(cfg.Project.Root)
		if err != nil {
			return "", fmt.Errorf("failed to detect Rust crate in %s: %w", cfg.Project.Root, err)
		}
		if crate == nil || crate.DefaultOutputDir() == "" {
			return "", fmt.Errorf("no Rust crate with a src directory found in %s", cfg.Project.Root)
		}
		log.Printf("generating into crate %s (%s)", crate.Name,
			pathutil.ToRelative(crate.DefaultOutputDir(), cfg.Project.Root))
		return crate.DefaultOutputDir(), nil
	}
	if cfg.Generator.OutputDir != "" {
		return pathutil.ToAbsolute(cfg.Generator.OutputDir, cfg.Project.Root), nil
	}
	return "", nil
}

// tablePatterns prefers explicit CLI arguments over configured globs
func tablePatterns(args []string, cfg *config.Config) []string {
	if len(args) > 0 {
		return args
	}
	return cfg.Generator.Tables
}

func buildRequest(c *cli.Context, cfg *config.Config, kind generate.Kind) (generate.Request, error) {
	outputDir, err := resolveOutputDir(c.String("output"), c.Bool("into-crate"), cfg)
	if err != nil {
		return generate.Request{}, err
	}

	return generate.Request{
		Root:   cfg.Project.Root,
		Tables: tablePatterns(c.Args().Slice(), cfg),
		Kind:   kind,
		Options: emitter.Options{
			Delimiter: cfg.DelimiterRune(),
			TypeName:  cfg.Generator.TypeName,
		},
		OutputDir: outputDir,
		Stdout:    c.App.Writer,
	}, nil
}

func runGenerate(c *cli.Context, kind generate.Kind) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	req, err := buildRequest(c, cfg, kind)
	if err != nil {
		return err
	}

	results, err := generate.Run(c.Context, req)
	if err != nil {
		return err
	}

	reportResults(results, cfg.Project.Root)
	return nil
}

func reportResults(results []generate.FileResult, root string) {
	for _, r := range results {
		if r.Written {
			log.Printf("wrote %s", pathutil.ToRelative(r.Output, root))
		} else {
			log.Printf("unchanged %s", pathutil.ToRelative(r.Output, root))
		}
	}
}

// unknownCellTypeError builds the error for a bad --filter value, with a
// nearest-match suggestion when one is close enough
func unknownCellTypeError(name string) error {
	bestMatch := ""
	bestDistance := 1000

	for _, candidate := range regf.CellTypeNames() {
		distance := edlib.LevenshteinDistance(name, candidate)
		if distance < bestDistance {
			bestDistance = distance
			bestMatch = candidate
		}
	}

	if bestMatch != "" && bestDistance <= len(bestMatch)/2 {
		return fmt.Errorf("unknown cell type %q (did you mean %q?)", name, bestMatch)
	}
	return fmt.Errorf("unknown cell type %q", name)
}

func runDump(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("dump expects exactly one hive file argument")
	}

	opts := display.DumpOptions{AllocatedOnly: c.Bool("allocated")}
	if name := c.String("filter"); name != "" {
		t, ok := regf.ParseCellType(name)
		if !ok {
			return unknownCellTypeError(name)
		}
		opts.Filter = t
		opts.HasFilter = true
	}

	return display.DumpHive(c.Args().First(), c.App.Writer, opts)
}

func runWatch(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	kind := generate.MatchArms
	if c.Bool("fields") {
		kind = generate.StructFields
	}

	req, err := buildRequest(c, cfg, kind)
	if err != nil {
		return err
	}
	if req.OutputDir == "" {
		return fmt.Errorf("watch mode needs an output directory (--output, --into-crate or output_dir in %s)", config.ConfigFileName)
	}

	// full pass first so outputs exist before we wait for changes
	results, err := generate.Run(c.Context, req)
	if err != nil {
		return err
	}
	reportResults(results, cfg.Project.Root)

	tables, err := generate.ResolveTables(req.Root, req.Tables)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w, err := watch.New(tables, time.Duration(cfg.Watch.DebounceMs)*time.Millisecond, func(path string) {
		single := req
		single.Tables = []string{path}
		results, err := generate.Run(ctx, single)
		if err != nil {
			log.Printf("regeneration of %s failed: %v", pathutil.ToRelative(path, cfg.Project.Root), err)
			return
		}
		reportResults(results, cfg.Project.Root)
	})
	if err != nil {
		return err
	}
	defer w.Close()

	log.Printf("watching %d table(s), debounce %dms", len(tables), cfg.Watch.DebounceMs)
	return w.Run(ctx)
}

func newApp() *cli.App {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Fprintln(c.App.Writer, version.FullInfo())
	}

	return &cli.App{
		Name:                   "hivegen",
		Usage:                  "Generate hive parser code fragments from format specification tables",
		Version:                version.Info(),
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path",
				Value:   config.ConfigFileName,
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory (overrides config)",
			},
			&cli.StringFlag{
				Name:    "delimiter",
				Aliases: []string{"d"},
				Usage:   "Field delimiter in input tables (overrides config)",
			},
			&cli.StringFlag{
				Name:    "type-name",
				Aliases: []string{"t"},
				Usage:   "Enum type name referenced by generated match arms (overrides config)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Directory for generated files (default: stdout)",
			},
			&cli.BoolFlag{
				Name:  "into-crate",
				Usage: "Write generated files into the detected Rust crate's src/generated",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "emit",
				Aliases:   []string{"e"},
				Usage:     "Generate match arms mapping long names to enum variants",
				ArgsUsage: "[tables or globs...]",
				Action: func(c *cli.Context) error {
					return runGenerate(c, generate.MatchArms)
				},
			},
			{
				Name:      "fields",
				Aliases:   []string{"f"},
				Usage:     "Generate struct field declarations from type-code columns",
				ArgsUsage: "[tables or globs...]",
				Action: func(c *cli.Context) error {
					return runGenerate(c, generate.StructFields)
				},
			},
			{
				Name:      "dump",
				Usage:     "Walk a registry hive file and print its bins and cells",
				ArgsUsage: "<hive file>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "filter",
						Usage: "Only show cells of this type (long name or signature, e.g. NamedKey or nk)",
					},
					&cli.BoolFlag{
						Name:  "allocated",
						Usage: "Hide free cells",
					},
				},
				Action: runDump,
			},
			{
				Name:      "watch",
				Aliases:   []string{"w"},
				Usage:     "Regenerate output whenever an input table changes",
				ArgsUsage: "[tables or globs...]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "fields",
						Usage: "Generate struct fields instead of match arms",
					},
				},
				Action: runWatch,
			},
		},
	}
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("hivegen: ")

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}
