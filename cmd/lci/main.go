package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/standardbeagle/lci/internal/config"
	"github.com/standardbeagle/lci/internal/debug"
	"github.com/standardbeagle/lci/internal/version"

	"github.com/urfave/cli/v2"
)

var Version = version.Version // Use centralized version management

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	configPath := c.String("config")

	// If root is specified and config path is default, look for config in root directory
	if rootFlag := c.String("root"); rootFlag != "" && configPath == ".lci.kdl" {
		configPath = filepath.Join(rootFlag, ".lci.kdl")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	// Apply CLI flag overrides
	if includeFlags := c.StringSlice("include"); len(includeFlags) > 0 {
		cfg.Include = includeFlags
	}
	if excludeFlags := c.StringSlice("exclude"); len(excludeFlags) > 0 {
		cfg.Exclude = append(cfg.Exclude, excludeFlags...)
	}
	if rootFlag := c.String("root"); rootFlag != "" {
		// Convert to absolute path to ensure consistent path handling
		absRoot, err := filepath.Abs(rootFlag)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root path %q: %w", rootFlag, err)
		}
		cfg.Project.Root = absRoot
	}

	return cfg, nil
}

func main() {
	var cleanupFuncs []func()

	app := &cli.App{
		Name:                   "lci",
		Usage:                  "Navigator daemon, AST-edit engine, and retrieval pipeline CLI",
		Version:                Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path",
				Value:   ".lci.kdl",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Include files matching glob patterns (e.g., --include '*.go' --include 'src/**/*.ts')",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Exclude files matching glob patterns (e.g., --exclude '**/test-projects/**')",
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory to index (overrides config)",
			},
			&cli.StringFlag{
				Name:   "profile-cpu",
				Usage:  "Write CPU profile to file (e.g., --profile-cpu cpu.prof)",
				Hidden: true,
			},
			&cli.StringFlag{
				Name:   "profile-memory",
				Usage:  "Write memory profile to file (e.g., --profile-memory mem.prof)",
				Hidden: true,
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Configuration management commands",
				Subcommands: []*cli.Command{
					{
						Name:    "init",
						Aliases: []string{"i"},
						Usage:   "Initialize configuration file (.lci.kdl)",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:    "format",
								Aliases: []string{"f"},
								Usage:   "Output format: kdl, yaml, json",
								Value:   "kdl",
							},
							&cli.StringFlag{
								Name:    "output",
								Aliases: []string{"o"},
								Usage:   "Output file path (default: .lci.kdl)",
							},
							&cli.BoolFlag{
								Name:  "force",
								Usage: "Overwrite existing configuration file",
							},
							&cli.BoolFlag{
								Name:  "minimal",
								Usage: "Generate minimal config with only commonly changed settings",
							},
						},
						Action: configInitCommand,
					},
					{
						Name:    "show",
						Aliases: []string{"s"},
						Usage:   "Show current configuration values",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:    "format",
								Aliases: []string{"f"},
								Usage:   "Output format: kdl, table",
								Value:   "table",
							},
						},
						Action: configShowCommand,
					},
					{
						Name:    "validate",
						Aliases: []string{"v"},
						Usage:   "Validate configuration file",
						Action:  configValidateCommand,
					},
				},
			},
			navigatorDaemonCommand(),
			navigatorCommand(),
		},
		Before: func(c *cli.Context) error {
			// Setup profiling if requested
			if cpuProfilePath := c.String("profile-cpu"); cpuProfilePath != "" {
				debug.LogIndexing("Starting CPU profiling to %s\n", cpuProfilePath)
				f, err := os.Create(cpuProfilePath)
				if err != nil {
					return fmt.Errorf("failed to create CPU profile: %w", err)
				}
				if err := pprof.StartCPUProfile(f); err != nil {
					f.Close()
					return fmt.Errorf("failed to start CPU profile: %w", err)
				}
				cleanupFuncs = append(cleanupFuncs, func() {
					pprof.StopCPUProfile()
					f.Close()
				})
			}

			if memProfilePath := c.String("profile-memory"); memProfilePath != "" {
				cleanupFuncs = append(cleanupFuncs, func() {
					debug.LogIndexing("Writing memory profile to %s\n", memProfilePath)
					runtime.GC()
					f, err := os.Create(memProfilePath)
					if err != nil {
						fmt.Fprintf(os.Stderr, "Failed to create memory profile: %v\n", err)
						return
					}
					defer f.Close()
					if err := pprof.WriteHeapProfile(f); err != nil {
						fmt.Fprintf(os.Stderr, "Failed to write memory profile: %v\n", err)
					}
				})
			}

			return nil
		},
		Action: func(c *cli.Context) error {
			return cli.ShowAppHelp(c)
		},
	}

	defer func() {
		for _, cleanup := range cleanupFuncs {
			cleanup()
		}
	}()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func configInitCommand(c *cli.Context) error {
	format := c.String("format")
	output := c.String("output")
	force := c.Bool("force")
	minimal := c.Bool("minimal")

	if output == "" {
		switch format {
		case "kdl", "yaml":
			output = ".lci.kdl"
		case "json":
			output = ".lci.kdl.json"
		default:
			return fmt.Errorf("unsupported format: %s", format)
		}
	}

	if !force {
		if _, err := os.Stat(output); err == nil {
			return fmt.Errorf("configuration file %s already exists (use --force to overwrite)", output)
		}
	}

	var content string
	var err error
	switch format {
	case "kdl":
		content, err = generateKDLConfig(minimal)
	case "yaml":
		content, err = generateYAMLConfig()
	case "json":
		content, err = generateJSONConfig()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return fmt.Errorf("failed to generate config: %v", err)
	}

	if err := os.WriteFile(output, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %v", err)
	}

	fmt.Printf("Configuration file created: %s\n", output)
	fmt.Printf("Edit the file to customize settings for your project.\n")
	return nil
}

func configShowCommand(c *cli.Context) error {
	format := c.String("format")
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}
	if format == "table" {
		return displayConfigTable(cfg)
	}
	content, err := configToKDL(cfg)
	if err != nil {
		return fmt.Errorf("failed to convert to KDL: %v", err)
	}
	fmt.Print(content)
	return nil
}

func configValidateCommand(c *cli.Context) error {
	configPath := c.String("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("configuration validation failed: %v\n", err)
		return err
	}

	var warnings []string
	if cfg.Performance.MaxMemoryMB < 100 {
		warnings = append(warnings, "MaxMemoryMB is very low (<100MB), may cause performance issues")
	}
	if cfg.Performance.MaxMemoryMB > 8000 {
		warnings = append(warnings, "MaxMemoryMB is very high (>8GB), ensure you have sufficient RAM")
	}
	if cfg.Index.MaxTotalSizeMB < 50 {
		warnings = append(warnings, "MaxTotalSizeMB is very low (<50MB), may limit indexing capability")
	}
	if cfg.Index.MaxFileCount < 100 {
		warnings = append(warnings, "MaxFileCount is very low (<100), may limit indexing capability")
	}
	if len(cfg.Include) == 0 {
		warnings = append(warnings, "No include patterns specified, no files will be indexed")
	}

	fmt.Printf("Configuration file is valid\n")
	fmt.Printf("Config source: %s\n", configPath)
	fmt.Printf("Settings: %d files max, %dMB memory limit, %dMB index limit\n",
		cfg.Index.MaxFileCount, cfg.Performance.MaxMemoryMB, cfg.Index.MaxTotalSizeMB)

	if len(warnings) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, warning := range warnings {
			fmt.Printf("  - %s\n", warning)
		}
	}
	return nil
}

func generateKDLConfig(minimal bool) (string, error) {
	if minimal {
		return `// Navigator configuration
// Minimal configuration with commonly changed settings

index {
    max_total_size_mb 500          // Total indexed content limit
    max_file_count 10000           // Maximum number of files
    smart_size_control true        // Enable intelligent size management
    priority_mode "recent"         // Priority: "recent", "small", "important"
}

performance {
    max_memory_mb 500              // Memory limit for entire index
}

daemon {
    max_workspaces 4
    schema_version 1
}

// Add project-specific exclusions
exclude {
    // "**/my-large-folder/**"
}
`, nil
	}

	if content, err := os.ReadFile(".lci.kdl.example"); err == nil {
		return string(content), nil
	}

	return `// Navigator configuration
// Full configuration template with all available options

project {
    name "my-project"
    root "."
}

index {
    max_file_size "10MB"
    max_total_size_mb 500
    max_file_count 10000
    smart_size_control true
    priority_mode "recent"
    follow_symlinks false
}

performance {
    max_memory_mb 500
    max_goroutines 8
    debounce_ms 100
}

search {
    max_results 100
    max_context_lines 50
    enable_fuzzy true
}

daemon {
    max_workspaces 4
    idle_ttl_minutes 30
    schema_version 1
    metrics_enabled true
}

retrieval {
    chunk_target_tokens 400
    chunk_max_tokens 800
    embedding_dim 384
}

history {
    recent_limit 10
    pinned_limit 5
}

health {
    max_ingest_runs 8
    max_scan_samples 64
}

include {
    "*.rs"
    "*.zig"
}

exclude {
    "**/my-large-data/**"
    "**/*.generated.ts"
}
`, nil
}

func generateYAMLConfig() (string, error) {
	return `version: 1
project:
  root: "."
  name: "my-project"
index:
  max_total_size_mb: 500
  max_file_count: 10000
  smart_size_control: true
  priority_mode: "recent"
performance:
  max_memory_mb: 500
include:
  - "*.go"
  - "*.ts"
exclude:
  - "**/.*/**"
  - "**/node_modules/**"
`, nil
}

func generateJSONConfig() (string, error) {
	cfg := &config.Config{
		Version: 1,
		Project: config.Project{Root: ".", Name: "my-project"},
		Index: config.Index{
			MaxFileSize:      10 * 1024 * 1024,
			MaxTotalSizeMB:   500,
			MaxFileCount:     10000,
			SmartSizeControl: true,
			PriorityMode:     "recent",
		},
		Performance: config.Performance{
			MaxMemoryMB:   500,
			MaxGoroutines: 8,
			DebounceMs:    100,
		},
		Include: []string{"*.go", "*.ts", "*.tsx", "*.py"},
		Exclude: []string{"**/.*/**", "**/node_modules/**", "**/vendor/**"},
	}
	content, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", err
	}
	return string(content), nil
}

func configToKDL(cfg *config.Config) (string, error) {
	return fmt.Sprintf(`// Current navigator configuration

project {
    name "%s"
    root "%s"
}

index {
    max_file_size "%dB"
    max_total_size_mb %d
    max_file_count %d
    smart_size_control %t
    priority_mode "%s"
    follow_symlinks %t
    respect_gitignore %t
}

performance {
    max_memory_mb %d
    max_goroutines %d
    debounce_ms %d
}

daemon {
    max_workspaces %d
    schema_version %d
}
`,
		cfg.Project.Name,
		cfg.Project.Root,
		cfg.Index.MaxFileSize,
		cfg.Index.MaxTotalSizeMB,
		cfg.Index.MaxFileCount,
		cfg.Index.SmartSizeControl,
		cfg.Index.PriorityMode,
		cfg.Index.FollowSymlinks,
		cfg.Index.RespectGitignore,
		cfg.Performance.MaxMemoryMB,
		cfg.Performance.MaxGoroutines,
		cfg.Performance.DebounceMs,
		cfg.Daemon.MaxWorkspaces,
		cfg.Daemon.SchemaVersion,
	), nil
}

func displayConfigTable(cfg *config.Config) error {
	fmt.Printf("Navigator Configuration\n")
	fmt.Printf("=======================\n\n")

	fmt.Printf("Project Settings:\n")
	fmt.Printf("  Name:              %s\n", cfg.Project.Name)
	fmt.Printf("  Root:              %s\n", cfg.Project.Root)
	fmt.Printf("\n")

	fmt.Printf("Index Settings:\n")
	fmt.Printf("  Max file size:     %.1f MB\n", float64(cfg.Index.MaxFileSize)/(1024*1024))
	fmt.Printf("  Max total size:    %d MB\n", cfg.Index.MaxTotalSizeMB)
	fmt.Printf("  Max file count:    %d\n", cfg.Index.MaxFileCount)
	fmt.Printf("  Priority mode:     %s\n", cfg.Index.PriorityMode)
	fmt.Printf("\n")

	fmt.Printf("Performance Settings:\n")
	fmt.Printf("  Max memory:        %d MB\n", cfg.Performance.MaxMemoryMB)
	fmt.Printf("  Max goroutines:    %d\n", cfg.Performance.MaxGoroutines)
	fmt.Printf("\n")

	fmt.Printf("Daemon Settings:\n")
	fmt.Printf("  Max workspaces:    %d\n", cfg.Daemon.MaxWorkspaces)
	fmt.Printf("  Schema version:    %d\n", cfg.Daemon.SchemaVersion)
	fmt.Printf("\n")

	fmt.Printf("Include Patterns (%d):\n", len(cfg.Include))
	for _, pattern := range cfg.Include {
		fmt.Printf("  %s\n", pattern)
	}
	fmt.Printf("\n")

	fmt.Printf("Exclude Patterns (%d):\n", len(cfg.Exclude))
	for _, pattern := range cfg.Exclude {
		fmt.Printf("  %s\n", pattern)
	}

	return nil
}
