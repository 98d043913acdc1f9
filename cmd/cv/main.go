package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/covview/covview/pkg/config"
	"github.com/covview/covview/pkg/export"
	"github.com/covview/covview/pkg/history"
	"github.com/covview/covview/pkg/loader"
	"github.com/covview/covview/pkg/ui"
)

// version is stamped by the release build; "dev" otherwise.
var version = "dev"

func main() {
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	configPath := flag.String("config", "", "Path to covview.yaml (default: walk up from cwd)")
	profilePath := flag.String("profile", "", "Cover profile path (overrides config)")
	manifestPath := flag.String("manifest", "", "Test manifest path (overrides config)")
	exportSVG := flag.String("export-svg", "", "Render a coverage treemap to an SVG file and exit")
	exportMD := flag.String("export-md", "", "Write a markdown coverage report and exit")
	svgWidth := flag.Int("svg-width", 1200, "Treemap width in pixels (use with --export-svg)")
	svgHeight := flag.Int("svg-height", 675, "Treemap height in pixels (use with --export-svg)")
	noWatch := flag.Bool("no-watch", false, "Disable profile watching; load once")
	flag.Parse()

	if *help {
		fmt.Println("Usage: cv [options]")
		fmt.Println("\nA TUI browser for Go test coverage trees.")
		fmt.Println("Point it at a cover profile and it keeps the tree in sync as tests rerun.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("cv %s\n", version)
		os.Exit(0)
	}

	cfg, rootDir, err := loadConfig(*configPath)
	if err != nil {
		fatal("config: %v", err)
	}
	if *profilePath != "" {
		cfg.Profile = *profilePath
	}
	if *manifestPath != "" {
		cfg.Manifest = *manifestPath
	}

	builder := loader.NewBuilder()
	if cfg.RootName != "" {
		builder.RootName = cfg.RootName
	}

	if *exportSVG != "" || *exportMD != "" {
		root, err := builder.Build(cfg.Profile, cfg.Manifest)
		if err != nil {
			fatal("load profile: %v", err)
		}
		if *exportSVG != "" {
			if err := export.WriteTreemapFile(*exportSVG, root, *svgWidth, *svgHeight); err != nil {
				fatal("export treemap: %v", err)
			}
			fmt.Printf("wrote %s\n", *exportSVG)
		}
		if *exportMD != "" {
			if err := export.SaveMarkdownToFile(root, *exportMD); err != nil {
				fatal("export report: %v", err)
			}
			fmt.Printf("wrote %s\n", *exportMD)
		}
		return
	}

	// TUI logs would corrupt the terminal; keep them in the state dir.
	setupLogging(cfg.StateDir)
	if err := loader.EnsureStateDirInGitignore(rootDir); err != nil {
		log.Printf("warning: gitignore update failed: %v", err)
	}

	store, err := history.Open(filepath.Join(cfg.StateDir, "history.db"))
	if err != nil {
		log.Printf("warning: run history unavailable: %v", err)
		store = nil
	} else {
		defer store.Close()
	}

	m := ui.NewModel(ui.ModelConfig{
		Theme:    ui.DarkTheme(lipgloss.DefaultRenderer()),
		StateDir: cfg.StateDir,
		History:  store,
	})

	var worker *ui.BackgroundWorker
	if !*noWatch {
		worker, err = ui.NewBackgroundWorker(ui.WorkerConfig{
			ProfilePath:  cfg.Profile,
			ManifestPath: cfg.Manifest,
			RootName:     cfg.RootName,
			Debounce:     cfg.Debounce(),
		})
		if err != nil {
			fatal("watcher: %v", err)
		}
		m.SetWorker(worker)
	}

	p := tea.NewProgram(m, tea.WithAltScreen())

	if worker != nil {
		worker.SetProgram(p)
		if err := worker.Start(); err != nil {
			fatal("watcher: %v", err)
		}
		defer worker.Stop()
		worker.TriggerRefresh()
	} else {
		root, err := builder.Build(cfg.Profile, cfg.Manifest)
		if err != nil {
			fatal("load profile: %v", err)
		}
		go p.Send(ui.SnapshotReadyMsg{Root: root})
	}

	if _, err := p.Run(); err != nil {
		fatal("%v", err)
	}
}

// loadConfig resolves the effective configuration and the project root.
func loadConfig(path string) (config.Config, string, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return config.Config{}, "", err
		}
		return cfg, filepath.Dir(path), nil
	}
	return config.DiscoverCurrent()
}

// setupLogging routes the standard logger to a file under the state dir.
func setupLogging(stateDir string) {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		log.SetOutput(os.Stderr)
		return
	}
	f, err := os.OpenFile(filepath.Join(stateDir, "cv.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.SetOutput(os.Stderr)
		return
	}
	log.SetOutput(f)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "cv: "+format+"\n", args...)
	os.Exit(1)
}
