package thailint

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
)

// WatchMode provides continuous file monitoring and re-analysis
type WatchMode struct {
	linter     *Linter
	config     Config
	configPath string
	root       string
	logger     *slog.Logger
	fs         afero.Fs

	watcher      *fsnotify.Watcher
	debounceTime time.Duration

	// Debouncing state
	mu             sync.Mutex
	pendingChanges map[string]time.Time
	debounceTimer  *time.Timer

	// Formatting options
	groupByRule bool
	colorMode   ColorMode

	stats watchStats
}

type watchStats struct {
	mu               sync.Mutex
	totalAnalyses    int
	violationsFound  int
	lastAnalysisTime time.Time
}

// WatchStats is a point-in-time snapshot of watch mode activity
type WatchStats struct {
	TotalAnalyses    int
	ViolationsFound  int
	LastAnalysisTime time.Time
}

// WatchConfig holds configuration for watch mode
type WatchConfig struct {
	Root         string
	ConfigPath   string
	Logger       *slog.Logger
	FS           afero.Fs
	DebounceTime time.Duration
	GroupByRule  bool
	ColorMode    ColorMode
}

// NewWatchMode creates a new WatchMode instance
func NewWatchMode(cfg WatchConfig) (*WatchMode, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	if cfg.FS == nil {
		cfg.FS = afero.NewOsFs()
	}

	if cfg.DebounceTime == 0 {
		cfg.DebounceTime = 100 * time.Millisecond
	}

	if cfg.ColorMode == "" {
		cfg.ColorMode = ColorAuto
	}

	config, err := LoadConfig(cfg.FS, cfg.Root, cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	linter, err := NewLinter(config, cfg.Logger, cfg.FS, cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to create linter: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	wm := &WatchMode{
		linter:         linter,
		config:         config,
		configPath:     cfg.ConfigPath,
		root:           cfg.Root,
		logger:         cfg.Logger,
		fs:             cfg.FS,
		watcher:        watcher,
		debounceTime:   cfg.DebounceTime,
		pendingChanges: make(map[string]time.Time),
		groupByRule:    cfg.GroupByRule,
		colorMode:      cfg.ColorMode,
	}

	return wm, nil
}

// Start begins watching for file changes
func (w *WatchMode) Start(ctx context.Context) error {
	w.printHeader()
	w.logger.Info("Starting watch mode", "path", w.root)

	if err := w.runAnalysis(ctx); err != nil {
		return fmt.Errorf("initial analysis failed: %w", err)
	}

	if err := w.addDirsToWatcher(w.root); err != nil {
		return fmt.Errorf("failed to add files to watcher: %w", err)
	}

	if w.configPath != "" {
		if err := w.watchConfigFile(w.configPath); err != nil {
			w.logger.Warn("Failed to watch config file", "path", w.configPath, "error", err)
		}
	}

	w.printWatchingMessage()

	return w.processEvents(ctx)
}

// Stop gracefully stops the watcher
func (w *WatchMode) Stop() error {
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}

// runAnalysis relints the whole tree. Duplicate detection is
// cross-file, so even a single changed file invalidates groups in
// unchanged files; the content cache keeps the full pass cheap.
func (w *WatchMode) runAnalysis(ctx context.Context) error {
	violations, err := w.linter.Lint(ctx, w.root)
	if err != nil {
		return err
	}

	w.printViolations(violations)
	w.updateStats(len(violations.Violations))
	return nil
}

// addDirsToWatcher recursively adds directories to the watcher.
// Directories are watched rather than individual files so newly
// created files are seen too.
func (w *WatchMode) addDirsToWatcher(root string) error {
	return afero.Walk(w.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			w.logger.Warn("Error walking path", "path", path, "error", err)
			return nil
		}

		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && NormalizePath(path) != NormalizePath(root) {
				return filepath.SkipDir
			}
			if info.Name() == "node_modules" || info.Name() == "vendor" || info.Name() == "target" {
				return filepath.SkipDir
			}

			if err := w.watcher.Add(path); err != nil {
				w.logger.Warn("Failed to watch directory", "path", path, "error", err)
			}
		}

		return nil
	})
}

// watchConfigFile adds the config file's directory to the watcher
func (w *WatchMode) watchConfigFile(configPath string) error {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return err
	}

	return w.watcher.Add(filepath.Dir(absPath))
}

// processEvents handles file system events with debouncing
func (w *WatchMode) processEvents(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Stopping watch mode")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("Watcher error", "error", err)
		}
	}
}

// handleEvent processes a single file system event
func (w *WatchMode) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !w.shouldProcessEvent(event) {
		return
	}

	if w.isConfigFile(event.Name) || filepath.Base(event.Name) == ".thailintignore" {
		w.handleConfigChange(ctx)
		return
	}

	if !isSourceFile(event.Name) {
		return
	}

	w.mu.Lock()
	w.pendingChanges[event.Name] = time.Now()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}

	w.debounceTimer = time.AfterFunc(w.debounceTime, func() {
		w.processPendingChanges(ctx)
	})
	w.mu.Unlock()
}

// shouldProcessEvent filters events we care about
func (w *WatchMode) shouldProcessEvent(event fsnotify.Event) bool {
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove)
}

// isConfigFile checks if the event is for the config file
func (w *WatchMode) isConfigFile(path string) bool {
	if w.configPath == "" {
		return false
	}

	absConfigPath, _ := filepath.Abs(w.configPath)
	absEventPath, _ := filepath.Abs(path)

	return absConfigPath == absEventPath
}

// handleConfigChange reloads config and re-analyzes everything
func (w *WatchMode) handleConfigChange(ctx context.Context) {
	w.printTimestamp()
	fmt.Println(color.New(color.FgYellow, color.Bold).Sprint("📝 Config changed"))
	fmt.Println(color.New(color.FgCyan).Sprint("⚡ Reloading configuration and re-analyzing all files..."))

	newConfig, err := LoadConfig(w.fs, w.root, w.configPath)
	if err != nil {
		w.printError(fmt.Sprintf("Failed to reload config: %v", err))
		return
	}

	newLinter, err := NewLinter(newConfig, w.logger, w.fs, w.root)
	if err != nil {
		w.printError(fmt.Sprintf("Failed to create linter with new config: %v", err))
		return
	}

	w.linter = newLinter
	w.config = newConfig

	if err := w.runAnalysis(ctx); err != nil {
		w.printError(fmt.Sprintf("Analysis failed: %v", err))
	}
}

// processPendingChanges re-analyzes after a burst of file changes
func (w *WatchMode) processPendingChanges(ctx context.Context) {
	w.mu.Lock()
	changes := make([]string, 0, len(w.pendingChanges))
	for path := range w.pendingChanges {
		changes = append(changes, path)
	}
	w.pendingChanges = make(map[string]time.Time)
	w.mu.Unlock()

	if len(changes) == 0 {
		return
	}

	w.printTimestamp()
	for _, path := range changes {
		fmt.Println(color.New(color.FgCyan).Sprintf("📝 %s changed", RelPath(w.root, path)))
	}

	fileText := "file"
	if len(changes) > 1 {
		fileText = "files"
	}
	fmt.Println(color.New(color.FgMagenta).Sprintf("⚡ Re-analyzing after %d changed %s...", len(changes), fileText))

	if err := w.runAnalysis(ctx); err != nil {
		w.printError(fmt.Sprintf("Analysis failed: %v", err))
	}
}

// printHeader prints the initial header
func (w *WatchMode) printHeader() {
	boxColor := color.New(color.FgHiBlack)
	titleColor := color.New(color.Bold)

	boxTop := "╭─────────────────────────────────────────────────────╮"
	boxBottom := "╰─────────────────────────────────────────────────────╯"

	fmt.Println(boxColor.Sprint(boxTop))
	fmt.Println(boxColor.Sprint("│") + "  " + titleColor.Sprint("Thailint Watch Mode") + strings.Repeat(" ", 32) + boxColor.Sprint("│"))
	fmt.Println(boxColor.Sprint(boxBottom))
	fmt.Println()
}

// printWatchingMessage prints the watching message
func (w *WatchMode) printWatchingMessage() {
	fmt.Println()
	watchMsg := fmt.Sprintf("👀 Watching %s for changes...", w.root)
	fmt.Println(color.New(color.FgGreen, color.Bold).Sprint(watchMsg))
	fmt.Println(color.New(color.FgHiBlack).Sprint("Press Ctrl+C to stop"))
	fmt.Println()
}

// printTimestamp prints the current timestamp
func (w *WatchMode) printTimestamp() {
	timestamp := time.Now().Format("15:04:05")
	fmt.Printf("[%s] ", color.New(color.FgHiBlack).Sprint(timestamp))
}

// printViolations formats and prints violations
func (w *WatchMode) printViolations(violations *LintViolations) {
	if violations.IsEmpty() {
		fmt.Println(color.New(color.FgGreen, color.Bold).Sprint("✅ No violations found"))
		fmt.Println()
		return
	}

	fmt.Println(color.New(color.FgRed, color.Bold).Sprintf("❌ Found %d violation(s)", len(violations.Violations)))
	fmt.Println()

	formatter := &EnhancedTextFormatter{
		ColorMode:   w.colorMode,
		GroupByRule: w.groupByRule,
		Writer:      os.Stdout,
	}
	out, err := formatter.Format(violations, w.linter.Registry())
	if err != nil {
		w.printError(err.Error())
		return
	}
	fmt.Print(string(out))
}

// printError prints an error message
func (w *WatchMode) printError(msg string) {
	fmt.Println(color.New(color.FgRed, color.Bold).Sprint("❌ Error: ") + msg)
	fmt.Println()
}

// updateStats updates watch mode statistics
func (w *WatchMode) updateStats(violations int) {
	w.stats.mu.Lock()
	defer w.stats.mu.Unlock()

	w.stats.totalAnalyses++
	w.stats.violationsFound += violations
	w.stats.lastAnalysisTime = time.Now()
}

// GetStats returns current watch mode statistics
func (w *WatchMode) GetStats() WatchStats {
	w.stats.mu.Lock()
	defer w.stats.mu.Unlock()
	return WatchStats{
		TotalAnalyses:    w.stats.totalAnalyses,
		ViolationsFound:  w.stats.violationsFound,
		LastAnalysisTime: w.stats.lastAnalysisTime,
	}
}
