// Command ankigen generates Anki flashcards from documents using an LLM
// provider and exports them as Anki-importable text, CSV and JSON.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ankigen/internal/config"
	"ankigen/internal/domain"
	"ankigen/internal/export"
	"ankigen/internal/generation"
	"ankigen/internal/llm"
	"ankigen/internal/platform/logger"
	"ankigen/internal/source"
)

func main() {
	filePath := flag.String("file", "", "document to process (.pdf, .md, .markdown, .txt, .text)")
	dirPath := flag.String("dir", "", "directory to scan for supported documents")
	processAll := flag.Bool("all", false, "process every section instead of the first three")
	outDir := flag.String("out", "", "output directory (overrides configuration)")
	flag.Parse()

	// A missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.Setup(cfg.Log)

	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}

	if *filePath == "" && *dirPath == "" {
		fmt.Fprintln(os.Stderr, "usage: ankigen -file <document> | -dir <directory> [-all] [-out <dir>]")
		os.Exit(2)
	}

	if err := run(cfg, log, *filePath, *dirPath, *processAll); err != nil {
		log.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger, filePath, dirPath string, processAll bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gateway, err := llm.New(cfg, log)
	if err != nil {
		return err
	}

	reader := source.NewFileReader(log)
	judge := generation.NewLLMJudge(gateway)
	pipeline := generation.NewPipeline(reader, gateway, judge, cfg.Generation, log)

	files, err := collectFiles(filePath, dirPath)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("no supported documents found")
	}

	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var failures int
	for _, file := range files {
		if err := processDocument(ctx, pipeline, log, cfg.Output.Dir, file, processAll); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			log.Error("document failed", "file", file, "error", err)
			failures++
		}
	}

	if failures == len(files) {
		return fmt.Errorf("all %d documents failed", failures)
	}
	return nil
}

// collectFiles resolves the input selection: a single file, or every
// supported document in a directory, in file name order.
func collectFiles(filePath, dirPath string) ([]string, error) {
	if filePath != "" {
		return []string{filePath}, nil
	}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if source.IsSupported(entry.Name()) {
			files = append(files, filepath.Join(dirPath, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func processDocument(
	ctx context.Context,
	pipeline *generation.Pipeline,
	log *slog.Logger,
	outDir, file string,
	processAll bool,
) error {
	log.Info("processing document", "file", file, "process_all", processAll)

	cards, err := pipeline.Generate(ctx, file, processAll)
	if err != nil {
		return err
	}

	if len(cards) == 0 {
		// A zero-card run is a normal outcome, distinct from a failed read.
		log.Info("no cards generated for document", "file", file)
		return nil
	}

	baseName := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	paths := export.OutputPaths(outDir, baseName, time.Now())

	if err := export.WriteAnkiTxt(cards, paths.AnkiTxt); err != nil {
		return err
	}
	if err := export.WriteCSV(cards, paths.CSV); err != nil {
		return err
	}
	if err := export.WriteJSON(cards, paths.JSON); err != nil {
		return err
	}

	logCardStatistics(log, file, cards, pipeline)

	log.Info("exports written",
		"anki_txt", paths.AnkiTxt,
		"csv", paths.CSV,
		"json", paths.JSON)
	return nil
}

// logCardStatistics summarizes a document's run: card count, tag usage
// and the pipeline's rejection counters.
func logCardStatistics(log *slog.Logger, file string, cards []*domain.Flashcard, pipeline *generation.Pipeline) {
	tagCounts := make(map[string]int)
	for _, card := range cards {
		for _, tag := range card.Tags {
			tagCounts[tag]++
		}
	}

	topTags := make([]string, 0, len(tagCounts))
	for tag := range tagCounts {
		topTags = append(topTags, tag)
	}
	sort.Slice(topTags, func(i, j int) bool {
		if tagCounts[topTags[i]] != tagCounts[topTags[j]] {
			return tagCounts[topTags[i]] > tagCounts[topTags[j]]
		}
		return topTags[i] < topTags[j]
	})
	if len(topTags) > 5 {
		topTags = topTags[:5]
	}

	run := pipeline.Stats()
	gate := pipeline.GateStats()
	log.Info("generation statistics",
		"file", file,
		"cards", len(cards),
		"unique_tags", len(tagCounts),
		"top_tags", topTags,
		"sections_processed", run.SectionsProcessed,
		"sections_failed", run.SectionsFailed,
		"cards_accepted", gate.Accepted,
		"rejected_invalid", gate.Invalid,
		"rejected_duplicate", gate.Duplicates,
		"rejected_low_quality", gate.LowQuality)
}
