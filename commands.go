package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prash-dwivedi/crater.report/internal/db"
	"github.com/prash-dwivedi/crater.report/internal/dump"
	"github.com/prash-dwivedi/crater.report/internal/monitoring"
	"github.com/prash-dwivedi/crater.report/internal/runner"
	"github.com/prash-dwivedi/crater.report/internal/security"
)

// openRunner opens the database and builds an analysis runner from the
// global -config flag.
func openRunner(dbPath string, skipCheck bool) (*db.DB, *runner.Runner) {
	cfg := loadAnalysisConfig()

	db.DevMode = *devMode
	database, err := db.OpenDBWithMigrationCheck(dbPath, skipCheck)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	run, err := runner.New(cfg, database)
	if err != nil {
		database.Close()
		log.Fatalf("Failed to create analysis runner: %v", err)
	}
	return database, run
}

// runAnalyze performs a one-shot analysis of a dump file and prints a run
// summary.
func runAnalyze(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Print per-frame results")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: crater-report analyze [options] <dump-file>")
		os.Exit(1)
	}
	path := fs.Arg(0)
	monitoring.Verbose = *verbose

	database, run := openRunner(*dbFile, *skipMigCheck)
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runID, err := run.AnalyzeFile(ctx, path)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	ar, err := database.GetAnalysisRun(runID)
	if err != nil {
		log.Fatalf("Failed to load run summary: %v", err)
	}
	fmt.Printf("Run %s: %d frames (%d analyzed, %d failed)\n",
		ar.RunID, ar.FrameCount, ar.OKCount, ar.ErrorCount)

	if *verbose {
		results, err := database.FrameResults(runID)
		if err != nil {
			log.Fatalf("Failed to load frame results: %v", err)
		}
		for _, fr := range results {
			if fr.Error != "" {
				fmt.Printf("frame %d: %s\n", fr.FrameIndex, fr.Error)
				continue
			}
			fmt.Printf("frame %d: surface=%.2f depth=%.2f pileup=%.2f major=%.2f minor=%.2f D_c=%.2f\n",
				fr.FrameIndex, fr.SurfaceZ, fr.Depth, fr.Pileup, fr.MajorAxis, fr.MinorAxis, fr.FinalDiameter)
		}
	}
}

// runWatch follows a dump file or a directory of dump files until
// interrupted, analyzing frames as they appear.
func runWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: crater-report watch <dump-file-or-directory>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	info, err := os.Stat(path)
	if err != nil {
		log.Fatalf("Failed to stat watch path: %v", err)
	}

	database, run := openRunner(*dbFile, *skipMigCheck)
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if info.IsDir() {
		err = run.WatchDir(ctx, path)
	} else {
		_, err = run.Watch(ctx, path)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Watch failed: %v", err)
	}
	log.Print("watch terminated")
}

// runGen writes a synthetic impact trajectory for testing.
func runGen(args []string) {
	fs := flag.NewFlagSet("gen", flag.ExitOnError)
	output := fs.String("o", "synthetic.dump", "output path")
	frames := fs.Int("n", 50, "number of frames")
	seed := fs.Int64("seed", 42, "random seed")
	fs.Parse(args)

	gen := dump.NewSyntheticGenerator(*seed)
	trajectory := make([]*dump.Frame, 0, *frames)
	for i := 0; i < *frames; i++ {
		trajectory = append(trajectory, gen.NextFrame())
		if (i+1)%10 == 0 {
			log.Printf("%d/%d frames", i+1, *frames)
		}
	}

	if err := dump.WriteFile(*output, trajectory); err != nil {
		log.Fatalf("Failed to write dump: %v", err)
	}
	log.Printf("✓ Created: %s", *output)
}

// runBackup writes a vacuumed copy of the database next to -output.
func runBackup(args []string) {
	fs := flag.NewFlagSet("backup", flag.ExitOnError)
	outputDir := fs.String("output", ".", "Output directory for the backup")
	fs.Parse(args)

	// Open without the migration check; backups of older schemas are fine.
	database, err := db.OpenDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	backupPath := filepath.Join(*outputDir, fmt.Sprintf("crater-backup-%d.db", time.Now().Unix()))
	if err := security.ValidateExportPath(backupPath); err != nil {
		log.Fatalf("Invalid backup path: %v", err)
	}
	if _, err := database.Exec("VACUUM INTO ?", backupPath); err != nil {
		log.Fatalf("Backup failed: %v", err)
	}
	log.Printf("✓ Created: %s", backupPath)
}
