package main

import (
	"flag"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/prash-dwivedi/crater.report/internal/db"
	"github.com/prash-dwivedi/crater.report/internal/units"
	"github.com/prash-dwivedi/crater.report/internal/version"
)

var (
	devMode       = flag.Bool("dev", false, "Run in dev mode (migrations read from the source tree)")
	listen        = flag.String("listen", ":8080", "API listen address")
	monitorListen = flag.String("monitor-listen", ":8082", "Monitor listen address (status page, charts, metrics)")
	dbFile        = flag.String("db", "crater_data.db", "Path to the SQLite database file")
	configFile    = flag.String("config", "", "Path to analysis parameters JSON (built-in defaults when empty)")
	dataDirList   = flag.String("data-dirs", "", "Comma-separated directories dump files may be read from (empty allows any local path)")
	reportUnits   = flag.String("report-units", units.Nanometer, "Length unit for report presentation (nm or angstrom)")
	plotDir       = flag.String("plot-dir", "", "Directory for PNG plot output (default: crater-plots under the system temp dir)")
	skipMigCheck  = flag.Bool("skip-migration-check", false, "Skip the schema version check at startup")
)

// Main
func main() {
	flag.Usage = printUsage
	flag.Parse()

	command := flag.Arg(0)
	args := flag.Args()
	if len(args) > 0 {
		args = args[1:]
	}

	switch command {
	case "", "serve":
		runServe()
	case "analyze":
		runAnalyze(args)
	case "watch":
		runWatch(args)
	case "gen":
		runGen(args)
	case "migrate":
		db.DevMode = *devMode
		db.RunMigrateCommand(args, *dbFile)
	case "backup":
		runBackup(args)
	case "version":
		fmt.Println(version.String())
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`crater-report - crater geometry and volume analysis for molecular dynamics dumps

Usage: crater-report [flags] <command> [options]

Commands:
  serve      Run the API and monitor servers (default when no command is given)
  analyze    Analyze a dump file and store per-frame results
  watch      Follow a dump file or directory and analyze frames as they appear
  gen        Write a synthetic impact trajectory for testing
  migrate    Manage the database schema (up, down, status, version, force, baseline)
  backup     Write a vacuumed copy of the database
  version    Show version information
  help       Show this help message

Serve Flags (before the command):
  -listen <addr>           API listen address (default :8080)
  -monitor-listen <addr>   Monitor listen address (default :8082)
  -db <file>               SQLite database file (default crater_data.db)
  -config <file>           Analysis parameters JSON
  -data-dirs <a,b>         Restrict server-side dump reads to these directories
  -report-units <unit>     Report presentation unit: nm or angstrom
  -plot-dir <dir>          PNG plot output directory
  -dev                     Dev mode: read migrations from the source tree
  -skip-migration-check    Skip the schema version check at startup

Examples:
  # Serve the API on :8080 and the monitor on :8082
  crater-report -db crater_data.db

  # Analyze a dump into the default database
  crater-report analyze impact.dump

  # Follow a growing dump file, analyzing frames as they are written
  crater-report watch impact.dump

  # Generate a 50 frame synthetic trajectory
  crater-report gen -o synthetic.dump -n 50

  # Apply pending schema migrations
  crater-report -db crater_data.db migrate up`)
}
