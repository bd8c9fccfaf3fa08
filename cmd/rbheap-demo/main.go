// Command rbheap-demo drives the allocator through the walkthroughs
// described in SPEC_FULL.md §8 and reports pass/fail for each one. It is
// explicitly out-of-core tooling (SPEC_FULL.md §1/§4.8): nothing under
// internal/ or the root package imports this command.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/fsnotify/fsnotify"

	"github.com/orizon-lang/rbheap"
	"github.com/orizon-lang/rbheap/internal/cli"
	"github.com/orizon-lang/rbheap/internal/rbdebug"
)

const toolName = "rbheap-demo"

var commands = []cli.CommandInfo{
	{
		Name:        "run",
		Usage:       toolName + " [run] [OPTIONS]",
		Description: "run every scenario once, or watch a file and re-run on change",
		Flags: []cli.FlagInfo{
			{Name: "config", Usage: "load defaults (verbose, debug, span size) from a JSON config file"},
			{Name: "save-config", Usage: "write the effective config to this path after parsing flags"},
			{Name: "verbose", Usage: "enable info-level logging"},
			{Name: "debug", Usage: "enable debug-level logging and print the free-region tree per scenario"},
			{Name: "watch", Usage: "re-run all scenarios whenever this file changes"},
			{Name: "json", Usage: "print version information as JSON and exit"},
			{Name: "version", Usage: "print version information and exit"},
		},
		Examples: []string{
			toolName + " run",
			toolName + " -debug",
			toolName + " run -config demo.json -watch workload.txt",
		},
	},
	{
		Name:        "list",
		Usage:       toolName + " list",
		Description: "list the available scenario names and exit",
	},
	{
		Name:        "describe",
		Usage:       toolName + " describe <scenario-name>",
		Description: "print a one-line description of a single scenario",
		Examples:    []string{toolName + " describe S5"},
	},
	{
		Name:        "help",
		Usage:       toolName + " help [COMMAND]",
		Description: "show usage for the tool, or for one command",
	},
}

func commandInfo(name string) (cli.CommandInfo, bool) {
	for _, c := range commands {
		if c.Name == name {
			return c, true
		}
	}

	return cli.CommandInfo{}, false
}

func main() {
	if _, err := semver.StrictNewVersion(cli.Version); err != nil {
		cli.ExitWithError("tool version %q is not valid semver: %v", cli.Version, err)
	}

	args := os.Args[1:]

	cmd, rest := "run", args
	if len(args) > 0 {
		switch args[0] {
		case "run", "list", "describe", "help":
			cmd, rest = args[0], args[1:]
		}
	}

	switch cmd {
	case "list":
		listCommand()
	case "describe":
		describeCommand(rest)
	case "help":
		helpCommand(rest)
	default:
		runCommand(rest)
	}
}

func listCommand() {
	for _, sc := range scenarios {
		fmt.Println(sc.name)
	}
}

func describeCommand(args []string) {
	if err := cli.ValidateArgs(args, 1, "describe <scenario-name>"); err != nil {
		cli.ExitWithCode(2, "%v", err)
	}

	for _, sc := range scenarios {
		if sc.name == args[0] {
			fmt.Println(sc.describe)

			return
		}
	}

	cli.HandleError(fmt.Errorf("unknown scenario %q", args[0]), cli.NewLogger(false, false))
}

func helpCommand(args []string) {
	if len(args) == 0 {
		cli.PrintUsage(toolName, commands)

		return
	}

	info, ok := commandInfo(args[0])
	if !ok {
		cli.ExitWithCode(3, "unknown command %q", args[0])
	}

	cli.PrintCommandUsage(toolName, info)
}

func runCommand(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)

	var (
		jsonOut    = fs.Bool("json", false, "print version information as JSON and exit")
		showVer    = fs.Bool("version", false, "print version information and exit")
		verbose    = fs.Bool("verbose", false, "enable info-level logging")
		debugMode  = fs.Bool("debug", false, "enable debug-level logging and print the free-region tree per scenario")
		watchPath  = fs.String("watch", "", "re-run all scenarios whenever this file changes (dev convenience)")
		configPath = fs.String("config", "", "load defaults from a JSON config file")
		saveConfig = fs.String("save-config", "", "write the effective config to this path after parsing flags")
	)

	fs.Usage = func() {
		info, _ := commandInfo("run")
		cli.PrintCommandUsage(toolName, info)
	}

	if err := fs.Parse(args); err != nil {
		return // flag.ExitOnError already terminated the process on a parse failure.
	}

	if err := cli.ValidateArgs(fs.Args(), 0, "run [OPTIONS]"); err != nil {
		cli.ExitWithCode(2, "%v", err)
	}

	if *showVer || *jsonOut {
		cli.PrintVersion(toolName, *jsonOut)

		return
	}

	cfg, err := cli.LoadConfig(*configPath)
	if err != nil {
		cli.HandleError(err, cli.NewLogger(true, false))
	}

	if *verbose {
		cfg.Verbose = true
	}

	if *debugMode {
		cfg.Debug = true
	}

	if *saveConfig != "" {
		if err := cfg.SaveConfig(*saveConfig); err != nil {
			cli.HandleError(err, cli.NewLogger(cfg.Verbose, cfg.Debug))
		}
	}

	logger := cli.NewLogger(cfg.Verbose, cfg.Debug)

	if *watchPath != "" {
		runWatch(*watchPath, logger, cfg.Debug, cfg.DefaultSpanBytes)

		return
	}

	if !runAll(logger, cfg.Debug, cfg.DefaultSpanBytes) {
		os.Exit(1)
	}
}

// runAll executes every registered scenario against a fresh Allocator and
// prints a PASS/FAIL line for each. span is the address-space reservation
// each Allocator is built with (0 keeps heap.DefaultSpan). It returns true
// only if all scenarios passed.
func runAll(logger *cli.Logger, printTree bool, span uintptr) bool {
	allOK := true

	for _, sc := range scenarios {
		a, err := rbheap.New(span)
		if err != nil {
			logger.Error("%s: could not create allocator: %v", sc.name, err)
			allOK = false

			continue
		}

		runErr := sc.run(a)

		if printTree {
			rbdebug.PrintTree(os.Stdout, a.Index())
		}

		if runErr != nil {
			fmt.Printf("FAIL %-6s %v\n", sc.name, runErr)
			allOK = false
		} else {
			fmt.Printf("PASS %-6s\n", sc.name)
		}

		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("%s: closing allocator: %v", sc.name, closeErr)
		}
	}

	return allOK
}

// runWatch re-runs every scenario each time path is written to, using the
// same fsnotify primitive the teacher's tooling uses for source reloads.
func runWatch(path string, logger *cli.Logger, printTree bool, span uintptr) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		cli.ExitWithError("creating watcher: %v", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		cli.ExitWithError("watching %s: %v", path, err)
	}

	logger.Info("watching %s; running scenarios on every write", path)
	runAll(logger, printTree, span)

	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			debounce.Reset(100 * time.Millisecond)
		case <-debounce.C:
			logger.Info("change detected, re-running scenarios")
			runAll(logger, printTree, span)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}

			logger.Warn("watcher error: %v", err)
		}
	}
}
