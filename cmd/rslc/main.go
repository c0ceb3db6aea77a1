// Command rslc is a development tool for the RSL compiler: it parses
// and compiles a shader source file and reports diagnostics, or — with
// -disasm — prints the compiled instruction stream. It is a compiler
// debugging aid, not the renderer CLI spec.md's Non-goals exclude;
// nothing here dices geometry, samples textures, or writes an image.
//
// Usage:
//
//	rslc [options] <input.rsl>
//	cat input.rsl | rslc [options]
//
// Options:
//
//	-disasm             Print the compiled instruction stream instead of just checking
//	-config <file>      Use specific config file
//	-no-config          Ignore config files
//	-error-limit N       Override the configured diagnostic error limit
//	-include <dirs>     Comma-separated #include search directories, prepended to config's
//	-version            Print version and exit
//	-help               Print help and exit
//
// Config file:
//
//	rslc looks for rslc.yaml, .rslcrc, or .rslcrc.yaml in the current
//	directory and parent directories. Config file options are
//	overridden by CLI flags.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/reyes-sl/shade/internal/builtins"
	"github.com/reyes-sl/shade/internal/codegen"
	"github.com/reyes-sl/shade/internal/config"
	"github.com/reyes-sl/shade/internal/diagnostic"
	"github.com/reyes-sl/shade/internal/parser"
	"github.com/reyes-sl/shade/internal/symtab"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		disasm      bool
		configFile    string
		noConfig      bool
		errorLimit    int
		errorLimitSet bool
		includeDirs   string
		showVersion   bool
		showHelp      bool
	)

	flag.BoolVar(&disasm, "disasm", false, "Print the compiled instruction stream")
	flag.StringVar(&configFile, "config", "", "Use specific config `file`")
	flag.BoolVar(&noConfig, "no-config", false, "Ignore config files")
	flag.IntVar(&errorLimit, "error-limit", 0, "Override the configured diagnostic error limit")
	flag.StringVar(&includeDirs, "include", "", "Comma-separated #include search directories")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.BoolVar(&showHelp, "help", false, "Print help and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "rslc - RSL compiler debug tool v%s\n\n", version)
		fmt.Fprintf(os.Stderr, "Usage: rslc [options] <input.rsl>\n")
		fmt.Fprintf(os.Stderr, "       cat input.rsl | rslc [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		return nil
	}
	if showVersion {
		fmt.Printf("rslc v%s (%s)\n", version, commit)
		return nil
	}
	errorLimitSet = isFlagSet("error-limit")

	var source []byte
	var err error
	if flag.NArg() > 0 {
		source, err = os.ReadFile(flag.Arg(0))
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) != 0 {
			flag.Usage()
			return fmt.Errorf("no input file specified")
		}
		source, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
	}

	var cfg *config.Config
	if !noConfig {
		if configFile != "" {
			cfg, err = config.LoadFile(configFile)
			if err != nil {
				return fmt.Errorf("loading config file %s: %w", configFile, err)
			}
		} else {
			startDir, _ := os.Getwd()
			if flag.NArg() > 0 {
				startDir = filepath.Dir(flag.Arg(0))
			}
			cfg, _, err = config.Load(startDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
		}
	}

	var cliIncludes []string
	if includeDirs != "" {
		for _, d := range strings.Split(includeDirs, ",") {
			cliIncludes = append(cliIncludes, strings.TrimSpace(d))
		}
	}
	merge := config.MergeOptions{IncludePaths: cliIncludes}
	if errorLimitSet {
		merge.ErrorLimit = &errorLimit
	}
	opts := cfg.Merge(merge)

	pre, err := parser.Preprocess(string(source), opts.IncludePaths)
	if err != nil {
		return fmt.Errorf("preprocessing: %w", err)
	}

	tbl := symtab.New()
	builtins.PopulateGlobalFunctions(tbl)
	diags := diagnostic.NewDiagnosticList(pre)

	p := parser.New(pre, tbl, diags, parser.Options{
		IncludePaths:                   opts.IncludePaths,
		ToleratesUnresolvedIdentifiers: opts.ToleratesUnresolvedIdentifiers,
		ErrorLimit:                     opts.ErrorLimit,
		DefaultCoordinateSystem:        opts.DefaultCoordinateSystem,
		DefaultColorSpace:              opts.DefaultColorSpace,
	})
	root := p.Parse()

	for _, d := range diags.Diagnostics() {
		fmt.Fprintln(os.Stderr, d.Error())
	}
	if root == nil {
		return fmt.Errorf("parsing failed with %d error(s)", diags.ErrorCount())
	}

	shaders := codegen.NewGenerator(diags).Generate(root)
	if diags.HasErrors() {
		return fmt.Errorf("compilation failed with %d error(s)", diags.ErrorCount())
	}

	if disasm {
		for _, sh := range shaders {
			disassemble(os.Stdout, sh)
		}
		return nil
	}

	fmt.Printf("ok: compiled %d shader(s)\n", len(shaders))
	for _, sh := range shaders {
		fmt.Printf("  %s %s\n", sh.Kind, sh.Name)
	}
	return nil
}

func isFlagSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
