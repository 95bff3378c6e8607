/*
Pc compiles a source program against a user-supplied language definition.

It reads a regular-expression specification and an annotated BNF
specification, generates a lexer and an LL(1) parser from them, and compiles
the source program: the annotated listing is printed to stdout and the
emitted three-address code is written to the output file.

Usage:

	pc [--help] [<sourcefile>] [flags]

The flags are:

	-v, --version
		Give the current version of pc and then exit.

	-s, --source FILE
		Compile the given source file. Also accepted as the positional
		argument. Giving the property twice is an error.

	-r, --regex FILE
		Use the given regular-expression specification for the lexer.

	-p, --cfg FILE
		Use the given BNF specification for the parser and the attribute
		programs.

	-o, --out FILE
		Write the emitted three-address code to the given file instead of
		standard output.

	-C, --config FILE
		Read default paths from the given TOML file instead of pc.toml.

	-i, --inspect
		After building the frontend, open an interactive inspection shell
		instead of compiling.

Each property may be given at most once; repeating one is a fatal usage
error. Properties absent from both the command line and the config file fall
back to compiled-in defaults.
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/dekarrin/pike"
	"github.com/dekarrin/pike/internal/config"
	"github.com/dekarrin/pike/internal/inspect"
	"github.com/dekarrin/pike/internal/version"
)

// Compiled-in default input paths, used when neither the command line nor
// the config file names a file.
const (
	DefaultRegexFile  = "regex_pascal"
	DefaultCFGFile    = "cfg_pascal"
	DefaultSourceFile = "samples/source"
)

const (
	// ExitSuccess indicates a successful program execution.
	ExitSuccess = iota

	// ExitDiagnostics indicates the compile ran but raised diagnostics.
	ExitDiagnostics

	// ExitUsageError indicates a problem with the command line.
	ExitUsageError

	// ExitSpecError indicates the regex or BNF specification was rejected.
	ExitSpecError

	// ExitIOError indicates a file could not be read or written.
	ExitIOError
)

// onceValue is a pflag.Value that rejects being set twice, making a repeated
// property a usage error instead of a silent override.
type onceValue struct {
	val string
	set bool
}

func (o *onceValue) String() string { return o.val }
func (o *onceValue) Type() string   { return "file" }

func (o *onceValue) Set(s string) error {
	if o.set {
		return fmt.Errorf("property already assigned")
	}
	o.set = true
	o.val = s
	return nil
}

var (
	flagVersion = pflag.BoolP("version", "v", false, "Gives the version info")
	flagInspect = pflag.BoolP("inspect", "i", false, "Open an interactive inspection shell over the compiled frontend")

	flagSource onceValue
	flagRegex  onceValue
	flagCFG    onceValue
	flagOut    onceValue
	flagConfig onceValue
)

func init() {
	pflag.VarP(&flagSource, "source", "s", "The source file to compile")
	pflag.VarP(&flagRegex, "regex", "r", "The regular expression specification file")
	pflag.VarP(&flagCFG, "cfg", "p", "The file containing the language's Backus-Naur form")
	pflag.VarP(&flagOut, "out", "o", "The file emitted three-address code is written to")
	pflag.VarP(&flagConfig, "config", "C", "The TOML file supplying default paths")
}

var returnCode = ExitSuccess

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			// we are panicking, make sure we dont lose the panic just because
			// we checked
			panic(fmt.Sprintf("unrecoverable panic occured: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s\n", version.Current)
		return
	}

	opts, ok := resolveFiles()
	if !ok {
		return
	}

	regexText, err := os.ReadFile(opts.Regex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitIOError
		return
	}
	cfgText, err := os.ReadFile(opts.CFG)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitIOError
		return
	}

	feOpts := pike.Options{
		RegexSpec: string(regexText),
		CFGSpec:   string(cfgText),
		Debug:     os.Stdout,
	}
	if opts.Decorations != "" {
		decText, err := os.ReadFile(opts.Decorations)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitIOError
			return
		}
		feOpts.DecorationsSpec = string(decText)
	}

	frontend, err := pike.New(feOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitSpecError
		return
	}

	if *flagInspect {
		if err := inspect.Run(frontend, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitIOError
		}
		return
	}

	sourceText, err := os.ReadFile(opts.Source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitIOError
		return
	}

	result, err := frontend.Compile(string(sourceText))
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitSpecError
		return
	}

	fmt.Print(result.Listing)

	emitDest := os.Stdout
	if opts.Out != "" {
		f, err := os.Create(opts.Out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitIOError
			return
		}
		defer f.Close()
		emitDest = f
	}
	fmt.Fprint(emitDest, result.TAC)

	if !result.Clean {
		returnCode = ExitDiagnostics
	}
}

// resolveFiles merges the command line, the config file, and the compiled-in
// defaults into the final set of input paths.
func resolveFiles() (config.File, bool) {
	args := pflag.Args()
	if len(args) > 1 {
		fmt.Fprintf(os.Stderr, "ERROR: extra argument %q\n", args[1])
		returnCode = ExitUsageError
		return config.File{}, false
	}
	if len(args) == 1 {
		if flagSource.set {
			fmt.Fprintf(os.Stderr, "ERROR: source file already specified\n")
			returnCode = ExitUsageError
			return config.File{}, false
		}
		flagSource.val = args[0]
		flagSource.set = true
	}

	fromFlags := config.File{
		Regex:  flagRegex.val,
		CFG:    flagCFG.val,
		Source: flagSource.val,
		Out:    flagOut.val,
	}

	var fileCfg config.File
	var err error
	if flagConfig.set {
		fileCfg, err = config.Load(flagConfig.val)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitIOError
			return config.File{}, false
		}
	} else {
		fileCfg, _, err = config.LoadDefault()
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitIOError
			return config.File{}, false
		}
	}

	opts := fromFlags.Merge(fileCfg).Merge(config.File{
		Regex:  DefaultRegexFile,
		CFG:    DefaultCFGFile,
		Source: DefaultSourceFile,
	})
	return opts, true
}
