package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	isaFiles []string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "rvasm",
	Short: "A RISC-V assembler driven by instruction definition files",
	Long: `rvasm assembles RISC-V assembly into a flat little-endian binary.

The instruction set is read from Sexy definition files given with --isa.
Without --isa the built-in RV32I base integer set is used. Several --isa
files are merged, so extensions can live in their own files.
`,
	SilenceUsage: true,
}

var (
	buildOutput string
	buildList   bool
	buildBinary bool
)

var buildCmd = &cobra.Command{
	Use:   "build [-o output] <file>",
	Short: "Assemble a file to a flat binary",
	Long: `Build assembles a source file. The output defaults to the source name
with a .bin extension. Use "-o -" to write to stdout; when stdout is a
terminal the words are printed as binary digits instead of raw bytes.
`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		filename := args[0]
		spec := loadSpecOrExit()

		outputFile := buildOutput
		if outputFile == "" {
			outputFile = strings.TrimSuffix(filename, filepath.Ext(filename)) + ".bin"
		}
		if verbose {
			fmt.Printf("Assembling %s to %s with %s...\n", filename, outputFile, spec.Name())
		}

		asm := NewAssembler(spec)
		image, err := asm.Assemble(readSourceOrExit(filename))
		if err != nil {
			reportAndExit(filename, err)
		}

		if buildList {
			fmt.Print(FormatListing(asm.Listing()))
		}

		if outputFile == "-" {
			if buildBinary || term.IsTerminal(int(os.Stdout.Fd())) {
				fmt.Print(FormatBinary(image))
			} else if _, err := os.Stdout.Write(image); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
				os.Exit(1)
			}
			return
		}

		if err := os.WriteFile(outputFile, image, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file %s: %v\n", outputFile, err)
			os.Exit(1)
		}
		if buildBinary {
			fmt.Print(FormatBinary(image))
		}
		fmt.Printf("Generated %s (%d bytes)\n", outputFile, len(image))
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Assemble a file without writing output",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		filename := args[0]
		spec := loadSpecOrExit()
		if verbose {
			fmt.Printf("Checking %s...\n", filename)
		}

		asm := NewAssembler(spec)
		image, err := asm.Assemble(readSourceOrExit(filename))
		if err != nil {
			reportAndExit(filename, err)
		}

		fmt.Printf("%s: no errors found (%d bytes)\n", filename, len(image))
		if verbose {
			for _, sym := range asm.Symbols() {
				fmt.Printf("%08x %-8s %s\n", sym.Value, sym.Kind, sym.QualifiedName())
			}
		}
	},
}

var astSpew bool

var astCmd = &cobra.Command{
	Use:   "ast <file>",
	Short: "Print the syntax tree of a file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		filename := args[0]
		spec := loadSpecOrExit()

		program, err := Parse(readSourceOrExit(filename), spec)
		if err != nil {
			reportAndExit(filename, err)
		}

		if astSpew {
			cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true}
			fmt.Print(cfg.Sdump(program))
			return
		}
		for _, stmt := range program.Children {
			fmt.Println(ToSExpr(stmt))
		}
	},
}

var isaCmd = &cobra.Command{
	Use:   "isa",
	Short: "List the registers and instructions of the instruction set",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		spec := loadSpecOrExit()
		fmt.Printf("%s: ILEN=%d IALIGN=%d\n", spec.Name(), spec.InstructionBytes()*8, spec.AlignBytes()*8)

		fmt.Printf("registers: %s\n", strings.Join(spec.Registers(), " "))
		for _, mnemonic := range spec.Mnemonics() {
			forms := lo.Map(spec.Arities(mnemonic), func(arity int, _ int) string {
				format, _ := spec.Lookup(mnemonic, arity)
				return describeFormat(format)
			})
			fmt.Printf("  %-8s %s\n", mnemonic, strings.Join(forms, " | "))
		}
	},
}

func describeFormat(format *InstructionFormat) string {
	args := make([]string, format.Arity())
	for i := range args {
		args[i] = format.ArgField(i).Name
	}
	return fmt.Sprintf("%s(%s)", format.FormatName, strings.Join(args, ", "))
}

func loadSpecOrExit() *InstructionSpec {
	if len(isaFiles) == 0 {
		return DefaultInstructionSpec()
	}
	files := make([]DefinitionFile, 0, len(isaFiles))
	for _, path := range isaFiles {
		source, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading instruction definition %s: %v\n", path, err)
			os.Exit(1)
		}
		files = append(files, DefinitionFile{Name: path, Source: string(source)})
	}
	spec, err := LoadInstructionSpec(files...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid instruction definition: %v\n", err)
		os.Exit(1)
	}
	if verbose {
		fmt.Printf("Loaded %s: %d mnemonics\n", spec.Name(), len(spec.Mnemonics()))
	}
	return spec
}

func readSourceOrExit(filename string) string {
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file %s: %v\n", filename, err)
		os.Exit(1)
	}
	return string(source)
}

// reportAndExit prints err as file:line:col: message.
func reportAndExit(filename string, err error) {
	var ae *AssembleError
	if errors.As(err, &ae) {
		fmt.Fprintf(os.Stderr, "%s:%s\n", filename, ae)
	} else {
		fmt.Fprintf(os.Stderr, "%s: %v\n", filename, err)
	}
	os.Exit(1)
}

func init() {
	rootCmd.PersistentFlags().StringArrayVar(&isaFiles, "isa", nil, "instruction definition file (repeatable, default built-in RV32I)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show verbose details")

	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "output file path, or - for stdout (default: <file>.bin)")
	buildCmd.Flags().BoolVar(&buildList, "list", false, "print an address listing")
	buildCmd.Flags().BoolVar(&buildBinary, "binary", false, "print each word as binary digits")
	astCmd.Flags().BoolVar(&astSpew, "spew", false, "dump the full node structure")

	rootCmd.AddCommand(buildCmd, checkCmd, astCmd, isaCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
