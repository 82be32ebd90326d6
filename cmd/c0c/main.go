package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/xyproto/env/v2"
	"golang.org/x/term"

	"goc0/pkg/compiler"
	"goc0/pkg/image"
)

var rootCmd = &cobra.Command{
	Use:   "c0c <input> <output>",
	Short: "A compiler for the c0 language.",
	Long:  "Compiles a c0 source file into a bytecode image for the companion VM.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		configureLogging(cmd)

		src, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		prog, err := compiler.Compile(string(src))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		out, err := os.Create(args[1])
		if err != nil {
			return err
		}
		defer out.Close()
		if err := image.Write(out, prog); err != nil {
			return err
		}
		log.Debugf("wrote %s", args[1])
		return nil
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump <input>",
	Short: "print the token stream and per-function disassembly",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configureLogging(cmd)

		src, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		lexer := compiler.NewLexer(compiler.NewSourceIter(string(src)))
		fmt.Println("Tokens")
		for {
			tok, err := lexer.NextToken()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			fmt.Println(" ", tok)
			if tok.Type == compiler.EOF {
				break
			}
		}

		prog, err := compiler.Compile(string(src))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		fmt.Println()
		fmt.Println("Globals")
		for i, g := range prog.Globals {
			fmt.Printf("  %3d  const=%-5v len=%-4d %q\n", i, g.IsConst, len(g.Bytes), g.Name)
		}
		for _, fn := range prog.Functions {
			fmt.Printf("\nfn %s (id=%d, params=%d, locals=%d, ret=%s)\n",
				fn.Name, fn.ID, len(fn.Params), fn.LocalSlots, fn.ReturnType)
			for i, ins := range fn.Instructions {
				fmt.Printf("  %3d  %s\n", i, ins)
			}
		}
		return nil
	},
}

// configureLogging raises the level on --verbose or C0C_DEBUG=1, and colors
// output only when stderr is a terminal.
func configureLogging(cmd *cobra.Command) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose || env.Bool("C0C_DEBUG") {
		log.SetLevel(log.DebugLevel)
	}
	log.SetFormatter(&log.TextFormatter{
		ForceColors: term.IsTerminal(int(os.Stderr.Fd())),
	})
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")
	rootCmd.AddCommand(dumpCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
