package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/japanoise/pttc/src/pt"
	"github.com/japanoise/pttc/src/ptt"
	"github.com/japanoise/pttc/src/pttc"
	"github.com/japanoise/pttc/src/yasm"
)

type options struct {
	yasm        string
	keepListing bool
	dumpLabels  bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "pttc [flags] file.ptt",
		Short: "Compile a pt test script into a .pt packet stream and .exp files",
		Long: `Pttc assembles the given script with yasm to learn its labels, then
encodes every "; @pt name(payload)" directive into <file>.pt. The .exp()
directive ends the packet directives; the comments that follow it are
written to <file>.exp (or <file>-<payload>.exp) with %label references
replaced by their addresses.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return compile(cmd, opts, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.yasm, "yasm", yasm.DefaultPath, "yasm binary; empty to skip assembling")
	flags.BoolVar(&opts.keepListing, "keep-listing", false, "keep the yasm .lst and .bin files")
	flags.BoolVar(&opts.dumpLabels, "dump-labels", false, "print the pt directive labels to stderr")

	cmd.AddCommand(newCheckCmd())
	return cmd
}

func compile(cmd *cobra.Command, opts *options, input string) error {
	cfg := &pttc.Config{
		PT:     pt.NewConfig(),
		Stdout: cmd.OutOrStdout(),
	}

	if opts.yasm != "" {
		table, err := yasm.Assemble(cmd.Context(), yasm.Options{
			Path:     opts.yasm,
			Input:    input,
			Fileroot: ptt.Fileroot(input),
			Keep:     opts.keepListing,
		})
		if err != nil {
			return err
		}
		cfg.Symbols = table
	}

	if opts.dumpLabels {
		pp.Default.SetColoringEnabled(term.IsTerminal(int(os.Stderr.Fd())))
		cfg.DumpLabels = cmd.ErrOrStderr()
	}

	return pttc.Compile(input, cfg)
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check expected.exp actual",
		Short: "Compare decoder output against an .exp file",
		Long: `Check compares a decoder's output with an .exp file line by line. A '?'
in the .exp file matches any character. On a mismatch a unified diff is
printed and the command fails.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			diff, ok, err := pttc.CheckFiles(args[0], args[1])
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprint(cmd.OutOrStdout(), diff)
				return fmt.Errorf("%s does not match %s", args[1], args[0])
			}
			return nil
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err.Error())
		os.Exit(1)
	}
}
