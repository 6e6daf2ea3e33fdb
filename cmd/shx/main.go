// Command shx is a thin front door around the executor: it reads a
// plan file (a structural JSON or CBOR encoding of a command tree, not
// a shell script) and runs it. It is also the self-reexec entry point
// for backgrounded commands - that check happens before any cobra
// command parsing, mirroring the reexec-dispatch idiom the runc/
// libcontainer and faketree examples use for their own re-invocations.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opal-lang/shx/ast"
	"github.com/opal-lang/shx/exec"
	"github.com/opal-lang/shx/internal/planfmt"
)

func main() {
	for _, arg := range os.Args[1:] {
		if path, ok := strings.CutPrefix(arg, exec.ResumeFlag); ok {
			status, err := exec.ResumeBackground(path)
			if err != nil {
				fmt.Fprintln(os.Stderr, "shx: resuming background command:", err)
				os.Exit(1)
			}
			os.Exit(status)
		}
	}

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var format string
	var planPath string

	root := &cobra.Command{
		Use:   "shx",
		Short: "run a command tree from a plan file",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(planPath)
			if err != nil {
				return fmt.Errorf("reading plan file: %w", err)
			}

			node, err := decodePlan(data, format)
			if err != nil {
				return fmt.Errorf("decoding plan file: %w", err)
			}

			e := exec.New()
			status := e.Execute(cmd.Context(), node)
			os.Exit(status)
			return nil
		},
	}

	root.Flags().StringVarP(&planPath, "plan", "p", "", "path to a plan file (required)")
	root.Flags().StringVarP(&format, "format", "f", "json", "plan file format: json or cbor")
	_ = root.MarkFlagRequired("plan")

	return root
}

func decodePlan(data []byte, format string) (ast.Node, error) {
	if format == "cbor" {
		return planfmt.DecodeCBOR(data)
	}
	return planfmt.Decode(data)
}
