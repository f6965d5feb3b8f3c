package commands

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kristofer/navi/internal/bytecode"
)

var compileGzipMin int

var compileCmd = &cobra.Command{
	Use:   "compile <in.navi> [out.nvc]",
	Short: "Compile a navi source file to a .nvc bytecode image",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runCompile,
}

func init() {
	compileCmd.Flags().IntVar(&compileGzipMin, "gzip-min", 0,
		"gzip the image once its serialized body reaches this many bytes (0 = format default)")
}

func runCompile(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	out := args[0]
	if strings.HasSuffix(out, ".navi") {
		out = strings.TrimSuffix(out, ".navi")
	}
	out += ".nvc"
	if len(args) == 2 {
		out = args[1]
	}

	logger := newLogger()
	obj, _, err := newSession(logger)
	if err != nil {
		return err
	}
	code, err := compileSource(obj, string(data))
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()
	return bytecode.WriteCode(f, code, compileGzipMin)
}
