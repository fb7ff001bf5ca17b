package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/compozy/contentkit/engine/textdecode"
	"github.com/spf13/cobra"
)

// SniffCmd reports whether a file looks binary.
func SniffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sniff <file>",
		Short: "Report whether a file looks binary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			head, err := readHead(args[0], textdecode.SniffWindow)
			if err != nil {
				return err
			}
			verdict := okStyle.Render("text")
			if textdecode.IsProbablyBinary(head) {
				verdict = warnStyle.Render("binary")
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], verdict)
			return err
		},
	}
}

func readHead(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open failed: %w", err)
	}
	defer f.Close()
	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read failed: %w", err)
	}
	return buf[:read], nil
}
