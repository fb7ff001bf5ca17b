package cli

import (
	"fmt"
	"os"

	"github.com/compozy/contentkit/engine/textdecode"
	"github.com/compozy/contentkit/pkg/config"
	"github.com/spf13/cobra"
)

// DecodeCmd decodes a file to UTF-8 text using the charset heuristics.
func DecodeCmd() *cobra.Command {
	var contentType string
	cmd := &cobra.Command{
		Use:   "decode <file>",
		Short: "Decode a file to UTF-8 text",
		Long: `Decode a file using the declared charset, the UTF-8 default, HTML meta
declarations and mojibake fallbacks. The text is written to stdout and the
charset that was used is reported on stderr.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read failed: %w", err)
			}
			res := textdecode.FromConfig(config.FromContext(ctx)).Decode(ctx, data, contentType)
			fmt.Fprintln(cmd.ErrOrStderr(), mutedStyle.Render("charset: "+res.Charset))
			_, err = fmt.Fprint(cmd.OutOrStdout(), res.Text)
			return err
		},
	}
	cmd.Flags().StringVar(&contentType, "content-type", "", "Content-Type header to use as the charset hint")
	return cmd
}
