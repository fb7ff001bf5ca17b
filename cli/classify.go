package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/compozy/contentkit/engine/attachment"
	"github.com/compozy/contentkit/pkg/config"
	"github.com/compozy/contentkit/pkg/logger"
	"github.com/spf13/cobra"
)

// classifyOutput is the JSON shape of one classified file.
type classifyOutput struct {
	Name      string                   `json:"name"`
	MIME      string                   `json:"mime"`
	Kind      attachment.Kind          `json:"kind"`
	Charset   string                   `json:"charset,omitempty"`
	Content   string                   `json:"content,omitempty"`
	Pages     int                      `json:"pages,omitempty"`
	Warning   *attachment.AudioWarning `json:"warning,omitempty"`
	ErrorCode attachment.ErrorCode     `json:"error_code,omitempty"`
	Error     string                   `json:"error,omitempty"`
}

// ClassifyCmd classifies local files the way an upload would be handled.
func ClassifyCmd() *cobra.Command {
	var (
		mimeType    string
		jsonOutput  bool
		withContent bool
	)
	cmd := &cobra.Command{
		Use:   "classify <file|glob>...",
		Short: "Classify files as text, image, audio, pdf or unsupported",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			metrics, err := attachment.NewMetrics(ctx, monitoringFrom(ctx).Meter())
			if err != nil {
				logger.FromContext(ctx).Warn("Attachment metrics unavailable", "error", err)
			}
			classifier := attachment.FromConfig(config.FromContext(ctx), attachment.WithMetrics(metrics))
			paths, err := expandPaths(args)
			if err != nil {
				return err
			}
			files := make([]attachment.File, 0, len(paths))
			for _, path := range paths {
				f := attachment.NewLocalFile(path)
				if cmd.Flags().Changed("mime") {
					f.MIME = mimeType
				}
				files = append(files, f)
			}
			outputs := make([]classifyOutput, 0, len(files))
			for _, res := range classifier.ClassifyAll(ctx, files) {
				outputs = append(outputs, toClassifyOutput(res, withContent))
			}
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(outputs)
			}
			return writeClassifyTable(cmd.OutOrStdout(), outputs)
		},
	}
	cmd.Flags().StringVar(&mimeType, "mime", "", "Declared MIME type for every file (default: derived from the extension)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVar(&withContent, "content", false, "Include decoded text in the output")
	return cmd
}

// expandPaths expands glob arguments (including ** patterns). Plain paths are
// passed through untouched so that missing files surface as classification
// failures.
func expandPaths(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[{") {
			out = append(out, arg)
			continue
		}
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", arg)
		}
		out = append(out, matches...)
	}
	return out, nil
}

func toClassifyOutput(res attachment.Result, withContent bool) classifyOutput {
	src := res.Source()
	out := classifyOutput{Kind: res.Kind()}
	if src != nil {
		out.Name = src.Name()
		out.MIME = src.MIMEType()
	}
	switch r := res.(type) {
	case *attachment.TextFile:
		out.Charset = r.Charset
		if withContent {
			out.Content = r.Content
		}
	case *attachment.ImageFile:
	case *attachment.AudioFile:
		out.Warning = r.Warning
	case *attachment.PDFFile:
		out.Pages = r.Pages
	case *attachment.UnsupportedFile:
		if r.Err != nil {
			out.ErrorCode = r.Err.Code()
			out.Error = r.Err.Error()
		}
	}
	return out
}

func writeClassifyTable(w io.Writer, outputs []classifyOutput) error {
	for _, o := range outputs {
		line := fmt.Sprintf("%s  %s", labelStyle.Render(o.Name), renderKind(string(o.Kind)))
		switch {
		case o.Charset != "":
			line += "  " + mutedStyle.Render("charset="+o.Charset)
		case o.Pages > 0:
			line += "  " + mutedStyle.Render(fmt.Sprintf("pages=%d", o.Pages))
		case o.Warning != nil:
			line += "  " + warnStyle.Render(string(o.Warning.Code)+" ("+o.Warning.Extension+")")
		case o.ErrorCode != "":
			line += "  " + errorStyle.Render(string(o.ErrorCode)) + " " + mutedStyle.Render(o.Error)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
		if o.Content != "" {
			if _, err := fmt.Fprintln(w, o.Content); err != nil {
				return err
			}
		}
	}
	return nil
}
