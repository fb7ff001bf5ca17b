package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/compozy/contentkit/engine/streaming/sse"
)

// FormatError renders a command error for the terminal.
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	var netErr *sse.NetworkError
	if errors.As(err, &netErr) {
		return fmt.Sprintf("%s\n%s",
			errorStyle.Render("Error: upstream returned "+strconv.Itoa(netErr.Status)),
			mutedStyle.Render("Details: "+netErr.Message),
		)
	}
	return errorStyle.Render("Error: " + err.Error())
}
