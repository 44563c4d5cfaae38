package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/maildummy/s3-magiclink/internal/output"
)

// PrintError reports err on w: the usage line for a bad invocation,
// "Error: <message>" for everything else.
func PrintError(w io.Writer, err error) {
	if errors.Is(err, ErrUsage) {
		fmt.Fprintln(w, UsageLine)
		return
	}
	output.NewPrinter(w).Error(err.Error())
}
