package clipboard

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"

	atotto "github.com/atotto/clipboard"
)

// Writer puts text where the user can paste it from.
type Writer interface {
	WriteAll(text string) error
}

// System writes to the OS clipboard and falls back to an OSC 52 escape on
// Out when no clipboard utility is available (for example over SSH).
type System struct {
	Out io.Writer
}

// WriteAll implements Writer.
func (s System) WriteAll(text string) error {
	if !atotto.Unsupported {
		if err := atotto.WriteAll(text); err == nil {
			return nil
		}
	}
	return writeOSC52(s.out(), text)
}

func (s System) out() io.Writer {
	if s.Out != nil {
		return s.Out
	}
	return os.Stdout
}

// writeOSC52 emits the terminal clipboard escape. Most modern terminals
// honour it.
func writeOSC52(w io.Writer, text string) error {
	_, err := fmt.Fprintf(w, "\033]52;c;%s\a", base64.StdEncoding.EncodeToString([]byte(text)))
	if err != nil {
		return fmt.Errorf("write OSC 52 sequence: %w", err)
	}
	return nil
}

// Available reports whether a system clipboard utility was found. When it
// was not, System falls back to OSC 52.
func Available() bool {
	return !atotto.Unsupported
}
