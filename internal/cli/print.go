package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"xmlrecords/internal/json"
)

type printer interface {
	PrettyPrint() string
	JSON() ([]byte, error)
}

func print(cmd *cobra.Command, p printer, asJSON bool) error {
	str := p.PrettyPrint()

	if asJSON {
		data, err := p.JSON()
		if err != nil {
			return err
		}

		str = string(json.Indent(data, "", "\t"))
	}

	_, err := fmt.Fprintln(cmd.OutOrStdout(), str)

	return err
}

// spinner shows progress of a command on a terminal. Off a terminal every
// method is a no-op.
type spinner struct {
	sp *pterm.SpinnerPrinter
}

func startSpinner(cmd *cobra.Command, enabled bool, text string) *spinner {
	w := cmd.ErrOrStderr()
	if !enabled || !isTerminal(w) {
		return &spinner{}
	}

	sp, _ := pterm.DefaultSpinner.WithWriter(w).WithText(text).Start()

	return &spinner{sp: sp}
}

func (s *spinner) success(msg string) {
	if s.sp != nil {
		s.sp.Success(msg)
	}
}

func (s *spinner) warning(msg string) {
	if s.sp != nil {
		s.sp.Warning(msg)
	}
}

func (s *spinner) fail(err error) {
	if s.sp != nil {
		s.sp.Fail(err.Error())
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
