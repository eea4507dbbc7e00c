package cli

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"frameworks/api_session_insights/internal/insights"
)

// tone says which direction of change is a regression.
type tone int

const (
	neutral tone = iota
	higherIsWorse
	higherIsBetter
)

// painter colors delta values for terminal output. The zero value prints plain text.
type painter struct {
	bad  *color.Color
	good *color.Color
}

// newPainter enables color only when out is a terminal and NO_COLOR is unset.
func newPainter(out io.Writer) painter {
	f, ok := out.(*os.File)
	if !ok || color.NoColor || !(isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return painter{}
	}
	bad := color.New(color.FgRed, color.Bold)
	good := color.New(color.FgGreen)
	bad.EnableColor()
	good.EnableColor()
	return painter{bad: bad, good: good}
}

func (p painter) paint(v insights.Value, t tone) string {
	s := v.String()
	if p.bad == nil || t == neutral || !v.Valid || v.Float == 0 {
		return s
	}
	worse := v.Float > 0
	if t == higherIsBetter {
		worse = !worse
	}
	if worse {
		return p.bad.Sprint(s)
	}
	return p.good.Sprint(s)
}
