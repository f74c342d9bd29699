package cli

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/mitchellh/cli"

	"github.com/sakif/snippets-guru/internal/apperror"
	"github.com/sakif/snippets-guru/internal/service"
)

// Command is embedded by every subcommand.
type Command struct {
	App *App
	UI  cli.Ui
}

func newFlagSet(name string) *flag.FlagSet {
	f := flag.NewFlagSet(name, flag.ContinueOnError)
	f.SetOutput(io.Discard)
	return f
}

// flagHelp renders the defaults of f for a Help text.
func flagHelp(f *flag.FlagSet) string {
	var buf bytes.Buffer
	f.SetOutput(&buf)
	f.PrintDefaults()
	f.SetOutput(io.Discard)
	if buf.Len() == 0 {
		return ""
	}
	return "\n\nOptions:\n\n" + buf.String()
}

// fail reports err and returns the exit code for it.
func (c *Command) fail(err error) int {
	var appErr *apperror.AppError
	switch {
	case errors.As(err, &appErr) && errors.Is(err, apperror.ErrValidation):
		c.UI.Error(appErr.Message)
	default:
		c.UI.Error(err.Error())
	}
	return 1
}

func (c *Command) usage(help string) int {
	c.UI.Error(help)
	return cli.RunResultHelp
}

func (c *Command) notices(notices []service.Notice) {
	for _, n := range notices {
		switch n.Level {
		case service.NoticeWarning:
			c.UI.Warn(n.Message)
		default:
			c.UI.Info(n.Message)
		}
	}
}

func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func oneArg(f *flag.FlagSet, what string) (string, error) {
	if f.NArg() != 1 {
		return "", fmt.Errorf("expected exactly one %s argument", what)
	}
	return f.Arg(0), nil
}
