package cli

import (
	"github.com/mitchellh/cli"
)

// Commands returns the command table for app.
func Commands(app *App, ui cli.Ui) map[string]cli.CommandFactory {
	base := &Command{App: app, UI: ui}

	return map[string]cli.CommandFactory{
		"login":    func() (cli.Command, error) { return &LoginCommand{Command: base}, nil },
		"token":    func() (cli.Command, error) { return &TokenCommand{Command: base}, nil },
		"account":  func() (cli.Command, error) { return &AccountCommand{Command: base}, nil },
		"add":      func() (cli.Command, error) { return &AddCommand{Command: base}, nil },
		"edit":     func() (cli.Command, error) { return &EditCommand{Command: base}, nil },
		"delete":   func() (cli.Command, error) { return &DeleteCommand{Command: base}, nil },
		"list":     func() (cli.Command, error) { return &ListCommand{Command: base}, nil },
		"push":     func() (cli.Command, error) { return &PushCommand{Command: base}, nil },
		"reset":    func() (cli.Command, error) { return &ResetCommand{Command: base}, nil },
		"preview":  func() (cli.Command, error) { return &PreviewCommand{Command: base}, nil },
		"import":   func() (cli.Command, error) { return &ImportCommand{Command: base}, nil },
		"revision": func() (cli.Command, error) { return &RevisionCommand{Command: base}, nil },
		"settings": func() (cli.Command, error) { return &SettingsCommand{Command: base}, nil },
	}
}
