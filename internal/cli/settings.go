package cli

import (
	"fmt"
	"sort"

	"github.com/sakif/snippets-guru/internal/model"
)

type SettingsCommand struct {
	*Command
}

func (c *SettingsCommand) Synopsis() string {
	return "Show or change the cloud settings"
}

func (c *SettingsCommand) Help() string {
	return `Usage: guru settings
       guru settings <key> <on|off>

  Without arguments prints every setting. The switchable keys are
  push_new_snippet and async_push. The token is managed by "guru token".`
}

func (c *SettingsCommand) Run(args []string) int {
	switch len(args) {
	case 0:
		return c.show()
	case 2:
		if err := c.App.Settings.SetFlag(c.App.Ctx, args[0], args[1]); err != nil {
			return c.fail(err)
		}
		return c.show()
	default:
		return c.usage("expected no arguments or a key and a value")
	}
}

func (c *SettingsCommand) show() int {
	all, err := c.App.Settings.All(c.App.Ctx)
	if err != nil {
		return c.fail(err)
	}

	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		value := all[k]
		switch {
		case k == model.SettingAuthToken && value != "":
			value = "(set)"
		case k == model.SettingAuthToken:
			value = "(not set)"
		default:
			value = onOff(model.Truthy(value))
		}
		c.UI.Output(fmt.Sprintf("%-18s %s", k, value))
	}
	return 0
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
