package cli

import (
	"flag"
	"fmt"
	"time"
)

type PreviewCommand struct {
	*Command
}

func (c *PreviewCommand) Synopsis() string {
	return "Show a Snippets Guru snippet without importing it"
}

func (c *PreviewCommand) Help() string {
	return `Usage: guru preview <uuid>

  Fetches a remote snippet and prints it as it would be imported. The code
  shown is the excerpt of its first blob.`
}

func (c *PreviewCommand) Run(args []string) int {
	if len(args) != 1 {
		return c.usage("expected exactly one snippet UUID argument")
	}

	preview, err := c.App.Sync.Preview(c.App.Ctx, args[0])
	if err != nil {
		return c.fail(err)
	}

	c.printSnippet(preview)
	c.UI.Output(fmt.Sprintf("Owned:       %s", yesNo(preview.Cloud.Owned)))
	c.UI.Output("")
	c.UI.Output(preview.Code)
	return 0
}

type ImportCommand struct {
	*Command

	flagLink bool
}

func (c *ImportCommand) Synopsis() string {
	return "Copy a Snippets Guru snippet into the local store"
}

func (c *ImportCommand) Help() string {
	return `Usage: guru import [-link] <uuid>

  Stores a remote snippet locally as an inactive snippet. With -link the
  local copy stays linked, so pushing it updates the remote snippet.` + flagHelp(c.flags())
}

func (c *ImportCommand) flags() *flag.FlagSet {
	f := newFlagSet("import")
	f.BoolVar(&c.flagLink, "link", false, "Keep the cloud reference.")
	return f
}

func (c *ImportCommand) Run(args []string) int {
	f := c.flags()
	if err := f.Parse(args); err != nil {
		return c.usage(err.Error())
	}
	uuid, err := oneArg(f, "snippet UUID")
	if err != nil {
		return c.usage(err.Error())
	}

	snippet, err := c.App.Sync.Import(c.App.Ctx, uuid, c.flagLink)
	if err != nil {
		return c.fail(err)
	}

	c.printSnippet(snippet)
	return 0
}

type RevisionCommand struct {
	*Command
}

func (c *RevisionCommand) Synopsis() string {
	return "Show a blob revision"
}

func (c *RevisionCommand) Help() string {
	return `Usage: guru revision <uuid>

  Prints one historical version of a blob.`
}

func (c *RevisionCommand) Run(args []string) int {
	if len(args) != 1 {
		return c.usage("expected exactly one revision UUID argument")
	}

	rev, err := c.App.Client.Revisions().Get(c.App.Ctx, args[0])
	if err != nil {
		return c.fail(err)
	}

	c.UI.Output(fmt.Sprintf("Revision: %s", rev.UUID))
	c.UI.Output(fmt.Sprintf("Blob:     %s", rev.Blob))
	if !rev.CreatedAt.IsZero() {
		c.UI.Output(fmt.Sprintf("Created:  %s", rev.CreatedAt.Format(time.RFC3339)))
	}
	c.UI.Output("")
	c.UI.Output(rev.Content)
	return 0
}
