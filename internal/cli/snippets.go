package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/sakif/snippets-guru/internal/guru"
	"github.com/sakif/snippets-guru/internal/model"
	"github.com/sakif/snippets-guru/internal/service"
)

// snippetFlags are shared by add and edit.
type snippetFlags struct {
	name        string
	description string
	code        string
	file        string
	tags        string
	scope       string
	priority    int
	active      bool
	push        bool
	public      bool
}

func (s *snippetFlags) register(f *flag.FlagSet) {
	f.StringVar(&s.name, "name", "", "Snippet name.")
	f.StringVar(&s.description, "description", "", "Snippet description.")
	f.StringVar(&s.code, "code", "", "Snippet code.")
	f.StringVar(&s.file, "file", "", "Read the code from this file instead of -code.")
	f.StringVar(&s.tags, "tags", "", "Comma-separated tags.")
	f.StringVar(&s.scope, "scope", model.DefaultScope, "Where the snippet runs.")
	f.IntVar(&s.priority, "priority", model.DefaultPriority, "Execution priority.")
	f.BoolVar(&s.active, "active", false, "Activate the snippet.")
	f.BoolVar(&s.push, "push", false, "Push changes to Snippets Guru. Defaults to the push_new_snippet setting for new snippets.")
	f.BoolVar(&s.public, "public", false, "Publish the snippet publicly when it is pushed.")
}

// readCode returns the code from -file or -code.
func (s *snippetFlags) readCode() (string, error) {
	if s.file == "" {
		return s.code, nil
	}
	if s.code != "" {
		return "", fmt.Errorf("-code and -file are mutually exclusive")
	}
	raw, err := os.ReadFile(s.file)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", s.file, err)
	}
	return string(raw), nil
}

func visited(f *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	f.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return set
}

func (c *Command) printSnippet(s *model.Snippet) {
	c.UI.Output(fmt.Sprintf("ID:          %s", s.ID))
	c.UI.Output(fmt.Sprintf("Name:        %s", s.Name))
	if s.Description != "" {
		c.UI.Output(fmt.Sprintf("Description: %s", s.Description))
	}
	if len(s.Tags) > 0 {
		c.UI.Output(fmt.Sprintf("Tags:        %s", strings.Join(s.Tags, ", ")))
	}
	c.UI.Output(fmt.Sprintf("Scope:       %s (priority %d)", s.Scope, s.Priority))
	c.UI.Output(fmt.Sprintf("Active:      %s", yesNo(s.Active)))
	c.UI.Output(fmt.Sprintf("Push:        %s (public: %s)", yesNo(s.Cloud.PushChange), yesNo(s.Cloud.IsPublic)))
	if !s.CloudRef.IsZero() {
		c.UI.Output(fmt.Sprintf("Cloud:       %s", s.CloudRef))
	}
}

type AddCommand struct {
	*Command
	s snippetFlags
}

func (c *AddCommand) Synopsis() string {
	return "Create a local snippet"
}

func (c *AddCommand) Help() string {
	return `Usage: guru add -name=<name> [options]

  Creates a local snippet. When pushing is enabled for it and a subscribed
  account is logged in, the snippet is published to Snippets Guru.` + flagHelp(c.flags())
}

func (c *AddCommand) flags() *flag.FlagSet {
	f := newFlagSet("add")
	c.s.register(f)
	return f
}

func (c *AddCommand) Run(args []string) int {
	f := c.flags()
	if err := f.Parse(args); err != nil {
		return c.usage(err.Error())
	}
	if f.NArg() != 0 {
		return c.usage("add takes no arguments")
	}

	code, err := c.s.readCode()
	if err != nil {
		return c.fail(err)
	}

	in := service.SnippetInput{
		Name:        c.s.name,
		Description: c.s.description,
		Code:        code,
		Tags:        splitTags(c.s.tags),
		Scope:       c.s.scope,
		Priority:    c.s.priority,
		Active:      c.s.active,
		IsPublic:    c.s.public,
	}
	if visited(f)["push"] {
		in.PushChange = &c.s.push
	}

	snippet, err := c.App.Snippets.Create(c.App.Ctx, in)
	if err != nil {
		return c.fail(err)
	}

	c.printSnippet(snippet)
	return 0
}

type EditCommand struct {
	*Command
	s snippetFlags
}

func (c *EditCommand) Synopsis() string {
	return "Change a local snippet"
}

func (c *EditCommand) Help() string {
	return `Usage: guru edit [options] <id>

  Changes the given fields of a local snippet. Unset options keep their
  current value.` + flagHelp(c.flags())
}

func (c *EditCommand) flags() *flag.FlagSet {
	f := newFlagSet("edit")
	c.s.register(f)
	return f
}

func (c *EditCommand) Run(args []string) int {
	f := c.flags()
	if err := f.Parse(args); err != nil {
		return c.usage(err.Error())
	}
	id, err := oneArg(f, "snippet ID")
	if err != nil {
		return c.usage(err.Error())
	}

	set := visited(f)
	var patch service.SnippetPatch
	if set["name"] {
		patch.Name = &c.s.name
	}
	if set["description"] {
		patch.Description = &c.s.description
	}
	if set["code"] || set["file"] {
		code, err := c.s.readCode()
		if err != nil {
			return c.fail(err)
		}
		patch.Code = &code
	}
	if set["tags"] {
		tags := splitTags(c.s.tags)
		patch.Tags = &tags
	}
	if set["scope"] {
		patch.Scope = &c.s.scope
	}
	if set["priority"] {
		patch.Priority = &c.s.priority
	}
	if set["active"] {
		patch.Active = &c.s.active
	}
	if set["push"] {
		patch.PushChange = &c.s.push
	}
	if set["public"] {
		patch.IsPublic = &c.s.public
	}

	snippet, err := c.App.Snippets.Update(c.App.Ctx, id, patch)
	if err != nil {
		return c.fail(err)
	}

	c.printSnippet(snippet)
	return 0
}

type DeleteCommand struct {
	*Command
}

func (c *DeleteCommand) Synopsis() string {
	return "Delete a local snippet"
}

func (c *DeleteCommand) Help() string {
	return `Usage: guru delete <id>

  Deletes a local snippet. Its Snippets Guru copy is kept.`
}

func (c *DeleteCommand) Run(args []string) int {
	if len(args) != 1 {
		return c.usage("expected exactly one snippet ID argument")
	}
	if err := c.App.Snippets.Delete(c.App.Ctx, args[0]); err != nil {
		return c.fail(err)
	}
	c.UI.Output("Deleted " + args[0] + ".")
	return 0
}

type ListCommand struct {
	*Command

	flagLimit     int
	flagOffset    int
	flagRemote    bool
	flagPage      int
	flagName      string
	flagNamespace string
}

func (c *ListCommand) Synopsis() string {
	return "List local or remote snippets"
}

func (c *ListCommand) Help() string {
	return `Usage: guru list [options]

  Lists local snippets, newest first. With -remote lists the snippets
  visible to the logged-in Snippets Guru account.` + flagHelp(c.flags())
}

func (c *ListCommand) flags() *flag.FlagSet {
	f := newFlagSet("list")
	f.IntVar(&c.flagLimit, "limit", service.DefaultListLimit, "Local: maximum number of snippets.")
	f.IntVar(&c.flagOffset, "offset", 0, "Local: number of snippets to skip.")
	f.BoolVar(&c.flagRemote, "remote", false, "List Snippets Guru snippets instead.")
	f.IntVar(&c.flagPage, "page", 1, "Remote: page number.")
	f.StringVar(&c.flagName, "name", "", "Remote: filter by name.")
	f.StringVar(&c.flagNamespace, "namespace", "", "Remote: filter by namespace.")
	return f
}

func (c *ListCommand) Run(args []string) int {
	f := c.flags()
	if err := f.Parse(args); err != nil {
		return c.usage(err.Error())
	}
	if f.NArg() != 0 {
		return c.usage("list takes no arguments")
	}

	var buf strings.Builder
	tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)

	if c.flagRemote {
		page, err := c.App.Sync.Browse(c.App.Ctx, guru.SnippetQuery{
			Page:      c.flagPage,
			Namespace: c.flagNamespace,
			Name:      c.flagName,
		})
		if err != nil {
			return c.fail(err)
		}

		fmt.Fprintln(tw, "UUID\tNAME\tNAMESPACE\tPUBLIC")
		for _, s := range page.Members {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.UUID, s.Name, s.Namespace, yesNo(s.IsPublic))
		}
		tw.Flush()
		c.UI.Output(strings.TrimRight(buf.String(), "\n"))
		c.UI.Output(fmt.Sprintf("%d of %d", len(page.Members), page.TotalItems))
		return 0
	}

	snippets, err := c.App.Snippets.List(c.App.Ctx, c.flagLimit, c.flagOffset)
	if err != nil {
		return c.fail(err)
	}

	fmt.Fprintln(tw, "ID\tNAME\tSCOPE\tACTIVE\tCLOUD")
	for _, s := range snippets {
		cloud := "-"
		if !s.CloudRef.IsZero() {
			cloud = s.CloudRef.SnippetUUID
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.Name, s.Scope, yesNo(s.Active), cloud)
	}
	tw.Flush()
	c.UI.Output(strings.TrimRight(buf.String(), "\n"))
	return 0
}

type PushCommand struct {
	*Command
}

func (c *PushCommand) Synopsis() string {
	return "Publish a local snippet to Snippets Guru now"
}

func (c *PushCommand) Help() string {
	return `Usage: guru push <id>

  Creates the snippet on Snippets Guru, or updates its linked copy.`
}

func (c *PushCommand) Run(args []string) int {
	if len(args) != 1 {
		return c.usage("expected exactly one snippet ID argument")
	}

	remote, err := c.App.Sync.Push(c.App.Ctx, args[0])
	if err != nil {
		return c.fail(err)
	}

	c.UI.Output(fmt.Sprintf("Pushed %s as remote snippet %s.", args[0], remote.UUID))
	return 0
}

type ResetCommand struct {
	*Command
}

func (c *ResetCommand) Synopsis() string {
	return "Unlink a local snippet from its Snippets Guru copy"
}

func (c *ResetCommand) Help() string {
	return `Usage: guru reset <id>

  Forgets the cloud reference. The next push creates a new remote snippet.`
}

func (c *ResetCommand) Run(args []string) int {
	if len(args) != 1 {
		return c.usage("expected exactly one snippet ID argument")
	}
	if err := c.App.Sync.ResetCloudRef(c.App.Ctx, args[0]); err != nil {
		return c.fail(err)
	}
	c.UI.Output("Cloud reference of " + args[0] + " removed.")
	return 0
}
