package cli

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/snippets-guru/internal/auth"
)

type LoginCommand struct {
	*Command

	flagEmail    string
	flagPassword string
}

func (c *LoginCommand) Synopsis() string {
	return "Log in to Snippets Guru and store the token"
}

func (c *LoginCommand) Help() string {
	return `Usage: guru login -email=<email> [-password=<password>]

  Exchanges account credentials for a token and stores it. Without
  -password the password is read from the terminal.` + flagHelp(c.flags())
}

func (c *LoginCommand) flags() *flag.FlagSet {
	f := newFlagSet("login")
	f.StringVar(&c.flagEmail, "email", "", "Account email.")
	f.StringVar(&c.flagPassword, "password", "", "Account password.")
	return f
}

func (c *LoginCommand) Run(args []string) int {
	f := c.flags()
	if err := f.Parse(args); err != nil {
		return c.usage(err.Error())
	}
	if c.flagEmail == "" {
		return c.usage("-email is required")
	}

	password := c.flagPassword
	if password == "" {
		var err error
		password, err = c.UI.AskSecret("Password:")
		if err != nil {
			return c.fail(err)
		}
	}

	notices, err := c.App.Accounts.Login(c.App.Ctx, c.flagEmail, password)
	if err != nil {
		return c.fail(err)
	}
	c.notices(notices)
	if len(notices) == 0 {
		c.UI.Output("Logged in.")
	}
	return 0
}

type TokenCommand struct {
	*Command

	flagClear bool
}

func (c *TokenCommand) Synopsis() string {
	return "Verify and store an authorization token"
}

func (c *TokenCommand) Help() string {
	return `Usage: guru token <token>
       guru token -clear

  Checks the token against the account endpoint and stores it when it is
  accepted. A rejected token is not stored.` + flagHelp(c.flags())
}

func (c *TokenCommand) flags() *flag.FlagSet {
	f := newFlagSet("token")
	f.BoolVar(&c.flagClear, "clear", false, "Remove the stored token.")
	return f
}

func (c *TokenCommand) Run(args []string) int {
	f := c.flags()
	if err := f.Parse(args); err != nil {
		return c.usage(err.Error())
	}

	var token string
	switch {
	case c.flagClear:
		if f.NArg() != 0 {
			return c.usage("-clear takes no arguments")
		}
	case f.NArg() == 1:
		token = f.Arg(0)
		if strings.TrimSpace(token) == "" {
			return c.usage("token must not be empty; use -clear to remove it")
		}
	default:
		return c.usage("expected exactly one token argument")
	}

	notices, err := c.App.Accounts.SaveAuthToken(c.App.Ctx, token)
	if err != nil {
		return c.fail(err)
	}
	c.notices(notices)

	switch {
	case c.flagClear:
		c.UI.Output("Token removed.")
	case len(notices) == 0:
		c.UI.Output("Token saved.")
	}
	return 0
}

type AccountCommand struct {
	*Command
}

func (c *AccountCommand) Synopsis() string {
	return "Show the account of the configured token"
}

func (c *AccountCommand) Help() string {
	return `Usage: guru account

  Prints the Snippets Guru account the current token belongs to and its
  subscription state.`
}

func (c *AccountCommand) Run(args []string) int {
	if len(args) != 0 {
		return c.usage("account takes no arguments")
	}

	acct, err := c.App.Accounts.Current(c.App.Ctx)
	if err != nil {
		return c.fail(err)
	}
	if acct == nil {
		c.UI.Output("Not logged in.")
		return 0
	}

	c.UI.Output(fmt.Sprintf("Username:      %s", acct.Username))
	c.UI.Output(fmt.Sprintf("Email:         %s", acct.Email))
	c.UI.Output(fmt.Sprintf("Subscription:  %s", subscription(acct.Billing.IsActive, acct.Billing.ExpiredAt)))

	if token, ok := c.App.Tokens.Retrieve(c.App.Ctx); ok {
		if exp, ok := auth.TokenExpiry(token); ok {
			c.UI.Output(fmt.Sprintf("Token expires: %s", exp.Format(time.DateOnly)))
		}
	}
	return 0
}

func subscription(active bool, expiredAt time.Time) string {
	if !active {
		return "inactive"
	}
	if expiredAt.IsZero() {
		return "active"
	}
	return "active until " + expiredAt.Format(time.DateOnly)
}
