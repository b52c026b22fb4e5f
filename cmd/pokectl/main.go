package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/erazemk/pokestock/internal/client"
	"github.com/erazemk/pokestock/internal/inventory"
	"github.com/erazemk/pokestock/internal/model"
)

const usage = `Usage: pokectl [flags] <command> [args]

Flags:
  -s, -server <url>        server URL (default: http://localhost:8080, env POKESTOCK_SERVER)
  -t, -token-file <path>   where the session token is kept (default: <config dir>/pokestock/token)

Commands:
  login -email <address> [-password <pw>]   sign in with a password
  magic -email <address>                    email a sign-in link
  verify <token>                            finish signing in with a link token
  logout                                    sign out and revoke the token
  whoami                                    show the current session
  list [-q filter] [-range 7d|30d|all] [-page n]
  add -name <n> -set <s> -condition <c> -price <p>
  edit <id> [-name <n>] [-set <s>] [-condition <c>] [-price <p>]
  rm <id>
  stats [-range 7d|30d|all]
  watch [-q filter]                         print the list again whenever it changes
  theme [dark|light]                        show or set the web theme
`

// cli carries what every command needs.
type cli struct {
	client    *client.Client
	tokenFile string
	out       io.Writer
	in        io.Reader
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stdin); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		if errors.Is(err, model.ErrSessionExpired) {
			fmt.Fprintln(os.Stderr, "error: session expired, run `pokectl login` again")
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer, in io.Reader) error {
	fs := flag.NewFlagSet("pokectl", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() { fmt.Fprint(out, usage) }

	server := os.Getenv("POKESTOCK_SERVER")
	if server == "" {
		server = "http://localhost:8080"
	}
	fs.StringVar(&server, "server", server, "")
	fs.StringVar(&server, "s", server, "")

	tokenFile := defaultTokenFile()
	fs.StringVar(&tokenFile, "token-file", tokenFile, "")
	fs.StringVar(&tokenFile, "t", tokenFile, "")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	token, err := readToken(tokenFile)
	if err != nil {
		return err
	}
	c := &cli{client: client.New(server, token), tokenFile: tokenFile, out: out, in: in}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "login":
		return c.login(ctx, rest)
	case "magic":
		return c.magic(ctx, rest)
	case "verify":
		return c.verify(ctx, rest)
	case "logout":
		return c.logout(ctx)
	case "whoami":
		return c.whoami(ctx)
	case "list":
		return c.list(ctx, rest)
	case "add":
		return c.add(ctx, rest)
	case "edit":
		return c.edit(ctx, rest)
	case "rm":
		return c.rm(ctx, rest)
	case "stats":
		return c.stats(ctx, rest)
	case "watch":
		return c.watch(ctx, rest)
	case "theme":
		return c.theme(ctx, rest)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".pokestock-token"
	}
	return filepath.Join(dir, "pokestock", "token")
}

func readToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (c *cli) saveToken() error {
	if c.client.Token == "" {
		if err := os.Remove(c.tokenFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing token file: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.tokenFile), 0o700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}
	if err := os.WriteFile(c.tokenFile, []byte(c.client.Token+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	return nil
}

// parseSub parses a subcommand's flags. Flags and positional arguments may
// be mixed; positionals are returned in order.
func parseSub(fs *flag.FlagSet, args []string) ([]string, error) {
	fs.SetOutput(io.Discard)
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			return positional, nil
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
}

func parseID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, errors.New("expected exactly one card id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid card id %q", args[0])
	}
	return id, nil
}

func (c *cli) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "")
	password := fs.String("password", os.Getenv("POKESTOCK_PASSWORD"), "")
	if _, err := parseSub(fs, args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("login needs -email")
	}
	if *password == "" {
		fmt.Fprint(c.out, "Password: ")
		line, err := bufio.NewReader(c.in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("reading password: %w", err)
		}
		*password = strings.TrimRight(line, "\r\n")
	}

	if err := c.client.SignInWithPassword(ctx, *email, *password); err != nil {
		return err
	}
	if err := c.saveToken(); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Signed in as %s.\n", *email)
	return nil
}

func (c *cli) magic(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("magic", flag.ContinueOnError)
	email := fs.String("email", "", "")
	if _, err := parseSub(fs, args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("magic needs -email")
	}
	if err := c.client.SignInWithOTP(ctx, *email); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Sign-in link sent to %s. Run `pokectl verify <token>` with the token from the link.\n", *email)
	return nil
}

func (c *cli) verify(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("verify needs the token from the sign-in link")
	}
	if err := c.client.VerifyOTP(ctx, args[0]); err != nil {
		return err
	}
	if err := c.saveToken(); err != nil {
		return err
	}
	return c.whoami(ctx)
}

func (c *cli) logout(ctx context.Context) error {
	if c.client.Token == "" {
		fmt.Fprintln(c.out, "Not signed in.")
		return nil
	}
	err := c.client.SignOut(ctx)
	if errors.Is(err, model.ErrSessionExpired) {
		c.client.Token = ""
		err = nil
	}
	if err != nil {
		return err
	}
	if err := c.saveToken(); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Signed out.")
	return nil
}

func (c *cli) whoami(ctx context.Context) error {
	s, err := c.client.Session(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s (user %d), session valid until %s\n", s.Email, s.UserID, s.ExpiresAt.Local().Format("2006-01-02 15:04"))
	return nil
}

func (c *cli) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	filter := fs.String("q", "", "")
	rangeFlag := fs.String("range", string(inventory.RangeAll), "")
	page := fs.Int("page", 0, "")
	if _, err := parseSub(fs, args); err != nil {
		return err
	}
	rng, err := inventory.ParseRange(*rangeFlag)
	if err != nil {
		return err
	}

	m := inventory.New(c.client)
	m.SetRange(rng)
	m.SetFilter(*filter)
	if err := m.Load(ctx); err != nil {
		return err
	}

	cards := m.Visible()
	pageNum := min(*page, m.PageCount())
	if *page > 0 {
		cards = m.Page(pageNum - 1)
	}
	printCards(c.out, cards)
	if *page > 0 {
		fmt.Fprintf(c.out, "page %d of %d, ", pageNum, m.PageCount())
	}
	fmt.Fprintf(c.out, "%d of %d cards\n", len(m.Visible()), len(m.Cards()))
	return nil
}

func printCards(w io.Writer, cards []model.Card) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSET\tCONDITION\tPRICE\tADDED")
	for _, card := range cards {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.2f\t%s\n",
			card.ID, card.Name, card.Set, card.Condition, card.Price, card.CreatedAt.Local().Format("2006-01-02"))
	}
	tw.Flush()
}

// draftFlags registers the card form fields on fs.
func draftFlags(fs *flag.FlagSet, d *model.Draft) {
	fs.StringVar(&d.Name, "name", d.Name, "")
	fs.StringVar(&d.Set, "set", d.Set, "")
	fs.StringVar(&d.Condition, "condition", d.Condition, "")
	fs.StringVar(&d.Price, "price", d.Price, "")
}

func (c *cli) add(ctx context.Context, args []string) error {
	var d model.Draft
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	draftFlags(fs, &d)
	if _, err := parseSub(fs, args); err != nil {
		return err
	}

	card, err := inventory.New(c.client).Create(ctx, d)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Added %s (id %d).\n", card.Name, card.ID)
	return nil
}

func (c *cli) edit(ctx context.Context, args []string) error {
	m := inventory.New(c.client)
	if err := m.Load(ctx); err != nil {
		return err
	}

	// The id comes first so the current values can seed the flags.
	if len(args) == 0 {
		return errors.New("edit needs a card id")
	}
	id, err := parseID(args[:1])
	if err != nil {
		return err
	}
	current, ok := m.Get(id)
	if !ok {
		return model.ErrNotFound
	}

	d := model.DraftFromCard(current)
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	draftFlags(fs, &d)
	if _, err := parseSub(fs, args[1:]); err != nil {
		return err
	}

	card, err := m.Update(ctx, id, d)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Updated %s (id %d).\n", card.Name, card.ID)
	return nil
}

func (c *cli) rm(ctx context.Context, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}
	if err := inventory.New(c.client).Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Deleted card %d.\n", id)
	return nil
}

func (c *cli) stats(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	rangeFlag := fs.String("range", string(inventory.RangeMonth), "")
	if _, err := parseSub(fs, args); err != nil {
		return err
	}
	rng, err := inventory.ParseRange(*rangeFlag)
	if err != nil {
		return err
	}

	d, err := c.client.Dashboard(ctx, rng)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "%s\n", rng.Label())
	fmt.Fprintf(c.out, "Cards:       %d\n", d.TotalCards)
	fmt.Fprintf(c.out, "Total value: %.2f\n", d.TotalValue)
	fmt.Fprintf(c.out, "Sets:        %d\n\n", d.UniqueSets)

	highest := d.MaxConditionCount()
	for _, cc := range d.ByCondition {
		bar := 0
		if highest > 0 {
			bar = cc.Count * 30 / highest
		}
		fmt.Fprintf(c.out, "%-10s %s %d\n", cc.Condition, strings.Repeat("#", bar), cc.Count)
	}

	if len(d.Recent) > 0 {
		fmt.Fprintln(c.out, "\nRecently added:")
		printCards(c.out, d.Recent)
	}
	return nil
}

func (c *cli) watch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	filter := fs.String("q", "", "")
	if _, err := parseSub(fs, args); err != nil {
		return err
	}

	m := inventory.New(c.client)
	m.SetFilter(*filter)
	if err := m.Load(ctx); err != nil {
		return err
	}
	printCards(c.out, m.Visible())

	return m.Watch(ctx, func(err error) {
		if err != nil {
			fmt.Fprintf(c.out, "reload failed: %v\n", err)
			return
		}
		fmt.Fprintln(c.out)
		printCards(c.out, m.Visible())
	})
}

func (c *cli) theme(ctx context.Context, args []string) error {
	if len(args) == 0 {
		p, err := c.client.Preferences(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, p.Theme)
		return nil
	}
	if !model.ValidTheme(args[0]) {
		return fmt.Errorf("unknown theme %q (dark or light)", args[0])
	}
	if err := c.client.SetTheme(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Theme set to %s.\n", args[0])
	return nil
}
