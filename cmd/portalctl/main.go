// Command portalctl is a terminal client for the Syntax Club portal API:
// it drives the same session, catalog, and contact flows the web portal
// uses, which makes it handy for smoke-testing a deployment.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/goliatone/go-print"

	portal "github.com/syntaxclub/go-portal"
	"github.com/syntaxclub/go-portal/adapters/zaplog"
	"github.com/syntaxclub/go-portal/arvantis"
	"github.com/syntaxclub/go-portal/contacts"
	"github.com/syntaxclub/go-portal/paginate"
	"github.com/syntaxclub/go-portal/tickets"
	"github.com/syntaxclub/go-portal/transport"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func usage() {
	fmt.Fprintf(os.Stderr, `portalctl %s
Usage:
  portalctl [-base URL] [-timeout SECONDS] [-storage FILE] [-debug] <cmd> [args]

Commands:
  version
  login        -i <email|institutional id> -p <password>
  login-admin  -e <email> -p <password>
  logout
  whoami
  landing                                      live arvantis edition summary
  fests        [-page N] [-limit N]
  fest         -id <slug> | -year <year>
  events       [-page N] [-limit N] [-search TEXT] [-upcoming]
  event        -id <id>
  tickets      -event <id> [-page N]
  ticket-used  -id <id> [-undo]
  members      [-page N] [-search TEXT]        admin only
  leaders
  contact      -name NAME -email EMAIL -message TEXT [-subject S] [-phone P]
  socials      [-page N]
`, version)
	os.Exit(2)
}

func main() {
	base := flag.String("base", "", "API origin (default from PORTAL_API_BASE_URL)")
	timeout := flag.Int("timeout", 0, "per-request timeout in seconds")
	storagePath := flag.String("storage", "", "storage document path")
	debug := flag.Bool("debug", false, "verbose logging")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}

	if flag.Arg(0) == "version" {
		fmt.Printf("portalctl %s (%s)\n", version, buildDate)
		return
	}

	p := buildPortal(*base, *timeout, *storagePath, *debug)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	args := flag.Args()[1:]
	switch flag.Arg(0) {
	case "login":
		cmdLogin(ctx, p, args)
	case "login-admin":
		cmdLoginAdmin(ctx, p, args)
	case "logout":
		cmdLogout(ctx, p)
	case "whoami":
		cmdWhoami(ctx, p)
	case "landing":
		cmdLanding(ctx, p)
	case "fests":
		cmdFests(ctx, p, args)
	case "fest":
		cmdFest(ctx, p, args)
	case "events":
		cmdEvents(ctx, p, args)
	case "event":
		cmdEvent(ctx, p, args)
	case "tickets":
		cmdTickets(ctx, p, args)
	case "ticket-used":
		cmdTicketUsed(ctx, p, args)
	case "members":
		cmdMembers(ctx, p, args)
	case "leaders":
		cmdLeaders(ctx, p)
	case "contact":
		cmdContact(ctx, p, args)
	case "socials":
		cmdSocials(ctx, p, args)
	default:
		usage()
	}
}

func buildPortal(base string, timeoutSeconds int, storagePath string, debug bool) *portal.Portal {
	cfg := portal.ConfigFromEnv()
	if base != "" {
		cfg.BaseURL = base
	}
	if timeoutSeconds > 0 {
		cfg.Timeout = time.Duration(timeoutSeconds) * time.Second
	}
	if storagePath != "" {
		cfg.StoragePath = storagePath
	}
	cfg.Debug = cfg.Debug || debug

	opts := []portal.Option{}
	if cfg.Debug {
		logger, err := zaplog.NewDevelopment(zaplog.WithName("portalctl"))
		if err != nil {
			fail(err)
		}
		opts = append(opts, portal.WithLogger(logger))
	}

	p, err := portal.New(cfg, opts...)
	if err != nil {
		fail(err)
	}
	return p
}

func cmdLogin(ctx context.Context, p *portal.Portal, args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	identifier := fs.String("i", "", "email or institutional id")
	password := fs.String("p", "", "password")
	_ = fs.Parse(args)
	if *identifier == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "need -i and -p")
		os.Exit(1)
	}

	user, err := p.Session.LoginMember(ctx, portal.MemberLoginInput{
		Identifier: portal.ParseIdentifier(*identifier),
		Password:   *password,
	})
	if err != nil {
		fail(err)
	}
	fmt.Printf("logged in as %s (member)\n", user.DisplayName())
}

func cmdLoginAdmin(ctx context.Context, p *portal.Portal, args []string) {
	fs := flag.NewFlagSet("login-admin", flag.ExitOnError)
	email := fs.String("e", "", "admin email")
	password := fs.String("p", "", "password")
	_ = fs.Parse(args)
	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "need -e and -p")
		os.Exit(1)
	}

	user, err := p.Session.LoginAdmin(ctx, portal.AdminLoginInput{
		Email:    *email,
		Password: *password,
	})
	if err != nil {
		fail(err)
	}
	fmt.Printf("logged in as %s (admin)\n", user.DisplayName())
}

func cmdLogout(ctx context.Context, p *portal.Portal) {
	if err := p.Session.Logout(ctx); err != nil {
		fail(err)
	}
	fmt.Println("logged out")
}

func cmdWhoami(ctx context.Context, p *portal.Portal) {
	if err := p.Session.Revalidate(ctx); err != nil {
		fail(err)
	}

	user, ok := p.Session.User()
	if !ok {
		fmt.Println("not logged in")
		os.Exit(1)
	}
	role, _ := p.Session.Role()
	fmt.Printf("role: %s\n", role)
	printJSON(user)
}

func cmdLanding(ctx context.Context, p *portal.Portal) {
	fest, err := p.Arvantis.Landing(ctx)
	if err != nil {
		fail(err)
	}
	if fest == nil {
		fmt.Println("no live arvantis edition")
		return
	}

	printJSON(fest)

	if sponsor, ok := arvantis.TitleSponsor(fest.Partners); ok {
		fmt.Printf("title sponsor: %s\n", sponsor.Name)
	}
	for _, group := range arvantis.GroupByTier(fest.Partners) {
		fmt.Printf("tier %-12s %d partner(s)\n", group.Tier, len(group.Partners))
	}
	fmt.Printf("open events: %d\n", fest.OpenEventCount(time.Now()))
}

func cmdFests(ctx context.Context, p *portal.Portal, args []string) {
	fs := flag.NewFlagSet("fests", flag.ExitOnError)
	page := fs.Int("page", 1, "page")
	limit := fs.Int("limit", 10, "page size")
	_ = fs.Parse(args)

	out, err := p.Arvantis.List(ctx, paginate.ListParams{Page: *page, Limit: *limit})
	if err != nil {
		fail(err)
	}
	printJSON(out)
}

func cmdFest(ctx context.Context, p *portal.Portal, args []string) {
	fs := flag.NewFlagSet("fest", flag.ExitOnError)
	id := fs.String("id", "", "fest id or slug")
	year := fs.Int("year", 0, "edition year")
	_ = fs.Parse(args)

	switch {
	case *id != "":
		fest, err := p.Arvantis.Details(ctx, *id)
		if err != nil {
			fail(err)
		}
		printJSON(fest)
	case *year > 0:
		fest, err := p.Arvantis.DetailsByYear(ctx, *year)
		if err != nil {
			fail(err)
		}
		printJSON(fest)
	default:
		fmt.Fprintln(os.Stderr, "need -id or -year")
		os.Exit(1)
	}
}

func cmdEvents(ctx context.Context, p *portal.Portal, args []string) {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	page := fs.Int("page", 1, "page")
	limit := fs.Int("limit", 10, "page size")
	search := fs.String("search", "", "search text")
	upcoming := fs.Bool("upcoming", false, "only events with open registration")
	_ = fs.Parse(args)

	out, err := p.Events.List(ctx, paginate.ListParams{
		Page:   *page,
		Limit:  *limit,
		Search: *search,
	})
	if err != nil {
		fail(err)
	}

	if *upcoming {
		now := time.Now()
		open := out.Docs[:0]
		for i := range out.Docs {
			if out.Docs[i].RegistrationOpen(now) {
				open = append(open, out.Docs[i])
			}
		}
		out.Docs = open
	}
	printJSON(out)
}

func cmdEvent(ctx context.Context, p *portal.Portal, args []string) {
	fs := flag.NewFlagSet("event", flag.ExitOnError)
	id := fs.String("id", "", "event id")
	_ = fs.Parse(args)
	if *id == "" {
		fmt.Fprintln(os.Stderr, "need -id")
		os.Exit(1)
	}

	event, err := p.Events.ByID(ctx, *id)
	if err != nil {
		fail(err)
	}
	printJSON(event)
	fmt.Printf("registration open: %t\n", event.RegistrationOpen(time.Now()))
}

func cmdTickets(ctx context.Context, p *portal.Portal, args []string) {
	fs := flag.NewFlagSet("tickets", flag.ExitOnError)
	eventID := fs.String("event", "", "event id")
	page := fs.Int("page", 1, "page")
	_ = fs.Parse(args)
	if *eventID == "" {
		fmt.Fprintln(os.Stderr, "need -event")
		os.Exit(1)
	}

	out, err := p.Tickets.ListByEvent(ctx, *eventID, paginate.ListParams{Page: *page})
	if err != nil {
		fail(err)
	}
	printJSON(out)
}

func cmdTicketUsed(ctx context.Context, p *portal.Portal, args []string) {
	fs := flag.NewFlagSet("ticket-used", flag.ExitOnError)
	id := fs.String("id", "", "ticket id")
	undo := fs.Bool("undo", false, "mark the ticket active again")
	_ = fs.Parse(args)
	if *id == "" {
		fmt.Fprintln(os.Stderr, "need -id")
		os.Exit(1)
	}

	ticket, err := p.Tickets.UpdateStatus(ctx, *id, tickets.FromBool(!*undo))
	if err != nil {
		fail(err)
	}
	printJSON(ticket)
}

func cmdMembers(ctx context.Context, p *portal.Portal, args []string) {
	fs := flag.NewFlagSet("members", flag.ExitOnError)
	page := fs.Int("page", 1, "page")
	search := fs.String("search", "", "search text")
	_ = fs.Parse(args)

	out, err := p.Members.List(ctx, paginate.ListParams{Page: *page, Search: *search})
	if err != nil {
		fail(err)
	}
	printJSON(out)
}

func cmdLeaders(ctx context.Context, p *portal.Portal) {
	leaders, err := p.Members.Leaders(ctx)
	if err != nil {
		fail(err)
	}
	printJSON(leaders)
}

func cmdContact(ctx context.Context, p *portal.Portal, args []string) {
	fs := flag.NewFlagSet("contact", flag.ExitOnError)
	name := fs.String("name", "", "your name")
	email := fs.String("email", "", "reply-to email")
	phone := fs.String("phone", "", "phone (optional)")
	subject := fs.String("subject", "", "subject (optional)")
	message := fs.String("message", "", "message body")
	_ = fs.Parse(args)

	ack, err := p.Contacts.Submit(ctx, contacts.SubmitInput{
		Name:    *name,
		Email:   *email,
		Phone:   *phone,
		Subject: *subject,
		Message: *message,
	})
	if err != nil {
		fail(err)
	}
	if ack.Message != "" {
		fmt.Println(ack.Message)
	} else {
		fmt.Println("message sent")
	}
}

func cmdSocials(ctx context.Context, p *portal.Portal, args []string) {
	fs := flag.NewFlagSet("socials", flag.ExitOnError)
	page := fs.Int("page", 1, "page")
	_ = fs.Parse(args)

	out, err := p.Socials.List(ctx, paginate.ListParams{Page: *page})
	if err != nil {
		fail(err)
	}
	printJSON(out)
}

func printJSON(v any) {
	fmt.Println(print.MaybePrettyJSON(v))
}

func fail(err error) {
	switch {
	case portal.IsSessionExpired(err):
		fmt.Fprintln(os.Stderr, "session expired; run `portalctl login` again")
	case portal.IsNotFound(err):
		fmt.Fprintf(os.Stderr, "not found: %v\n", err)
	case portal.IsValidationError(err):
		fmt.Fprintf(os.Stderr, "invalid input: %v\n", err)
		for field, msg := range transport.ValidationFields(err) {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", field, msg)
		}
	case transport.IsAccessDenied(err):
		fmt.Fprintf(os.Stderr, "access denied: %v\n", err)
	case transport.IsTransportFailure(err):
		fmt.Fprintf(os.Stderr, "could not reach the server: %v\n", err)
	default:
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(1)
}
