// Package cli is a terminal front end for the marketplace API: account
// commands, the listing wizard, search and the home feed.
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"estate-market/internal/client"
	"estate-market/internal/domain"
	"estate-market/internal/feature/contact"
	"estate-market/internal/feature/home"
	"estate-market/internal/feature/listingform"
	"estate-market/internal/feature/session"
	"estate-market/internal/imagehost"
)

var ErrUsage = errors.New("usage")

type App struct {
	api       *client.Client
	sess      *session.Store
	in        *bufio.Reader
	out       io.Writer
	credsPath string
}

// New restores any saved sign-in from credsPath: the token goes to the API
// client and the user to the session store.
func New(api *client.Client, in io.Reader, out io.Writer, credsPath string) (*App, error) {
	c, err := loadCreds(credsPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	sess := session.NewStore(api)
	if c.Token != "" && c.User != nil {
		api.SetToken(c.Token)
		if err := sess.Restore(c.User); err != nil {
			return nil, err
		}
	}
	return &App{
		api:       api,
		sess:      sess,
		in:        bufio.NewReader(in),
		out:       out,
		credsPath: credsPath,
	}, nil
}

// Session is the signed-in state as of the last command.
func (a *App) Session() session.State { return a.sess.State() }

type command struct {
	help string
	run  func(a *App, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"signup":  {"create an account", (*App).signUp},
	"signin":  {"sign in and remember the session", (*App).signIn},
	"signout": {"forget the session", (*App).signOut},
	"create":  {"create a listing: create -draft draft.json photo.jpg...", (*App).create},
	"search":  {"search listings", (*App).search},
	"home":    {"show the home feed: home [-filter all|rent|sale]", (*App).home},
	"contact": {"print a mailto link for a listing's owner: contact -m msg <id>", (*App).contact},
	"mine":    {"list your listings", (*App).mine},
	"delete":  {"delete one of your listings: delete <id>", (*App).deleteListing},
}

func (a *App) Usage() {
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	fmt.Fprintln(a.out, "commands:")
	for _, n := range names {
		fmt.Fprintf(a.out, "  %-8s %s\n", n, commands[n].help)
	}
}

func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.Usage()
		return ErrUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		a.Usage()
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
	return cmd.run(a, ctx, args[1:])
}

func (a *App) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

func (a *App) signUp(ctx context.Context, _ []string) error {
	username, err := prompt(a.in, a.out, "Username")
	if err != nil {
		return err
	}
	email, err := prompt(a.in, a.out, "Email")
	if err != nil {
		return err
	}
	pw, err := password(a.out)
	if err != nil {
		return err
	}
	u, err := a.api.SignUp(ctx, username, email, pw)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "account %s created, sign in to continue\n", u.Username)
	return nil
}

func (a *App) signIn(ctx context.Context, _ []string) error {
	email, err := prompt(a.in, a.out, "Email")
	if err != nil {
		return err
	}
	pw, err := password(a.out)
	if err != nil {
		return err
	}
	u, err := a.sess.SignIn(ctx, email, pw)
	if err != nil {
		return err
	}
	if err := saveCreds(a.credsPath, creds{Token: a.api.Token(), User: u}); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	fmt.Fprintf(a.out, "signed in as %s\n", u.Username)
	return nil
}

func (a *App) signOut(ctx context.Context, _ []string) error {
	if err := a.sess.SignOut(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "signed out")
	return clearCreds(a.credsPath)
}

// currentUser is the session's user id, or ErrUnauthorized when signed out.
func (a *App) currentUser() (string, error) {
	st := a.sess.State()
	if !st.Authenticated() {
		return "", fmt.Errorf("%w: run signin first", domain.ErrUnauthorized)
	}
	return st.User.ID, nil
}

// create walks the listing wizard with the draft file as input, uploading
// the photos given as arguments.
func (a *App) create(ctx context.Context, args []string) error {
	fs := a.flags("create")
	draftPath := fs.String("draft", "", "listing draft JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	uid, err := a.currentUser()
	if err != nil {
		return err
	}
	if *draftPath == "" || fs.NArg() == 0 {
		return fmt.Errorf("%w: create -draft draft.json photo.jpg...", ErrUsage)
	}
	d := domain.NewDraft()
	b, err := os.ReadFile(*draftPath)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, &d); err != nil {
		return fmt.Errorf("parse draft: %w", err)
	}

	files := make([]imagehost.File, 0, fs.NArg())
	for _, p := range fs.Args() {
		f, err := imagehost.ReadFile(p)
		if err != nil {
			return err
		}
		files = append(files, f)
	}

	form := listingform.New(uid)
	if err := fill(form, d); err != nil {
		return err
	}
	if err := form.SelectFiles(files...); err != nil {
		return err
	}
	urls, err := form.UploadImages(ctx, a.api.Uploader(), func(p imagehost.Progress) {
		if p.Sent == p.Total {
			fmt.Fprintf(a.out, "uploaded %s\n", p.Name)
		}
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d images uploaded\n", len(urls))

	l, err := form.Submit(ctx, a.api)
	if err != nil {
		if ve, ok := domain.AsValidation(err); ok {
			return fmt.Errorf("%s step: %w", form.Step(), ve)
		}
		return err
	}
	fmt.Fprintf(a.out, "listing %s created\n", l.ID)
	return nil
}

// fill enters d into the wizard one step at a time, ending on Images.
func fill(f *listingform.Form, d domain.ListingDraft) error {
	steps := []func() error{
		func() error { return f.SetName(d.Name) },
		func() error { return f.SetDescription(d.Description) },
		func() error { return f.SetAddress(d.Address) },
		func() error { return f.SetType(d.Type) },
		f.Next,
		func() error { return f.SetBedrooms(d.Bedrooms) },
		func() error { return f.SetBathrooms(d.Bathrooms) },
		func() error { return f.SetRegularPrice(d.RegularPrice) },
		func() error { return f.SetDiscountPrice(d.DiscountPrice) },
		func() error { return f.SetOffer(d.Offer) },
		func() error { return f.SetParking(d.Parking) },
		func() error { return f.SetFurnished(d.Furnished) },
		f.Next,
	}
	for _, s := range steps {
		if err := s(); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) search(ctx context.Context, args []string) error {
	fs := a.flags("search")
	var f domain.ListingFilter
	typ := fs.String("type", "", "rent or sale")
	sortKey := fs.String("sort", "", "createdAt or regularPrice")
	fs.BoolVar(&f.Offer, "offer", false, "offers only")
	fs.BoolVar(&f.Parking, "parking", false, "with parking")
	fs.BoolVar(&f.Furnished, "furnished", false, "furnished only")
	fs.StringVar(&f.SearchTerm, "q", "", "search term")
	fs.BoolVar(&f.Asc, "asc", false, "ascending order")
	fs.IntVar(&f.Limit, "limit", domain.DefaultQueryLimit, "page size")
	fs.IntVar(&f.StartIndex, "start", 0, "offset")
	if err := fs.Parse(args); err != nil {
		return err
	}
	f.Type = domain.ListingType(*typ)
	f.Sort = domain.SortKey(*sortKey)

	ls, err := a.api.Query(ctx, f)
	if err != nil {
		return err
	}
	a.printListings(ls)
	return nil
}

func (a *App) home(ctx context.Context, args []string) error {
	fs := a.flags("home")
	filter := fs.String("filter", string(home.FilterAll), "all, rent or sale")
	if err := fs.Parse(args); err != nil {
		return err
	}
	feed, err := home.Fetch(ctx, a.api)
	if err != nil {
		if client.IsRetryable(err) {
			return fmt.Errorf("%w (try again)", err)
		}
		return err
	}
	a.printListings(home.Display(home.ParseFilter(*filter), feed))
	return nil
}

func (a *App) contact(ctx context.Context, args []string) error {
	fs := a.flags("contact")
	msg := fs.String("m", "", "message")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: contact -m msg <listing id>", ErrUsage)
	}
	l, err := a.api.GetListing(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	landlord, err := a.api.GetUser(ctx, l.UserRef)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, contact.Intro(*landlord, *l))
	fmt.Fprintln(a.out, contact.MailtoURL(*landlord, *l, *msg))
	return nil
}

func (a *App) mine(ctx context.Context, _ []string) error {
	uid, err := a.currentUser()
	if err != nil {
		return err
	}
	ls, err := a.api.UserListings(ctx, uid)
	if err != nil {
		return err
	}
	a.printListings(ls)
	return nil
}

func (a *App) deleteListing(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: delete <listing id>", ErrUsage)
	}
	if err := a.api.DeleteListing(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "listing %s deleted\n", args[0])
	return nil
}

func (a *App) printListings(ls []domain.Listing) {
	if len(ls) == 0 {
		fmt.Fprintln(a.out, "no listings found")
		return
	}
	for _, l := range ls {
		price := l.RegularPrice
		tag := ""
		if l.Offer {
			price = l.DiscountPrice
			tag = " (offer)"
		}
		fmt.Fprintf(a.out, "%s  %-4s  %-30s  %d%s  %s\n",
			l.ID, l.Type, l.Name, price, tag, strings.TrimSpace(l.Address))
	}
}
