// Command rentals is the terminal client for the rental-listings API.
// Each subcommand is a thin view: it reads session state from the
// controller, consults the access policy guard where required, and
// performs resource operations through the API gateway.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/theaddress/rentals/internal/core/domain"
	"github.com/theaddress/rentals/internal/core/policy"
	"github.com/theaddress/rentals/internal/core/service"
	"github.com/theaddress/rentals/internal/infrastructure/api"
	"github.com/theaddress/rentals/internal/infrastructure/config"
	"github.com/theaddress/rentals/internal/infrastructure/store"
	"github.com/theaddress/rentals/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	if err := os.MkdirAll(filepath.Dir(cfg.StatePath), 0o755); err != nil {
		fmt.Fprintln(os.Stderr, "cannot prepare state directory:", err)
		os.Exit(1)
	}
	credStore, err := store.Open(cfg.StatePath, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cannot open credential store:", err)
		os.Exit(1)
	}
	defer credStore.Close()

	// The controller is the client's token source; the client is the
	// controller's gateway. Break the cycle with a late-bound closure.
	var ctrl *service.SessionController
	client := api.NewClient(cfg.APIBaseURL, func() string {
		if ctrl == nil {
			return ""
		}
		return ctrl.Token()
	}, log)
	ctrl = service.NewSessionController(client, credStore, log)
	ctrl.Restore()

	app := &app{
		ctrl:       ctrl,
		apartments: service.NewApartmentService(client, log),
	}

	if err := app.run(os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type app struct {
	ctrl       *service.SessionController
	apartments *service.ApartmentService
}

func (a *app) run(command string, args []string) error {
	ctx := context.Background()

	switch command {
	case "register":
		return a.register(ctx, args)
	case "login":
		return a.login(ctx, args)
	case "logout":
		a.ctrl.Logout()
		fmt.Println("Logged out.")
		return nil
	case "whoami":
		return a.whoami()
	case "list":
		return a.list(ctx)
	case "show":
		return a.show(ctx, args)
	case "create":
		return a.create(ctx, args)
	case "update":
		return a.update(ctx, args)
	case "delete":
		return a.delete(ctx, args)
	case "help", "-h", "--help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("register", pflag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (prompted when omitted)")
	firstName := fs.String("first-name", "", "first name")
	lastName := fs.String("last-name", "", "last name")
	admin := fs.Bool("admin", false, "request the admin role")
	_ = fs.Parse(args)

	if *password == "" {
		p, err := promptPassword("Password: ")
		if err != nil {
			return err
		}
		*password = p
	}

	input := domain.RegisterInput{
		Email:     *email,
		Password:  *password,
		FirstName: *firstName,
		LastName:  *lastName,
	}
	if *admin {
		input.Role = domain.RoleAdmin
	}

	// Registration creates the account and then logs in with the same
	// credentials. The account can exist server-side even when the
	// follow-up login fails; LastError carries the reason.
	if err := a.ctrl.Register(ctx, input); err != nil {
		return errors.New(a.ctrl.Snapshot().LastError)
	}
	return a.whoami()
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("login", pflag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (prompted when omitted)")
	_ = fs.Parse(args)

	if *password == "" {
		p, err := promptPassword("Password: ")
		if err != nil {
			return err
		}
		*password = p
	}

	if err := a.ctrl.Login(ctx, *email, *password); err != nil {
		return errors.New(a.ctrl.Snapshot().LastError)
	}
	return a.whoami()
}

func (a *app) whoami() error {
	session := a.ctrl.Snapshot()
	if !session.IsAuthenticated() {
		fmt.Println("Not logged in.")
		return nil
	}
	fmt.Printf("%s <%s> (%s)\n", session.Identity.FullName(), session.Identity.Email, session.Identity.Role)
	return nil
}

func (a *app) list(ctx context.Context) error {
	apartments, err := a.apartments.ListAll(ctx)
	if err != nil {
		// Page-level notice plus an empty list, never partial data.
		fmt.Println("Could not fetch apartments:", domain.ErrorMessage(err, domain.MsgRequestFailed))
		fmt.Println("No apartments to show.")
		return nil
	}
	printApartments(apartments)
	return nil
}

func (a *app) show(ctx context.Context, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}

	apt, err := a.apartments.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		fmt.Printf("Apartment %d was not found.\n", id)
		return nil
	}
	if err != nil {
		return errors.New(domain.ErrorMessage(err, domain.MsgRequestFailed))
	}

	printApartment(apt)
	return nil
}

func (a *app) create(ctx context.Context, args []string) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}

	form, cleanup, err := parseForm("create", args)
	if err != nil {
		return err
	}
	defer cleanup()

	created, list, err := a.apartments.Create(ctx, *form)
	if created == nil {
		return errors.New(domain.ErrorMessage(err, "Failed to create apartment"))
	}
	fmt.Printf("Created apartment %d: %s\n", created.ID, created.Name)
	a.renderList(list, err)
	return nil
}

func (a *app) update(ctx context.Context, args []string) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}

	id, err := parseID(args)
	if err != nil {
		return err
	}
	form, cleanup, err := parseForm("update", args[1:])
	if err != nil {
		return err
	}
	defer cleanup()

	updated, list, err := a.apartments.Update(ctx, id, *form)
	if updated == nil {
		return errors.New(domain.ErrorMessage(err, "Failed to update apartment"))
	}
	fmt.Printf("Updated apartment %d.\n", updated.ID)
	a.renderList(list, err)
	return nil
}

func (a *app) delete(ctx context.Context, args []string) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}

	id, err := parseID(args)
	if err != nil {
		return err
	}

	list, err := a.apartments.Delete(ctx, id)
	if err != nil {
		return errors.New(domain.ErrorMessage(err, "Failed to delete apartment"))
	}
	fmt.Printf("Deleted apartment %d.\n", id)
	printApartments(list)
	return nil
}

// renderList shows the refreshed list, or the page-level notice with an
// empty list when the refresh itself failed after a successful mutation.
func (a *app) renderList(list []domain.Apartment, refreshErr error) {
	if refreshErr != nil {
		fmt.Println("Could not refresh apartments:", domain.ErrorMessage(refreshErr, domain.MsgRequestFailed))
		return
	}
	printApartments(list)
}

// requireAdmin consults the guard the way a protected page does before
// first paint. The redirect target is rendered as a login hint; the
// server still enforces authorization on every call.
func (a *app) requireAdmin() error {
	decision := policy.Decide(a.ctrl.Snapshot(), policy.CapabilityAdmin)
	switch decision.Verdict {
	case policy.Render:
		return nil
	case policy.Defer:
		return errors.New("session is still settling, try again")
	default:
		return fmt.Errorf("admin access required, please sign in (rentals login)")
	}
}

// parseForm builds the mutation payload from flags. The returned
// cleanup closes the image file once the request has been sent.
func parseForm(name string, args []string) (*domain.ApartmentForm, func(), error) {
	fs := pflag.NewFlagSet(name, pflag.ExitOnError)
	formName := fs.String("name", "", "listing name")
	address := fs.String("address", "", "street address")
	description := fs.String("description", "", "description")
	rooms := fs.Int("rooms", 0, "number of rooms")
	price := fs.Float64("price", 0, "monthly price")
	imagePath := fs.String("image", "", "path to an image file")
	_ = fs.Parse(args)

	form := &domain.ApartmentForm{
		Name:          *formName,
		Address:       *address,
		Description:   *description,
		NumberOfRooms: *rooms,
		Price:         *price,
	}

	cleanup := func() {}
	if *imagePath != "" {
		f, err := os.Open(*imagePath)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot open image: %w", err)
		}
		cleanup = func() { _ = f.Close() }
		form.Image = &domain.Attachment{
			Filename: f.Name(),
			Reader:   f,
		}
	}
	return form, cleanup, nil
}

func parseID(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, errors.New("an apartment id is required")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid apartment id %q", args[0])
	}
	return id, nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("cannot read password: %w", err)
	}
	return string(raw), nil
}

func printApartments(apartments []domain.Apartment) {
	if len(apartments) == 0 {
		fmt.Println("No apartments to show.")
		return
	}
	fmt.Printf("%-5s %-24s %-7s %-10s %s\n", "ID", "NAME", "ROOMS", "PRICE", "AVAILABLE")
	for _, apt := range apartments {
		fmt.Printf("%-5d %-24s %-7d %-10s %v\n", apt.ID, apt.Name, apt.NumberOfRooms, apt.Price, apt.IsAvailable)
	}
}

func printApartment(apt *domain.Apartment) {
	fmt.Printf("Apartment %d\n", apt.ID)
	fmt.Println("  Name:       ", apt.Name)
	fmt.Println("  Address:    ", apt.Address)
	fmt.Println("  Description:", apt.Description)
	fmt.Println("  Rooms:      ", apt.NumberOfRooms)
	fmt.Println("  Price:      ", apt.Price)
	fmt.Println("  Available:  ", apt.IsAvailable)
	if apt.ImageURL != "" {
		fmt.Println("  Image:      ", apt.ImageURL)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: rentals <command> [flags]

Commands:
  register   Create an account and sign in
  login      Sign in with email and password
  logout     Clear the stored session
  whoami     Show the current identity
  list       List all apartments
  show <id>  Show one apartment
  create     Create an apartment (admin)
  update <id> Update an apartment (admin)
  delete <id> Delete an apartment (admin)

Environment:
  RENTALS_API_URL     API base URL (default http://localhost:8080)
  RENTALS_STATE_PATH  credential database location
  LOG_LEVEL           trace|debug|info|warn|error`)
}
