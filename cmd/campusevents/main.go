package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/yaaadiiiiiiii/Campus-Event-Management-System/internal/config"
	"github.com/yaaadiiiiiiii/Campus-Event-Management-System/internal/models"
	"github.com/yaaadiiiiiiii/Campus-Event-Management-System/internal/repository"
	"github.com/yaaadiiiiiiii/Campus-Event-Management-System/internal/service"
	"github.com/yaaadiiiiiiii/Campus-Event-Management-System/internal/session"
	"github.com/yaaadiiiiiiii/Campus-Event-Management-System/internal/utils"
)

const usage = `usage: campusevents [-config file] <command> [flags]

commands:
  login          check credentials and print a session token
  events         list all events, or search with -q
  create         create an event (organizer)
  edit           edit an event (organizer)
  delete         delete an event (organizer)
  import         import a catalog CSV file (organizer)
  export         export the catalog with organizer names
  register       register a student for an event
  cancel         cancel a registration
  records        show a student's registrations
  attendees      show an event's registrations (organizer)
`

type app struct {
	cfg      *config.Config
	log      *zap.Logger
	events   repository.EventStore
	regs     repository.RegistrationStore
	users    *repository.UserDirectory
	sessions *session.Manager

	auth     *service.AuthService
	catalog  *service.EventService
	workflow *service.RegistrationWorkflow
}

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "campusevents: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "campusevents: set up logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "campusevents: %v\n", err)
		os.Exit(1)
	}

	if err := a.run(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "campusevents: %v\n", err)
		os.Exit(1)
	}
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	// Set up stores
	users := repository.NewUserDirectory(cfg.Files.Users, logger)
	if err := users.Reload(ctx); err != nil {
		return nil, err
	}

	var (
		events repository.EventStore
		regs   repository.RegistrationStore
	)
	switch cfg.Store.Backend {
	case "sqlite":
		db, err := config.SetupDatabase(cfg)
		if err != nil {
			return nil, err
		}
		store, err := repository.NewSQLiteStore(db, cfg.Catalog.IDPadding)
		if err != nil {
			return nil, err
		}
		events, regs = store, store
	default:
		catalog := repository.NewEventCatalog(cfg.Files.Events, cfg.Catalog.IDPadding, logger)
		if err := catalog.Reload(ctx); err != nil {
			return nil, err
		}
		events = catalog
		regs = repository.NewRegistrationLedger(cfg.Files.Registrations, logger)
	}

	// Create services
	a := &app{
		cfg:      cfg,
		log:      logger,
		events:   events,
		regs:     regs,
		users:    users,
		sessions: session.NewManager(24 * time.Hour),
	}
	locks := service.NewEventLocks()
	a.auth = service.NewAuthService(users, logger)
	a.catalog = service.NewEventService(events, regs, users, locks, logger)
	a.workflow = service.NewRegistrationWorkflow(events, regs, users, cfg.Ledger.RestoreCapacityOnCancel, locks, logger)
	return a, nil
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.cmdLogin(ctx, args)
	case "events":
		return a.cmdEvents(ctx, args)
	case "create":
		return a.cmdCreate(ctx, args)
	case "edit":
		return a.cmdEdit(ctx, args)
	case "delete":
		return a.cmdDelete(ctx, args)
	case "import":
		return a.cmdImport(ctx, args)
	case "export":
		return a.cmdExport(ctx, args)
	case "register":
		return a.cmdRegister(ctx, args)
	case "cancel":
		return a.cmdCancel(ctx, args)
	case "records":
		return a.cmdRecords(ctx, args)
	case "attendees":
		return a.cmdAttendees(ctx, args)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

// authenticate logs the user in and opens a session for the rest of the
// invocation; services receive the user through the session provider.
func (a *app) authenticate(ctx context.Context, id, password string) (*models.User, error) {
	user, err := a.auth.Login(ctx, id, password)
	if err != nil {
		return nil, err
	}
	s := a.sessions.Create(*user)
	return a.sessions.Provider(s.Token).Current(ctx)
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	id := fs.String("user", "", "user id")
	password := fs.String("password", "", "password")
	fs.Parse(args)

	user, err := a.auth.Login(ctx, *id, *password)
	if err != nil {
		return err
	}
	s := a.sessions.Create(*user)
	role := "student"
	if user.IsOrganizer() {
		role = "organizer"
	}
	fmt.Printf("welcome %s (%s)\nsession %s valid until %s\n",
		user.Name, role, s.Token, s.ExpiresAt.Format(time.RFC3339))
	return nil
}

func (a *app) cmdEvents(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	keyword := fs.String("q", "", "search keyword")
	fs.Parse(args)

	events, err := a.catalog.Search(ctx, *keyword)
	if err != nil {
		return err
	}
	for _, ev := range events {
		fmt.Printf("%s\t%s\t%s\t%s\t%s\t%d\n",
			ev.ID, ev.Title, ev.Location, ev.Time,
			a.users.DisplayName(ctx, ev.OrganizerID), ev.Capacity)
	}
	fmt.Printf("%d event(s)\n", len(events))
	return nil
}

func (a *app) cmdCreate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	id := fs.String("user", "", "organizer id")
	password := fs.String("password", "", "password")
	title := fs.String("title", "", "event title")
	location := fs.String("location", "", "event location")
	when := fs.String("time", "", "event time, e.g. 2026-09-01 14:00")
	capacity := fs.Int("capacity", 0, "number of seats")
	fs.Parse(args)

	organizer, err := a.authenticate(ctx, *id, *password)
	if err != nil {
		return err
	}
	event, err := a.catalog.CreateEvent(ctx, organizer, *title, *location, *when, *capacity)
	if err != nil {
		return err
	}
	fmt.Printf("created event %s (%s)\n", event.ID, event.Title)
	return nil
}

func (a *app) cmdEdit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	id := fs.String("user", "", "organizer id")
	password := fs.String("password", "", "password")
	eventID := fs.String("event", "", "event id")
	title := fs.String("title", "", "event title")
	location := fs.String("location", "", "event location")
	when := fs.String("time", "", "event time")
	capacity := fs.Int("capacity", 0, "number of seats")
	fs.Parse(args)

	organizer, err := a.authenticate(ctx, *id, *password)
	if err != nil {
		return err
	}
	event, err := a.catalog.UpdateEvent(ctx, organizer, *eventID, *title, *location, *when, *capacity)
	if err != nil {
		return err
	}
	fmt.Printf("updated event %s\n", event.ID)
	return nil
}

func (a *app) cmdDelete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	id := fs.String("user", "", "organizer id")
	password := fs.String("password", "", "password")
	eventID := fs.String("event", "", "event id")
	fs.Parse(args)

	organizer, err := a.authenticate(ctx, *id, *password)
	if err != nil {
		return err
	}
	if err := a.catalog.DeleteEvent(ctx, organizer, *eventID); err != nil {
		return err
	}
	fmt.Printf("deleted event %s\n", *eventID)
	return nil
}

func (a *app) cmdImport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	id := fs.String("user", "", "organizer id")
	password := fs.String("password", "", "password")
	file := fs.String("file", "", "CSV file to import")
	fs.Parse(args)

	organizer, err := a.authenticate(ctx, *id, *password)
	if err != nil {
		return err
	}
	res, err := a.catalog.ImportEvents(ctx, organizer, *file)
	if err != nil {
		return err
	}
	fmt.Printf("imported %d event(s), skipped %d, renumbered %d\n",
		res.Imported, res.Skipped, res.Renumbers)
	return nil
}

func (a *app) cmdExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	file := fs.String("file", "", "destination CSV file")
	fs.Parse(args)

	if *file == "" {
		*file = "活動列表_" + time.Now().Format("20060102_150405") + ".csv"
	}
	if err := a.catalog.ExportEvents(ctx, *file); err != nil {
		return err
	}
	fmt.Printf("exported catalog to %s\n", *file)
	return nil
}

func (a *app) cmdRegister(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	id := fs.String("user", "", "student id")
	password := fs.String("password", "", "password")
	eventID := fs.String("event", "", "event id")
	fs.Parse(args)

	student, err := a.authenticate(ctx, *id, *password)
	if err != nil {
		return err
	}
	res, err := a.workflow.Register(ctx, student.ID, *eventID)
	if err != nil {
		return err
	}
	switch res.Status {
	case models.StatusCommitted:
		fmt.Printf("registered for %s, %d seat(s) left\n", res.Event.Title, res.Remaining)
	case models.StatusDuplicate:
		fmt.Printf("already registered for %s since %s\n",
			res.Event.Title, res.Registration.RegisteredAt)
	case models.StatusFull:
		fmt.Printf("no seats left for %s\n", res.Event.Title)
	}
	return nil
}

func (a *app) cmdCancel(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cancel", flag.ExitOnError)
	id := fs.String("user", "", "student id")
	password := fs.String("password", "", "password")
	eventID := fs.String("event", "", "event id")
	when := fs.String("time", "", "registration time to cancel, e.g. 2026-09-01 14:00:00")
	fs.Parse(args)

	student, err := a.authenticate(ctx, *id, *password)
	if err != nil {
		return err
	}
	res, err := a.workflow.Cancel(ctx, student.ID, *eventID, *when)
	if err != nil {
		return err
	}
	if !res.Removed {
		fmt.Println("no matching registration found, nothing cancelled")
		return nil
	}
	if res.Restored {
		fmt.Printf("registration cancelled, %d seat(s) now available\n", res.Remaining)
	} else {
		fmt.Println("registration cancelled")
	}
	return nil
}

func (a *app) cmdRecords(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("records", flag.ExitOnError)
	id := fs.String("user", "", "student id")
	password := fs.String("password", "", "password")
	fs.Parse(args)

	student, err := a.authenticate(ctx, *id, *password)
	if err != nil {
		return err
	}
	records, err := a.workflow.Records(ctx, student.ID)
	if err != nil {
		return err
	}
	for _, r := range records {
		fmt.Printf("%s\t%s\t%s\t%s\t%s\n",
			r.Event.Title, r.Event.Location, r.Event.Time,
			r.Organizer, r.Registration.RegisteredAt)
	}
	fmt.Printf("%d registration(s)\n", len(records))
	return nil
}

func (a *app) cmdAttendees(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("attendees", flag.ExitOnError)
	id := fs.String("user", "", "organizer id")
	password := fs.String("password", "", "password")
	eventID := fs.String("event", "", "event id")
	fs.Parse(args)

	organizer, err := a.authenticate(ctx, *id, *password)
	if err != nil {
		return err
	}
	attendees, err := a.catalog.Attendees(ctx, organizer, *eventID)
	if err != nil {
		return err
	}
	for i, att := range attendees {
		fmt.Printf("%d\t%s\t%s\t%s\n",
			i+1, att.Registration.StudentID, att.StudentName, att.Registration.RegisteredAt)
	}
	fmt.Printf("%d attendee(s)\n", len(attendees))
	return nil
}
