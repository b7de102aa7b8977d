package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"traccar-client/internal/traccar"
)

// ErrUsage marks errors caused by bad arguments; the usage text has already been printed.
var ErrUsage = errors.New("usage error")

type command struct {
	summary string
	run     func(ctx context.Context, a *App, args []string) error
}

var commands = map[string]command{
	"login":     {"sign in: -server URL -user NAME -password PASS", runLogin},
	"logout":    {"sign out and forget the token", runLogout},
	"whoami":    {"show the stored session", runWhoami},
	"devices":   {"list devices, or one with -id N", runDevices},
	"positions": {"latest positions [-device N]", runPositions},
	"history":   {"position history -device N [-from T] [-to T]", runHistory},
	"route":     {"route report -device N [-from T] [-to T]", runRoute},
	"events":    {"events [-device N] [-from T] [-to T]", runEvents},
	"trips":     {"trips report -device N [-from T] [-to T]", runTrips},
	"chat":      {"ask the assistant: -device N -message TEXT [-hours H]", runChat},
	"health":    {"check the proxy", runHealth},
	"debug":     {"raw data dump for one device: -device N [-hours H]", runDebug},
}

// Usage writes the command list to w.
func Usage(w io.Writer) {
	fmt.Fprintln(w, "usage: traccarctl [-o json|yaml] <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-10s %s\n", name, commands[name].summary)
	}
}

// Run executes one command. args[0] is the command name.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		Usage(a.stderr)
		return ErrUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(a.stderr, "unknown command %q\n\n", args[0])
		Usage(a.stderr)
		return ErrUsage
	}
	return cmd.run(ctx, a, args[1:])
}

func (a *App) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(fs.Output(), "%s: unexpected arguments %v\n", fs.Name(), fs.Args())
		return ErrUsage
	}
	return nil
}

func requireDevice(fs *flag.FlagSet, id int64) error {
	if id <= 0 {
		fmt.Fprintf(fs.Output(), "%s: -device is required\n", fs.Name())
		fs.Usage()
		return ErrUsage
	}
	return nil
}

func runLogin(ctx context.Context, a *App, args []string) error {
	fs := a.flagSet("login")
	server := fs.String("server", a.Session.BackendURL(), "Traccar server URL")
	user := fs.String("user", "", "Traccar username or email")
	password := fs.String("password", "", "Traccar password")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *user == "" || *password == "" {
		fmt.Fprintln(a.stderr, "login: -user and -password are required")
		return ErrUsage
	}
	serverURL := strings.TrimRight(*server, "/")

	res, err := a.Client.Auth.Login(ctx, serverURL, *user, *password)
	if err != nil {
		return err
	}
	if !res.Success || res.Token == "" {
		return errors.New("login: server did not return a token")
	}
	if err := a.Session.SetAuth(ctx, res.Token, res.User, serverURL); err != nil {
		return err
	}
	return a.out.Print(whoami{Authenticated: true, BackendURL: serverURL, User: res.User})
}

func runLogout(ctx context.Context, a *App, args []string) error {
	if err := parseFlags(a.flagSet("logout"), args); err != nil {
		return err
	}
	return a.Session.Logout(ctx)
}

type whoami struct {
	Authenticated bool            `json:"authenticated"`
	BackendURL    string          `json:"backend_url"`
	User          json.RawMessage `json:"user,omitempty"`
}

func runWhoami(_ context.Context, a *App, args []string) error {
	if err := parseFlags(a.flagSet("whoami"), args); err != nil {
		return err
	}
	snap := a.Session.Snapshot()
	return a.out.Print(whoami{
		Authenticated: snap.IsAuthenticated(),
		BackendURL:    snap.BackendURL,
		User:          snap.User,
	})
}

func runDevices(ctx context.Context, a *App, args []string) error {
	fs := a.flagSet("devices")
	id := fs.Int64("id", 0, "device ID; omit to list all")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *id != 0 {
		d, err := a.Client.Devices.Get(ctx, *id)
		if err != nil {
			return err
		}
		return a.out.Print(d)
	}
	devices, err := a.Client.Devices.List(ctx)
	if err != nil {
		return err
	}
	return a.out.Print(devices)
}

func runPositions(ctx context.Context, a *App, args []string) error {
	fs := a.flagSet("positions")
	device := fs.Int64("device", 0, "device ID; omit for all devices")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	positions, err := a.Client.Positions.Latest(ctx, *device)
	if err != nil {
		return err
	}
	return a.out.Print(positions)
}

// rangeFlags holds -device/-from/-to for the report commands.
type rangeFlags struct {
	device   *int64
	from, to *string

	deviceID   int64
	start, end time.Time
}

func addRangeFlags(fs *flag.FlagSet) *rangeFlags {
	return &rangeFlags{
		device: fs.Int64("device", 0, "device ID"),
		from:   fs.String("from", "", "start: RFC 3339, YYYY-MM-DD, now or a duration like -24h (default 24h before -to)"),
		to:     fs.String("to", "", "end, same forms as -from (default now)"),
	}
}

// parse parses args and resolves the range against now.
func (r *rangeFlags) parse(fs *flag.FlagSet, args []string, now time.Time) error {
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireDevice(fs, *r.device); err != nil {
		return err
	}
	start, end, err := parseRange(*r.from, *r.to, now)
	if err != nil {
		fmt.Fprintf(fs.Output(), "%s: %v\n", fs.Name(), err)
		return ErrUsage
	}
	r.deviceID, r.start, r.end = *r.device, start, end
	return nil
}

func runHistory(ctx context.Context, a *App, args []string) error {
	fs := a.flagSet("history")
	rf := addRangeFlags(fs)
	if err := rf.parse(fs, args, a.now()); err != nil {
		return err
	}
	positions, err := a.Client.Positions.History(ctx, rf.deviceID, rf.start, rf.end)
	if err != nil {
		return err
	}
	return a.out.Print(positions)
}

func runRoute(ctx context.Context, a *App, args []string) error {
	fs := a.flagSet("route")
	rf := addRangeFlags(fs)
	if err := rf.parse(fs, args, a.now()); err != nil {
		return err
	}
	route, err := a.Client.Routes.Get(ctx, rf.deviceID, rf.start, rf.end)
	if err != nil {
		return err
	}
	return a.out.Print(route)
}

func runTrips(ctx context.Context, a *App, args []string) error {
	fs := a.flagSet("trips")
	rf := addRangeFlags(fs)
	if err := rf.parse(fs, args, a.now()); err != nil {
		return err
	}
	trips, err := a.Client.Trips.Get(ctx, rf.deviceID, rf.start, rf.end)
	if err != nil {
		return err
	}
	return a.out.Print(trips)
}

// runEvents differs from the other reports: every filter is optional and unset ones are not sent.
func runEvents(ctx context.Context, a *App, args []string) error {
	fs := a.flagSet("events")
	device := fs.Int64("device", 0, "device ID; omit for all devices")
	from := fs.String("from", "", "start: RFC 3339, YYYY-MM-DD, now or a duration like -24h")
	to := fs.String("to", "", "end, same forms as -from")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	now := a.now()
	q := traccar.EventsQuery{DeviceID: *device}
	var err error
	if q.From, err = parseTime(*from, now); err != nil {
		fmt.Fprintf(a.stderr, "events: -from: %v\n", err)
		return ErrUsage
	}
	if q.To, err = parseTime(*to, now); err != nil {
		fmt.Fprintf(a.stderr, "events: -to: %v\n", err)
		return ErrUsage
	}
	events, err := a.Client.Events.List(ctx, q)
	if err != nil {
		return err
	}
	return a.out.Print(events)
}

func runChat(ctx context.Context, a *App, args []string) error {
	fs := a.flagSet("chat")
	device := fs.Int64("device", 0, "device ID")
	message := fs.String("message", "", "question for the assistant")
	hours := fs.Int("hours", traccar.DefaultHoursOfData, "hours of data to analyze")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireDevice(fs, *device); err != nil {
		return err
	}
	if strings.TrimSpace(*message) == "" {
		fmt.Fprintln(a.stderr, "chat: -message is required")
		return ErrUsage
	}
	res, err := a.Client.Chat.Send(ctx, traccar.ChatRequest{
		DeviceID:    *device,
		Message:     *message,
		HoursOfData: *hours,
	})
	if err != nil {
		return err
	}
	return a.out.Print(res)
}

func runHealth(ctx context.Context, a *App, args []string) error {
	if err := parseFlags(a.flagSet("health"), args); err != nil {
		return err
	}
	h, err := a.Client.Health.Check(ctx)
	if err != nil {
		return err
	}
	return a.out.Print(h)
}

func runDebug(ctx context.Context, a *App, args []string) error {
	fs := a.flagSet("debug")
	device := fs.Int64("device", 0, "device ID")
	hours := fs.Int("hours", 0, "hours of history; 0 lets the proxy decide")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireDevice(fs, *device); err != nil {
		return err
	}
	d, err := a.Client.Debug.Device(ctx, *device, *hours)
	if err != nil {
		return err
	}
	return a.out.Print(d)
}
