package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/binwin/binwin-service/internal/client"
	"github.com/binwin/binwin-service/internal/config"
	"github.com/binwin/binwin-service/internal/models"
	"github.com/binwin/binwin-service/internal/session"
	"github.com/binwin/binwin-service/internal/workflow"
	"github.com/sirupsen/logrus"
)

const genericErrorMsg = "Something went wrong. Please try again."

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)

	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	store, err := session.Open(cfg.SessionPath)
	if err != nil {
		logger.Fatalf("Failed to open session store: %v", err)
	}
	defer store.Close()

	api := client.NewClient(cfg.APIBaseURL, logger)
	app := &app{cfg: cfg, api: api, store: store, log: logger}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runErr error
	switch os.Args[1] {
	case "signup":
		runErr = app.signup(ctx, os.Args[2:])
	case "login":
		runErr = app.login(ctx, os.Args[2:])
	case "logout":
		runErr = store.Clear()
	case "schedules":
		runErr = app.schedules(ctx)
	case "accept":
		runErr = app.accept(ctx, os.Args[2:])
	case "decline":
		runErr = app.decline(ctx, os.Args[2:])
	case "company-schedule":
		runErr = app.companySchedule(ctx, os.Args[2:])
	case "company-review":
		runErr = app.companyReview(ctx)
	default:
		usage()
		os.Exit(2)
	}
	if runErr != nil {
		fmt.Fprintln(os.Stderr, "Error:", userMessage(runErr))
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: binwin <command> [flags]

commands:
  signup            create an account
  login             log in and store the identity locally
  logout            clear the stored identity
  schedules         list pending pickup proposals
  accept            accept a pickup proposal
  decline           decline a pickup proposal
  company-schedule  propose a pickup to a user
  company-review    review proposals this company has made`)
}

// userMessage mirrors the screens' error policy: a server-reported
// message is surfaced verbatim, anything else becomes a generic alert.
func userMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	var ve *workflow.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	if errors.Is(err, client.ErrBadResponse) {
		return genericErrorMsg
	}
	return err.Error()
}

type app struct {
	cfg   *config.Config
	api   *client.Client
	store *session.Store
	log   *logrus.Logger
}

func (a *app) signup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	confirm := fs.String("confirm", "", "password confirmation")
	role := fs.String("role", models.RolePublic, "account role")
	fs.Parse(args)

	msg, err := a.api.Signup(ctx, *name, *email, *password, *confirm, *role)
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	role := fs.String("role", models.RolePublic, "account role")
	fs.Parse(args)

	res, err := a.api.Login(ctx, *email, *password, *role)
	if err != nil {
		return err
	}
	if err := a.store.SaveIdentity(session.Identity{UserID: res.UserID, Role: res.Role}); err != nil {
		return err
	}
	fmt.Printf("Logged in as user %d (%s)\n", res.UserID, res.Role)
	return nil
}

func (a *app) schedules(ctx context.Context) error {
	w := workflow.New(a.api, a.store, a.log)
	if err := w.Refresh(ctx); err != nil {
		return err
	}
	list := w.Schedules()
	if len(list) == 0 {
		fmt.Println("No pending pickup proposals.")
		return nil
	}
	for _, p := range list {
		fmt.Printf("#%d  %s\n", p.ScheduleID, p.CompanyName)
		fmt.Printf("    Location: %s | Scheduled: %s %s\n", p.Location, p.Date, p.Time)
		fmt.Printf("    Rate: ₹%.2f per kg | Contact: %s\n", workflow.RateFor(&p), p.ContactNumber)
	}
	return nil
}

func (a *app) accept(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("accept", flag.ExitOnError)
	id := fs.Int64("id", 0, "schedule id")
	mobile := fs.String("mobile", "", "mobile number")
	quantity := fs.String("quantity", "", "waste quantity in kg")
	fs.Parse(args)

	w := workflow.New(a.api, a.store, a.log)
	if err := w.Refresh(ctx); err != nil {
		return err
	}
	if err := w.OpenAccept(*id); err != nil {
		return err
	}
	w.SetMobile(*mobile)
	w.SetWasteQuantity(*quantity)
	fmt.Printf("Reimbursement: ₹%.2f\n", w.Accept().Reimbursement)

	msg, err := w.SubmitAccept(ctx)
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

func (a *app) decline(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("decline", flag.ExitOnError)
	id := fs.Int64("id", 0, "schedule id")
	reason := fs.String("reason", "", "reason for declining")
	date := fs.String("date", "", "one of the offered collection dates")
	persist := fs.Bool("persist", false, "also record the decision on the backend")
	fs.Parse(args)

	w := workflow.New(a.api, a.store, a.log)
	if err := w.Refresh(ctx); err != nil {
		return err
	}
	if err := w.OpenDecline(*id); err != nil {
		return err
	}

	if *date == "" {
		fmt.Println("Select a new collection date with -date:")
		for _, c := range w.Candidates() {
			fmt.Println(" ", c)
		}
		w.Cancel()
		return nil
	}

	w.SetReason(*reason)
	if err := w.SelectDate(*date); err != nil {
		return err
	}

	var msg string
	var err error
	if *persist {
		msg, err = w.DeclineRemotely(ctx)
	} else {
		msg, err = w.SubmitDecline()
	}
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

func (a *app) companySchedule(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("company-schedule", flag.ExitOnError)
	userID := fs.Int64("user", 0, "target user id")
	date := fs.String("date", "", "pickup date (YYYY-MM-DD)")
	timeOfDay := fs.String("time", "", "pickup time (HH:MM:SS)")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	fs.Parse(args)

	id, err := a.store.Identity()
	if err != nil {
		return fmt.Errorf("log in as a recycling center first: %w", err)
	}

	fmt.Printf("Confirm pickup for:\nDate: %s\nTime: %s\nLocation: %s\n", *date, *timeOfDay, a.cfg.PickupLocation)
	if !*yes && !confirmPrompt() {
		fmt.Println("Cancelled.")
		return nil
	}

	msg, err := a.api.CreateSchedule(ctx, client.CreateScheduleRequest{
		UserID:    *userID,
		CompanyID: id.UserID,
		Date:      *date,
		Time:      *timeOfDay,
	})
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

func (a *app) companyReview(ctx context.Context) error {
	id, err := a.store.Identity()
	if err != nil {
		return fmt.Errorf("log in as a recycling center first: %w", err)
	}

	schedules, err := a.api.CompanySchedules(ctx, id.UserID)
	if err != nil {
		return err
	}
	if len(schedules) == 0 {
		fmt.Println("No schedules yet.")
		return nil
	}
	for _, p := range schedules {
		fmt.Printf("#%d  user %d (%s)  %s %s  %s\n",
			p.ScheduleID, p.UserID, p.UserName, p.Date, p.Time, statusLabel(p.Status))
		if p.Status == models.StatusRejected {
			fmt.Printf("    Reason: %s\n", p.Reason)
			fmt.Printf("    Reschedule: binwin company-schedule -user %d -date <YYYY-MM-DD> -time <HH:MM:SS>\n", p.UserID)
		}
	}
	return nil
}

func statusLabel(s models.ScheduleStatus) string {
	switch s {
	case models.StatusPending:
		return "⏳ Pending"
	case models.StatusAccepted:
		return "✔ Accepted"
	case models.StatusRejected:
		return "✘ Rejected"
	}
	return string(s)
}

func confirmPrompt() bool {
	fmt.Print("Proceed? [y/N]: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(line), "y")
}
