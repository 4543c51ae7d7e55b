package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"

	"github.com/kazz187/taskforge/internal/apiclient"
	"github.com/kazz187/taskforge/internal/app"
	"github.com/kazz187/taskforge/internal/auth"
	"github.com/kazz187/taskforge/internal/config"
	"github.com/kazz187/taskforge/internal/eventbus"
	"github.com/kazz187/taskforge/internal/task"
	"github.com/kazz187/taskforge/internal/taskservice"
	"github.com/kazz187/taskforge/pkg/clog"
)

var (
	cli = kingpin.New("taskforge", "Terminal task board with undo/redo")

	apiURL   = cli.Flag("api-url", "Task API base URL (overrides TASKFORGE_API_BASE_URL).").String()
	user     = cli.Flag("user", "Log in as this user before loading tasks.").Envar("TASKFORGE_USER").String()
	password = cli.Flag("password", "Password for --user.").Envar("TASKFORGE_PASSWORD").String()
	noColor  = cli.Flag("no-color", "Disable colored output.").Bool()

	shellCmd  = cli.Command("shell", "Start the interactive shell.").Default()
	shellDiff = shellCmd.Flag("diff", "Print a board diff after undo and redo.").Bool()

	listCmd  = cli.Command("list", "Print the task list.")
	listSort = listCmd.Flag("sort", "Sort key.").Short('s').String()

	addCmd         = cli.Command("add", "Create a task.")
	addTitle       = addCmd.Flag("title", "Task title.").Required().String()
	addDescription = addCmd.Flag("description", "Task description.").String()
	addDue         = addCmd.Flag("due", "Due date (YYYY-MM-DD).").String()
	addPriority    = addCmd.Flag("priority", "low, medium or high.").Default("low").Enum("low", "medium", "high")

	loginCmd  = cli.Command("login", "Check credentials against the API.")
	loginUser = loginCmd.Arg("user", "User name.").Required().String()
	loginPass = loginCmd.Arg("password", "Password.").Required().String()

	importCmd  = cli.Command("import", "Create every task in a YAML file.")
	importFile = importCmd.Arg("file", "YAML list of tasks.").Required().ExistingFile()
)

func main() {
	selected := kingpin.MustParse(cli.Parse(os.Args[1:]))

	env, err := config.LoadEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if *noColor {
		color.NoColor = true
	}
	setupLogger(env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = clog.ContextWithSlog(ctx)

	if err := run(ctx, env, selected); err != nil {
		slog.ErrorContext(ctx, "taskforge failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func setupLogger(env *config.Env) {
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewTextHandler(os.Stderr, clog.WithLevel(level), clog.WithColor(!color.NoColor))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))
}

func run(ctx context.Context, env *config.Env, selected string) error {
	baseURL := env.APIBaseURL
	if *apiURL != "" {
		baseURL = *apiURL
	}
	client, err := apiclient.New(baseURL, apiclient.WithTimeout(env.APITimeout))
	if err != nil {
		return err
	}
	tag, err := env.Tag()
	if err != nil {
		return err
	}

	bus := eventbus.New()
	a := app.New(
		taskservice.New(client),
		auth.NewAdapter(auth.NewHTTPExternalLogin(client)),
		app.WithTokenSetter(client),
		app.WithBus(bus),
		app.WithRegistry(task.NewRegistry(task.WithLocale(tag))),
	)
	go logEvents(ctx, bus)

	if selected == loginCmd.FullCommand() {
		u, err := a.Login(ctx, *loginUser, *loginPass)
		if err != nil {
			return err
		}
		fmt.Printf("logged in as %s (%s)\n", u.Name, u.ID)
		return nil
	}

	if err := a.Bootstrap(ctx, *user, *password); err != nil {
		return err
	}

	repl := NewREPL(a, os.Stdout, replConfig{
		sortKey: env.SortKey(),
		diff:    *shellDiff,
		colored: !color.NoColor,
	})
	switch selected {
	case listCmd.FullCommand():
		args := []string{"list"}
		if *listSort != "" {
			args = append(args, "--sort", *listSort)
		}
		return repl.ExecArgs(ctx, args)
	case addCmd.FullCommand():
		return repl.ExecArgs(ctx, []string{"add",
			"--description", *addDescription,
			"--due", *addDue,
			"--priority", *addPriority,
			"--", *addTitle,
		})
	case importCmd.FullCommand():
		return repl.ExecArgs(ctx, []string{"import", *importFile})
	default:
		fmt.Printf("%d tasks loaded from %s. Type \"help\" for commands.\n", a.Board().Len(), client.BaseURL())
		return repl.Run(ctx, os.Stdin)
	}
}

// logEvents mirrors bus traffic into the debug log until ctx is done.
func logEvents(ctx context.Context, bus *eventbus.Bus) {
	id, events := bus.Subscribe(64)
	defer bus.Unsubscribe(id)
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			slog.DebugContext(ctx, "event", "type", ev.Type, "resource_id", ev.ResourceID, "event_id", ev.ID)
		}
	}
}
