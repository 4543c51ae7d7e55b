package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"

	"github.com/kazz187/taskforge/internal/app"
	"github.com/kazz187/taskforge/internal/component"
	"github.com/kazz187/taskforge/internal/form"
	"github.com/kazz187/taskforge/internal/task"
	"github.com/kazz187/taskforge/internal/view"
	"github.com/kazz187/taskforge/pkg/cerr"
	"github.com/kazz187/taskforge/pkg/panicerr"
)

var errExit = errors.New("exit")

// REPL reads commands line by line and applies them to the app.
type REPL struct {
	app     *app.App
	out     io.Writer
	list    *view.TaskList
	listC   component.Component
	status  component.Component
	diff    bool
	colored bool
}

type replConfig struct {
	sortKey task.SortKey
	diff    bool
	colored bool
}

func NewREPL(a *app.App, out io.Writer, cfg replConfig) *REPL {
	list := view.NewTaskList(a.Board(), a.Registry(), cfg.sortKey, view.WithColor(cfg.colored))
	return &REPL{
		app:     a,
		out:     out,
		list:    list,
		listC:   component.WithLogger(list, slog.Default()),
		status:  component.WithLogger(view.NewHistoryStatus(a.Manager()), slog.Default()),
		diff:    cfg.diff,
		colored: cfg.colored,
	}
}

// Run executes lines from in until EOF, "exit" or ctx is done. A failing or
// panicking line is reported and the loop continues.
func (r *REPL) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		err := panicerr.SafeContext(func(ctx context.Context) error {
			return r.Exec(ctx, scanner.Text())
		})(ctx)
		if errors.Is(err, errExit) {
			return nil
		}
		if err != nil {
			r.printError(ctx, err)
		}
	}
}

func (r *REPL) printError(ctx context.Context, err error) {
	c := color.New(color.FgRed)
	if !r.colored {
		c.DisableColor()
	}
	var ce *cerr.Error
	if errors.As(err, &ce) {
		c.Fprintf(r.out, "error: %s\n", ce.Msg)
		for _, d := range ce.Details {
			c.Fprintf(r.out, "  - %s\n", d)
		}
		if ce.Code == cerr.Internal {
			slog.ErrorContext(ctx, "command failed", "error", err)
		}
		return
	}
	c.Fprintf(r.out, "error: %v\n", err)
}

// Exec runs one input line. Quoting follows POSIX shell rules; expansions
// are refused.
func (r *REPL) Exec(ctx context.Context, line string) error {
	args, err := splitLine(line)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}
	return r.ExecArgs(ctx, args)
}

// splitLine splits a line into words without consulting the process
// environment. "$" must be single-quoted or escaped to be taken literally.
func splitLine(line string) ([]string, error) {
	var words []*syntax.Word
	for w, err := range syntax.NewParser().WordsSeq(strings.NewReader(line)) {
		if err != nil {
			return nil, cerr.NewError(cerr.InvalidArgument, "cannot parse line", err)
		}
		words = append(words, w)
	}
	for _, w := range words {
		var exp syntax.Node
		syntax.Walk(w, func(n syntax.Node) bool {
			switch n.(type) {
			case *syntax.ParamExp, *syntax.CmdSubst, *syntax.ArithmExp, *syntax.ProcSubst:
				exp = n
			}
			return exp == nil
		})
		if exp != nil {
			return nil, cerr.NewErrorWithDetails(cerr.InvalidArgument, "expansion is not supported", nil,
				[]string{fmt.Sprintf("quote %q with single quotes to use it literally", exprText(line, exp))})
		}
	}
	cfg := &expand.Config{Env: expand.ListEnviron()}
	args, err := expand.Fields(cfg, words...)
	if err != nil {
		return nil, cerr.NewError(cerr.InvalidArgument, "cannot parse line", err)
	}
	return args, nil
}

func exprText(line string, n syntax.Node) string {
	start, end := int(n.Pos().Offset()), int(n.End().Offset())
	if start < 0 || end > len(line) || start >= end {
		return "$"
	}
	return line[start:end]
}

type commandLine struct {
	app *kingpin.Application

	add            *kingpin.CmdClause
	addTitle       *string
	addDescription *string
	addDue         *string
	addPriority    *string

	del   *kingpin.CmdClause
	delID *string

	priority      *kingpin.CmdClause
	priorityID    *string
	priorityLevel *string

	list     *kingpin.CmdClause
	listSort *string

	undo     *kingpin.CmdClause
	undoDiff *bool
	redo     *kingpin.CmdClause
	redoDiff *bool

	history *kingpin.CmdClause
	refresh *kingpin.CmdClause

	login     *kingpin.CmdClause
	loginUser *string
	loginPass *string

	keys *kingpin.CmdClause

	importCmd  *kingpin.CmdClause
	importFile *string

	exit *kingpin.CmdClause
}

func (r *REPL) newCommandLine() *commandLine {
	a := kingpin.New("", "Interactive task board.").
		Terminate(nil).
		UsageWriter(r.out).
		ErrorWriter(r.out)
	diff := fmt.Sprint(r.diff)

	cl := &commandLine{app: a}
	cl.add = a.Command("add", "Create a task.")
	cl.addTitle = cl.add.Arg("title", "Task title.").Required().String()
	cl.addDescription = cl.add.Flag("description", "Task description.").Short('d').String()
	cl.addDue = cl.add.Flag("due", "Due date (YYYY-MM-DD).").String()
	cl.addPriority = cl.add.Flag("priority", "low, medium or high.").Short('p').String()

	cl.del = a.Command("delete", "Remove a task from the board.").Alias("rm")
	cl.delID = cl.del.Arg("id", "Task ID.").Required().String()

	cl.priority = a.Command("priority", "Change a task's priority.")
	cl.priorityID = cl.priority.Arg("id", "Task ID.").Required().String()
	cl.priorityLevel = cl.priority.Arg("level", "low, medium or high.").Required().String()

	cl.list = a.Command("list", "Show the board.").Alias("ls")
	cl.listSort = cl.list.Flag("sort", "Sort key; becomes the default for later lists.").Short('s').String()

	cl.undo = a.Command("undo", "Revert the last edit.")
	cl.undoDiff = cl.undo.Flag("diff", "Print the board change.").Default(diff).Bool()
	cl.redo = a.Command("redo", "Re-apply the last undone edit.")
	cl.redoDiff = cl.redo.Flag("diff", "Print the board change.").Default(diff).Bool()

	cl.history = a.Command("history", "Show undo/redo state.")
	cl.refresh = a.Command("refresh", "Reload tasks from the server; clears history.")

	cl.login = a.Command("login", "Sign in.")
	cl.loginUser = cl.login.Arg("user", "User name.").Required().String()
	cl.loginPass = cl.login.Arg("password", "Password.").Required().String()

	cl.keys = a.Command("keys", "List sort keys.")

	cl.importCmd = a.Command("import", "Create every task in a YAML file as one undoable step.")
	cl.importFile = cl.importCmd.Arg("file", "YAML list of tasks.").Required().ExistingFile()

	cl.exit = a.Command("exit", "Leave the shell.").Alias("quit")
	return cl
}

func (r *REPL) ExecArgs(ctx context.Context, args []string) error {
	cl := r.newCommandLine()
	selected, err := cl.app.Parse(args)
	if err != nil {
		return cerr.NewError(cerr.InvalidArgument, err.Error(), nil)
	}

	switch selected {
	case cl.add.FullCommand():
		p := task.Priority(strings.ToLower(*cl.addPriority))
		t, err := r.app.AddTask(ctx, form.TaskFormData{
			Title:       *cl.addTitle,
			Description: *cl.addDescription,
			DueDate:     *cl.addDue,
			Priority:    p,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "added %s %q\n", t.ID, t.Title)
	case cl.del.FullCommand():
		t, err := r.app.DeleteTask(ctx, *cl.delID)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "deleted %s %q\n", t.ID, t.Title)
	case cl.priority.FullCommand():
		p, err := task.ParsePriority(*cl.priorityLevel)
		if err != nil {
			return err
		}
		t, err := r.app.SetPriority(ctx, *cl.priorityID, p)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "%s is now %s\n", t.ID, t.Priority)
	case cl.list.FullCommand():
		if *cl.listSort != "" {
			if err := r.list.SetSortKey(task.SortKey(*cl.listSort)); err != nil {
				return err
			}
		}
		return r.listC.Render(ctx, r.out)
	case cl.undo.FullCommand():
		return r.history(ctx, r.app.Undo, "undone", "nothing to undo", *cl.undoDiff)
	case cl.redo.FullCommand():
		return r.history(ctx, r.app.Redo, "redone", "nothing to redo", *cl.redoDiff)
	case cl.history.FullCommand():
		return r.status.Render(ctx, r.out)
	case cl.refresh.FullCommand():
		if err := r.app.Refresh(ctx); err != nil {
			return err
		}
		fmt.Fprintf(r.out, "loaded %d tasks\n", r.app.Board().Len())
	case cl.login.FullCommand():
		u, err := r.app.Login(ctx, *cl.loginUser, *cl.loginPass)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "logged in as %s\n", u.Name)
	case cl.keys.FullCommand():
		labels := make(map[task.SortKey]string)
		for _, o := range task.SortOptions() {
			labels[o.Key] = o.Label
		}
		for _, k := range r.app.Registry().Keys() {
			mark := " "
			if k == r.list.SortKey() {
				mark = "*"
			}
			fmt.Fprintf(r.out, "%s %s\t%s\n", mark, k, labels[k])
		}
	case cl.importCmd.FullCommand():
		drafts, err := readDrafts(*cl.importFile)
		if err != nil {
			return err
		}
		tasks, err := r.app.ImportTasks(ctx, drafts)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "imported %d tasks\n", len(tasks))
	case cl.exit.FullCommand():
		return errExit
	}
	return nil
}

func (r *REPL) history(ctx context.Context, step func(context.Context) (bool, error), done, none string, diff bool) error {
	before := boardLines(r.app.Board().Tasks())
	ok, err := step(ctx)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(r.out, none)
		return nil
	}
	fmt.Fprintln(r.out, done)
	if diff {
		return writeDiff(r.out, before, boardLines(r.app.Board().Tasks()))
	}
	return nil
}

func boardLines(tasks []task.Task) string {
	var b strings.Builder
	for _, t := range tasks {
		fmt.Fprintf(&b, "%s %s [%s] %s\n", t.ID, t.Title, t.Priority, t.DueDate)
	}
	return b.String()
}

func writeDiff(w io.Writer, before, after string) error {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "board",
		ToFile:   "board",
		Context:  1,
	})
	if err != nil {
		return cerr.NewError(cerr.Internal, "failed to diff board", err)
	}
	_, err = io.WriteString(w, text)
	return err
}

func readDrafts(path string) ([]form.TaskFormData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cerr.NewError(cerr.NotFound, fmt.Sprintf("cannot read %s", path), err)
	}
	var drafts []form.TaskFormData
	if err := yaml.Unmarshal(data, &drafts); err != nil {
		return nil, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("%s is not a YAML list of tasks", path), err)
	}
	return drafts, nil
}
