package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"classtask-client/internal/config"
	"classtask-client/internal/domain"
	"classtask-client/internal/engine"
	"classtask-client/internal/gateway"
	"classtask-client/internal/present"
	"classtask-client/internal/realtime"
)

// NewClientCmd builds the interactive terminal client.
func NewClientCmd(configPath, serverURL, userID *string) *cobra.Command {
	return &cobra.Command{
		Use:   "client",
		Short: "Connect to a classroom server and work on tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClient(cmd.Context(), *configPath, *serverURL, *userID, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// clientApp bundles the pieces one connected user needs.
type clientApp struct {
	gateway    *gateway.Client
	catalog    *engine.Catalog
	controller *engine.Controller
	out        io.Writer
	in         *bufio.Scanner
}

func runClient(ctx context.Context, configPath, serverFlag, userFlag string, in io.Reader, out io.Writer) error {
	server := serverFlag
	user := userFlag
	if cfg, err := config.Load(configPath); err == nil {
		// Flags take precedence over the config file.
		if cfg.Server.URL != "" && (server == "" || server == "http://localhost:8080") {
			server = cfg.Server.URL
		}
		if user == "" {
			user = cfg.User.ID
		}
	}
	if user == "" {
		return fmt.Errorf("no user ID: pass --user or set user.id in the config")
	}

	gw := gateway.NewClient(server, user, nil)
	catalog := engine.NewCatalog(gw)
	app := &clientApp{
		gateway:    gw,
		catalog:    catalog,
		controller: engine.NewController(catalog, gw),
		out:        out,
		in:         bufio.NewScanner(in),
	}

	if _, err := catalog.Refresh(ctx); err != nil {
		return fmt.Errorf("connect to %s: %w", server, err)
	}

	// Out-of-band events: refetch on task changes, surface async grades.
	listener, err := realtime.Dial(ctx, server, user, realtime.Handlers{
		TaskUpdate: func(domain.TaskUpdate) {
			if _, err := catalog.Refresh(ctx); err != nil {
				log.Printf("task refresh failed: %v", err)
			}
		},
		GradeReceived: func(notice domain.GradeNotice) {
			app.show(present.Grade(notice))
		},
		PointsUpdate: func(update domain.PointsUpdate) {
			fmt.Fprintf(out, "\n[points] balance is now %d\n", update.Points)
		},
	})
	if err != nil {
		log.Printf("realtime channel unavailable: %v", err)
	} else {
		defer listener.Close()
		go func() {
			if err := listener.Run(ctx); err != nil && ctx.Err() == nil {
				log.Printf("realtime channel closed: %v", err)
			}
		}()
	}

	fmt.Fprintf(out, "connected to %s as %s\n", server, user)
	return app.loop(ctx)
}

func (a *clientApp) loop(ctx context.Context) error {
	a.printTasks()
	for {
		fmt.Fprint(a.out, "\n> ")
		line, ok := a.readLine()
		if !ok {
			return nil
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "tasks", "ls":
			if _, err := a.catalog.Refresh(ctx); err != nil {
				fmt.Fprintf(a.out, "refresh failed: %v\n", err)
				continue
			}
			a.printTasks()
		case "open":
			if len(fields) < 2 {
				fmt.Fprintln(a.out, "usage: open <task-number|task-id>")
				continue
			}
			a.openTask(ctx, fields[1])
		case "points":
			points, err := a.gateway.Balance(ctx)
			if err != nil {
				fmt.Fprintf(a.out, "balance read failed: %v\n", err)
				continue
			}
			fmt.Fprintf(a.out, "balance: %d points\n", points)
		case "quit", "exit":
			return nil
		case "help":
			fmt.Fprintln(a.out, "commands: tasks, open <n>, points, quit")
		default:
			fmt.Fprintf(a.out, "unknown command %q (try help)\n", fields[0])
		}
	}
}

func (a *clientApp) printTasks() {
	tasks := a.catalog.Tasks()
	if len(tasks) == 0 {
		fmt.Fprintln(a.out, "no tasks yet")
		return
	}
	for i, task := range tasks {
		extra := ""
		if task.Points > 0 && task.Status != domain.StatusResource {
			extra = fmt.Sprintf(" (+%d pts)", task.Points)
		}
		fmt.Fprintf(a.out, "%2d. [%s] %s — %s%s\n", i+1, task.Status, task.Title, task.Type, extra)
	}
}

func (a *clientApp) openTask(ctx context.Context, ref string) {
	taskID := ref
	if n, err := strconv.Atoi(ref); err == nil {
		tasks := a.catalog.Tasks()
		if n < 1 || n > len(tasks) {
			fmt.Fprintf(a.out, "no task number %d\n", n)
			return
		}
		taskID = tasks[n-1].ID
	}

	session, err := a.controller.Open(ctx, taskID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTaskCompleted):
			fmt.Fprintln(a.out, "You have already completed this task.")
		case errors.Is(err, domain.ErrTaskNotFound):
			fmt.Fprintf(a.out, "no task %q\n", taskID)
		default:
			fmt.Fprintf(a.out, "open failed: %v\n", err)
		}
		return
	}

	view := session.View()
	fmt.Fprintf(a.out, "\n== %s ==\n%s\n", view.Title, view.Description)
	if view.Instructions != "" {
		fmt.Fprintf(a.out, "Instructions: %s\n", view.Instructions)
	}
	if view.ReadOnly {
		if view.ResourceContent != "" {
			fmt.Fprintln(a.out, view.ResourceContent)
		}
		return
	}

	switch view.Type {
	case domain.TypeQuestion, domain.TypeAttachment:
		a.runTextFlow(ctx, session)
	case domain.TypeMultipleChoice:
		a.runChoiceFlow(ctx, session, false)
	case domain.TypePoll:
		a.runChoiceFlow(ctx, session, true)
	case domain.TypeQuiz:
		a.runQuizFlow(ctx, session)
	case domain.TypeMarkAsDone:
		if view.TaskInstructions != "" {
			fmt.Fprintf(a.out, "Before marking as done: %s\n", view.TaskInstructions)
		}
		fmt.Fprint(a.out, "mark as done? [y/N] ")
		if line, ok := a.readLine(); ok && strings.EqualFold(strings.TrimSpace(line), "y") {
			a.submit(ctx, session, "")
		}
	}
}

func (a *clientApp) runTextFlow(ctx context.Context, session *engine.TaskSession) {
	fmt.Fprint(a.out, "your answer: ")
	line, ok := a.readLine()
	if !ok {
		return
	}
	a.submit(ctx, session, line)
}

func (a *clientApp) runChoiceFlow(ctx context.Context, session *engine.TaskSession, poll bool) {
	view := session.View()
	for i, opt := range view.Options {
		fmt.Fprintf(a.out, "  %d) %s\n", i+1, opt)
	}
	prompt := "pick an option (number), or submit"
	if poll {
		prompt += ", or results"
	}
	for {
		fmt.Fprintf(a.out, "%s: ", prompt)
		line, ok := a.readLine()
		if !ok {
			return
		}
		input := strings.TrimSpace(line)
		switch {
		case input == "submit":
			a.submit(ctx, session, "")
			if poll && session.Phase() == engine.PhaseSubmitted {
				a.showPollResults(ctx, session.Task())
			}
			return
		case poll && input == "results":
			a.showPollResults(ctx, session.Task())
		default:
			n, err := strconv.Atoi(input)
			if err != nil || n < 1 || n > len(view.Options) {
				fmt.Fprintln(a.out, "enter an option number")
				continue
			}
			if err := session.SelectChoice(view.Options[n-1]); err != nil {
				fmt.Fprintf(a.out, "select failed: %v\n", err)
				continue
			}
			fmt.Fprintf(a.out, "selected: %s\n", view.Options[n-1])
		}
	}
}

func (a *clientApp) runQuizFlow(ctx context.Context, session *engine.TaskSession) {
	quiz := session.Quiz()
	for {
		page := quiz.View()
		if page.Count == 0 {
			a.submit(ctx, session, "")
			return
		}
		fmt.Fprintf(a.out, "\n-- page %d/%d --\n", page.Index+1, page.Count)
		if page.Kind == domain.PageInfo {
			title := page.Title
			if title == "" {
				title = "Information"
			}
			fmt.Fprintf(a.out, "%s\n%s\n", title, page.Content)
		} else {
			fmt.Fprintf(a.out, "Question %d: %s\n", page.Index+1, page.Question)
			for i, opt := range page.Options {
				marker := " "
				if page.HasSelected && page.Selected == opt {
					marker = "*"
				}
				fmt.Fprintf(a.out, " %s%d) %s\n", marker, i+1, opt)
			}
		}
		fmt.Fprint(a.out, "[number to answer, n=next, p=previous, f=finish, q=abandon] ")
		line, ok := a.readLine()
		if !ok {
			return
		}
		switch input := strings.TrimSpace(line); input {
		case "n":
			if err := quiz.Next(); errors.Is(err, domain.ErrPageUnanswered) {
				fmt.Fprintln(a.out, "Please select an answer")
			} else if err != nil {
				fmt.Fprintf(a.out, "next: %v\n", err)
			}
		case "p":
			quiz.Previous()
		case "f":
			a.submit(ctx, session, "")
			if session.Phase() == engine.PhaseSubmitted {
				return
			}
		case "q":
			return
		default:
			n, err := strconv.Atoi(input)
			if err != nil || n < 1 || n > len(page.Options) {
				fmt.Fprintln(a.out, "enter an option number")
				continue
			}
			if err := quiz.Select(page.Options[n-1]); err != nil {
				fmt.Fprintf(a.out, "select: %v\n", err)
			}
		}
	}
}

func (a *clientApp) submit(ctx context.Context, session *engine.TaskSession, input string) {
	result, err := session.Submit(ctx, input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyAnswer):
			fmt.Fprintln(a.out, "Please enter an answer")
		case errors.Is(err, domain.ErrNoChoiceSelected):
			fmt.Fprintln(a.out, "Please select an option")
		case errors.Is(err, domain.ErrPageUnanswered):
			fmt.Fprintln(a.out, "Please select an answer")
		case errors.Is(err, domain.ErrNotLastPage):
			fmt.Fprintln(a.out, "Finish is only available on the last page")
		case errors.Is(err, domain.ErrSubmitInFlight):
			fmt.Fprintln(a.out, "Submission already in progress")
		default:
			fmt.Fprintf(a.out, "submission failed: %v\n", err)
		}
		return
	}
	a.show(present.Result(session.Task().Type, result))
	a.printTasks()
}

func (a *clientApp) showPollResults(ctx context.Context, task domain.Task) {
	results, err := a.gateway.PollResults(ctx, task.ID)
	if err != nil {
		fmt.Fprintf(a.out, "poll results failed: %v\n", err)
		return
	}
	fmt.Fprintln(a.out, present.PollResults(task, results))
}

func (a *clientApp) show(r present.Rendered) {
	fmt.Fprintf(a.out, "\n%s\n%s\n", r.Title, r.Body)
	if r.RefreshBalance {
		if points, err := a.gateway.Balance(context.Background()); err == nil {
			fmt.Fprintf(a.out, "balance: %d points\n", points)
		}
	}
}

func (a *clientApp) readLine() (string, bool) {
	if !a.in.Scan() {
		return "", false
	}
	return a.in.Text(), true
}
