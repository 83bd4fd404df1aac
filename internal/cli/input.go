// Package cli is an interactive loop for trying the ranker and the task flow by hand.
//
// Plain lines are ranked against the vocabulary, whitespace-only lines
// included. Lines starting with ':' are commands; see help for the list.
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/vulyk/suggestserve/internal/logger"
	"github.com/vulyk/suggestserve/internal/utils"
	"github.com/vulyk/suggestserve/pkg/rank"
	"github.com/vulyk/suggestserve/pkg/score"
	"github.com/vulyk/suggestserve/pkg/session"
	"github.com/vulyk/suggestserve/pkg/tasks"
	"github.com/vulyk/suggestserve/pkg/vocab"
)

const help = `commands:
  :types            list task types
  :start <type>     switch to a task type and load a task
  :next             load the next task
  :skip             skip the current task
  :done [json]      submit json, or the picked terms, and load the next task
  :prefix <text>    list terms starting with text
  :pick <term>      add a term to the selection
  :unpick <term>    remove a term from the selection
  :stats            show position and picked terms
  :help             this text`

var (
	wordStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	literalStyle = lipgloss.NewStyle().Faint(true).Italic(true)
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// InputHandler reads lines, ranks them and runs commands.
type InputHandler struct {
	vocab      *vocab.Vocabulary
	scorer     score.Scorer
	strategy   rank.Strategy
	controller *tasks.Controller
	session    *session.Session

	limit    int
	maxQuery int

	in  io.Reader
	out *log.Logger
}

// NewInputHandler creates a handler ranking against v. limit caps the printed
// suggestions and maxQuery rejects longer lines; zero disables either.
func NewInputHandler(v *vocab.Vocabulary, scorer score.Scorer, limit, maxQuery int) *InputHandler {
	return &InputHandler{
		vocab:    v,
		scorer:   scorer,
		strategy: rank.NewRanker(),
		session:  session.New(),
		limit:    limit,
		maxQuery: maxQuery,
		in:       os.Stdin,
		out:      logger.NewWithConfig(os.Stderr, "", log.InfoLevel, false, false, log.TextFormatter),
	}
}

// SetController enables the task commands. The handler then shares the
// controller's session.
func (h *InputHandler) SetController(c *tasks.Controller) {
	h.controller = c
	if c != nil {
		h.session = c.Session()
	}
}

func (h *InputHandler) SetStrategy(s rank.Strategy) {
	h.strategy = s
}

// SetIO replaces stdin and stderr.
func (h *InputHandler) SetIO(r io.Reader, w io.Writer) {
	h.in = r
	h.out = logger.NewWithConfig(w, "", log.InfoLevel, false, false, log.TextFormatter)
}

// Start runs the loop until the input ends or ctx is done.
func (h *InputHandler) Start(ctx context.Context) error {
	h.out.Print("suggestserve CLI")
	h.out.Print("type something and press Enter to rank it, :help for commands (Ctrl+C to exit)")

	reader := bufio.NewReader(h.in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := reader.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			h.handleInput(ctx, line)
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (h *InputHandler) handleInput(ctx context.Context, line string) {
	if strings.HasPrefix(line, ":") {
		h.handleCommand(ctx, line[1:])
		return
	}
	if h.maxQuery > 0 && utils.RuneLen(line) > h.maxQuery {
		h.out.Errorf("Query too long: %d characters, max %d", utils.RuneLen(line), h.maxQuery)
		return
	}

	start := time.Now()
	entries := rank.Truncate(tasks.Suggest(line, h.vocab, h.scorer, h.strategy), h.limit)
	log.Debugf("Took [ %v ] for query '%s'", time.Since(start), line)

	if len(entries) <= 1 {
		h.out.Warnf("No suggestions for '%s'", line)
	} else {
		h.out.Printf("Found %d suggestions for '%s':", len(entries)-1, line)
	}
	for i, e := range entries {
		if e.Literal {
			h.out.Printf("    %s", literalStyle.Render(e.Query))
			continue
		}
		word := fmt.Sprintf("%-40s", score.Text(e.Candidate))
		h.out.Printf("%2d. %s %s", i+1, wordStyle.Render(word),
			scoreStyle.Render("("+utils.FormatScore(e.Score)+")"))
	}
}

func (h *InputHandler) handleCommand(ctx context.Context, command string) {
	name, arg, _ := strings.Cut(strings.TrimSpace(command), " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "help", "h", "?":
		h.out.Print(help)
	case "prefix":
		h.prefix(arg)
	case "pick":
		h.pick(arg)
	case "unpick":
		if arg == "" {
			h.out.Error("usage: :unpick <term>")
			return
		}
		if !h.session.UnselectTerm(arg) {
			h.out.Warnf("'%s' is not picked", arg)
			return
		}
		h.out.Printf("picked: %s", strings.Join(h.session.SelectedTerms(), ", "))
	case "types", "start", "next", "skip", "done", "stats":
		if h.controller == nil {
			h.out.Errorf("no task service configured, :%s is unavailable", name)
			return
		}
		h.taskCommand(ctx, name, arg)
	default:
		h.out.Errorf("unknown command :%s (try :help)", name)
	}
}

// prefix lists vocabulary terms starting with text, in load order.
func (h *InputHandler) prefix(text string) {
	if text == "" {
		h.out.Error("usage: :prefix <text>")
		return
	}
	terms := h.vocab.WithPrefix(text, h.limit)
	if len(terms) == 0 {
		h.out.Warnf("No terms start with '%s'", text)
		return
	}
	h.out.Printf("%d terms start with '%s':", len(terms), text)
	for i, term := range terms {
		h.out.Printf("%2d. %s", i+1, wordStyle.Render(term))
	}
}

func (h *InputHandler) pick(term string) {
	if term == "" {
		h.out.Error("usage: :pick <term>")
		return
	}
	if !h.vocab.Contains(term) {
		h.out.Warnf("'%s' is not in the vocabulary, picking it anyway", term)
	}
	if !h.session.SelectTerm(term) {
		h.out.Warnf("'%s' is already picked", term)
		return
	}
	h.out.Printf("picked: %s", strings.Join(h.session.SelectedTerms(), ", "))
}

func (h *InputHandler) taskCommand(ctx context.Context, name, arg string) {
	var (
		task *session.Task
		err  error
	)

	switch name {
	case "types":
		var types []string
		if types, err = h.controller.Types(ctx); err == nil {
			h.out.Printf("task types: %s", strings.Join(types, ", "))
			return
		}
	case "start":
		if arg == "" {
			h.out.Error("usage: :start <type>")
			return
		}
		task, err = h.controller.Start(ctx, arg)
	case "next":
		task, err = h.controller.LoadNext(ctx)
	case "skip":
		if err = h.controller.Skip(ctx); err == nil {
			h.out.Print("skipped")
			task, err = h.controller.LoadNext(ctx)
		}
	case "done":
		var result any
		if result, err = h.result(arg); err == nil {
			task, err = h.controller.Save(ctx, result)
		}
	case "stats":
		stats := h.controller.Stats()
		h.out.Printf("type: %s  done: %d  position: %d  picked: %s",
			h.session.TaskType(), stats.Total, stats.Position, strings.Join(h.session.SelectedTerms(), ", "))
		return
	}

	switch {
	case errors.Is(err, tasks.ErrNoTasks):
		h.out.Warn("no more tasks")
	case errors.Is(err, tasks.ErrNoTaskType):
		h.out.Error("no task type selected, use :start <type>")
	case err != nil:
		h.out.Errorf("%v", err)
	case task != nil:
		h.printTask(task)
	}
}

// result is the answer :done submits: the argument when given, otherwise the picked terms.
func (h *InputHandler) result(arg string) (any, error) {
	if arg == "" {
		return map[string][]string{"terms": h.session.SelectedTerms()}, nil
	}
	if !json.Valid([]byte(arg)) {
		return nil, fmt.Errorf("not valid JSON: %s", arg)
	}
	return json.RawMessage(arg), nil
}

func (h *InputHandler) printTask(task *session.Task) {
	h.out.Printf("task %s [%s]", wordStyle.Render(task.ID), h.session.TaskTitle())
	if len(task.Data) > 0 {
		h.out.Printf("  %s", task.Data)
	}
}
