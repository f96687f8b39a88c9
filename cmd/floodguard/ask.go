package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"floodguard/cmd/floodguard/ui"
	"floodguard/internal/chat"
	"floodguard/internal/retrieval"
)

// errTurnRejected is returned when the pipeline answers with an error event.
var errTurnRejected = errors.New("turn rejected")

// askCmd runs conversation turns from the terminal
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question through the chat pipeline",
	Long: `Runs one conversation turn with the API key configured for llm.provider
(or the matching *_API_KEY environment variable) and prints the streamed
events: matching projects, the answer and related news.

With --interactive, questions are read line by line from stdin and share one
session, so follow-up questions keep their context.`,
	RunE: runAsk,
}

var askInteractive bool

func init() {
	askCmd.Flags().BoolVarP(&askInteractive, "interactive", "i", false, "Read questions from stdin until EOF")
}

func runAsk(cmd *cobra.Command, args []string) error {
	if !askInteractive && len(args) == 0 {
		return errors.New("a question is required (or use --interactive)")
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	pipeline, _, err := a.pipeline()
	if err != nil {
		return err
	}

	p := newEventPrinter(cmd.OutOrStdout(), ui.DefaultStyles())
	if md, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80)); err == nil {
		p.markdown = md.Render
	}

	sessionID := uuid.NewString()
	ask := func(question string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		turn := chat.Turn{Message: question, SessionID: sessionID, Credentials: credentials(cfg)}
		if err := pipeline.HandleTurn(ctx, turn, p.Emit); err != nil {
			return err
		}
		if p.failed {
			return errTurnRejected
		}
		return nil
	}

	if !askInteractive {
		return ask(strings.Join(args, " "))
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	fmt.Fprint(cmd.OutOrStdout(), p.styles.Bold.Render("> "))
	for scanner.Scan() {
		if q := strings.TrimSpace(scanner.Text()); q != "" {
			p.failed = false
			if err := ask(q); err != nil && !errors.Is(err, errTurnRejected) {
				return err
			}
		}
		fmt.Fprint(cmd.OutOrStdout(), p.styles.Bold.Render("> "))
	}
	return scanner.Err()
}

// eventPrinter renders pipeline events for the terminal.
type eventPrinter struct {
	w        io.Writer
	styles   ui.Styles
	markdown func(string) (string, error) // nil prints answers verbatim
	failed   bool
}

func newEventPrinter(w io.Writer, styles ui.Styles) *eventPrinter {
	return &eventPrinter{w: w, styles: styles}
}

// Emit implements chat.EmitFunc.
func (p *eventPrinter) Emit(ev chat.Event) error {
	switch ev.Type {
	case chat.EventStatus:
		fmt.Fprintln(p.w, p.styles.Muted.Render(ev.Message))
	case chat.EventProjects:
		rows, _ := ev.Data.([]chat.ProjectSummary)
		tbl := ui.NewTable(fmt.Sprintf("Matching projects (%d)", ev.Count), "ID", "Description", "Contractor", "Location", "Cost")
		tbl.MaxCell = 40
		for i, r := range rows {
			if i == 10 {
				break
			}
			loc := strings.Trim(r.Municipality+", "+r.Province, ", ")
			tbl.AddRow(r.ProjectID, r.Description, r.Contractor, loc, peso(r.ContractCost))
		}
		fmt.Fprint(p.w, tbl.View(p.styles))
		if len(rows) > 10 {
			fmt.Fprintln(p.w, p.styles.Muted.Render(fmt.Sprintf("... and %d more", len(rows)-10)))
		}
	case chat.EventMapBounds:
		if b := ev.BBox; b != nil {
			fmt.Fprintln(p.w, p.styles.Muted.Render(fmt.Sprintf("Map bounds: [%.4f, %.4f] to [%.4f, %.4f]", b.MinLon(), b.MinLat(), b.MaxLon(), b.MaxLat())))
		}
	case chat.EventMessage:
		fmt.Fprintln(p.w, p.render(ev.Content))
	case chat.EventNews:
		articles, _ := ev.Data.([]retrieval.Article)
		renderArticles(p.w, articles, p.styles)
	case chat.EventError:
		p.failed = true
		fmt.Fprintln(p.w, p.styles.Error.Render("Error: "+ev.Content))
	}
	return nil
}

func (p *eventPrinter) render(content string) string {
	if p.markdown == nil {
		return content
	}
	out, err := p.markdown(content)
	if err != nil {
		return content
	}
	return out
}
