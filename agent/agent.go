package agent

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"google.golang.org/genai"
)

// Agent is the chat session of pvr assist.
//
// The user talks to a facilitator, which forwards questions to the experts
// (the position analyst, the market trader) and writes the answer.
type Agent struct {
	w           io.Writer
	r           *bufio.Reader
	Facilitator *Expert
	Experts     []*Expert
	// Render formats the markdown answers before printing, they are printed as is if nil.
	Render func(md string) string
}

// New returns an agent reading questions from r and writing answers to w.
// Chats are only opened by Start.
func New(w io.Writer, r io.Reader, experts ...*Expert) *Agent {
	return &Agent{
		w:           w,
		r:           bufio.NewReader(r),
		Experts:     experts,
		Facilitator: newFacilitator(experts...),
	}
}

// Start opens a chat for every expert, then for the facilitator.
func (a *Agent) Start(ctx context.Context, client *genai.Client) error {
	for _, e := range a.Experts {
		if err := e.Start(ctx, client); err != nil {
			return err
		}
	}
	return a.Facilitator.Start(ctx, client)
}

const prompt = "pvr> "

// leaveWords end the session.
var leaveWords = map[string]bool{"bye": true, "quit": true, "exit": true}

// Run answers questions until the user leaves or the input ends.
//
// queued questions are asked first, as if typed by the user.
func (a *Agent) Run(ctx context.Context, client *genai.Client, queued ...string) error {
	if !a.Facilitator.Started() {
		if err := a.Start(ctx, client); err != nil {
			return err
		}
	}
	a.banner()

	for {
		fmt.Fprint(a.w, prompt)
		question, err := a.next(&queued)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if question == "" {
			continue
		}
		if leaveWords[strings.ToLower(question)] {
			return nil
		}

		content, err := a.Facilitator.Ask(ctx, &genai.Part{Text: question})
		if err != nil {
			return fmt.Errorf("cannot answer %q: %w", question, err)
		}
		a.print(content.Parts[0].Text)
	}
}

// banner tells who is listening.
func (a *Agent) banner() {
	var names []string
	for _, e := range a.Experts {
		names = append(names, e.Name)
	}
	if len(names) == 0 {
		fmt.Fprintln(a.w, "pvr assist: ask about your positions and their valuation.")
	} else {
		fmt.Fprintf(a.w, "pvr assist (%s): ask about your positions and their valuation.\n", strings.Join(names, ", "))
	}
	fmt.Fprintln(a.w, "Type 'bye' or press Ctrl+D to leave.")
}

// next returns the next trimmed question, from queued first, echoing it.
func (a *Agent) next(queued *[]string) (string, error) {
	if len(*queued) > 0 {
		q := strings.TrimSpace((*queued)[0])
		*queued = (*queued)[1:]
		fmt.Fprintln(a.w, q)
		return q, nil
	}
	line, err := a.r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *Agent) print(md string) {
	if a.Render != nil {
		md = a.Render(md)
	}
	fmt.Fprintln(a.w, md)
}
