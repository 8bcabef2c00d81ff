package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	zerrors "github.com/wrath-codes/zenith/internal/errors"
	"github.com/wrath-codes/zenith/internal/knowledge"
	"github.com/wrath-codes/zenith/internal/output"
)

// addOptions holds the per-kind flags of add. Each kind reads the fields it
// has; the positional text is its content, title or topic.
type addOptions struct {
	source      string
	confidence  string
	status      string
	reason      string
	description string
	researchID  string
	issueID     string
	issueType   string
	priority    int
	question    string
	summary     string
}

// addableKinds are the kinds add can create; audit entries are written by
// the store itself.
var addableKinds = []string{"finding", "hypothesis", "insight", "research", "task", "issue", "study"}

func newAddCmd(g *globalOptions) *cobra.Command {
	var opts addOptions

	cmd := &cobra.Command{
		Use:   "add <kind> <text>",
		Short: "Add an entry to the knowledge base",
		Long: `Add a finding, hypothesis, insight, research item, task, issue or study.

The text is the entry's content (finding, hypothesis, insight), title
(research, task, issue) or topic (study).`,
		Example: `  zen add finding "p99 latency doubles under load" --source bench.txt --confidence high
  zen add hypothesis "lock contention in the pool" --status unverified
  zen add issue "flaky integration test" --type bug --priority 2
  zen add study "async runtimes" --question "which runtime suits us?"`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd, g, args[0], strings.Join(args[1:], " "), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.source, "source", "", "Where a finding came from")
	f.StringVar(&opts.confidence, "confidence", "", "Confidence of a finding or insight: low, medium, high")
	f.StringVar(&opts.status, "status", "", "Initial status")
	f.StringVar(&opts.reason, "reason", "", "Reason recorded with a hypothesis")
	f.StringVar(&opts.description, "description", "", "Description of a research item, task or issue")
	f.StringVar(&opts.researchID, "research", "", "Research item a finding belongs to")
	f.StringVar(&opts.issueID, "issue", "", "Issue a task belongs to")
	f.StringVar(&opts.issueType, "type", "", "Issue type: bug, feature, spike, epic")
	f.IntVar(&opts.priority, "priority", 0, "Issue priority, 1 (highest) to 5")
	f.StringVar(&opts.question, "question", "", "Question a study answers")
	f.StringVar(&opts.summary, "summary", "", "Summary of a study")

	return cmd
}

func runAdd(cmd *cobra.Command, g *globalOptions, kindName, text string, opts addOptions) error {
	out, format, err := writerFor(cmd, g)
	if err != nil {
		return err
	}
	kind, ok := knowledge.ParseKind(kindName)
	if !ok || kind == knowledge.KindAudit {
		return zerrors.New(zerrors.ErrCodeUnknownEntityKind, "unknown entity kind: "+kindName, nil).
			WithSuggestion("Use one of: " + strings.Join(addableKinds, ", "))
	}

	p, err := loadProject(g)
	if err != nil {
		return err
	}
	unlock, err := p.lock()
	if err != nil {
		return err
	}
	defer unlock()

	ws, err := openWorkspace(cmd.Context(), p)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	id, entry, err := createEntry(cmd.Context(), ws.knowledge, kind, text, opts)
	if err != nil {
		return err
	}

	if format == output.FormatJSON {
		return out.JSON(entry)
	}
	out.Successf("Added %s %s", kind, id)
	return nil
}

// createEntry dispatches to the store's Create function for kind and
// returns the new id and record.
func createEntry(ctx context.Context, ks *knowledge.Store, kind knowledge.EntityKind, text string, o addOptions) (string, any, error) {
	switch kind {
	case knowledge.KindFinding:
		f, err := ks.CreateFinding(ctx, knowledge.Finding{
			ResearchID: o.researchID, Content: text, Source: o.source, Confidence: o.confidence,
		})
		return f.ID, f, err
	case knowledge.KindHypothesis:
		h, err := ks.CreateHypothesis(ctx, knowledge.Hypothesis{Content: text, Status: o.status, Reason: o.reason})
		return h.ID, h, err
	case knowledge.KindInsight:
		in, err := ks.CreateInsight(ctx, knowledge.Insight{Content: text, Confidence: o.confidence})
		return in.ID, in, err
	case knowledge.KindResearch:
		r, err := ks.CreateResearch(ctx, knowledge.Research{Title: text, Description: o.description, Status: o.status})
		return r.ID, r, err
	case knowledge.KindTask:
		t, err := ks.CreateTask(ctx, knowledge.Task{
			IssueID: o.issueID, Title: text, Description: o.description, Status: o.status,
		})
		return t.ID, t, err
	case knowledge.KindIssue:
		is, err := ks.CreateIssue(ctx, knowledge.Issue{
			Type: o.issueType, Title: text, Description: o.description, Priority: o.priority, Status: o.status,
		})
		return is.ID, is, err
	case knowledge.KindStudy:
		st, err := ks.CreateStudy(ctx, knowledge.Study{
			Topic: text, Question: o.question, Summary: o.summary, Status: o.status,
		})
		return st.ID, st, err
	default:
		return "", nil, zerrors.New(zerrors.ErrCodeUnknownEntityKind, "unknown entity kind: "+string(kind), nil)
	}
}
