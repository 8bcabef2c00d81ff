package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	zerrors "github.com/wrath-codes/zenith/internal/errors"
	"github.com/wrath-codes/zenith/internal/knowledge"
	"github.com/wrath-codes/zenith/internal/output"
)

func newLinkCmd(g *globalOptions) *cobra.Command {
	var relation string

	cmd := &cobra.Command{
		Use:   "link <src-type:id> <dst-type:id>",
		Short: "Link two entities in the decision graph",
		Long: `Create a directed, typed link from one entity to another.

Endpoints are written type:id. Types are free-form, so links may point at
entities zen does not store, such as decisions. Linking the same pair with
the same relation again is a no-op.

Relations: ` + strings.Join(knowledge.Relations, ", "),
		Example: `  zen link finding:fnd-1a2b3c4d hypothesis:hyp-5e6f7a8b --relation supports
  zen link decision:adr-7 task:tsk-0c1d2e3f --relation triggers`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLink(cmd, g, args[0], args[1], relation)
		},
	}

	cmd.Flags().StringVarP(&relation, "relation", "r", "relates_to", "Relation name")

	return cmd
}

func runLink(cmd *cobra.Command, g *globalOptions, src, dst, relation string) error {
	out, format, err := writerFor(cmd, g)
	if err != nil {
		return err
	}
	srcType, srcID, err := parseEndpoint(src)
	if err != nil {
		return err
	}
	dstType, dstID, err := parseEndpoint(dst)
	if err != nil {
		return err
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

	link, err := ws.knowledge.CreateLink(cmd.Context(), srcType, srcID, dstType, dstID, relation)
	if err != nil {
		return err
	}

	if format == output.FormatJSON {
		return out.JSON(link)
	}
	out.Successf("Linked %s -[%s]-> %s (%s)", src, link.Relation, dst, link.ID)
	return nil
}

// parseEndpoint splits "type:id". The id may itself contain colons.
func parseEndpoint(s string) (entityType, id string, err error) {
	entityType, id, ok := strings.Cut(s, ":")
	if !ok || strings.TrimSpace(entityType) == "" || strings.TrimSpace(id) == "" {
		return "", "", zerrors.ValidationError("endpoint must be type:id, got "+s, nil).
			WithDetail("endpoint", s)
	}
	return entityType, id, nil
}
