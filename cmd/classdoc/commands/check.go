package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/classdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/classdoc/internal/linkverify"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	Output  string `short:"o" help:"Site directory to check (defaults to output.directory)"`
	Anchors bool   `help:"Also require #fragment targets to exist"`
}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	dir := c.Output
	if dir == "" {
		cfg, err := loadConfig(root)
		if err != nil {
			return err
		}
		dir = cfg.Output.Directory
	}
	return RunCheck(context.Background(), g, dir, c.Anchors)
}

// RunCheck verifies every page under dir and reports broken links on stdout.
func RunCheck(ctx context.Context, g *Global, dir string, anchors bool) error {
	report, err := linkverify.Verify(ctx, dir, linkverify.Options{CheckFragments: anchors})
	if err != nil {
		return err
	}
	out := g.out()
	for _, b := range report.Broken {
		fmt.Fprintf(out, "%s: %s (%s)\n", b.Page, b.URL, b.Reason)
	}
	fmt.Fprintf(out, "Checked %d links on %d pages, %d broken\n", report.Checked, report.Pages, len(report.Broken))
	if !report.OK() {
		return errors.NewError(errors.CategoryVerify, "broken links found").
			WithContext("path", dir).
			WithContext("count", len(report.Broken)).
			Build()
	}
	return nil
}
