package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/schollz/progressbar/v3"

	"github.com/mhoran/filtersync/internal/folder"
	"github.com/mhoran/filtersync/internal/rules"
)

func (c *RulesCheckCmd) Run(ctx *Context) error {
	_, text, err := readRulesFile(ctx, c.Rules)
	if err != nil {
		return err
	}

	parsed := rules.Parse(text)
	required := rules.UniquePaths(parsed)
	ctx.Formatter.Verbosef("parsed %d rules, %d unique target folders", len(parsed), len(required))

	bg := context.Background()
	client, acct, err := connectAccount(ctx, bg)
	if err != nil {
		return err
	}
	defer client.Close()

	nodes := folder.Walk(bg, client, acct.Roots)
	ctx.Formatter.Verbosef("account has %d folders", len(nodes))

	missing := folder.Diff(required, nodes, c.MergeCase || ctx.Config.Rules.MergeCase)

	if ctx.Formatter.JSON {
		return ctx.Formatter.PrintJSON(map[string]interface{}{
			"rules":    len(parsed),
			"required": required,
			"folders":  len(nodes),
			"missing":  missing,
		})
	}

	if len(missing) == 0 {
		ctx.Formatter.PrintSuccess(fmt.Sprintf("all %d folders the rules point at exist", len(required)))
		return nil
	}

	fmt.Printf("Missing folders (%d of %d required):\n\n", len(missing), len(required))
	for _, p := range missing {
		fmt.Printf("  %s\n", p)
	}
	fmt.Println()
	fmt.Println("Run 'filtersync rules sync' to create them.")
	return nil
}

func (c *RulesSyncCmd) Run(ctx *Context) error {
	_, text, err := readRulesFile(ctx, c.Rules)
	if err != nil {
		return err
	}

	parsed := rules.Parse(text)
	required := rules.UniquePaths(parsed)

	// Ctrl-C stops between folders, leaving the batch resumable.
	bg, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client, acct, err := connectAccount(ctx, bg)
	if err != nil {
		return err
	}
	defer client.Close()

	nodes := folder.Walk(bg, client, acct.Roots)
	missing := folder.Diff(required, nodes, c.MergeCase || ctx.Config.Rules.MergeCase)

	if len(missing) == 0 {
		if ctx.Formatter.JSON {
			return ctx.Formatter.PrintJSON(map[string]interface{}{
				"missing": []string{},
				"message": "nothing to create",
			})
		}
		ctx.Formatter.PrintSuccess("nothing to create")
		return nil
	}

	if c.DryRun {
		if ctx.Formatter.JSON {
			return ctx.Formatter.PrintJSON(map[string]interface{}{"missing": missing})
		}
		fmt.Printf("Would create %d folders:\n\n", len(missing))
		for _, p := range missing {
			fmt.Printf("  %s\n", p)
		}
		return nil
	}

	var progress folder.ProgressFunc
	var bar *progressbar.ProgressBar
	if ctx.Formatter.JSON {
		progress = func(ev folder.Event) {
			ctx.Formatter.PrintJSONLine(ev)
		}
	} else {
		bar = progressbar.NewOptions(len(missing),
			progressbar.OptionSetDescription("creating folders"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionClearOnFinish(),
		)
		progress = func(ev folder.Event) {
			switch ev.Type {
			case folder.EventProgress:
				bar.Describe(ev.Path)
			case folder.EventFolderComplete:
				bar.Add(1)
			}
		}
	}

	res := folder.CreateAll(bg, client, acct, missing, progress)
	if bar != nil {
		bar.Finish()
	}

	if ctx.Formatter.JSON {
		// The event stream already carried the complete event.
		return nil
	}

	if n := len(res.Created); n > 0 {
		ctx.Formatter.PrintSuccess(fmt.Sprintf("created %d folders", n))
	}
	if n := len(res.Existing); n > 0 {
		fmt.Printf("%d already existed\n", n)
	}
	for _, f := range res.Failed {
		fmt.Printf("%s %s: %s\n", ctx.Formatter.ErrorText("failed:"), f.Path, f.Err)
	}
	if n := len(res.Skipped); n > 0 {
		fmt.Printf("%d not attempted (cancelled)\n", n)
	}
	return nil
}

func (c *RulesSortCmd) Run(ctx *Context) error {
	path, text, err := readRulesFile(ctx, c.Rules)
	if err != nil {
		return err
	}

	sorted := rules.SortRaw(text)

	if !c.Write {
		fmt.Fprint(ctx.Formatter.Writer, sorted)
		return nil
	}

	if err := os.WriteFile(path, []byte(sorted), 0600); err != nil {
		return fmt.Errorf("failed to write rules file: %w", err)
	}
	ctx.Formatter.PrintSuccess(fmt.Sprintf("sorted %s", path))
	return nil
}

func (c *RulesRetypeCmd) Run(ctx *Context) error {
	path, text, err := readRulesFile(ctx, c.Rules)
	if err != nil {
		return err
	}

	mask := c.Mask
	if mask == 0 {
		mask = rules.CalculateType(rules.Flags{
			Manual:           c.Manual,
			NewMail:          c.NewMail,
			NewMailAfterJunk: c.Junk,
			AfterSending:     c.Send,
			Archiving:        c.Archive,
			Periodic:         c.Periodic,
		})
	}

	updated := rules.UpdateTypes(text, mask)

	if !c.Write {
		fmt.Fprint(ctx.Formatter.Writer, updated)
		return nil
	}

	if err := os.WriteFile(path, []byte(updated), 0600); err != nil {
		return fmt.Errorf("failed to write rules file: %w", err)
	}
	ctx.Formatter.PrintSuccess(fmt.Sprintf("set every rule's trigger mask to %d", mask))
	return nil
}
