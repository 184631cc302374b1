package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mhoran/filtersync/internal/config"
	"github.com/mhoran/filtersync/internal/discover"
	"github.com/mhoran/filtersync/internal/folder"
	"github.com/mhoran/filtersync/internal/mailpath"
	"github.com/mhoran/filtersync/internal/rules"
	"github.com/mhoran/filtersync/internal/seen"
)

func (c *DiscoverCmd) Run(ctx *Context) error {
	path, text, err := readRulesFileOptional(ctx, c.Rules)
	if err != nil {
		return err
	}
	parsed := rules.Parse(text)

	folderName := c.Folder
	if folderName == "" {
		folderName = ctx.Config.Discover.Folder
	}
	if folderName == "" {
		folderName = config.DefaultFolder
	}
	limit := c.Limit
	if limit == 0 {
		limit = ctx.Config.Discover.Limit
	}

	bg := context.Background()
	client, acct, err := connectAccount(ctx, bg)
	if err != nil {
		return err
	}
	defer client.Close()

	ix := folder.NewIndex(folder.Walk(bg, client, acct.Roots))
	node, ok := ix.Lookup(folderName)
	if !ok {
		if ctx.Formatter.JSON {
			return ctx.Formatter.PrintJSON(map[string]interface{}{
				"folder": folderName,
				"found":  false,
			})
		}
		fmt.Printf("Folder %q not found.\n", folderName)
		return nil
	}

	ctx.Formatter.Verbosef("scanning %d most recent messages in %s", limit, node.CleanPath)
	senders, err := discover.Senders(bg, client, node.ID, limit, ctx.Config.Identities())
	if err != nil {
		return err
	}

	senders = withoutRuled(senders, parsed)

	if !c.All {
		dbPath, err := ctx.Config.StateDBPath()
		if err != nil {
			return err
		}
		store, err := seen.Open(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		senders, err = store.Filter(senders)
		if err != nil {
			return err
		}
	}

	root := c.Root
	if root == "" {
		root = ctx.Config.Rules.TargetRoot
	}
	if root == "" {
		if inferred, ok := discover.InferRoot(parsed); ok {
			root = inferred
			ctx.Formatter.Verbosef("inferred target root %q from existing rules", root)
		}
	}

	proposals := discover.Propose(senders, root)

	if len(proposals) == 0 {
		if ctx.Formatter.JSON {
			return ctx.Formatter.PrintJSON(map[string]interface{}{"senders": []discover.Sender{}})
		}
		ctx.Formatter.PrintSuccess("no new correspondents found")
		return nil
	}

	if c.Generate {
		return c.generate(ctx, path, text, proposals)
	}

	if ctx.Formatter.JSON {
		return ctx.Formatter.PrintJSON(map[string]interface{}{
			"folder":  node.CleanPath,
			"root":    root,
			"senders": proposals,
		})
	}

	table := ctx.Formatter.NewTable("EMAIL", "PROPOSED FOLDER")
	for _, p := range proposals {
		table.AddRow(p.Email, p.Path)
	}
	table.Flush()
	fmt.Println()
	fmt.Println("Run 'filtersync discover --generate' to append rules for these senders.")
	return nil
}

// generate appends one rule block per proposal to the rules file and
// records the senders so later runs skip them.
func (c *DiscoverCmd) generate(ctx *Context, path, text string, proposals []discover.Sender) error {
	baseURI := mailpath.ExtractBaseURI(text)
	ctx.Formatter.Verbosef("using base URI %s", baseURI)

	var b strings.Builder
	if text != "" && !strings.HasSuffix(text, "\n") {
		b.WriteString("\n")
	}
	var emails []string
	for _, p := range proposals {
		b.WriteString(rules.GenerateBlock(baseURI, p.Email, p.Path, ctx.Config.Rules.Mask))
		emails = append(emails, p.Email)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open rules file: %w", err)
	}
	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		return fmt.Errorf("failed to append rules: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close rules file: %w", err)
	}

	dbPath, err := ctx.Config.StateDBPath()
	if err != nil {
		return err
	}
	store, err := seen.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Mark(emails); err != nil {
		return err
	}

	if ctx.Formatter.JSON {
		return ctx.Formatter.PrintJSON(map[string]interface{}{
			"generated": len(proposals),
			"senders":   proposals,
		})
	}
	ctx.Formatter.PrintSuccess(fmt.Sprintf("appended %d rules to %s", len(proposals), path))
	return nil
}

// withoutRuled drops senders an existing rule already files.
func withoutRuled(senders []string, parsed []rules.Rule) []string {
	ruled := make(map[string]bool)
	for _, r := range parsed {
		for _, e := range r.Emails {
			ruled[e] = true
		}
	}
	var out []string
	for _, s := range senders {
		if !ruled[s] {
			out = append(out, s)
		}
	}
	return out
}
