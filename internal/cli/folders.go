package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/mhoran/filtersync/internal/folder"
)

func (c *FoldersListCmd) Run(ctx *Context) error {
	bg := context.Background()
	client, acct, err := connectAccount(ctx, bg)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx.Formatter.Verbosef("walking folder tree of %s", acct.Name)
	nodes := folder.Walk(bg, client, acct.Roots)

	if ctx.Formatter.JSON {
		return ctx.Formatter.PrintJSON(map[string]interface{}{
			"account": acct.ID,
			"count":   len(nodes),
			"folders": nodes,
		})
	}

	if len(nodes) == 0 {
		fmt.Println("No folders found.")
		return nil
	}

	table := ctx.Formatter.NewTable("FOLDER", "PATH")
	for _, n := range nodes {
		if n.CleanPath == "" {
			continue // synthetic account root
		}
		table.AddRow(strings.Repeat("  ", n.Depth-1)+n.Name, n.CleanPath)
	}
	table.Flush()
	return nil
}
