package cli

import (
	"fmt"
	"runtime"
)

func (c *VersionCmd) Run(ctx *Context) error {
	if ctx.Formatter.JSON {
		return ctx.Formatter.PrintJSON(map[string]string{
			"version": Version,
			"go":      runtime.Version(),
		})
	}

	fmt.Printf("filtersync %s (%s)\n", Version, runtime.Version())
	return nil
}
