package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/mhoran/filtersync/internal/folder"
	"github.com/mhoran/filtersync/internal/imap"
)

// rulesPath resolves the rules file location: the command flag wins over
// the configured path.
func rulesPath(ctx *Context, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if ctx.Config != nil && ctx.Config.Rules.File != "" {
		return ctx.Config.Rules.File, nil
	}
	return "", fmt.Errorf("no rules file configured - pass --rules or set rules.file")
}

// readRulesFile loads the rules file named by flag or the config.
func readRulesFile(ctx *Context, flag string) (string, string, error) {
	path, err := rulesPath(ctx, flag)
	if err != nil {
		return "", "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to read rules file: %w", err)
	}
	return path, string(data), nil
}

// readRulesFileOptional is readRulesFile for commands that can run before
// the rules file exists; a missing file reads as empty.
func readRulesFileOptional(ctx *Context, flag string) (string, string, error) {
	path, err := rulesPath(ctx, flag)
	if err != nil {
		return "", "", err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return path, "", nil
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to read rules file: %w", err)
	}
	return path, string(data), nil
}

// connectAccount connects to the configured IMAP account and resolves it.
// A nil account from the store is the one lookup failure that is terminal
// for the whole operation.
func connectAccount(ctx *Context, bg context.Context) (*imap.Client, *folder.Account, error) {
	if ctx.Config == nil || ctx.Config.Account.Email == "" || ctx.Config.Account.Host == "" {
		return nil, nil, fmt.Errorf("not configured - run 'filtersync config init' first")
	}

	client := imap.NewClient(ctx.Config)
	if err := client.Connect(); err != nil {
		return nil, nil, err
	}

	acct, err := client.Account(bg, ctx.Globals.Account)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	if acct == nil {
		client.Close()
		return nil, nil, fmt.Errorf("account %q not found", ctx.Globals.Account)
	}
	return client, acct, nil
}
