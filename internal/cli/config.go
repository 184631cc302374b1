package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/mhoran/filtersync/internal/config"
)

func (c *ConfigInitCmd) Run(ctx *Context) error {
	fmt.Println("filtersync Configuration Wizard")
	fmt.Println("===============================")
	fmt.Println()
	fmt.Println("This wizard configures the IMAP account and the filter rules file")
	fmt.Println("to reconcile against it.")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	cfg := config.DefaultConfig()

	// IMAP Host
	fmt.Print("IMAP host: ")
	host, _ := reader.ReadString('\n')
	host = strings.TrimSpace(host)
	if host == "" {
		return fmt.Errorf("IMAP host is required")
	}
	cfg.Account.Host = host

	// IMAP Port
	fmt.Printf("IMAP port [%d]: ", config.DefaultIMAPPort)
	portStr, _ := reader.ReadString('\n')
	portStr = strings.TrimSpace(portStr)
	if portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid IMAP port: %s", portStr)
		}
		cfg.Account.Port = port
	}

	// Email
	fmt.Print("Account email address: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email address is required")
	}
	cfg.Account.Email = email

	// STARTTLS
	fmt.Print("Use STARTTLS instead of implicit TLS? [y/N]: ")
	starttls, _ := reader.ReadString('\n')
	cfg.Account.StartTLS = strings.EqualFold(strings.TrimSpace(starttls), "y")

	// Rules file
	fmt.Print("Path to the filter rules file (msgFilterRules.dat): ")
	rulesFile, _ := reader.ReadString('\n')
	cfg.Rules.File = strings.TrimSpace(rulesFile)

	// Target root
	fmt.Print("Root folder for auto-filed mail (empty to infer from rules): ")
	root, _ := reader.ReadString('\n')
	cfg.Rules.TargetRoot = strings.TrimSpace(root)

	// Password
	fmt.Println()
	fmt.Print("IMAP password: ")
	passwordBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	password := string(passwordBytes)
	if password == "" {
		return fmt.Errorf("password is required")
	}

	// Save config
	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}

	if err := cfg.Save(""); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	if err := cfg.SetPassword(password); err != nil {
		return fmt.Errorf("failed to store password in keyring: %w", err)
	}

	fmt.Println()
	fmt.Printf("Configuration saved to %s\n", configPath)
	fmt.Println("Password stored securely in system keyring.")
	fmt.Println()
	fmt.Println("Test your connection with: filtersync config validate")

	return nil
}

func (c *ConfigShowCmd) Run(ctx *Context) error {
	if ctx.Globals.Config == "" && !config.Exists() {
		return fmt.Errorf("no configuration found - run 'filtersync config init' first")
	}

	if ctx.Formatter.JSON {
		return ctx.Formatter.PrintJSON(map[string]interface{}{
			"account": map[string]interface{}{
				"host":     ctx.Config.Account.Host,
				"port":     ctx.Config.Account.Port,
				"email":    ctx.Config.Account.Email,
				"starttls": ctx.Config.Account.StartTLS,
			},
			"rules": map[string]interface{}{
				"file":        ctx.Config.Rules.File,
				"target_root": ctx.Config.Rules.TargetRoot,
				"merge_case":  ctx.Config.Rules.MergeCase,
				"mask":        ctx.Config.Rules.Mask,
			},
			"discover": map[string]interface{}{
				"folder":     ctx.Config.Discover.Folder,
				"limit":      ctx.Config.Discover.Limit,
				"identities": ctx.Config.Discover.Identities,
			},
		})
	}

	configPath, _ := config.ConfigPath()
	fmt.Printf("Configuration file: %s\n\n", configPath)

	fmt.Println("Account:")
	fmt.Printf("  Host:     %s\n", ctx.Config.Account.Host)
	fmt.Printf("  Port:     %d\n", ctx.Config.Account.Port)
	fmt.Printf("  Email:    %s\n", ctx.Config.Account.Email)
	fmt.Printf("  STARTTLS: %v\n", ctx.Config.Account.StartTLS)

	fmt.Println()
	fmt.Println("Rules:")
	fmt.Printf("  File:        %s\n", ctx.Config.Rules.File)
	fmt.Printf("  Target root: %s\n", ctx.Config.Rules.TargetRoot)
	fmt.Printf("  Merge case:  %v\n", ctx.Config.Rules.MergeCase)

	fmt.Println()
	fmt.Println("Discover:")
	fmt.Printf("  Folder:     %s\n", ctx.Config.Discover.Folder)
	fmt.Printf("  Limit:      %d\n", ctx.Config.Discover.Limit)
	fmt.Printf("  Identities: %s\n", strings.Join(ctx.Config.Discover.Identities, ", "))

	_, err := ctx.Config.GetPassword()
	fmt.Println()
	if err != nil {
		fmt.Println("Password: not set (run 'filtersync config init' to set)")
	} else {
		fmt.Println("Password: ********** (stored in keyring)")
	}

	return nil
}

func (c *ConfigSetCmd) Run(ctx *Context) error {
	parts := strings.Split(c.Key, ".")
	if len(parts) != 2 {
		return fmt.Errorf("invalid key format - use section.key (e.g., account.email, rules.file)")
	}

	section, key := parts[0], parts[1]

	switch section {
	case "account":
		switch key {
		case "host":
			ctx.Config.Account.Host = c.Value
		case "port":
			port, err := strconv.Atoi(c.Value)
			if err != nil {
				return fmt.Errorf("invalid port value: %s", c.Value)
			}
			ctx.Config.Account.Port = port
		case "email":
			ctx.Config.Account.Email = c.Value
		case "starttls":
			ctx.Config.Account.StartTLS = c.Value == "true" || c.Value == "yes"
		default:
			return fmt.Errorf("unknown account key: %s", key)
		}
	case "rules":
		switch key {
		case "file":
			ctx.Config.Rules.File = c.Value
		case "target_root":
			ctx.Config.Rules.TargetRoot = c.Value
		case "merge_case":
			ctx.Config.Rules.MergeCase = c.Value == "true" || c.Value == "yes"
		case "mask":
			mask, err := strconv.Atoi(c.Value)
			if err != nil {
				return fmt.Errorf("invalid mask value: %s", c.Value)
			}
			ctx.Config.Rules.Mask = mask
		default:
			return fmt.Errorf("unknown rules key: %s", key)
		}
	case "discover":
		switch key {
		case "folder":
			ctx.Config.Discover.Folder = c.Value
		case "limit":
			limit, err := strconv.Atoi(c.Value)
			if err != nil {
				return fmt.Errorf("invalid limit value: %s", c.Value)
			}
			ctx.Config.Discover.Limit = limit
		case "identities":
			ctx.Config.Discover.Identities = splitList(c.Value)
		case "state_db":
			ctx.Config.Discover.StateDB = c.Value
		default:
			return fmt.Errorf("unknown discover key: %s", key)
		}
	default:
		return fmt.Errorf("unknown section: %s (use 'account', 'rules' or 'discover')", section)
	}

	if err := ctx.Config.Save(ctx.Globals.Config); err != nil {
		return err
	}

	ctx.Formatter.PrintSuccess(fmt.Sprintf("Set %s = %s", c.Key, c.Value))
	return nil
}

func (c *ConfigValidateCmd) Run(ctx *Context) error {
	bg := context.Background()
	client, acct, err := connectAccount(ctx, bg)
	if err != nil {
		return err
	}
	defer client.Close()

	roots, err := client.SubFolders(bg, "")
	if err != nil {
		return err
	}

	if ctx.Formatter.JSON {
		return ctx.Formatter.PrintJSON(map[string]interface{}{
			"connected": true,
			"account":   acct.ID,
			"folders":   len(roots),
		})
	}

	ctx.Formatter.PrintSuccess(fmt.Sprintf("connected to %s as %s (%d top-level folders)",
		ctx.Config.Account.Host, acct.ID, len(roots)))
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
