package cli

import (
	"github.com/mhoran/filtersync/internal/config"
	"github.com/mhoran/filtersync/internal/output"
)

var Version = "0.1.0"

type Globals struct {
	JSON    bool   `help:"Output as JSON" name:"json"`
	Config  string `help:"Path to config file" short:"c" type:"path"`
	Account string `help:"Account to operate on (default: the configured account)" short:"a"`
	Verbose bool   `help:"Verbose output" short:"v"`
	Quiet   bool   `help:"Suppress non-essential output" short:"q"`
	NoColor bool   `help:"Disable colored output" name:"no-color"`
}

type CLI struct {
	Globals

	Rules    RulesCmd    `cmd:"" help:"Reconcile filter rules against the account's folders"`
	Discover DiscoverCmd `cmd:"" help:"Find new correspondents to auto-file"`
	Folders  FoldersCmd  `cmd:"" help:"Folder tree operations"`
	Config   ConfigCmd   `cmd:"" help:"Configuration management"`
	Version  VersionCmd  `cmd:"" help:"Show version information"`
}

type Context struct {
	Config    *config.Config
	Formatter *output.Formatter
	Globals   *Globals
}

func NewContext(globals *Globals) (*Context, error) {
	formatter := output.New(globals.JSON, globals.Verbose, globals.Quiet, globals.NoColor)

	var cfg *config.Config
	if globals.Config != "" || config.Exists() {
		var err error
		cfg, err = config.Load(globals.Config)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.DefaultConfig()
	}

	return &Context{
		Config:    cfg,
		Formatter: formatter,
		Globals:   globals,
	}, nil
}

// RulesCmd reconciles the rules file against the live folder tree
type RulesCmd struct {
	Check  RulesCheckCmd  `cmd:"" help:"List folders the rules require but the account lacks"`
	Sync   RulesSyncCmd   `cmd:"" help:"Create the missing folders"`
	Sort   RulesSortCmd   `cmd:"" help:"Sort the rules file by target folder path"`
	Retype RulesRetypeCmd `cmd:"" help:"Rewrite every rule's trigger mask"`
}

type RulesCheckCmd struct {
	Rules     string `help:"Path to the rules file (msgFilterRules.dat)" short:"r" type:"path"`
	MergeCase bool   `help:"Treat folders differing only in case as present" name:"merge-case"`
}

type RulesSyncCmd struct {
	Rules     string `help:"Path to the rules file (msgFilterRules.dat)" short:"r" type:"path"`
	MergeCase bool   `help:"Treat folders differing only in case as present" name:"merge-case"`
	DryRun    bool   `help:"Show what would be created without creating it" name:"dry-run"`
}

type RulesSortCmd struct {
	Rules string `help:"Path to the rules file (msgFilterRules.dat)" short:"r" type:"path"`
	Write bool   `help:"Rewrite the file in place instead of printing" short:"w"`
}

type RulesRetypeCmd struct {
	Rules string `help:"Path to the rules file (msgFilterRules.dat)" short:"r" type:"path"`
	Write bool   `help:"Rewrite the file in place instead of printing" short:"w"`

	Mask     int  `help:"Explicit trigger mask value"`
	Manual   bool `help:"Run manually"`
	NewMail  bool `help:"Run on new mail" name:"new-mail"`
	Junk     bool `help:"Run on new mail after junk classification"`
	Send     bool `help:"Run after sending"`
	Archive  bool `help:"Run when archiving"`
	Periodic bool `help:"Run periodically"`
}

// DiscoverCmd scans a folder for senders no rule files yet
type DiscoverCmd struct {
	Folder   string `help:"Folder to scan" short:"f"`
	Limit    int    `help:"Number of recent messages to scan" short:"n"`
	Rules    string `help:"Path to the rules file (msgFilterRules.dat)" short:"r" type:"path"`
	Root     string `help:"Root folder for proposed paths (default: inferred from existing rules)"`
	Generate bool   `help:"Append a rule block for each proposal to the rules file" short:"g"`
	All      bool   `help:"Include senders already proposed on previous runs"`
}

// FoldersCmd handles folder tree operations
type FoldersCmd struct {
	List FoldersListCmd `cmd:"" help:"List the account's folder tree"`
}

type FoldersListCmd struct{}

// ConfigCmd handles configuration management
type ConfigCmd struct {
	Init     ConfigInitCmd     `cmd:"" help:"Interactive setup wizard"`
	Show     ConfigShowCmd     `cmd:"" help:"Display current configuration"`
	Set      ConfigSetCmd      `cmd:"" help:"Set a configuration value"`
	Validate ConfigValidateCmd `cmd:"" help:"Test the IMAP connection"`
}

type ConfigInitCmd struct{}

type ConfigShowCmd struct{}

type ConfigSetCmd struct {
	Key   string `arg:"" help:"Configuration key (e.g., account.email, rules.file)"`
	Value string `arg:"" help:"Value to set"`
}

type ConfigValidateCmd struct{}

// VersionCmd shows version information
type VersionCmd struct{}
