package cmd

import (
	"github.com/alecthomas/kong"
)

type CLI struct {
	Color     string `help:"Color output: auto, always, never." enum:"auto,always,never" default:"auto" env:"BIODSJOBS_COLOR"`
	JSON      bool   `help:"JSON output to stdout; disables colors." env:"BIODSJOBS_JSON"`
	Plain     bool   `help:"TSV output to stdout; disables colors." env:"BIODSJOBS_PLAIN"`
	Verbose   bool   `help:"Enable debug logging." env:"BIODSJOBS_VERBOSE"`
	LogFormat string `name:"log-format" help:"Log format on stderr: json or console." enum:"json,console" default:"json" env:"BIODSJOBS_LOG_FORMAT"`

	VersionFlag kong.VersionFlag `help:"Print version."`

	Version  VersionCmd  `cmd:"" help:"Print version."`
	Config   ConfigCmd   `cmd:"" help:"Manage configuration."`
	Run      RunCmd      `cmd:"" help:"Extract postings from every registered target and store them."`
	Extract  ExtractCmd  `cmd:"" help:"Extract postings from one careers page without storing them."`
	Classify ClassifyCmd `cmd:"" help:"Fetch a page and print its site type."`
	Score    ScoreCmd    `cmd:"" help:"Check a title against the relevance filter and score it."`
	Schedule ScheduleCmd `cmd:"" help:"Run extraction on a cron schedule."`
	Migrate  MigrateCmd  `cmd:"" help:"Apply Postgres schema migrations."`
	Targets  TargetsCmd  `cmd:"" help:"Target registry utilities."`
	Postings PostingsCmd `cmd:"" help:"Stored posting utilities."`
	Proxies  ProxiesCmd  `cmd:"" help:"Proxy utilities."`
}

func NewCLI() *CLI {
	return &CLI{}
}
