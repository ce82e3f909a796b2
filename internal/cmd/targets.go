package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/athifer/biodsjobs/internal/config"
)

type TargetsCmd struct {
	List     TargetsListCmd     `cmd:"" help:"Print the target registry."`
	Validate TargetsValidateCmd `cmd:"" help:"Check the target registry for problems."`
}

type TargetsListCmd struct {
	File string `help:"Target registry file. Defaults to targets.yaml in the config dir."`
}

type TargetsValidateCmd struct {
	File string `help:"Target registry file. Defaults to targets.yaml in the config dir."`
}

func (t *TargetsListCmd) Run(ctx *Context) error {
	targets, err := config.LoadTargets(targetsPath(ctx, t.File))
	if err != nil {
		return err
	}

	if ctx.JSONOutput {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(targets)
	}
	if ctx.PlainText {
		for _, target := range targets {
			line := []string{target.Token, target.Name, target.Source(), target.OriginURL, target.APIHint}
			fmt.Fprintln(ctx.Out, strings.Join(line, "\t"))
		}
		return nil
	}

	tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "token\tname\tplatform\turl")
	for _, target := range targets {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", target.Token, target.Name, target.Source(), target.OriginURL)
	}
	return tw.Flush()
}

func (t *TargetsValidateCmd) Run(ctx *Context) error {
	path := targetsPath(ctx, t.File)
	targets, err := config.LoadTargets(path)
	if err != nil {
		return err
	}
	problems := config.ValidateTargets(targets)
	if len(problems) == 0 {
		ctx.UI.Successf("%s: %d targets ok", path, len(targets))
		return nil
	}
	for _, problem := range problems {
		ctx.UI.Errorf("%v", problem)
	}
	return fmt.Errorf("%s: %d problems", path, len(problems))
}

func targetsPath(ctx *Context, flag string) string {
	if strings.TrimSpace(flag) != "" {
		return flag
	}
	return ctx.Config.TargetsPath(ctx.ConfigDir)
}
