package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/athifer/biodsjobs/internal/store"
)

type MigrateCmd struct {
	Direction   string `arg:"" optional:"" enum:"up,down,status" default:"up" help:"up, down or status."`
	DatabaseURL string `name:"database-url" help:"Postgres URL. Defaults to DATABASE_URL or the config file."`
}

func (m *MigrateCmd) Run(ctx *Context) error {
	dsn := strings.TrimSpace(m.DatabaseURL)
	if dsn == "" {
		dsn = ctx.Config.DatabaseURL
	}
	if dsn == "" {
		return fmt.Errorf("no database url: set --database-url, DATABASE_URL or database_url in config")
	}

	c := context.Background()
	pg, err := store.ConnectPostgres(c, dsn, ctx.Config.RetireAfterMisses)
	if err != nil {
		return err
	}
	defer pg.Close()

	if err := pg.Migrate(c, m.Direction, ctx.Logger); err != nil {
		return fmt.Errorf("migrate %s: %w", m.Direction, err)
	}
	if m.Direction != "status" && ctx.UI != nil {
		ctx.UI.Successf("migrations %s: done", m.Direction)
	}
	return nil
}
