package cli

import (
	"fmt"

	actx "go.hackfix.me/hello/app/context"
	"go.hackfix.me/hello/web/server/api"
)

// Routes prints the routes served by the web server.
type Routes struct{}

// Run the routes command.
func (c *Routes) Run(appCtx *actx.Context) error {
	r := api.SetupRoutes(appCtx, api.Config{}, appCtx.Logger)

	if err := renderTable(appCtx.Stdout, routeTableHeader, routeRows(r.Routes())); err != nil {
		return fmt.Errorf("failed rendering routes table: %w", err)
	}

	return nil
}
