package cli

import (
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"go.hackfix.me/hello/web/server/router"
)

// routeTableHeader are the column names of the routes table.
var routeTableHeader = []string{"Method", "Path", "Middleware"}

// routeRows returns one table row per route. Routes without middleware are
// shown with a placeholder, so that every row has the same number of cells.
func routeRows(routes []router.RouteInfo) [][]string {
	rows := make([][]string, 0, len(routes))
	for _, route := range routes {
		mw := strings.Join(route.Middleware, ", ")
		if mw == "" {
			mw = "-"
		}
		rows = append(rows, []string{route.Method, route.Path, mw})
	}

	return rows
}

// renderTable writes a plain table without borders or separators to w. Cell
// content is left aligned and never wrapped.
func renderTable(w io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Borders: tw.BorderNone,
			Symbols: tw.NewSymbols(tw.StyleASCII),
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		})),
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)

	table.Header(header)
	if err := table.Bulk(rows); err != nil {
		return err //nolint:wrapcheck // This is wrapped by the caller.
	}

	return table.Render() //nolint:wrapcheck // This is wrapped by the caller.
}
