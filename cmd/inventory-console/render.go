package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rflorenc/inventory-console/internal/render"
	"github.com/rflorenc/inventory-console/internal/tables"
)

var renderOpts struct {
	kind     string
	file     string
	title    string
	keys     []string
	titles   []string
	fallback string
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render profile data from a JSON file or stdin as a table.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := cmd.InOrStdin()
		if renderOpts.file != "" && renderOpts.file != "-" {
			f, err := os.Open(renderOpts.file)
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		return renderTable(in, cmd.OutOrStdout())
	},
}

func init() {
	f := renderCmd.Flags()
	f.StringVar(&renderOpts.kind, "kind", "", "Table kind: "+kindList())
	f.StringVar(&renderOpts.file, "file", "", "JSON input file (default stdin)")
	f.StringVar(&renderOpts.title, "title", "", "Title; also the column header of general tables")
	f.StringSliceVar(&renderOpts.keys, "keys", nil, "Field keys of a workloads table")
	f.StringSliceVar(&renderOpts.titles, "titles", nil, "Column titles of a workloads table")
	f.StringVar(&renderOpts.fallback, "fallback", "", "Field read by a workloads table without keys")
	renderCmd.MarkFlagRequired("kind")
}

func kindList() string {
	kinds := tables.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, "|")
}

func renderTable(in io.Reader, out io.Writer) error {
	var data interface{}
	if err := json.NewDecoder(in).Decode(&data); err != nil {
		return fmt.Errorf("decoding input: %w", err)
	}
	td, err := tables.Map(tables.Kind(renderOpts.kind), data, tables.Options{
		Title:         renderOpts.title,
		FieldKeys:     renderOpts.keys,
		ColumnTitles:  renderOpts.titles,
		FallbackField: renderOpts.fallback,
	})
	if err != nil {
		return err
	}
	return render.Write(out, renderOpts.title, td)
}
