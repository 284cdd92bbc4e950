// Package commands implements the cloudcmd CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/wire"
)

// RunTags prints the command catalog with each command's schema.
func RunTags(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTAG\tDIR\tFIELDS")
	for _, id := range wire.Commands() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			id, id, wire.TagFor(id), id.Direction(), formatSchema(wire.Schema(id)))
	}
	return tw.Flush()
}

// RunSchema prints the fields of one command.
func RunSchema(name string, w io.Writer) error {
	id, err := wire.ParseCommandID(name)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s (%s, tag %s)\n", id, id.Direction(), wire.TagFor(id))
	schema := wire.Schema(id)
	if len(schema) == 0 {
		fmt.Fprintln(w, "  (no fields)")
	}
	for i, f := range schema {
		fmt.Fprintf(w, "  %d: %s\n", i, f)
	}
	return nil
}

func formatSchema(schema []wire.FieldInfo) string {
	if len(schema) == 0 {
		return "-"
	}
	parts := make([]string, len(schema))
	for i, f := range schema {
		parts[i] = f.String()
	}
	return strings.Join(parts, ", ")
}
