package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newLayoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "layout [filter]",
		Short: "Print size, alignment and flat types of the catalog types",
		Long: `Print the memory layout of a spread of WIT types and of every parameter
and result type used by the fixture worlds. With a filter, only types whose
rendering contains it are shown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := ""
			if len(args) == 1 {
				filter = args[0]
			}

			ctx := cmd.Context()
			c, err := newCatalog(ctx, a.cfg, a.log.Named("resource"))
			if err != nil {
				return err
			}
			defer c.Close(ctx)

			shapes, err := c.shapes()
			if err != nil {
				return err
			}

			var rows [][]string
			for _, nt := range shapes {
				if !strings.Contains(nt.label, filter) {
					continue
				}
				info := c.layout.Calculate(nt.id)
				rows = append(rows, []string{
					nt.label,
					strconv.FormatUint(uint64(info.Size), 10),
					strconv.FormatUint(uint64(info.Align), 10),
					fieldOffsets(info.FieldOffs),
					c.flatNames(nt.id),
				})
			}

			p := newPrinter(cmd.OutOrStdout())
			p.title("Layouts")
			p.table(typeStyle, []string{"TYPE", "SIZE", "ALIGN", "OFFSETS", "FLAT"}, rows)
			return nil
		},
	}
}

func fieldOffsets(offs []uint32) string {
	if len(offs) == 0 {
		return "-"
	}
	parts := make([]string, len(offs))
	for i, o := range offs {
		parts[i] = strconv.FormatUint(uint64(o), 10)
	}
	return strings.Join(parts, ",")
}
