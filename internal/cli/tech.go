package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/picforge/pkg/pcell"
	"github.com/matzehuels/picforge/pkg/tech"
)

// techCommand creates the tech command for inspecting the technology.
func (c *CLI) techCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tech",
		Short: "Show the technology: library cells, waveguide types and layers",
	}

	cmd.AddCommand(c.techCellsCommand())
	cmd.AddCommand(c.techWaveguidesCommand())
	cmd.AddCommand(c.techLayersCommand())

	return cmd
}

// techCellsCommand creates the "tech cells" subcommand.
func (c *CLI) techCellsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cells",
		Short: "List the library cells and their parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			t := newTable("Library", "Cell", "Parameters", "Description")
			for _, lib := range pcell.Libraries() {
				for _, g := range lib.Cells {
					t.Row(lib.Name, g.Name, formatParams(g), g.Description)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
}

// techWaveguidesCommand creates the "tech waveguides" subcommand.
func (c *CLI) techWaveguidesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "waveguides",
		Short: "List the waveguide types",
		RunE: func(cmd *cobra.Command, args []string) error {
			tt, err := c.loadTech()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), waveguideTable(tt))
			return nil
		},
	}
}

// techLayersCommand creates the "tech layers" subcommand.
func (c *CLI) techLayersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "layers",
		Short: "List the layers",
		RunE: func(cmd *cobra.Command, args []string) error {
			tt, err := c.loadTech()
			if err != nil {
				return err
			}
			t := newTable("Name", "Layer", "Colour")
			for _, l := range tt.Layers {
				t.Row(l.Name, l.LayerInfo.String(), l.Color)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
}

// waveguideTable lists the waveguide types of t with their components.
func waveguideTable(t *tech.Technology) string {
	tbl := newTable("Name", "Width", "Radius", "Bezier", "Layers")
	for _, name := range t.WaveguideNames() {
		wg, _ := t.Waveguide(name)
		var parts []string
		for _, p := range wg.Parts() {
			parts = append(parts, fmt.Sprintf("%s %s", p.Layer, formatUm(p.Width)))
		}
		tbl.Row(wg.Name, formatUm(wg.Width), formatUm(wg.Radius), strconv.FormatFloat(wg.Bezier, 'f', -1, 64), strings.Join(parts, ", "))
	}
	return tbl.Render()
}

// formatParams lists the parameters of g as "name:type=default".
func formatParams(g *pcell.Generator) string {
	if g.Fixed() {
		return "—"
	}
	parts := make([]string, len(g.Params))
	for i, p := range g.Params {
		parts[i] = fmt.Sprintf("%s:%s=%v", p.Name, p.Type, p.Default)
	}
	return strings.Join(parts, "\n")
}

func formatUm(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + " µm"
}
