package datasetcmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/roofprep/internal/filemeta"
	"github.com/lehigh-university-libraries/roofprep/internal/geocode"
	"github.com/lehigh-university-libraries/roofprep/internal/reassess"
	"github.com/lehigh-university-libraries/roofprep/internal/roof"
	"github.com/lehigh-university-libraries/roofprep/internal/summary"
)

type inspectOptions struct {
	Files    []string
	CityCSV  string
	Material string
}

// NewInspectCmd creates the inspect command
func NewInspectCmd(g *Globals) *cobra.Command {
	var (
		cityCSV  string
		material string
	)

	cmd := &cobra.Command{
		Use:   "inspect FILE...",
		Short: "Show how image filenames parse and geocode",
		Long: `Explain what roofprep reads from each filename: the dialect that matched,
the city key, the inline imsat coordinate and any attribute tokens.

With a reference CSV the geocoding outcome is shown too, along with close
reference keys when the city is not found. With --material the roof shape
rule and the city's material allow-list are applied as verify would.`,
		Example: `  roofprep dataset inspect new_york_height30_numstories3_roofshapeGable.jpg
  roofprep dataset inspect --city_csv ./cities.csv --material Thatch paris_imsat_48.85662.3522_x.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.Setup()
			if err != nil {
				return err
			}
			if err := overridePath(&cfg.Paths.CityCSV, cityCSV); err != nil {
				return err
			}
			return executeInspect(cmd.OutOrStdout(), inspectOptions{
				Files:    args,
				CityCSV:  cfg.Paths.CityCSV,
				Material: material,
			})
		},
	}

	cmd.Flags().StringVar(&cityCSV, "city_csv", "", "Reference CSV used to geocode the city (defaults to paths.city_csv)")
	cmd.Flags().StringVar(&material, "material", "", "Material class folder the image sits in")

	return cmd
}

func executeInspect(out io.Writer, opts inspectOptions) error {
	var material roof.Material
	if opts.Material != "" {
		m, ok := roof.Parse(opts.Material)
		if !ok {
			return fmt.Errorf("unknown material class %q", opts.Material)
		}
		material = m
	}

	var gazetteer *geocode.Gazetteer
	if opts.CityCSV != "" {
		g, err := geocode.Load(opts.CityCSV)
		if err != nil {
			return err
		}
		gazetteer = g
	}

	for i, file := range opts.Files {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, file)
		fmt.Fprintln(out, summary.RenderTable(
			[]string{"Field", "Value"},
			inspectRows(file, material, gazetteer),
			[]summary.Align{summary.AlignLeft, summary.AlignLeft},
		))
	}
	return nil
}

func inspectRows(file string, material roof.Material, gazetteer *geocode.Gazetteer) [][]string {
	name, err := filemeta.Parse(file)
	if err != nil {
		return [][]string{{"error", err.Error()}}
	}

	rows := [][]string{
		{"dialect", string(name.Dialect)},
		{"city key", name.CityKey},
		{"prompt city", name.DisplayName()},
	}
	switch {
	case name.Inline != nil:
		rows = append(rows, []string{"inline coordinate", name.Inline.String()})
	case name.InlineErr != nil:
		rows = append(rows, []string{"inline coordinate", "error: " + name.InlineErr.Error()})
	}

	attrs := filemeta.ParseAttributes(name.Stem)
	if material != "" {
		attrs = attrs.ForMaterial(material)
		rows = append(rows, []string{"prompt", material.Description() + " in " + name.DisplayName()})
	}
	rows = append(rows,
		[]string{"height", formatOptional(attrs.Height)},
		[]string{"numstories", formatOptional(attrs.NumStories)},
		[]string{"roofshape", formatOptionalString(attrs.RoofShape)},
		[]string{"fpArea", formatOptional(attrs.FootprintArea)},
	)

	if gazetteer == nil {
		return rows
	}

	res, err := gazetteer.Resolve(name.CityKey, name.Inline)
	if err != nil {
		rows = append(rows, []string{"geocode", err.Error()})
		if suggestions := gazetteer.Suggest(name.CityKey, suggestMaxDistance, suggestLimit); len(suggestions) > 0 {
			rows = append(rows, []string{"did you mean", strings.Join(suggestions, ", ")})
		}
	} else {
		rows = append(rows,
			[]string{"geocode", string(res.Method)},
			[]string{"resolved city", res.CityKey},
			[]string{"coordinate", res.Point.String()},
			[]string{"country", res.Country},
			[]string{"continent", res.Continent},
		)
		if res.NearestKey != "" {
			rows = append(rows, []string{"nearest reference", fmt.Sprintf("%s (%.1f mi)", res.NearestKey, res.NearestMiles)})
		}
	}

	if material != "" {
		d := reassess.Check(gazetteer, file, material)
		rows = append(rows, []string{"verify", string(d.Verdict)})
	}
	return rows
}

func formatOptional(f *float64) string {
	if f == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *f)
}

func formatOptionalString(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
