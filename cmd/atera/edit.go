package main

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/c360studio/atera/activity"
	"github.com/c360studio/atera/activity/edit"
	"github.com/c360studio/atera/activity/marker"
	"github.com/c360studio/atera/activity/suggest"
	"github.com/c360studio/atera/report"
)

func (c *cli) markerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "marker",
		Short: "Compile and list inline markers",
	}

	compile := &cobra.Command{
		Use:   "compile <kind> <text> [payload]",
		Short: "Print the literal form of a marker",
		Long: `Compile prints a marker such as ${[text]kind(payload)}.

Kinds: b (bold), i (italic), act (activity id), pos (point name),
ph (image name). For point and image markers the text may be omitted
with --from-name, deriving it from the payload.`,
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := marker.Kind(args[0])
			var text, payload string
			if len(args) > 1 {
				text = args[1]
			}
			if len(args) > 2 {
				payload = args[2]
			}
			if fromName, _ := cmd.Flags().GetBool("from-name"); fromName {
				payload = text
				text = edit.WordCapitalized(text)
			}
			if !kind.Known() {
				c.app.logger.Warn("Unknown marker kind", "kind", kind)
			}
			literal, err := marker.Compile(kind, text, payload)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), literal)
			return nil
		},
	}
	compile.Flags().Bool("from-name", false, "Use the argument as payload and derive the display text from it")

	list := &cobra.Command{
		Use:   "list <document>",
		Short: "List the markers of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, _, err := c.app.Load(args[0])
			if err != nil {
				return err
			}
			var rows [][]string
			add := func(where, text string) {
				for _, m := range marker.Extract(text) {
					rows = append(rows, []string{where, string(m.Kind), m.Text, m.Payload})
				}
			}
			add("description", doc.Description)
			for _, s := range doc.Sections() {
				add(s.Value.Title, s.Value.Content)
			}
			return report.Table(cmd.OutOrStdout(), []string{"WHERE", "KIND", "TEXT", "PAYLOAD"}, rows)
		},
	}

	cmd.AddCommand(compile, list)
	return cmd
}

func (c *cli) suggestCmd() *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "suggest <document>",
		Short: "Suggest attestation tokens and rank from the metrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				s  suggest.Suggestion
				ok bool
			)
			run := func(doc *activity.Activity, _ string) error {
				s, ok = suggest.SuggestParams(doc, apply)
				return nil
			}

			var err error
			if apply {
				err = c.app.Edit(args[0], run)
			} else {
				var doc *activity.Activity
				if doc, _, err = c.app.Load(args[0]); err == nil {
					err = run(doc, "")
				}
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintln(out, "no suggestion for this category")
				return nil
			}
			fmt.Fprintf(out, "weighted average:\t%.2f\n", s.WeightedAverage)
			fmt.Fprintf(out, "tokens:\t%d\n", s.Tokens)
			fmt.Fprintf(out, "rank:\t%d\n", s.Rank)
			return nil
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "Write tokens and rank into the attestation")
	return cmd
}

func (c *cli) sectionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "section",
		Short: "Add or remove relation sections",
	}

	var index int
	add := &cobra.Command{
		Use:   "add <document> <title>",
		Short: "Insert an empty section",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args[1:], " ")
			var key string
			err := c.app.Edit(args[0], func(doc *activity.Activity, _ string) error {
				at := index
				if at < 0 {
					at = len(doc.Sections())
				}
				var err error
				key, err = edit.InsertSection(doc, at, title)
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added section %s\n", key)
			return nil
		},
	}
	add.Flags().IntVar(&index, "index", -1, "Position of the new section (default: last)")

	remove := &cobra.Command{
		Use:   "remove <document> <key>",
		Short: "Remove a section and renumber the rest",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Edit(args[0], func(doc *activity.Activity, _ string) error {
				return edit.RemoveSection(doc, args[1])
			})
		},
	}

	renumber := &cobra.Command{
		Use:   "renumber <document>",
		Short: "Renumber the sections 0..n-1",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Edit(args[0], func(doc *activity.Activity, _ string) error {
				edit.Renumber(doc)
				return nil
			})
		},
	}

	cmd.AddCommand(add, remove, renumber)
	return cmd
}

func (c *cli) pointCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "point",
		Short: "Manage location points",
	}

	var in edit.PointInput
	add := &cobra.Command{
		Use:   "add <document> <name> <latitude> <longitude>",
		Short: "Add or replace a point",
		Long: `Add a named point. Coordinates are degrees and accept a decimal comma.
Use -- before negative coordinates.`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Name, in.Latitude, in.Longitude = args[1], args[2], args[3]
			if err := c.app.Edit(args[0], func(doc *activity.Activity, _ string) error {
				return edit.AddPoint(doc, in)
			}); err != nil {
				return err
			}
			return printMarker(cmd, edit.PointMarker, in.Name)
		},
	}
	add.Flags().StringVar(&in.Description, "description", "", "Description of the point")
	add.Flags().BoolVar(&in.MapLink, "map-link", false, "Whether the point opens in maps")

	cmd.AddCommand(add)
	return cmd
}

func (c *cli) imageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image",
		Short: "Manage images",
	}

	var (
		in        edit.ImageInput
		imageType string
	)
	add := &cobra.Command{
		Use:   "add <document> <name>",
		Short: "Add or replace an image",
		Long: `Add a named image. Storage images name an asset of the activity storage
folder; their url becomes activities/<id>/<asset>.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Name = args[1]
			in.Type = activity.ImageType(imageType)
			err := c.app.Edit(args[0], func(doc *activity.Activity, path string) error {
				if in.Type == activity.ImageStorage {
					if err := c.checkAsset(path, in.URL); err != nil {
						return err
					}
				}
				return edit.AddImage(doc, in)
			})
			if err != nil {
				return err
			}
			return printMarker(cmd, edit.ImageMarker, in.Name)
		},
	}
	add.Flags().StringVar(&imageType, "type", string(activity.ImageStorage), "Image type (storage, web, local)")
	add.Flags().StringVar(&in.URL, "url", "", "Image url, or the asset name for storage images")
	add.Flags().StringVar(&in.Title, "title", "", "Image title")

	assets := &cobra.Command{
		Use:   "assets <document>",
		Short: "List the storage assets of an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := c.app.ResolveDocument(args[0])
			if err != nil {
				return err
			}
			names, err := c.app.catalog.StorageAssets(filepath.Dir(path))
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}

	cmd.AddCommand(add, assets)
	return cmd
}

// checkAsset requires a storage asset name and warns when it is not among
// the uploaded assets.
func (c *cli) checkAsset(path, asset string) error {
	names, err := c.app.catalog.StorageAssets(filepath.Dir(path))
	if err != nil {
		return err
	}
	if asset == "" {
		if len(names) == 0 {
			return fmt.Errorf("--url is required: no assets in %s", storageDir(path))
		}
		return fmt.Errorf("--url is required, available assets: %s", strings.Join(names, ", "))
	}
	if !slices.Contains(names, asset) {
		c.app.logger.Warn("Asset not found in storage", "asset", asset, "storage", storageDir(path))
	}
	return nil
}

func (c *cli) tagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage tags",
	}

	add := &cobra.Command{
		Use:   "add <document> <tag...>",
		Short: "Enable defined tags",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := c.app.catalog.Definitions()
			if err != nil {
				return err
			}
			return c.app.Edit(args[0], func(doc *activity.Activity, _ string) error {
				for _, tag := range args[1:] {
					if err := edit.AddTag(doc, defs, tag); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	available := &cobra.Command{
		Use:   "available <document>",
		Short: "List the defined tags not enabled on a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := c.app.catalog.Definitions()
			if err != nil {
				return err
			}
			doc, _, err := c.app.Load(args[0])
			if err != nil {
				return err
			}
			var rows [][]string
			for _, id := range edit.AvailableTags(doc, defs) {
				rows = append(rows, []string{id, defs.Tags[id].Name, defs.Tags[id].Description})
			}
			return report.Table(cmd.OutOrStdout(), []string{"TAG", "NAME", "DESCRIPTION"}, rows)
		},
	}

	cmd.AddCommand(add, available)
	return cmd
}

func (c *cli) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "remove <document> <point|image|section|tag> <name>",
		Short:     "Remove a point, image, section or tag",
		Args:      cobra.ExactArgs(3),
		ValidArgs: []string{"point", "image", "section", "tag"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, name := args[1], args[2]
			return c.app.Edit(args[0], func(doc *activity.Activity, _ string) error {
				switch kind {
				case "point":
					return edit.RemovePoint(doc, name)
				case "image":
					return edit.RemoveImage(doc, name)
				case "section":
					return edit.RemoveSection(doc, name)
				case "tag":
					return edit.RemoveTag(doc, name)
				}
				return fmt.Errorf("unknown item kind %q (point, image, section, tag)", kind)
			})
		},
	}
}

func (c *cli) locationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "location",
		Short: "Edit the location block and list known locations",
	}

	set := &cobra.Command{
		Use:       "set <document> <country|region|province|zone> <value>",
		Short:     "Set a location field",
		Args:      cobra.MinimumNArgs(3),
		ValidArgs: edit.LocationFields,
		RunE: func(cmd *cobra.Command, args []string) error {
			field, value := args[1], strings.Join(args[2:], " ")
			index, err := c.app.catalog.Locations()
			if err != nil {
				c.app.logger.Warn("Known locations unavailable", "error", err)
			}
			return c.app.Edit(args[0], func(doc *activity.Activity, _ string) error {
				if index != nil {
					known, err := edit.LocationChoices(index, doc.Location, field)
					if err != nil {
						return err
					}
					if !slices.Contains(known, value) {
						c.app.logger.Warn("New location value", "field", field, "value", value)
					}
				}
				return edit.SetLocation(doc, field, value)
			})
		},
	}

	choices := &cobra.Command{
		Use:   "choices <document> <country|region|province|zone>",
		Short: "List the known values of a field given the document location",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, _, err := c.app.Load(args[0])
			if err != nil {
				return err
			}
			index, err := c.app.catalog.Locations()
			if err != nil {
				return err
			}
			values, err := edit.LocationChoices(index, doc.Location, args[1])
			if err != nil {
				return err
			}
			for _, v := range values {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the locations used by the activities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := c.app.catalog.Locations()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, country := range index.Countries() {
				fmt.Fprintln(out, country)
				for _, region := range index.Regions(country) {
					fmt.Fprintf(out, "  %s: %s\n", region, strings.Join(index.Provinces(country, region), ", "))
				}
				if zones := index.Zones(country); len(zones) > 0 {
					fmt.Fprintf(out, "  zones: %s\n", strings.Join(zones, ", "))
				}
			}
			return nil
		},
	}

	cmd.AddCommand(set, choices, list)
	return cmd
}

func (c *cli) exportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <document>",
		Short: "Render a document as Markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, _, err := c.app.Load(args[0])
			if err != nil {
				return err
			}
			md := report.NewTransformer().Transform(doc)
			if output == "" || output == "-" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), md)
				return err
			}
			if err := c.app.fs.MkdirAll(filepath.Dir(output), 0755); err != nil {
				return fmt.Errorf("create %s: %w", filepath.Dir(output), err)
			}
			if err := afero.WriteFile(c.app.fs, output, []byte(md), 0644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			c.app.logger.Info("Exported document", "path", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func printMarker(cmd *cobra.Command, compile func(string) (string, error), name string) error {
	literal, err := compile(name)
	if err != nil {
		// Names that cannot be referenced by a marker are still valid items
		fmt.Fprintf(cmd.ErrOrStderr(), "no marker for %q: %v\n", name, err)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), literal)
	return nil
}

func storageDir(path string) string {
	return filepath.Join(filepath.Dir(path), "storage")
}
