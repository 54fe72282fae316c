package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/c360studio/atera/activity"
	"github.com/c360studio/atera/activity/edit"
	"github.com/c360studio/atera/report"
)

func (c *cli) activitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activities",
		Short: "List the activities of the data root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := c.app.catalog.Activities()
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{e.ID, e.Name, c.app.displayPath(e.Path)})
			}
			return report.Table(cmd.OutOrStdout(), []string{"ID", "NAME", "PATH"}, rows)
		},
	}
}

func (c *cli) newCmd() *cobra.Command {
	var (
		category string
		id       string
	)

	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create an activity folder with an empty document",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			folder := slug.Make(name)
			if folder == "" {
				return fmt.Errorf("%q: %w", name, edit.ErrEmptyName)
			}

			defs, err := c.app.catalog.Definitions()
			if err != nil {
				return err
			}
			if !defs.HasCategory(category) {
				return fmt.Errorf("category %q is not defined (known: %s)",
					category, strings.Join(defs.CategoryIDs(), ", "))
			}

			dir := filepath.Join(c.app.catalog.ActivitiesPath(), folder)
			if exists, _ := afero.Exists(c.app.fs, dir); exists {
				return fmt.Errorf("%s already exists", dir)
			}
			if id == "" {
				id = uuid.New().String()
			}

			doc := newActivity(id, name, category)
			path := filepath.Join(dir, folder+".json")
			if err := c.app.save(path, doc); err != nil {
				return err
			}
			if err := c.app.fs.MkdirAll(filepath.Join(dir, "storage"), 0755); err != nil {
				return fmt.Errorf("create storage folder: %w", err)
			}

			c.app.logger.Info("Activity created", "id", id, "path", path)
			fmt.Fprintln(cmd.OutOrStdout(), c.app.displayPath(path))
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", activity.CategoryTrekking, "Category id")
	cmd.Flags().StringVar(&id, "id", "", "Activity id (default: random UUID)")
	return cmd
}

// newActivity returns the skeleton of a new activity: empty location and
// attestation and a single introduction section.
func newActivity(id, name, category string) *activity.Activity {
	doc := &activity.Activity{
		ID:       id,
		Name:     edit.Capitalize(name),
		Category: category,
	}
	doc.EnsureLocation()
	doc.EnsureImages()
	doc.EnsureTags()
	doc.EnsureAttestation()
	doc.EnsureSections().Set("0", activity.Section{Title: "Introduzione"})
	return doc
}
