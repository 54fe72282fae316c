package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/atera/activity/normalize"
	"github.com/c360studio/atera/activity/validation"
	"github.com/c360studio/atera/report"
)

func (c *cli) validateCmd() *cobra.Command {
	var (
		fix     bool
		asJSON  bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "validate [document...]",
		Short: "Validate activity documents",
		Long: `Validate checks activity documents and reports problems and warnings.

Documents can be given as files, activity folders or folder names under the
activities directory. Without arguments every activity of the data root is
validated. The command fails when any document has problems, or warnings
when validation.fail_on_warnings is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := c.app
			paths, err := c.documents(args)
			if err != nil {
				return err
			}
			v, err := app.Validator()
			if err != nil {
				return err
			}

			fix = fix || app.cfg.Validation.Fix
			results := make([]*validation.Result, 0, len(paths))
			docs := make([]report.Document, 0, len(paths))
			for _, p := range paths {
				result := app.ValidateFile(v, p, fix)
				results = append(results, result)
				docs = append(docs, report.NewDocument(app.displayPath(p), result))
			}
			app.FlushMetrics()

			out := cmd.OutOrStdout()
			if asJSON {
				if err := report.JSON(out, docs); err != nil {
					return err
				}
			} else {
				for i, d := range docs {
					if err := report.RenderResult(out, d.Path, results[i], app.reportOptions(verbose || fix)); err != nil {
						return err
					}
				}
				fmt.Fprintln(out, report.Summary(results))
			}

			if app.Failed(results) {
				return errValidationFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "Write normalized text back to the documents")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Include normalizer counters")
	return cmd
}

// documents resolves command arguments, or lists every activity when none
// are given.
func (c *cli) documents(args []string) ([]string, error) {
	if len(args) == 0 {
		entries, err := c.app.catalog.Activities()
		if err != nil {
			return nil, err
		}
		paths := make([]string, 0, len(entries))
		for _, e := range entries {
			paths = append(paths, e.Path)
		}
		return paths, nil
	}
	paths := make([]string, 0, len(args))
	for _, arg := range args {
		p, err := c.app.ResolveDocument(arg)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func (c *cli) sanitizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sanitize <document>",
		Short: "Normalize a document in place and report its findings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := c.app
			path, err := app.ResolveDocument(args[0])
			if err != nil {
				return err
			}
			v, err := app.Validator()
			if err != nil {
				return err
			}

			result := app.ValidateFile(v, path, true)
			app.FlushMetrics()

			out := cmd.OutOrStdout()
			if err := report.RenderResult(out, app.displayPath(path), result, app.reportOptions(true)); err != nil {
				return err
			}
			if !result.Valid() {
				fmt.Fprintln(out, "Activity is not sanitized, check the problems above")
				return errValidationFailed
			}
			msg := "Activity sanitized"
			if len(result.Warnings) > 0 {
				msg += " with warnings"
			}
			fmt.Fprintln(out, msg)
			return nil
		},
	}
}

func (c *cli) normalizeCmd() *cobra.Command {
	var fix bool

	cmd := &cobra.Command{
		Use:   "normalize [text|-]",
		Short: "Normalize free text",
		Long: `Normalize reports the whitespace, accent and casing artifacts of a text.
With --fix the normalized text is printed. The text is read from standard
input when no argument or "-" is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			normalized, log := normalize.Normalize(text, fix)

			out := cmd.OutOrStdout()
			if fix {
				fmt.Fprintln(out, normalized)
			}
			for _, line := range log.Lines() {
				fmt.Fprintln(cmd.ErrOrStderr(), line)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "Print the normalized text")
	return cmd
}

func readText(in io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}
