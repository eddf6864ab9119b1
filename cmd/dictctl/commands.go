package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"recipe-engine/internal/core/dictionary"
	"recipe-engine/internal/core/normalize"
	"recipe-engine/internal/core/units"

	"github.com/spf13/cobra"
)

func newNormalizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <text>...",
		Short: "Print the normalized slug of each argument",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, a := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", a, normalize.Slug(a))
			}
			return nil
		},
	}
}

func newUnitsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "units <amount>...",
		Short: "Show the 100g nutrition multiplier for amount strings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, a := range args {
				value, unit, ok := units.ParseAmount(a)
				if !ok {
					fmt.Fprintf(out, "%s\tunparsed\t×%.2f\n", a, units.ParseAmountMultiplier(a))
					continue
				}
				fmt.Fprintf(out, "%s\t%g × %gg (%s)\t×%.2f\n", a, value, units.GramsFor(unit), unit, units.ParseAmountMultiplier(a))
			}
			return nil
		},
	}
}

func newSeedCommand(ctx *commandContext) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import bootstrap dictionary entries from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := loadSeedFile(file)
			if err != nil {
				return err
			}
			dict, _, err := ctx.dictionary(cmd.Context())
			if err != nil {
				return err
			}
			report, err := seedDictionary(cmd.Context(), dict, entries)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created: %d\nExisting: %d\nSkipped: %d\n", report.Created, report.Existing, report.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Seed YAML file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newLookupCommand(ctx *commandContext) *cobra.Command {
	var english bool
	cmd := &cobra.Command{
		Use:   "lookup <term>",
		Short: "Look up a Vietnamese term (or an English term with --english)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dict, cache, err := ctx.dictionary(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if english {
				entries, err := dict.ReverseLookup(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				cached, err := cache.ReverseLookup(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				for _, e := range entries {
					printEntry(out, "dictionary", e)
				}
				for _, e := range cached {
					printEntry(out, "translation-cache", e.Entry)
				}
				if len(entries)+len(cached) == 0 {
					fmt.Fprintln(out, "not found")
				}
				return nil
			}

			entry, err := dict.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if entry != nil {
				printEntry(out, "dictionary", *entry)
				return nil
			}
			cached, err := cache.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if cached != nil {
				printEntry(out, "translation-cache", cached.Entry)
				return nil
			}
			fmt.Fprintln(out, "not found")
			return nil
		},
	}
	cmd.Flags().BoolVar(&english, "english", false, "Treat the term as English and use the reverse index")
	return cmd
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var general, category string
	cmd := &cobra.Command{
		Use:   "add <vietnamese> <english>",
		Short: "Add a dictionary entry with admin provenance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dict, _, err := ctx.dictionary(cmd.Context())
			if err != nil {
				return err
			}
			if general == "" {
				general = args[1]
			}
			res, err := dict.AddEntry(cmd.Context(), dictionary.Entry{
				Source:     args[0],
				Target:     dictionary.Target{Specific: args[1], General: general, Category: category},
				Provenance: dictionary.ProvenanceAdmin,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ", res.Status)
			printEntry(cmd.OutOrStdout(), "dictionary", res.Entry)
			return nil
		},
	}
	cmd.Flags().StringVar(&general, "general", "", "General English term (defaults to the specific term)")
	cmd.Flags().StringVar(&category, "category", "other", "Ingredient category")
	return cmd
}

func newPromoteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "promote <vietnamese>",
		Short: "Promote a cached AI translation into the permanent dictionary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dict, cache, err := ctx.dictionary(cmd.Context())
			if err != nil {
				return err
			}
			res, err := dict.Promote(cmd.Context(), cache, args[0])
			if errors.Is(err, dictionary.ErrTranslationNotFound) {
				return fmt.Errorf("no cached translation for %q", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ", res.Status)
			printEntry(cmd.OutOrStdout(), "dictionary", res.Entry)
			return nil
		},
	}
}

func printEntry(out io.Writer, tier string, e dictionary.Entry) {
	var parts []string
	if n := e.NutritionPer100g; n != nil {
		parts = append(parts, fmt.Sprintf("%.0f kcal", n.Calories),
			fmt.Sprintf("P %.1f", n.Protein), fmt.Sprintf("C %.1f", n.Carbs),
			fmt.Sprintf("F %.1f", n.Fat), fmt.Sprintf("Fi %.1f", n.Fiber))
	}
	fmt.Fprintf(out, "[%s] %s → %s (%s, %s) %s provenance=%s\n",
		tier, e.Source, e.Target.Specific, e.Target.General, e.Target.Category,
		strings.Join(parts, " "), e.Provenance)
}
