package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hyperjump/recipebox/internal/cli"
	"github.com/hyperjump/recipebox/internal/models"
	"github.com/hyperjump/recipebox/internal/recipe"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: recipe id %q", recipe.ErrInvalidInput, s)
	}
	return id, nil
}

func newAddCmd(opts *globalOptions) *cobra.Command {
	var (
		in     models.RecipeInput
		output string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a recipe",
		Example: `  recipebox add --name Tea --time 5 --ingredients "Tea Leaves, Sugar, Water"
  recipebox add --name Cake --time 50 -i Sugar -i Butter -i Eggs -i Flour`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			r, err := in.ToRecipe()
			if err != nil {
				return err
			}
			c, err := setup(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer c.Close()
			if err := c.Indexer.CreateRecipe(cmd.Context(), r); err != nil {
				return err
			}
			return cli.WriteRecipe(cmd.OutOrStdout(), r, format)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&in.Name, "name", "n", "", "recipe name (at most 50 characters)")
	f.IntVarP(&in.CookingTime, "time", "t", 0, "cooking time in minutes")
	f.StringSliceVarP(&in.Ingredients, "ingredients", "i", nil, "ingredients, comma-separated or repeated")
	f.StringVarP(&in.Description, "description", "d", "", "free-text description")
	f.StringVarP(&output, "output", "o", "text", "output format: text, compact or json")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("time")
	_ = cmd.MarkFlagRequired("ingredients")
	return cmd
}

func newListCmd(opts *globalOptions) *cobra.Command {
	var (
		offset, limit int
		output        string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recipes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			c, err := setup(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer c.Close()
			recipes, _, err := c.Engine.List(cmd.Context(), offset, limit)
			if err != nil {
				return err
			}
			return cli.WriteRecipes(cmd.OutOrStdout(), recipes, format)
		},
	}
	cmd.Flags().IntVar(&offset, "offset", 0, "recipes to skip")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum recipes to show (0 = all)")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, compact or json")
	return cmd
}

func newShowCmd(opts *globalOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := setup(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer c.Close()
			r, err := c.Engine.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return cli.WriteRecipe(cmd.OutOrStdout(), r, format)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, compact or json")
	return cmd
}

func newEditCmd(opts *globalOptions) *cobra.Command {
	var (
		name, description, output string
		minutes                   int
		ingredients               []string
	)
	cmd := &cobra.Command{
		Use:     "edit <id>",
		Short:   "Change a recipe's name, cooking time, ingredients or description",
		Example: `  recipebox edit 1 --time 15`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			patch := &models.RecipePatch{}
			f := cmd.Flags()
			if f.Changed("name") {
				patch.Name = &name
			}
			if f.Changed("time") {
				patch.CookingTime = &minutes
			}
			if f.Changed("ingredients") {
				patch.Ingredients = &ingredients
			}
			if f.Changed("description") {
				patch.Description = &description
			}
			if patch.Empty() {
				return fmt.Errorf("%w: nothing to update; set --name, --time, --ingredients or --description", recipe.ErrInvalidInput)
			}
			c, err := setup(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer c.Close()
			r, err := c.Indexer.UpdateRecipe(cmd.Context(), id, patch)
			if err != nil {
				return err
			}
			return cli.WriteRecipe(cmd.OutOrStdout(), r, format)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&name, "name", "n", "", "new name")
	f.IntVarP(&minutes, "time", "t", 0, "new cooking time in minutes")
	f.StringSliceVarP(&ingredients, "ingredients", "i", nil, "replacement ingredient list")
	f.StringVarP(&description, "description", "d", "", "new description")
	f.StringVarP(&output, "output", "o", "text", "output format: text, compact or json")
	return cmd
}

func newDeleteCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := setup(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer c.Close()
			if err := c.Indexer.DeleteRecipe(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recipe deleted: %d\n", id)
			return nil
		},
	}
}
