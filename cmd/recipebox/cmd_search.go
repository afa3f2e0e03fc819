package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperjump/recipebox/internal/cli"
	"github.com/hyperjump/recipebox/internal/models"
)

// buildSearchQuery joins all positional args with spaces so multi-word
// ingredients work with or without shell quoting (tea leaves vs "tea leaves").
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func newSearchCmd(opts *globalOptions) *cobra.Command {
	var (
		query     models.SearchQuery
		serverURL string
		output    string
	)
	cmd := &cobra.Command{
		Use:   "search [flags] [ingredient]",
		Short: "Search recipes by ingredient, name, cooking time, difficulty or author",
		Long: `Search recipes. Positional arguments are joined into one ingredient.
--any adds more ingredients; a recipe matches when it lists any of them.
When nothing matches an ingredient, close known ingredients are suggested.`,
		Example: `  recipebox search sugar
  recipebox search tea leaves
  recipebox search --any milk --any butter --difficulty hard
  recipebox search --name cake --max-time 60 --output json
  recipebox search --server http://localhost:8080 water`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			query.Ingredient = buildSearchQuery(args)
			if query.Ingredient == "" && len(query.Ingredients) == 0 && query.Name == "" &&
				query.Difficulty == "" && query.MaxCookingTime == 0 && query.Author == "" {
				return fmt.Errorf("give an ingredient or at least one filter flag")
			}

			var response *models.SearchResponse
			if serverURL != "" {
				// The server holds the index lock; ask it instead of opening the stores.
				response, err = searchViaHTTP(cmd.Context(), serverURL, &query)
			} else {
				var c *Components
				c, err = setup(cmd.Context(), opts, false)
				if err != nil {
					return err
				}
				defer c.Close()
				response, err = c.Engine.Search(cmd.Context(), &query)
			}
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			return cli.WriteSearchResults(cmd.OutOrStdout(), response, format)
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&query.Ingredients, "any", nil, "additional ingredients (any may match)")
	f.StringVar(&query.Name, "name", "", "recipe name contains")
	f.IntVar(&query.MaxCookingTime, "max-time", 0, "maximum cooking time in minutes")
	f.StringVar(&query.Difficulty, "difficulty", "", "Easy, Medium, Intermediate or Hard")
	f.StringVar(&query.Author, "author", "", "recipe author")
	f.IntVar(&query.Limit, "limit", 0, "maximum results (default from config)")
	f.IntVar(&query.Offset, "offset", 0, "results to skip")
	f.StringVar(&serverURL, "server", "", "server URL; empty searches the local store directly")
	f.StringVarP(&output, "output", "o", "text", "output format: text, compact or json")
	return cmd
}

func searchViaHTTP(ctx context.Context, serverURL string, query *models.SearchQuery) (*models.SearchResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(serverURL, "/")+"/api/v1/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func newIngredientsCmd(opts *globalOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "ingredients",
		Short: "List every known ingredient",
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
			return cli.WriteIngredients(cmd.OutOrStdout(), c.Engine.Ingredients(), format)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or json")
	return cmd
}
