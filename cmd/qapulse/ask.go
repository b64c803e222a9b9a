package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qapulse/qapulse/internal/engine"
	"github.com/qapulse/qapulse/internal/extractors"
)

func newAskCmd(opts *rootOptions) *cobra.Command {
	var (
		dbPath  string
		execute bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Interpret a question and print the compiled query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" {
				return fmt.Errorf("question is required")
			}
			out := cmd.OutOrStdout()

			params := extractors.Parse(question)
			query, err := engine.NewCompiler().Build(params)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Description: %s\n", extractors.Describe(params))
			fmt.Fprintln(out, "Params:")
			if err := printJSON(out, params); err != nil {
				return err
			}
			fmt.Fprintf(out, "SQL:\n%s\n", query.SQL)
			fmt.Fprintln(out, "Args:")
			if err := printJSON(out, query.Args); err != nil {
				return err
			}

			if !execute {
				return nil
			}
			if dbPath == "" {
				dbPath = opts.cfg.Database.Path
			}
			store, err := openStore(dbPath, opts.cfg.Database.ReadMaxOpen, opts.logger)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()

			rows, err := store.ExecuteQuery(cmd.Context(), query.SQL, query.Args...)
			if err != nil {
				return fmt.Errorf("execute analytics query: %w", err)
			}
			fmt.Fprintf(out, "Results (%d):\n", len(rows))
			return printJSON(out, rows)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (defaults to database.path)")
	cmd.Flags().BoolVar(&execute, "execute", false, "Run the query against the database")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
