package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/triage-ai/palisade/services/tool_catalog/internal/catalog"
	"github.com/triage-ai/palisade/services/tool_catalog/internal/config"
	"go.uber.org/zap"
)

// session is a one-shot catalog for a CLI invocation. Logs go to stderr so
// stdout stays parseable.
type session struct {
	logger  *zap.Logger
	catalog *catalog.Catalog
	json    bool
}

func openSession(ctx context.Context, v *viper.Viper, initialize bool) (*session, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	logger := mustBuildLogger(cfg.LogLevel, "stderr")

	cat := catalog.New(catalog.Config{
		Source: catalog.NewHTTPSource(catalog.HTTPSourceConfig{
			BaseURL: cfg.BackendURL,
			Timeout: cfg.HTTPTimeout,
			Logger:  logger,
		}),
		Logger: logger,
	})
	if initialize {
		cat.Initialize(ctx)
	}
	return &session{logger: logger, catalog: cat, json: v.GetBool(keyJSON)}, nil
}

func (s *session) close() {
	_ = s.logger.Sync()
}

func newToolsCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Query the tool catalog",
	}

	cmd.AddCommand(newToolsListCmd(v))
	cmd.AddCommand(newToolsShowCmd(v))
	cmd.AddCommand(newToolsCategoriesCmd(v))
	cmd.AddCommand(newToolsSuggestCmd(v))
	cmd.AddCommand(newToolsParamsCmd(v))
	cmd.AddCommand(newToolsValidateCmd(v))

	return cmd
}

func newToolsListCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every tool known to the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), v, true)
			if err != nil {
				return err
			}
			defer s.close()

			tools := s.catalog.ListAll()
			if s.json {
				return printJSON(cmd.OutOrStdout(), tools)
			}
			return printTools(cmd.OutOrStdout(), tools)
		},
	}
}

func newToolsShowCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show one tool and its parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), v, true)
			if err != nil {
				return err
			}
			defer s.close()

			tool, err := s.lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if s.json {
				return printJSON(cmd.OutOrStdout(), tool)
			}
			return printTool(cmd.OutOrStdout(), tool)
		},
	}
}

func newToolsCategoriesCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Group tools by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), v, true)
			if err != nil {
				return err
			}
			defer s.close()

			categories := s.catalog.Categories()
			if s.json {
				return printJSON(cmd.OutOrStdout(), categories)
			}

			out := cmd.OutOrStdout()
			for _, label := range catalog.CategoryOrder {
				tools, ok := categories[label]
				if !ok {
					continue
				}
				fmt.Fprintf(out, "%s (%d)\n", label, len(tools))
				for _, t := range tools {
					fmt.Fprintf(out, "  %s\n", t.ToolName)
				}
			}
			return nil
		},
	}
}

func newToolsSuggestCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <query>",
		Short: "Ask the backend which tool fits a task description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), v, false)
			if err != nil {
				return err
			}
			defer s.close()

			suggestion, ok := s.catalog.Suggest(cmd.Context(), strings.Join(args, " "))
			if !ok {
				return errors.New("no suggestion available")
			}
			if s.json || suggestion.ToolName == "" {
				return printJSON(cmd.OutOrStdout(), suggestion)
			}
			fmt.Fprintln(cmd.OutOrStdout(), suggestion.ToolName)
			return nil
		},
	}
}

func newToolsParamsCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:     "params <page-path>",
		Short:   "Show the parameter form for the tool page at a path",
		Example: "  tool-catalog tools params /workspace/42/tool/FastQC",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), v, true)
			if err != nil {
				return err
			}
			defer s.close()

			params := s.catalog.CurrentToolParameters(args[0])
			if s.json {
				return printJSON(cmd.OutOrStdout(), params)
			}
			return printParameters(cmd.OutOrStdout(), params)
		},
	}
}

func newToolsValidateCmd(v *viper.Viper) *cobra.Command {
	var (
		argsJSON string
		set      map[string]string
	)

	cmd := &cobra.Command{
		Use:   "validate <name>",
		Short: "Check arguments against a tool's declared parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), v, true)
			if err != nil {
				return err
			}
			defer s.close()

			tool, err := s.lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			values := map[string]any{}
			if argsJSON != "" {
				if err := json.Unmarshal([]byte(argsJSON), &values); err != nil {
					return fmt.Errorf("parse --args: %w", err)
				}
			}
			for k, val := range set {
				values[k] = val
			}

			if err := catalog.ValidateArguments(tool, values); err != nil {
				var verr *catalog.ValidationError
				if s.json && errors.As(err, &verr) {
					_ = printJSON(cmd.OutOrStdout(), map[string]any{"success": false, "errors": verr.Problems})
				}
				return err
			}
			if s.json {
				return printJSON(cmd.OutOrStdout(), map[string]any{"success": true, "errors": []string{}})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: arguments valid\n", tool.ToolName)
			return nil
		},
	}

	cmd.Flags().StringVar(&argsJSON, "args", "", "Arguments as a JSON object.")
	cmd.Flags().StringToStringVar(&set, "set", nil, "Argument as name=value; repeatable.")

	return cmd
}

// lookup finds a tool in the loaded catalog, falling back to a direct backend read.
func (s *session) lookup(ctx context.Context, name string) (catalog.Tool, error) {
	if t, ok := s.catalog.FindByName(name); ok {
		return t, nil
	}
	if t, ok := s.catalog.FetchTool(ctx, name); ok {
		return t, nil
	}
	return catalog.Tool{}, fmt.Errorf("tool %q not found", name)
}
