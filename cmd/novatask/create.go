package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"novatask/internal/api"
	"novatask/internal/config"
)

type createCmdOptions struct {
	project     string
	priority    string
	description string
	dueDate     string
	verifier    string
	executors   []string
	filePath    string
}

// taskDraft is a create request whose user references are still names or ids.
type taskDraft struct {
	req       api.TaskCreateRequest
	verifier  *string
	executors []string
}

func newCreateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	opts := &createCmdOptions{}
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a new task",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd, cfg, opts, jsonOutput, args)
		},
	}

	bindCreateFlags(cmd, opts)
	return cmd
}

func runCreate(cmd *cobra.Command, cfg *config.Config, opts *createCmdOptions, jsonOutput *bool, args []string) error {
	if opts.filePath == "" && len(args) == 0 {
		return errors.New("title is required")
	}

	return withClient(cfg, func(client *api.Client) error {
		if opts.filePath != "" {
			return runCreateFromFile(cmd.Context(), client, opts.filePath, jsonOutput)
		}

		draft := buildCreateDraft(cmd, opts, args)
		req, err := resolveDraft(cmd.Context(), client, draft)
		if err != nil {
			return err
		}

		resp, err := client.CreateTask(cmd.Context(), req)
		if err != nil {
			return err
		}
		if *jsonOutput {
			return writeJSON(resp)
		}
		return writePlain("%s\n", resp.ID)
	})
}

func buildCreateDraft(cmd *cobra.Command, opts *createCmdOptions, args []string) taskDraft {
	draft := taskDraft{
		req: api.TaskCreateRequest{
			Title:       strings.Join(args, " "),
			ProjectName: opts.project,
			Priority:    opts.priority,
			Description: opts.description,
			DueDate:     opts.dueDate,
		},
		executors: opts.executors,
	}
	if cmd.Flags().Changed("verifier") {
		draft.verifier = &opts.verifier
	}
	return draft
}

// resolveDraft turns user names into ids. An unset verifier stays nil so the
// server applies its default verifier.
func resolveDraft(ctx context.Context, client *api.Client, draft taskDraft) (api.TaskCreateRequest, error) {
	req := draft.req
	if len(draft.executors) > 0 {
		ids, err := resolveUserRefs(ctx, client, draft.executors)
		if err != nil {
			return req, err
		}
		req.ExecutorIDs = ids
	}
	if draft.verifier != nil {
		id := ""
		if strings.TrimSpace(*draft.verifier) != "" {
			ids, err := resolveUserRefs(ctx, client, []string{*draft.verifier})
			if err != nil {
				return req, err
			}
			id = ids[0]
		}
		req.ResponsibleID = &id
	}
	return req, nil
}

func bindCreateFlags(cmd *cobra.Command, opts *createCmdOptions) {
	cmd.Flags().StringVarP(&opts.project, "project", "P", "", "project name")
	cmd.Flags().StringVarP(&opts.priority, "priority", "p", "", "priority (high, medium, low)")
	cmd.Flags().StringVarP(&opts.description, "description", "d", "", "task description")
	cmd.Flags().StringVar(&opts.dueDate, "due", "", "due date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVar(&opts.verifier, "verifier", "", "verifier name or id (empty for none)")
	cmd.Flags().StringSliceVarP(&opts.executors, "executor", "e", nil, "executor name or id (repeatable)")
	cmd.Flags().StringVarP(&opts.filePath, "file", "f", "", "markdown file for batch create")
}

func runCreateFromFile(ctx context.Context, client *api.Client, filePath string, jsonOutput *bool) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	frontMatter, items, err := parseMarkdown(string(data))
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("no list items found in %s", filePath)
	}

	defaults, err := resolveDraft(ctx, client, frontMatterToDraft(frontMatter))
	if err != nil {
		return err
	}
	requests := make([]api.TaskCreateRequest, 0, len(items))
	for _, item := range items {
		req := defaults
		req.Title = item
		requests = append(requests, req)
	}

	resp, err := client.BatchCreate(ctx, requests)
	if err != nil {
		return err
	}

	if *jsonOutput {
		return writeJSON(resp)
	}
	for _, task := range resp {
		if err := writePlain("%s\n", task.ID); err != nil {
			return err
		}
	}
	return nil
}
