package main

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"novatask/internal/api"
	"novatask/internal/config"
)

type updateCmdOptions struct {
	title       string
	project     string
	priority    string
	description string
	dueDate     string
	verifier    string
	executors   []string
	images      []string
}

func newUpdateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	opts := &updateCmdOptions{}
	cmd := &cobra.Command{
		Use:   "update <id> [<id>...]",
		Short: "Edit task fields (status changes go through complete, verify and reject)",
		Args:  requireAtLeastOneID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, cfg, opts, jsonOutput, args)
		},
	}

	bindUpdateFlags(cmd, opts)
	return cmd
}

func runUpdate(cmd *cobra.Command, cfg *config.Config, opts *updateCmdOptions, jsonOutput *bool, args []string) error {
	return withClient(cfg, func(client *api.Client) error {
		req, err := buildUpdateRequest(cmd.Context(), cmd, client, opts)
		if err != nil {
			return err
		}
		if !hasTaskUpdateFields(req) {
			return errors.New("no fields to update")
		}

		responses := make([]api.TaskResponse, 0, len(args))
		for _, id := range args {
			resp, err := client.UpdateTask(cmd.Context(), id, req)
			if err != nil {
				return err
			}
			responses = append(responses, resp)
		}
		if *jsonOutput {
			if len(responses) == 1 {
				return writeJSON(responses[0])
			}
			return writeJSON(responses)
		}
		return writePlain("%s\n", strings.Join(args, ","))
	})
}

func buildUpdateRequest(ctx context.Context, cmd *cobra.Command, client *api.Client, opts *updateCmdOptions) (api.TaskUpdateRequest, error) {
	req := api.TaskUpdateRequest{}
	if cmd.Flags().Changed("title") {
		req.Title = &opts.title
	}
	if cmd.Flags().Changed("project") {
		req.ProjectName = &opts.project
	}
	if cmd.Flags().Changed("priority") {
		req.Priority = &opts.priority
	}
	if cmd.Flags().Changed("description") {
		req.Description = &opts.description
	}
	if cmd.Flags().Changed("due") {
		req.DueDate = &opts.dueDate
	}
	if cmd.Flags().Changed("verifier") {
		id := ""
		if strings.TrimSpace(opts.verifier) != "" {
			ids, err := resolveUserRefs(ctx, client, []string{opts.verifier})
			if err != nil {
				return req, err
			}
			id = ids[0]
		}
		req.ResponsibleID = &id
	}
	if cmd.Flags().Changed("executor") {
		ids, err := resolveUserRefs(ctx, client, opts.executors)
		if err != nil {
			return req, err
		}
		req.ExecutorIDs = &ids
	}
	if cmd.Flags().Changed("images") {
		images := splitCommaList(strings.Join(opts.images, ","))
		if images == nil {
			images = []string{}
		}
		req.Images = &images
	}

	return req, nil
}

func hasTaskUpdateFields(req api.TaskUpdateRequest) bool {
	return req.Title != nil ||
		req.ProjectName != nil ||
		req.Priority != nil ||
		req.Description != nil ||
		req.DueDate != nil ||
		req.ResponsibleID != nil ||
		req.ExecutorIDs != nil ||
		req.Images != nil
}

func bindUpdateFlags(cmd *cobra.Command, opts *updateCmdOptions) {
	cmd.Flags().StringVar(&opts.title, "title", "", "new title")
	cmd.Flags().StringVarP(&opts.project, "project", "P", "", "project name")
	cmd.Flags().StringVarP(&opts.priority, "priority", "p", "", "priority (high, medium, low)")
	cmd.Flags().StringVarP(&opts.description, "description", "d", "", "description")
	cmd.Flags().StringVar(&opts.dueDate, "due", "", "due date (empty clears)")
	cmd.Flags().StringVar(&opts.verifier, "verifier", "", "verifier name or id (empty clears)")
	cmd.Flags().StringSliceVarP(&opts.executors, "executor", "e", nil, "replace executors (name or id, repeatable)")
	cmd.Flags().StringSliceVar(&opts.images, "images", nil, "replace image references (empty clears)")
}
