package main

import (
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"novatask/internal/api"
	"novatask/internal/config"
)

func newImageCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image",
		Short: "Attach or download task images",
	}
	cmd.AddCommand(newImageAddCmd(cfg, jsonOutput))
	cmd.AddCommand(newImageGetCmd(cfg))
	return cmd
}

func newImageAddCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "add <id> <file>",
		Short: "Upload an image file and attach it to a task",
		Args:  requireExactlyArgs(2, "usage: novatask image add <id> <file>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, path := args[0], args[1]
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			contentType := mime.TypeByExtension(filepath.Ext(path))
			if contentType == "" {
				contentType = "application/octet-stream"
			}

			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.UploadImage(cmd.Context(), id, f, contentType)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				return writePlain("%s\n", resp.Key)
			})
		},
	}
}

func newImageGetCmd(cfg *config.Config) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Download a stored image",
		Args:  requireExactlyArgs(1, "key is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				rc, err := client.OpenBlob(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				defer rc.Close()

				var dst io.Writer = os.Stdout
				if output != "" {
					f, err := os.Create(output)
					if err != nil {
						return err
					}
					defer f.Close()
					dst = f
				}
				_, err = io.Copy(dst, rc)
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}
