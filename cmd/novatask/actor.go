package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"novatask/internal/api"
)

const actorEnvKey = "NOVATASK_USER"

// actorName picks the acting user name: --as first, then NOVATASK_USER.
func actorName(flagValue string) (string, error) {
	if name := strings.TrimSpace(flagValue); name != "" {
		return name, nil
	}
	if name := strings.TrimSpace(os.Getenv(actorEnvKey)); name != "" {
		return name, nil
	}
	return "", errors.New("acting user is required: pass --as <name> or set " + actorEnvKey)
}

// resolveActor logs in by name and returns the user id.
func resolveActor(ctx context.Context, client *api.Client, flagValue string) (string, error) {
	name, err := actorName(flagValue)
	if err != nil {
		return "", err
	}
	resp, err := client.Login(ctx, name)
	if err != nil {
		return "", err
	}
	return resp.User.ID, nil
}

// resolveUserRefs maps user names or ids to ids. Unknown references fail.
func resolveUserRefs(ctx context.Context, client *api.Client, refs []string) ([]string, error) {
	if len(refs) == 0 {
		return []string{}, nil
	}
	users, err := client.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	byRef := make(map[string]string, len(users)*2)
	for _, user := range users {
		byRef[user.ID] = user.ID
		byRef[user.Name] = user.ID
	}

	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		id, ok := byRef[ref]
		if !ok {
			return nil, fmt.Errorf("unknown user %q (users are created by: novatask login <name>)", ref)
		}
		out = append(out, id)
	}
	return out, nil
}
