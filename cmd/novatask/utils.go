package main

import (
	"net/url"
	"strings"
)

// setIfNotEmpty adds key to values unless value is blank.
func setIfNotEmpty(values url.Values, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		values.Set(key, value)
	}
}

// splitCommaList splits a comma separated flag value, dropping blanks.
func splitCommaList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
