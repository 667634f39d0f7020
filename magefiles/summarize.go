//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Summarize builds the CLI and summarizes the given PDF path or URL with the
// configured provider.
func Summarize(pdf string) error {
	mg.Deps(Build)
	if pdf == "" {
		return fmt.Errorf("usage: mage summarize <pdf-path|url>")
	}
	return sh.RunV(binPath(), pdf, "--save-intermediate")
}

// History lists the most recent summarization runs.
func History() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "history", "list")
}

// CheckProviders verifies that the configured provider is reachable.
func CheckProviders() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "providers", "check")
}
