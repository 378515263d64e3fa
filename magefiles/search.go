//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Search builds the CLI and runs one search, e.g. mage search "nextjs auth".
func Search(query string) error {
	mg.Deps(Build)
	return sh.RunV("./bin/threadseeker", "search", "--query", query)
}

// Trending builds the CLI and prints the trending view.
func Trending() error {
	mg.Deps(Build)
	return sh.RunV("./bin/threadseeker", "trending")
}

// Serve builds the CLI and starts the HTTP API.
func Serve() error {
	mg.Deps(Build)
	return sh.RunV("./bin/threadseeker", "serve")
}
