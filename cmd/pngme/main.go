/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"github.com/ssargent/pngme/cmd/pngme/cmd"
	"github.com/ssargent/pngme/pkg/di"
)

func main() {
	// Initialize dependency injection container
	container := di.NewContainer()

	cmd.Execute(container)
}
