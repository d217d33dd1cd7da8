// Package main is the leadharvest entry point.
package main

import "github.com/designsnack/leadharvest/cmd"

func main() {
	cmd.Execute()
}
