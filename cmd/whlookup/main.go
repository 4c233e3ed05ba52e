package main

import "github.com/couchcryptid/warehouse-directory/internal/cli"

func main() {
	cli.Execute()
}
