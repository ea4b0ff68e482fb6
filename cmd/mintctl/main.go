// cmd/mintctl/main.go
package main

import "github.com/mintcart/mintcart-backend/cmd/mintctl/cmd"

func main() {
	cmd.Execute()
}
