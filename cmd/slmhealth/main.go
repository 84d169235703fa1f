package main

import "github.com/vietddude/slmhealth/internal/cli"

func main() {
	cli.Execute()
}
