package main

import "github.com/yigit/uniportal/internal/cli"

func main() {
	cli.Execute()
}
