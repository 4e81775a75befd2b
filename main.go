package main

import "github.com/opexhub/expense-approval/cmd"

func main() {
	cmd.Execute()
}
