package main

import "github.com/yumyai/roaryviz/cmd"

func main() {
	cmd.Execute()
}
