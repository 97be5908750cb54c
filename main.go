package main

import "github.com/first2apply/redditbot/cmd"

func main() {
	cmd.Execute()
}
