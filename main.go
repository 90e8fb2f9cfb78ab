package main

import "github.com/frahmantamala/appraisal-portal/cmd"

func main() {
	cmd.Execute()
}
