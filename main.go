package main

import (
	"github.com/officeours/drive-airtable-bridge/cmd"
)

func main() {
	cmd.Execute()
}
