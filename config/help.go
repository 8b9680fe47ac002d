package config

import (
	"flag"
	"fmt"
)

const HelpMessage = `
Usage: fleet -mode <mode>

Modes:
  driver-service      driver registration, SMS login, orders, balance, photos
  dispatcher-service  dispatcher console, order management, driver oversight
  admin-service       superadmin console, taxiparks, dispatchers, analytics
`

func PrintHelp() {
	if HelpMessage != "" {
		fmt.Printf("%s", HelpMessage)
	} else {
		flag.Usage()
	}
}
