// Command dbtool maintains the jobs database file offline: it applies
// migrations, imports a scraper database and prints catalog statistics.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
