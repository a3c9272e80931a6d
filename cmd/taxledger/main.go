// Command taxledger exports crypto/fiat trading history into a canonical
// CSV and turns that CSV into a capital-gains tax report.
package main

import (
	"os"

	"github.com/mkocic/taxledger/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
