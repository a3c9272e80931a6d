// Package cli wires the config, provider, collation and realization
// packages behind two subcommands: export, which pulls every configured
// account's history into a canonical transaction CSV, and report, which
// turns a canonical CSV into a tax-year report.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/mkocic/taxledger/collate"
	"github.com/mkocic/taxledger/config"
	"github.com/mkocic/taxledger/ledger"
	"github.com/mkocic/taxledger/parser"
	"github.com/mkocic/taxledger/providers"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <export|report> [OPTIONS]\n", os.Args[0])
}

// Run parses args and dispatches to the export or report subcommand,
// returning the process exit code.
func Run(args []string) int {
	if len(args) < 1 {
		usage()
		return 1
	}

	switch args[0] {
	case "export":
		return runExport(args[1:])
	case "report":
		return runReport(args[1:])
	default:
		usage()
		return 1
	}
}

func runExport(args []string) int {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	var verbose bool
	fs.BoolVar(&verbose, "v", false, "Turns on debug logging")
	var configDir string
	fs.StringVar(&configDir, "config", ".", "Directory containing config.toml")
	var out string
	fs.StringVar(&out, "o", "", "Output file (default stdout)")
	fs.Parse(args)

	if verbose {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		log.WithError(err).Error("failed to load config")
		return 1
	}

	sources := providersFromConfig(cfg)

	transactions, err := collate.Collate(context.Background(), cfg.Transactions, sources)
	if err != nil {
		log.WithError(err).Error("failed to collate provider transactions")
		return 1
	}

	writer, closeFn, err := outputWriter(out)
	if err != nil {
		log.WithError(err).Error("failed to open output")
		return 1
	}
	defer closeFn()

	if err := collate.WriteCanonicalCSV(writer, transactions); err != nil {
		log.WithError(err).Error("failed to write canonical CSV")
		return 1
	}

	return 0
}

func runReport(args []string) int {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	var verbose bool
	fs.BoolVar(&verbose, "v", false, "Turns on debug logging")
	var configDir string
	fs.StringVar(&configDir, "config", ".", "Directory containing config.toml")
	var out string
	fs.StringVar(&out, "o", "", "Output file (default stdout)")
	var formatName string
	fs.StringVar(&formatName, "format", "", "Report format: irs1099b or turbotax (default from config)")
	fs.Parse(args)

	if verbose {
		log.SetLevel(log.DebugLevel)
	}

	if fs.NArg() != 1 {
		usage()
		fmt.Fprintln(os.Stderr, "report requires a canonical transaction CSV path")
		return 1
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		log.WithError(err).Error("failed to load config")
		return 1
	}

	format := cfg.ReportFormat
	if formatName != "" {
		format, err = ledger.ParseFormat(formatName)
		if err != nil {
			log.WithError(err).Error("invalid report format")
			return 1
		}
	}

	file, err := os.Open(fs.Arg(0))
	if err != nil {
		log.WithError(err).Error("failed to open transaction CSV")
		return 1
	}
	defer file.Close()

	transactions, err := parser.ReadTransactions(file)
	if err != nil {
		log.WithError(err).Error("failed to read transaction CSV")
		return 1
	}

	trades, err := parser.TradesFromTransactions(transactions)
	if err != nil {
		log.WithError(err).Error("failed to reconstruct trades")
		return 1
	}

	portfolio := ledger.NewPortfolio()
	for _, trade := range trades {
		portfolio.AddTrade(trade)
	}

	realizations := portfolio.Realizations(cfg.Denomination)

	writer, closeFn, err := outputWriter(out)
	if err != nil {
		log.WithError(err).Error("failed to open output")
		return 1
	}
	defer closeFn()

	if err := ledger.WriteReport(writer, realizations, cfg.TaxYear, format); err != nil {
		log.WithError(err).Error("failed to write report")
		return 1
	}

	return 0
}

func outputWriter(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func providersFromConfig(cfg *config.Config) []providers.Provider {
	var out []providers.Provider
	for _, ex := range cfg.Exchanges {
		switch {
		case ex.Coinbase != nil:
			out = append(out, providers.NewCoinbaseProvider(providers.CoinbaseConfig{
				Key: ex.Coinbase.Key, Secret: ex.Coinbase.Secret,
			}))
		case ex.CoinbasePro != nil:
			out = append(out, providers.NewCoinbaseProProvider(providers.CoinbaseProConfig{
				Key: ex.CoinbasePro.Key, Secret: ex.CoinbasePro.Secret, Passphrase: ex.CoinbasePro.Passphrase,
			}))
		case ex.Ethereum != nil:
			out = append(out, providers.NewEthereumProvider(providers.EthereumConfig{
				URL: ex.Ethereum.URL, WSURL: ex.Ethereum.WSURL, Accounts: ex.Ethereum.Accounts,
			}))
		case ex.Etherscan != nil:
			out = append(out, providers.NewEtherscanProvider(providers.EtherscanConfig{
				Key: ex.Etherscan.Key, Accounts: ex.Etherscan.Accounts,
			}))
		}
	}
	return out
}
