// Package config loads config.toml: the set of exchange/chain accounts to
// pull activity from, any transactions entered by hand, and the report
// parameters (tax year, denomination, output format).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"

	"github.com/mkocic/taxledger/ledger"
)

// ConfigIOError wraps a failure to read config.toml from disk.
type ConfigIOError struct {
	Path  string
	Cause error
}

func (e *ConfigIOError) Error() string {
	return fmt.Sprintf("reading config %s: %v", e.Path, e.Cause)
}

func (e *ConfigIOError) Unwrap() error { return e.Cause }

// ConfigParseError wraps a config.toml body that fails to parse.
type ConfigParseError struct {
	Cause error
}

func (e *ConfigParseError) Error() string {
	return fmt.Sprintf("parsing config: %v", e.Cause)
}

func (e *ConfigParseError) Unwrap() error { return e.Cause }

// Coinbase, CoinbasePro, Ethereum and Etherscan are the exchange/chain kinds
// an [[exchanges]] entry may name. Exactly one of a rawExchange's variant
// fields is populated per entry, mirroring a Rust enum serialized as a
// single-key TOML table.
type Coinbase struct {
	Key    string
	Secret string
}

type CoinbasePro struct {
	Key        string
	Secret     string
	Passphrase string
}

type Ethereum struct {
	URL      string
	WSURL    string
	Accounts []common.Address
}

type Etherscan struct {
	Key      string
	Accounts []common.Address
}

// Exchange holds exactly one populated variant, chosen by the config entry.
type Exchange struct {
	Coinbase    *Coinbase
	CoinbasePro *CoinbasePro
	Ethereum    *Ethereum
	Etherscan   *Etherscan
}

// Config is the parsed contents of config.toml.
type Config struct {
	Exchanges    []Exchange
	Transactions []ledger.Transaction
	TaxYear      int
	Denomination ledger.Symbol
	ReportFormat ledger.Format
}

type rawExchange struct {
	Coinbase *struct {
		Key    string `toml:"key"`
		Secret string `toml:"secret"`
	} `toml:"Coinbase"`
	CoinbasePro *struct {
		Key        string `toml:"key"`
		Secret     string `toml:"secret"`
		Passphrase string `toml:"passphrase"`
	} `toml:"CoinbasePro"`
	Ethereum *struct {
		URL      string   `toml:"url"`
		WSURL    string   `toml:"ws_url"`
		Accounts []string `toml:"accounts"`
	} `toml:"Ethereum"`
	Etherscan *struct {
		Key      string   `toml:"key"`
		Accounts []string `toml:"accounts"`
	} `toml:"Etherscan"`
}

type rawTransaction struct {
	ID        string  `toml:"id"`
	Market    string  `toml:"market"`
	Token     string  `toml:"token"`
	Amount    string  `toml:"amount"`
	Rate      string  `toml:"rate"`
	USDRate   string  `toml:"usd_rate"`
	USDAmount string  `toml:"usd_amount"`
	CreatedAt *string `toml:"created_at"`
}

type rawConfig struct {
	Exchanges    []rawExchange    `toml:"exchanges"`
	Transactions []rawTransaction `toml:"transactions"`
	TaxYear      int              `toml:"tax_year"`
	Denomination string           `toml:"denomination"`
	ReportFormat string           `toml:"report_format"`
}

// Load reads config.toml from dir (or the working directory when dir is
// empty). A .env file alongside it, if present, is first loaded into the
// process environment; config.toml itself is parsed as written, with no
// ${VAR} substitution from that environment.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = "."
	}

	_ = godotenv.Load(filepath.Join(dir, ".env"))

	path := filepath.Join(dir, "config.toml")
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigIOError{Path: path, Cause: err}
	}

	var raw rawConfig
	if err := toml.Unmarshal(body, &raw); err != nil {
		return nil, &ConfigParseError{Cause: err}
	}

	return fromRaw(raw)
}

func fromRaw(raw rawConfig) (*Config, error) {
	cfg := &Config{
		TaxYear: raw.TaxYear,
	}

	for _, rx := range raw.Exchanges {
		ex, err := exchangeFromRaw(rx)
		if err != nil {
			return nil, err
		}
		cfg.Exchanges = append(cfg.Exchanges, ex)
	}

	for _, rt := range raw.Transactions {
		tx, err := transactionFromRaw(rt)
		if err != nil {
			return nil, err
		}
		cfg.Transactions = append(cfg.Transactions, tx)
	}

	denom := ledger.DefaultDenomination
	if raw.Denomination != "" {
		s, err := ledger.ParseSymbol(raw.Denomination)
		if err != nil {
			return nil, err
		}
		denom = s
	}
	cfg.Denomination = denom

	format, err := ledger.ParseFormat(raw.ReportFormat)
	if err != nil {
		return nil, err
	}
	cfg.ReportFormat = format

	return cfg, nil
}

func exchangeFromRaw(rx rawExchange) (Exchange, error) {
	switch {
	case rx.Coinbase != nil:
		return Exchange{Coinbase: &Coinbase{Key: rx.Coinbase.Key, Secret: rx.Coinbase.Secret}}, nil
	case rx.CoinbasePro != nil:
		return Exchange{CoinbasePro: &CoinbasePro{
			Key:        rx.CoinbasePro.Key,
			Secret:     rx.CoinbasePro.Secret,
			Passphrase: rx.CoinbasePro.Passphrase,
		}}, nil
	case rx.Ethereum != nil:
		accounts, err := hexAddresses(rx.Ethereum.Accounts)
		if err != nil {
			return Exchange{}, err
		}
		return Exchange{Ethereum: &Ethereum{URL: rx.Ethereum.URL, WSURL: rx.Ethereum.WSURL, Accounts: accounts}}, nil
	case rx.Etherscan != nil:
		accounts, err := hexAddresses(rx.Etherscan.Accounts)
		if err != nil {
			return Exchange{}, err
		}
		return Exchange{Etherscan: &Etherscan{Key: rx.Etherscan.Key, Accounts: accounts}}, nil
	default:
		return Exchange{}, fmt.Errorf("exchanges entry names no recognized kind")
	}
}

func hexAddresses(in []string) ([]common.Address, error) {
	out := make([]common.Address, 0, len(in))
	for _, s := range in {
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("%q is not a valid hex address", s)
		}
		out = append(out, common.HexToAddress(s))
	}
	return out, nil
}

func transactionFromRaw(rt rawTransaction) (ledger.Transaction, error) {
	amount, err := decimalOrZero(rt.Amount)
	if err != nil {
		return ledger.Transaction{}, &ledger.InvalidAmountError{Input: rt.Amount, Cause: err}
	}
	rate, err := decimalOrZero(rt.Rate)
	if err != nil {
		return ledger.Transaction{}, &ledger.InvalidAmountError{Input: rt.Rate, Cause: err}
	}
	usdRate, err := decimalOrZero(rt.USDRate)
	if err != nil {
		return ledger.Transaction{}, &ledger.InvalidAmountError{Input: rt.USDRate, Cause: err}
	}
	usdAmount, err := decimalOrZero(rt.USDAmount)
	if err != nil {
		return ledger.Transaction{}, &ledger.InvalidAmountError{Input: rt.USDAmount, Cause: err}
	}

	var createdAt *time.Time
	if rt.CreatedAt != nil && *rt.CreatedAt != "" {
		t, err := time.Parse("2006-01-02", *rt.CreatedAt)
		if err != nil {
			return ledger.Transaction{}, &ledger.InvalidDateError{Input: *rt.CreatedAt, Cause: err}
		}
		createdAt = &t
	}

	return ledger.Transaction{
		ID:                 rt.ID,
		Market:             rt.Market,
		Token:              rt.Token,
		Amount:             amount,
		Rate:               rate,
		DenominationRate:   usdRate,
		DenominationAmount: usdAmount,
		CreatedAt:          createdAt,
		Provider:           "config",
	}, nil
}

func decimalOrZero(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
