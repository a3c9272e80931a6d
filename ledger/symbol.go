package ledger

import (
	"fmt"
	"strings"
)

// Class distinguishes a fiat currency from a crypto asset. Symbol equality
// and hashing both rely on Class plus Code, so two codes that collide across
// classes (there are none in the closed sets below) would still compare
// distinct.
type Class uint8

const (
	// FiatClass marks a symbol as a national currency code (USD, EUR, ...).
	FiatClass Class = iota
	// CryptoClass marks a symbol as a crypto asset code (BTC, ETH, ...).
	CryptoClass
)

func (c Class) String() string {
	if c == FiatClass {
		return "fiat"
	}
	return "crypto"
}

// Symbol is a tagged asset code drawn from a closed set. It is comparable
// and usable as a map key, which the wallet book and the realization
// engine both rely on.
type Symbol struct {
	class Class
	code  string
}

// fiatCodes and cryptoCodes are the closed sets this system understands.
// A market string or config value outside these sets fails fast with
// UnknownSymbolError rather than silently minting a new asset.
var fiatCodes = map[string]bool{
	"USD": true,
	"EUR": true,
	"GBP": true,
	"JPY": true,
	"CAD": true,
	"AUD": true,
}

var cryptoCodes = map[string]bool{
	"BTC":  true,
	"ETH":  true,
	"USDT": true,
	"USDC": true,
	"LTC":  true,
	"LINK": true,
	"BCH":  true,
	"XRP":  true,
	"DOGE": true,
	"SOL":  true,
}

// NewFiat builds a fiat Symbol, failing if code is outside the closed set.
func NewFiat(code string) (Symbol, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !fiatCodes[code] {
		return Symbol{}, &UnknownSymbolError{Code: code}
	}
	return Symbol{class: FiatClass, code: code}, nil
}

// NewCrypto builds a crypto Symbol, failing if code is outside the closed set.
func NewCrypto(code string) (Symbol, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !cryptoCodes[code] {
		return Symbol{}, &UnknownSymbolError{Code: code}
	}
	return Symbol{class: CryptoClass, code: code}, nil
}

// ParseSymbol resolves a bare code against the closed fiat and crypto sets,
// trying fiat first. Market strings such as "BTC-USD" are split by the
// caller and each half passed through here, so an unrecognized component
// fails fast with UnknownSymbolError.
func ParseSymbol(code string) (Symbol, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if fiatCodes[code] {
		return Symbol{class: FiatClass, code: code}, nil
	}
	if cryptoCodes[code] {
		return Symbol{class: CryptoClass, code: code}, nil
	}
	return Symbol{}, &UnknownSymbolError{Code: code}
}

// IsFiat reports whether the symbol belongs to the fiat class.
func (s Symbol) IsFiat() bool { return s.class == FiatClass }

// Code returns the upper-case code text, e.g. "BTC".
func (s Symbol) Code() string { return s.code }

// String renders the symbol's upper-case code.
func (s Symbol) String() string { return s.code }

// UnknownSymbolError is returned when a market component or configured
// code falls outside the closed symbol sets.
type UnknownSymbolError struct {
	Code string
}

func (e *UnknownSymbolError) Error() string {
	return fmt.Sprintf("unknown symbol %q", e.Code)
}

// ParseMarket splits a "BASE-QUOTE" market string into its two Symbols,
// failing fast on any component outside the closed set.
func ParseMarket(market string) (base, quote Symbol, err error) {
	parts := strings.SplitN(market, "-", 2)
	if len(parts) != 2 {
		return Symbol{}, Symbol{}, fmt.Errorf("invalid market %q: expected BASE-QUOTE", market)
	}
	base, err = ParseSymbol(parts[0])
	if err != nil {
		return Symbol{}, Symbol{}, err
	}
	quote, err = ParseSymbol(parts[1])
	if err != nil {
		return Symbol{}, Symbol{}, err
	}
	return base, quote, nil
}

// Well-known symbols, built once at init time. They exist purely as a
// convenience for call sites (tests, the default denomination, provider
// adapters) that would otherwise repeat NewFiat/NewCrypto boilerplate.
var (
	USD  = mustSymbol(NewFiat("USD"))
	BTC  = mustSymbol(NewCrypto("BTC"))
	ETH  = mustSymbol(NewCrypto("ETH"))
	USDT = mustSymbol(NewCrypto("USDT"))
	LTC  = mustSymbol(NewCrypto("LTC"))
	LINK = mustSymbol(NewCrypto("LINK"))
)

func mustSymbol(s Symbol, err error) Symbol {
	if err != nil {
		panic(err)
	}
	return s
}

// DefaultDenomination is the reporting currency used when a run's config
// does not override it.
var DefaultDenomination = USD
