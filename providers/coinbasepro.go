package providers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/mkocic/taxledger/ledger"
)

const coinbaseProBaseURL = "https://api.exchange.coinbase.com"

// throttleInterval bounds the rate at which CoinbaseProProvider issues
// requests, mirroring the upstream API's per-key rate limit.
const throttleInterval = 350 * time.Millisecond

// CoinbaseProConfig carries the key/secret/passphrase triple configured
// for a Coinbase Pro account in config.toml.
type CoinbaseProConfig struct {
	Key        string
	Secret     string
	Passphrase string
}

// CoinbaseProProvider fetches fill history from every product the account
// has traded, throttling its own request rate.
type CoinbaseProProvider struct {
	cfg     CoinbaseProConfig
	client  *http.Client
	baseURL string
	lastReq time.Time
}

// NewCoinbaseProProvider builds a CoinbaseProProvider from its config.
func NewCoinbaseProProvider(cfg CoinbaseProConfig) *CoinbaseProProvider {
	return &CoinbaseProProvider{
		cfg:     cfg,
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: coinbaseProBaseURL,
	}
}

// Name implements Provider.
func (p *CoinbaseProProvider) Name() string { return "coinbase-pro" }

type coinbaseProAccount struct {
	ID       string `json:"id"`
	Currency string `json:"currency"`
}

type coinbaseProFill struct {
	TradeID   int64  `json:"trade_id"`
	ProductID string `json:"product_id"`
	Price     string `json:"price"`
	Size      string `json:"size"`
	Side      string `json:"side"`
	CreatedAt string `json:"created_at"`
}

// Transactions implements Provider. Coinbase Pro does not expose a direct
// account-to-market mapping, so the exchange's product list is narrowed to
// the products whose base currency the account holds, and fills are then
// fetched per product.
func (p *CoinbaseProProvider) Transactions(ctx context.Context) ([]ledger.Transaction, error) {
	var accounts []coinbaseProAccount
	if err := p.authedGet(ctx, "/accounts", &accounts); err != nil {
		return nil, &FailureError{Provider: p.Name(), Cause: err}
	}

	products, err := p.products(ctx)
	if err != nil {
		return nil, &FailureError{Provider: p.Name(), Cause: err}
	}

	currencies := make(map[string]bool)
	for _, acct := range accounts {
		currencies[acct.Currency] = true
	}

	var out []ledger.Transaction
	for _, product := range products {
		base, _, _ := strings.Cut(product, "-")
		if !currencies[base] {
			continue
		}

		var fills []coinbaseProFill
		if err := p.authedGet(ctx, fmt.Sprintf("/fills?product_id=%s", product), &fills); err != nil {
			log.WithError(err).WithField("product", product).Warn("coinbase-pro: skipping product with failed fill lookup")
			continue
		}

		for _, fill := range fills {
			tx, err := p.fillToTransaction(ctx, fill)
			if err != nil {
				log.WithError(err).WithField("trade_id", fill.TradeID).Warn("coinbase-pro: skipping unparseable fill")
				continue
			}
			out = append(out, tx)
		}
	}

	return out, nil
}

func (p *CoinbaseProProvider) fillToTransaction(ctx context.Context, fill coinbaseProFill) (ledger.Transaction, error) {
	parts := strings.SplitN(fill.ProductID, "-", 2)
	if len(parts) != 2 {
		return ledger.Transaction{}, fmt.Errorf("malformed product id %q", fill.ProductID)
	}
	base := parts[0]

	size, err := decimal.NewFromString(fill.Size)
	if err != nil {
		return ledger.Transaction{}, err
	}
	price, err := decimal.NewFromString(fill.Price)
	if err != nil {
		return ledger.Transaction{}, err
	}

	amount := size
	if fill.Side == "sell" {
		amount = size.Neg()
	}

	createdAt, err := time.Parse(time.RFC3339, fill.CreatedAt)
	var createdAtPtr *time.Time
	if err == nil {
		createdAtPtr = &createdAt
	}

	usdRate := decimal.Zero
	if createdAtPtr != nil {
		usdRate, err = p.getUSDRate(ctx, fill.ProductID, *createdAtPtr)
		if err != nil {
			log.WithError(err).WithField("product", fill.ProductID).Warn("coinbase-pro: falling back to zero USD rate")
			usdRate = decimal.Zero
		}
	}
	usdAmount := size.Mul(usdRate)

	return ledger.Transaction{
		ID:                 fmt.Sprintf("%d", fill.TradeID),
		Market:             fill.ProductID,
		Token:              base,
		Amount:             amount,
		Rate:               price,
		DenominationRate:   usdRate,
		DenominationAmount: usdAmount,
		CreatedAt:          createdAtPtr,
		Provider:           p.Name(),
	}, nil
}

// productQuote returns the quote currency of a "BASE-QUOTE" product id.
func productQuote(productID string) (string, bool) {
	parts := strings.SplitN(productID, "-", 2)
	if len(parts) != 2 {
		return "", false
	}
	return parts[1], true
}

// getRateAt resolves the spot rate of product at timeOfTrade from the
// midpoint of the one-minute candle starting at that moment, mirroring the
// original adapter's get_rate_at: average of the candle's low and high.
func (p *CoinbaseProProvider) getRateAt(ctx context.Context, product string, timeOfTrade time.Time) (decimal.Decimal, error) {
	start := timeOfTrade.UTC().Format(time.RFC3339)
	end := timeOfTrade.UTC().Add(60 * time.Second).Format(time.RFC3339)

	path := fmt.Sprintf("/products/%s/candles?start=%s&end=%s&granularity=60", product, start, end)

	var candles [][]float64
	if err := p.get(ctx, path, &candles); err != nil {
		return decimal.Zero, err
	}
	if len(candles) == 0 || len(candles[0]) < 3 {
		return decimal.Zero, nil
	}

	low := decimal.NewFromFloat(candles[0][1])
	high := decimal.NewFromFloat(candles[0][2])
	return low.Add(high).Div(decimal.NewFromInt(2)), nil
}

// getUSDRate resolves product's rate in USD at timeOfTrade, recursing one
// hop through the quote currency's own USD rate when the product isn't
// already quoted in USD, mirroring the original adapter's get_usd_rate.
func (p *CoinbaseProProvider) getUSDRate(ctx context.Context, product string, timeOfTrade time.Time) (decimal.Decimal, error) {
	rate, err := p.getRateAt(ctx, product, timeOfTrade)
	if err != nil {
		return decimal.Zero, err
	}

	quote, ok := productQuote(product)
	if !ok {
		return decimal.Zero, nil
	}
	if quote == "USD" {
		return rate, nil
	}

	usdRate, err := p.getRateAt(ctx, quote+"-USD", timeOfTrade)
	if err != nil {
		return decimal.Zero, nil
	}
	return rate.Mul(usdRate), nil
}

// products enumerates every market the exchange lists, used only to restrict
// fill lookups to products whose base currency the account holds.
func (p *CoinbaseProProvider) products(ctx context.Context) ([]string, error) {
	var resp []struct {
		ID string `json:"id"`
	}
	if err := p.get(ctx, "/products", &resp); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(resp))
	for _, r := range resp {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

func (p *CoinbaseProProvider) throttle() {
	if elapsed := time.Since(p.lastReq); elapsed < throttleInterval {
		time.Sleep(throttleInterval - elapsed)
	}
	p.lastReq = time.Now()
}

func (p *CoinbaseProProvider) get(ctx context.Context, path string, out interface{}) error {
	p.throttle()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("coinbase-pro: %s returned status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (p *CoinbaseProProvider) authedGet(ctx context.Context, path string, out interface{}) error {
	p.throttle()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return err
	}

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	message := timestamp + http.MethodGet + path
	secret, err := base64.StdEncoding.DecodeString(p.cfg.Secret)
	if err != nil {
		return fmt.Errorf("coinbase-pro: invalid base64 secret: %w", err)
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(message))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	req.Header.Set("CB-ACCESS-KEY", p.cfg.Key)
	req.Header.Set("CB-ACCESS-SIGN", signature)
	req.Header.Set("CB-ACCESS-TIMESTAMP", timestamp)
	req.Header.Set("CB-ACCESS-PASSPHRASE", p.cfg.Passphrase)

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("coinbase-pro: %s returned status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
