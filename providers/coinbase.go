package providers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/mkocic/taxledger/ledger"
)

const coinbaseBaseURL = "https://api.coinbase.com"

// CoinbaseConfig carries the key/secret pair configured for a Coinbase
// (not Coinbase Pro) account in config.toml.
type CoinbaseConfig struct {
	Key    string
	Secret string
}

// CoinbaseProvider fetches buy/sell history from the Coinbase v2 API
// across every account on the authenticated profile.
type CoinbaseProvider struct {
	key, secret string
	client      *http.Client
	baseURL     string
}

// NewCoinbaseProvider builds a CoinbaseProvider from its config.
func NewCoinbaseProvider(cfg CoinbaseConfig) *CoinbaseProvider {
	return &CoinbaseProvider{
		key:     cfg.Key,
		secret:  cfg.Secret,
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: coinbaseBaseURL,
	}
}

// Name implements Provider.
func (p *CoinbaseProvider) Name() string { return "coinbase" }

type coinbaseAccountsResponse struct {
	Data []struct {
		ID       string `json:"id"`
		Currency struct {
			Code string `json:"code"`
		} `json:"currency"`
	} `json:"data"`
	Pagination struct {
		NextURI string `json:"next_uri"`
	} `json:"pagination"`
}

type coinbaseTransactionsResponse struct {
	Data []struct {
		ID     string `json:"id"`
		Type   string `json:"type"`
		Amount struct {
			Amount   string `json:"amount"`
			Currency string `json:"currency"`
		} `json:"amount"`
		NativeAmount struct {
			Amount   string `json:"amount"`
			Currency string `json:"currency"`
		} `json:"native_amount"`
		CreatedAt string `json:"created_at"`
	} `json:"data"`
	Pagination struct {
		NextURI string `json:"next_uri"`
	} `json:"pagination"`
}

// Transactions implements Provider. It walks every account on the profile
// and every buy/sell transaction within it, skipping entries whose native
// amount is already in the account's own currency (a no-op transfer,
// mirrored from the original adapter's code == native currency check).
func (p *CoinbaseProvider) Transactions(ctx context.Context) ([]ledger.Transaction, error) {
	var out []ledger.Transaction

	accountsPath := "/v2/accounts"
	for accountsPath != "" {
		var accounts coinbaseAccountsResponse
		if err := p.get(ctx, accountsPath, &accounts); err != nil {
			return nil, &FailureError{Provider: p.Name(), Cause: err}
		}

		for _, account := range accounts.Data {
			code := account.Currency.Code
			txPath := fmt.Sprintf("/v2/accounts/%s/transactions", account.ID)

			for txPath != "" {
				var txs coinbaseTransactionsResponse
				if err := p.get(ctx, txPath, &txs); err != nil {
					return nil, &FailureError{Provider: p.Name(), Cause: err}
				}

				for _, tx := range txs.Data {
					if tx.Type != "buy" && tx.Type != "sell" {
						continue
					}
					if code == tx.NativeAmount.Currency {
						continue
					}

					tradeAmount, err := decimal.NewFromString(tx.Amount.Amount)
					if err != nil {
						log.WithError(err).WithField("tx", tx.ID).Warn("coinbase: skipping transaction with unparseable amount")
						continue
					}
					usdAmount, err := decimal.NewFromString(tx.NativeAmount.Amount)
					if err != nil {
						log.WithError(err).WithField("tx", tx.ID).Warn("coinbase: skipping transaction with unparseable native amount")
						continue
					}

					usdRate := decimal.Zero
					if !tradeAmount.IsZero() {
						usdRate = usdAmount.Div(tradeAmount)
					}

					createdAt, err := time.Parse(time.RFC3339, tx.CreatedAt)
					var createdAtPtr *time.Time
					if err == nil {
						createdAtPtr = &createdAt
					}

					out = append(out, ledger.Transaction{
						ID:                 tx.ID,
						Market:             fmt.Sprintf("%s-%s", code, tx.NativeAmount.Currency),
						Token:              code,
						Amount:             tradeAmount,
						Rate:               usdRate,
						DenominationRate:   usdRate,
						DenominationAmount: usdAmount,
						CreatedAt:          createdAtPtr,
						Provider:           p.Name(),
					})
				}

				txPath = txs.Pagination.NextURI
			}
		}

		accountsPath = accounts.Pagination.NextURI
	}

	return out, nil
}

func (p *CoinbaseProvider) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return err
	}

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	message := timestamp + http.MethodGet + path
	mac := hmac.New(sha256.New, []byte(p.secret))
	mac.Write([]byte(message))
	signature := hex.EncodeToString(mac.Sum(nil))

	req.Header.Set("CB-ACCESS-KEY", p.key)
	req.Header.Set("CB-ACCESS-SIGN", signature)
	req.Header.Set("CB-ACCESS-TIMESTAMP", timestamp)
	req.Header.Set("CB-VERSION", "2021-01-01")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("coinbase: %s returned status %d", path, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
