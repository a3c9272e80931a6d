package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/mkocic/taxledger/ledger"
)

const etherscanBaseURL = "https://api.etherscan.io/api"

// EtherscanConfig carries the API key and the accounts to query.
type EtherscanConfig struct {
	Key      string
	Accounts []common.Address
}

// EtherscanProvider fetches ERC-20 token transfers for a set of accounts
// via Etherscan's tokentx endpoint, which covers activity a raw node scan
// misses: most ERC-20 transfers don't carry a native-ETH value and never
// appear in EthereumProvider's transfer scan.
type EtherscanProvider struct {
	cfg     EtherscanConfig
	client  *http.Client
	baseURL string
}

// NewEtherscanProvider builds a EtherscanProvider from its config.
func NewEtherscanProvider(cfg EtherscanConfig) *EtherscanProvider {
	return &EtherscanProvider{
		cfg:     cfg,
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: etherscanBaseURL,
	}
}

// Name implements Provider.
func (p *EtherscanProvider) Name() string { return "etherscan" }

type etherscanTokenTxResponse struct {
	Status string `json:"status"`
	Result []struct {
		Hash            string `json:"hash"`
		From            string `json:"from"`
		To              string `json:"to"`
		Value           string `json:"value"`
		TokenSymbol     string `json:"tokenSymbol"`
		TokenDecimal    string `json:"tokenDecimal"`
		TimeStampUnix   string `json:"timeStamp"`
	} `json:"result"`
}

// Transactions implements Provider.
func (p *EtherscanProvider) Transactions(ctx context.Context) ([]ledger.Transaction, error) {
	var out []ledger.Transaction

	for _, account := range p.cfg.Accounts {
		url := fmt.Sprintf("%s?module=account&action=tokentx&address=%s&sort=asc&apikey=%s",
			p.baseURL, account.Hex(), p.cfg.Key)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, &FailureError{Provider: p.Name(), Cause: err}
		}
		resp, err := p.client.Do(req)
		if err != nil {
			return nil, &FailureError{Provider: p.Name(), Cause: err}
		}

		var decoded etherscanTokenTxResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&decoded)
		resp.Body.Close()
		if decodeErr != nil {
			return nil, &FailureError{Provider: p.Name(), Cause: decodeErr}
		}

		for _, tx := range decoded.Result {
			amount, err := tokenAmount(tx.Value, tx.TokenDecimal)
			if err != nil {
				continue
			}

			sign := decimal.NewFromInt(1)
			if common.HexToAddress(tx.From) == account {
				sign = decimal.NewFromInt(-1)
			}

			unix, err := strconv.ParseInt(tx.TimeStampUnix, 10, 64)
			var createdAt *time.Time
			if err == nil {
				t := time.Unix(unix, 0).UTC()
				createdAt = &t
			}

			out = append(out, ledger.Transaction{
				ID:        tx.Hash,
				Market:    tx.TokenSymbol + "-USD",
				Token:     tx.TokenSymbol,
				Amount:    amount.Mul(sign),
				CreatedAt: createdAt,
				Provider:  p.Name(),
			})
		}
	}

	return out, nil
}

func tokenAmount(rawValue, rawDecimals string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(rawValue)
	if err != nil {
		return decimal.Decimal{}, err
	}
	decimals, err := strconv.Atoi(rawDecimals)
	if err != nil {
		return decimal.Decimal{}, err
	}
	divisor := decimal.New(1, int32(decimals))
	return value.Div(divisor), nil
}
