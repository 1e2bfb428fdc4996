package chainclient

import jsoniter "github.com/json-iterator/go"

// Wire shapes of the LCD (REST) endpoints this client consumes. Only the
// fields the read model needs are mapped.

type balanceResponse struct {
	Balance coinJSON `json:"balance"`
}

type allBalancesResponse struct {
	Balances []coinJSON `json:"balances"`
}

type coinJSON struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

type validatorsResponse struct {
	Validators []validatorJSON `json:"validators"`
}

type validatorJSON struct {
	OperatorAddress string `json:"operator_address"`
	Description     struct {
		Moniker string `json:"moniker"`
	} `json:"description"`
	Commission struct {
		CommissionRates struct {
			Rate string `json:"rate"`
		} `json:"commission_rates"`
	} `json:"commission"`
}

type txsResponse struct {
	TxResponses []txResponseJSON `json:"tx_responses"`
}

type txResponseJSON struct {
	Height    string `json:"height"`
	TxHash    string `json:"txhash"`
	Code      uint32 `json:"code"`
	Timestamp string `json:"timestamp"`
	Tx        struct {
		Body struct {
			Messages []rawMessageJSON `json:"messages"`
			Memo     string           `json:"memo"`
		} `json:"body"`
	} `json:"tx"`
}

// rawMessageJSON flattens the message shapes the classifier recognizes.
// Amount is raw because bank sends carry a coin array while staking messages
// carry a single coin object.
type rawMessageJSON struct {
	Type             string              `json:"@type"`
	FromAddress      string              `json:"from_address"`
	ToAddress        string              `json:"to_address"`
	DelegatorAddress string              `json:"delegator_address"`
	ValidatorAddress string              `json:"validator_address"`
	Amount           jsoniter.RawMessage `json:"amount"`
}

type broadcastRequest struct {
	TxBytes string `json:"tx_bytes"`
	Mode    string `json:"mode"`
}

type broadcastResponse struct {
	TxResponse struct {
		TxHash string `json:"txhash"`
		Code   uint32 `json:"code"`
		RawLog string `json:"raw_log"`
	} `json:"tx_response"`
}
