package cmi

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultOrderPrefix = "DT"

// billing/shipping fields the gateway form expects; sent empty, the hosted
// payment page collects the real values.
var placeholderParams = []string{
	"BillToName", "BillToCompany", "BillToStreet1", "BillToCity", "BillToCountry",
	"ShipToName", "ShipToCompany", "ShipToStreet1", "ShipToCity", "ShipToCountry",
}

// Config is the merchant-side gateway configuration for outbound requests.
type Config struct {
	ClientID    string
	StoreType   string
	OkURL       string
	FailURL     string
	Language    string
	Currency    string
	OrderPrefix string
}

// RequestBuilder assembles the full signed parameter set for a new payment
// attempt. It performs no network I/O; posting the form to the gateway is
// the browser redirect's job.
type RequestBuilder struct {
	config Config
	signer *Signer
}

func NewRequestBuilder(config Config, signer *Signer) *RequestBuilder {
	if config.StoreType == "" {
		config.StoreType = "3D_PAY"
	}
	if config.OrderPrefix == "" {
		config.OrderPrefix = defaultOrderPrefix
	}
	return &RequestBuilder{config: config, signer: signer}
}

// NewOrderID generates a process-wide unique order identifier:
// prefix + nanosecond timestamp + "_" + random suffix. The random suffix
// makes a same-nanosecond collision astronomically unlikely.
func (b *RequestBuilder) NewOrderID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s%d_%s", b.config.OrderPrefix, time.Now().UnixNano(), suffix)
}

// Build produces the outbound parameter map for an order id and a
// two-decimal amount string, with the signature inserted as the final
// `hash` parameter.
func (b *RequestBuilder) Build(orderID, amount string) (map[string]string, error) {
	params := map[string]string{
		ParamClientID:  b.config.ClientID,
		ParamStoreType: b.config.StoreType,
		ParamAmount:    amount,
		ParamCurrency:  b.config.Currency,
		ParamOrderID:   orderID,
		ParamOkURL:     b.config.OkURL,
		ParamFailURL:   b.config.FailURL,
		ParamRnd:       uuid.NewString(),
		ParamLang:      b.config.Language,
	}
	for _, key := range placeholderParams {
		params[key] = ""
	}

	hash, err := b.signer.Sign(RequestHashOrder, params)
	if err != nil {
		return nil, err
	}
	params[ParamHash] = hash

	return params, nil
}

// ClientID exposes the merchant id for callback verification, which hashes
// over clientid even though the gateway does not echo it back.
func (b *RequestBuilder) ClientID() string {
	return b.config.ClientID
}
