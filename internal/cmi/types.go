// Package cmi implements the merchant side of the CMI 3-D Secure gateway
// contract: signed outbound payment requests and verification of the
// asynchronous server-to-server callback.
package cmi

// Outbound request parameter names.
const (
	ParamClientID  = "clientid"
	ParamStoreType = "storetype"
	ParamAmount    = "amount"
	ParamCurrency  = "currency"
	ParamOrderID   = "oid"
	ParamOkURL     = "okUrl"
	ParamFailURL   = "failUrl"
	ParamRnd       = "rnd"
	ParamLang      = "lang"
	ParamHash      = "hash"
)

// Inbound callback parameter names. The gateway posts these form-encoded.
const (
	CallbackOrderID        = "oid"
	CallbackResponse       = "Response"
	CallbackErrMsg         = "ErrMsg"
	CallbackTransID        = "TransId"
	CallbackAuthCode       = "AuthCode"
	CallbackProcReturnCode = "ProcReturnCode"
	CallbackHash           = "HASH"
	CallbackCardBrand      = "EXTRA_CARDBRAND"
	CallbackCardIssuer     = "EXTRA_CARDISSUER"
)

// ResponseApproved is the exact sentinel the gateway uses for an authorized
// payment. Anything else is a decline.
const ResponseApproved = "Approved"

// Hash field orders per the gateway contract. The outbound and inbound
// orders differ; both live here so a gateway-spec correction is one edit.
var (
	RequestHashOrder = []string{
		ParamClientID, ParamAmount, ParamOrderID,
		ParamOkURL, ParamFailURL, ParamRnd, ParamCurrency, ParamLang,
	}
	CallbackHashOrder = []string{
		ParamClientID, CallbackOrderID, CallbackResponse,
		CallbackAuthCode, CallbackProcReturnCode, CallbackTransID, CallbackErrMsg,
	}
)

// Callback is the decoded view of a gateway callback payload.
type Callback struct {
	OrderID        string
	Response       string
	ErrMsg         string
	TransID        string
	AuthCode       string
	ProcReturnCode string
	Hash           string
	CardBrand      string
	CardIssuer     string
}

func ParseCallback(params map[string]string) Callback {
	return Callback{
		OrderID:        params[CallbackOrderID],
		Response:       params[CallbackResponse],
		ErrMsg:         params[CallbackErrMsg],
		TransID:        params[CallbackTransID],
		AuthCode:       params[CallbackAuthCode],
		ProcReturnCode: params[CallbackProcReturnCode],
		Hash:           params[CallbackHash],
		CardBrand:      params[CallbackCardBrand],
		CardIssuer:     params[CallbackCardIssuer],
	}
}

func (c Callback) Approved() bool {
	return c.Response == ResponseApproved
}
