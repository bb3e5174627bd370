// Package momo - HTTP-клиент шлюза MoMo.
package momo

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Haleralex/gymhub/internal/application/ports"
	domainErrors "github.com/Haleralex/gymhub/internal/domain/errors"
)

// Compile-time check
var _ ports.PaymentGateway = (*Client)(nil)

// Config содержит учётные данные и endpoints шлюза.
type Config struct {
	Endpoint    string // https://test-payment.momo.vn или production
	PartnerCode string
	AccessKey   string
	SecretKey   string
	RedirectURL string
	IPNURL      string
	RequestType string // captureWallet по умолчанию
	Timeout     time.Duration
}

// DefaultRequestType - тип запроса, если не задан в конфигурации.
const DefaultRequestType = "captureWallet"

// Client реализует ports.PaymentGateway поверх MoMo v2 API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient создаёт новый Client.
func NewClient(cfg Config) *Client {
	if cfg.RequestType == "" {
		cfg.RequestType = DefaultRequestType
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// createRequest - тело POST /v2/gateway/api/create.
type createRequest struct {
	PartnerCode string `json:"partnerCode"`
	RequestID   string `json:"requestId"`
	Amount      int64  `json:"amount"`
	OrderID     string `json:"orderId"`
	OrderInfo   string `json:"orderInfo"`
	RedirectURL string `json:"redirectUrl"`
	IPNURL      string `json:"ipnUrl"`
	RequestType string `json:"requestType"`
	ExtraData   string `json:"extraData"`
	Lang        string `json:"lang"`
	Signature   string `json:"signature"`
}

// createResponse - ответ шлюза на создание платежа.
type createResponse struct {
	PayURL     string `json:"payUrl"`
	Deeplink   string `json:"deeplink"`
	QRCodeURL  string `json:"qrCodeUrl"`
	ResultCode int    `json:"resultCode"`
	Message    string `json:"message"`
}

// CreatePayment создаёт платёж в шлюзе.
// TransactionID используется и как orderId, и как requestId: одна корреляция
// на всю жизнь платежа.
func (c *Client) CreatePayment(ctx context.Context, params ports.CreatePaymentParams) (*ports.CreatePaymentResult, error) {
	extraData := base64.StdEncoding.EncodeToString(params.ExtraData)

	req := createRequest{
		PartnerCode: c.cfg.PartnerCode,
		RequestID:   params.TransactionID,
		Amount:      params.AmountUnits,
		OrderID:     params.TransactionID,
		OrderInfo:   params.OrderInfo,
		RedirectURL: c.cfg.RedirectURL,
		IPNURL:      c.cfg.IPNURL,
		RequestType: c.cfg.RequestType,
		ExtraData:   extraData,
		Lang:        "vi",
		Signature:   createSignature(c.cfg, params.TransactionID, params.TransactionID, params.OrderInfo, extraData, params.AmountUnits),
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal create request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.Endpoint+"/v2/gateway/api/create", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gateway create request failed: %w", err)
	}
	defer resp.Body.Close()

	var createResp createResponse
	if err := json.NewDecoder(resp.Body).Decode(&createResp); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}

	return &ports.CreatePaymentResult{
		PayURL:     createResp.PayURL,
		Deeplink:   createResp.Deeplink,
		QRCodeURL:  createResp.QRCodeURL,
		ResultCode: createResp.ResultCode,
		Message:    createResp.Message,
	}, nil
}

// callbackBody - тело IPN callback'а шлюза.
type callbackBody struct {
	PartnerCode  string `json:"partnerCode"`
	OrderID      string `json:"orderId"`
	RequestID    string `json:"requestId"`
	Amount       int64  `json:"amount"`
	OrderInfo    string `json:"orderInfo"`
	OrderType    string `json:"orderType"`
	TransID      int64  `json:"transId"`
	ResultCode   int    `json:"resultCode"`
	Message      string `json:"message"`
	PayType      string `json:"payType"`
	ResponseTime int64  `json:"responseTime"`
	ExtraData    string `json:"extraData"`
	Signature    string `json:"signature"`
}

// VerifyCallback проверяет HMAC-подпись IPN callback'а и разбирает тело.
//
// Любое расхождение подписи отклоняется ДО того, как payload попадёт в
// бизнес-логику: непроверенный callback - это просто анонимный POST.
func (c *Client) VerifyCallback(body []byte) (*ports.CallbackPayload, error) {
	var cb callbackBody
	if err := json.Unmarshal(body, &cb); err != nil {
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrMalformedGatewayPayload, err)
	}

	if cb.OrderID == "" || cb.Signature == "" {
		return nil, domainErrors.ErrMalformedGatewayPayload
	}

	expected := callbackSignature(c.cfg, cb)
	if !verifySignature(expected, cb.Signature) {
		return nil, domainErrors.ErrInvalidSignature
	}

	extraData, err := base64.StdEncoding.DecodeString(cb.ExtraData)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid extraData encoding", domainErrors.ErrMalformedGatewayPayload)
	}

	return &ports.CallbackPayload{
		TransactionID: cb.OrderID,
		RequestID:     cb.RequestID,
		AmountUnits:   cb.Amount,
		ResultCode:    cb.ResultCode,
		Message:       cb.Message,
		PayType:       cb.PayType,
		TransID:       cb.TransID,
		ExtraData:     extraData,
		Raw:           body,
	}, nil
}
