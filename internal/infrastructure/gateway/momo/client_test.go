package momo

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haleralex/gymhub/internal/application/ports"
	domainErrors "github.com/Haleralex/gymhub/internal/domain/errors"
)

func testConfig() Config {
	return Config{
		Endpoint:    "https://test-payment.momo.vn",
		PartnerCode: "GYMHUB",
		AccessKey:   "access-key",
		SecretKey:   "secret-key",
		RedirectURL: "https://gym.example.com/payments/return",
		IPNURL:      "https://gym.example.com/api/v1/payments/momo/ipn",
	}
}

// signedCallback строит валидно подписанное тело IPN для тестов.
func signedCallback(t *testing.T, cfg Config, mutate func(*callbackBody)) []byte {
	t.Helper()

	cb := callbackBody{
		PartnerCode:  cfg.PartnerCode,
		OrderID:      "GYM-tx-1",
		RequestID:    "GYM-tx-1",
		Amount:       500000,
		OrderInfo:    "Standard package",
		OrderType:    "momo_wallet",
		TransID:      4088878653,
		ResultCode:   0,
		Message:      "Successful.",
		PayType:      "qr",
		ResponseTime: 1710000000000,
		ExtraData:    base64.StdEncoding.EncodeToString([]byte(`{"member_id":"m1"}`)),
	}
	if mutate != nil {
		mutate(&cb)
	}
	cb.Signature = callbackSignature(cfg, cb)

	body, err := json.Marshal(cb)
	require.NoError(t, err)
	return body
}

func TestClient_VerifyCallback_Success(t *testing.T) {
	cfg := testConfig()
	client := NewClient(cfg)

	body := signedCallback(t, cfg, nil)

	payload, err := client.VerifyCallback(body)

	require.NoError(t, err)
	assert.Equal(t, "GYM-tx-1", payload.TransactionID)
	assert.Equal(t, int64(500000), payload.AmountUnits)
	assert.True(t, payload.Succeeded())
	assert.Equal(t, "qr", payload.PayType)
	assert.JSONEq(t, `{"member_id":"m1"}`, string(payload.ExtraData))
	assert.Equal(t, body, payload.Raw)
}

func TestClient_VerifyCallback_FailureResult(t *testing.T) {
	cfg := testConfig()
	client := NewClient(cfg)

	body := signedCallback(t, cfg, func(cb *callbackBody) {
		cb.ResultCode = 1006
		cb.Message = "Transaction denied by user"
	})

	payload, err := client.VerifyCallback(body)

	require.NoError(t, err, "a failed payment with a valid signature still parses")
	assert.False(t, payload.Succeeded())
	assert.Equal(t, 1006, payload.ResultCode)
}

func TestClient_VerifyCallback_TamperedAmount(t *testing.T) {
	cfg := testConfig()
	client := NewClient(cfg)

	body := signedCallback(t, cfg, nil)

	// Подменяем сумму после подписания
	var cb callbackBody
	require.NoError(t, json.Unmarshal(body, &cb))
	cb.Amount = 1
	tampered, err := json.Marshal(cb)
	require.NoError(t, err)

	_, err = client.VerifyCallback(tampered)

	assert.ErrorIs(t, err, domainErrors.ErrInvalidSignature)
}

func TestClient_VerifyCallback_WrongSecret(t *testing.T) {
	cfg := testConfig()

	foreign := cfg
	foreign.SecretKey = "some-other-secret"
	body := signedCallback(t, foreign, nil)

	_, err := NewClient(cfg).VerifyCallback(body)

	assert.ErrorIs(t, err, domainErrors.ErrInvalidSignature)
}

func TestClient_VerifyCallback_MalformedBody(t *testing.T) {
	client := NewClient(testConfig())

	cases := []struct {
		name string
		body []byte
	}{
		{"not json", []byte("not-json")},
		{"missing order id", []byte(`{"signature":"abc"}`)},
		{"missing signature", []byte(`{"orderId":"GYM-tx-1"}`)},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.VerifyCallback(tt.body)
			assert.ErrorIs(t, err, domainErrors.ErrMalformedGatewayPayload)
		})
	}
}

func TestClient_CreatePayment(t *testing.T) {
	cfg := testConfig()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/gateway/api/create", r.URL.Path)

		var req createRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		assert.Equal(t, cfg.PartnerCode, req.PartnerCode)
		assert.Equal(t, "GYM-tx-1", req.OrderID)
		assert.Equal(t, int64(500000), req.Amount)

		// Шлюз пересчитывает подпись по тем же правилам
		expected := createSignature(cfg, req.RequestID, req.OrderID, req.OrderInfo, req.ExtraData, req.Amount)
		assert.Equal(t, expected, req.Signature)

		json.NewEncoder(w).Encode(createResponse{
			PayURL:     "https://test-payment.momo.vn/pay/GYM-tx-1",
			ResultCode: 0,
			Message:    "Successful.",
		})
	}))
	defer server.Close()

	cfg.Endpoint = server.URL
	client := NewClient(cfg)

	result, err := client.CreatePayment(context.Background(), ports.CreatePaymentParams{
		TransactionID: "GYM-tx-1",
		AmountUnits:   500000,
		OrderInfo:     "Standard package",
		ExtraData:     []byte(`{"member_id":"m1"}`),
	})

	require.NoError(t, err)
	assert.Equal(t, 0, result.ResultCode)
	assert.Equal(t, "https://test-payment.momo.vn/pay/GYM-tx-1", result.PayURL)
}

func TestSignParams_Deterministic(t *testing.T) {
	sig1 := signParams("secret", map[string]string{"b": "2", "a": "1", "c": "3"})
	sig2 := signParams("secret", map[string]string{"c": "3", "a": "1", "b": "2"})

	assert.Equal(t, sig1, sig2, "signature must not depend on map iteration order")
	assert.Len(t, sig1, 64, "HMAC-SHA256 hex is 64 chars")
}
