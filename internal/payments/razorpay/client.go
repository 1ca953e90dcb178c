// Package razorpay реализует мост к платёжному шлюзу: создание заказа
// и проверку криптографической подписи завершённого платежа.
package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/solvem8/backend/internal/config"
	"github.com/solvem8/backend/internal/lib/sl"
)

// ErrNoSecret возвращается при попытке проверить подпись без настроенного
// секрета. Проверка никогда не вырождается в "всегда успешно".
var ErrNoSecret = errors.New("razorpay secret is not configured")

// DegradedCounter учитывает заказы, созданные в деградированном режиме.
// Реализуется пакетом metrics; может быть nil.
type DegradedCounter interface {
	DegradedOrder()
}

// Client общается с REST API шлюза.
type Client struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
	log        *slog.Logger
	counter    DegradedCounter
}

// NewClient создаёт клиент шлюза. counter может быть nil.
func NewClient(cfg config.Razorpay, log *slog.Logger, counter DegradedCounter) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		keyID:      cfg.KeyID,
		keySecret:  cfg.KeySecret,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
		counter:    counter,
	}
}

type orderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type orderResponse struct {
	ID string `json:"id"`
}

// CreateOrder создаёт заказ в шлюзе и возвращает его идентификатор.
//
// При любом сбое обращения к шлюзу возвращается локально синтезированный
// идентификатор с префиксом local_, чтобы поток оформления мог
// продолжиться в деградированном режиме. Такой заказ не проходит через
// реальный сбор платежа, поэтому событие явно помечается в логе и
// учитывается отдельным счётчиком метрик.
func (c *Client) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (string, error) {
	const op = "razorpay.CreateOrder"

	orderID, err := c.createRemoteOrder(ctx, amount, currency, receipt)
	if err == nil {
		return orderID, nil
	}

	localID := "local_" + uuid.NewString()
	c.log.Warn("payment gateway unavailable, issuing local order id: real payment collection is bypassed",
		slog.String("op", op),
		slog.String("order_id", localID),
		sl.Err(err))
	if c.counter != nil {
		c.counter.DegradedOrder()
	}
	return localID, nil
}

func (c *Client) createRemoteOrder(ctx context.Context, amount int64, currency, receipt string) (string, error) {
	const op = "razorpay.createRemoteOrder"

	if c.keyID == "" || c.keySecret == "" {
		return "", fmt.Errorf("%s: %w", op, ErrNoSecret)
	}

	body, err := json.Marshal(orderRequest{Amount: amount, Currency: currency, Receipt: receipt})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("%s: unexpected status %s", op, resp.Status)
	}

	var parsed orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if parsed.ID == "" {
		return "", fmt.Errorf("%s: empty order id in response", op)
	}
	return parsed.ID, nil
}

// VerifySignature сверяет подпись шлюза: HMAC-SHA256 от строки
// "order_id|payment_id" на серверном секрете, сравнение безопасно
// по времени. Возвращает true только при точном совпадении.
//
// Отсутствие секрета — ошибка конфигурации, а не успех проверки.
func (c *Client) VerifySignature(orderID, paymentID, signature string) (bool, error) {
	const op = "razorpay.VerifySignature"

	if c.keySecret == "" {
		return false, fmt.Errorf("%s: %w", op, ErrNoSecret)
	}

	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature)), nil
}
