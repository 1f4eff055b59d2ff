package frameo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// RelayClient talks to the Frameo control add-on, which holds the ADB link
// and exposes it as JSON endpoints.
type RelayClient struct {
	baseURL  string
	http     *http.Client
	timeouts Timeouts
	logger   *zap.Logger
}

func NewRelayClient(relay Endpoint, timeouts Timeouts, logger *zap.Logger) *RelayClient {
	return &RelayClient{
		baseURL:  fmt.Sprintf("http://%s", relay.Address()),
		http:     &http.Client{},
		timeouts: timeouts.withDefaults(),
		logger:   logger.With(zap.String("transport", "relay"), zap.String("relay", relay.Address())),
	}
}

func (c *RelayClient) request(ctx context.Context, method, endpoint string, payload any, timeout time.Duration) (gjson.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if payload == nil {
		payload = map[string]any{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return gjson.Result{}, newTransportError(endpoint, 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return gjson.Result{}, newTransportError(endpoint, 0, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("relay request error", zap.String("endpoint", endpoint), zap.Error(err))
		return gjson.Result{}, newTransportError(endpoint, 0, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, newTransportError(endpoint, resp.StatusCode, err)
	}

	if resp.StatusCode == http.StatusServiceUnavailable {
		c.logger.Warn("device disconnected", zap.String("endpoint", endpoint), zap.Int("status", resp.StatusCode))
		return gjson.Result{}, newDisconnectedError(endpoint, resp.StatusCode, errors.New(string(bytes.TrimSpace(raw))))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("relay HTTP error", zap.String("endpoint", endpoint), zap.Int("status", resp.StatusCode), zap.ByteString("body", raw))
		return gjson.Result{}, newTransportError(endpoint, resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status))
	}
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, newTransportError(endpoint, resp.StatusCode, ErrMalformedResponse)
	}
	return gjson.ParseBytes(raw), nil
}

func (c *RelayClient) Connect(ctx context.Context, conn ConnectionConfig) (ConnectStatus, error) {
	payload := map[string]any{
		"connection_type": string(conn.Kind),
	}
	switch conn.Kind {
	case ConnectionUSB:
		payload["serial"] = conn.Serial
	case ConnectionNetwork:
		payload["host"] = conn.Host
		payload["port"] = conn.Port
	}
	if conn.Relay != nil {
		payload["addon_host"] = conn.Relay.Host
		payload["addon_port"] = conn.Relay.Port
	}
	result, err := c.request(ctx, http.MethodPost, "/connect", payload, c.timeouts.Connect)
	if err != nil {
		return StatusError, err
	}
	if !result.IsObject() {
		return StatusError, nil
	}
	status := ConnectStatus(result.Get("status").String())
	if status == "" {
		status = StatusError
	}
	return status, nil
}

func (c *RelayClient) Shell(ctx context.Context, command string) (string, error) {
	result, err := c.request(ctx, http.MethodPost, "/shell", map[string]any{"command": command}, c.timeouts.Request)
	if err != nil {
		return "", err
	}
	return result.Get("result").String(), nil
}

func (c *RelayClient) GetState(ctx context.Context) (*StateReport, error) {
	result, err := c.request(ctx, http.MethodPost, "/state", nil, c.timeouts.Request)
	if err != nil {
		return nil, err
	}
	isOn := result.Get("is_on")
	if !result.IsObject() || !isOn.Exists() {
		return nil, newTransportError("/state", 0, fmt.Errorf("%w: is_on", ErrMissingField))
	}
	return &StateReport{
		IsOn:       isOn.Bool(),
		Brightness: int(result.Get("brightness").Int()),
	}, nil
}

func (c *RelayClient) EnableWireless(ctx context.Context) error {
	_, err := c.request(ctx, http.MethodPost, "/tcpip", nil, c.timeouts.Request)
	return err
}

func (c *RelayClient) GetIPAddress(ctx context.Context) (string, error) {
	result, err := c.request(ctx, http.MethodGet, "/ip", nil, c.timeouts.Request)
	if err != nil {
		return "", err
	}
	ip := result.Get("ip_address")
	if !ip.Exists() {
		return "", newTransportError("/ip", 0, fmt.Errorf("%w: ip_address", ErrMissingField))
	}
	return ip.String(), nil
}

func (c *RelayClient) ListUSBDevices(ctx context.Context) ([]string, error) {
	result, err := c.request(ctx, http.MethodGet, "/devices/usb", nil, c.timeouts.USBScan)
	if err != nil {
		return nil, err
	}
	if !result.IsArray() {
		return []string{}, nil
	}
	serials := []string{}
	for _, r := range result.Array() {
		serials = append(serials, r.String())
	}
	return serials, nil
}

func (c *RelayClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}
