package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"stayops/config"

	logger "github.com/Bparsons0904/goLogger"
)

// Notifier is the SMS/notification collaborator. Failures are reported but
// must never block occupancy or cleaning state changes; callers log and move
// on.
type Notifier interface {
	Send(ctx context.Context, template string, variables map[string]string, targets []string) (string, error)
}

// smsVendorClient posts templated messages to the configured SMS vendor.
type smsVendorClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     logger.Logger
}

func NewNotifier(config config.Config) Notifier {
	return &smsVendorClient{
		baseURL: config.SMSVendorURL,
		apiKey:  config.SMSVendorKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     logger.New("notifyService"),
	}
}

type smsVendorRequest struct {
	Template  string            `json:"template"`
	Variables map[string]string `json:"variables"`
	Targets   []string          `json:"targets"`
}

type smsVendorResponse struct {
	MessageID string `json:"messageId"`
}

func (s *smsVendorClient) Send(
	ctx context.Context,
	template string,
	variables map[string]string,
	targets []string,
) (string, error) {
	log := s.log.Function("Send")

	if s.baseURL == "" {
		log.Debug("SMS vendor not configured, dropping message", "template", template)
		return "", nil
	}

	if len(targets) == 0 {
		return "", fmt.Errorf("no targets for template %s", template)
	}

	body, err := json.Marshal(smsVendorRequest{
		Template:  template,
		Variables: variables,
		Targets:   targets,
	})
	if err != nil {
		return "", log.Err("failed to marshal vendor request", err, "template", template)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/v1/messages",
		bytes.NewReader(body),
	)
	if err != nil {
		return "", log.Err("failed to build vendor request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", log.Err("vendor request failed", err, "template", template)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", log.Error("vendor rejected message",
			"status", resp.StatusCode, "template", template)
	}

	var vendorResp smsVendorResponse
	if err := json.NewDecoder(resp.Body).Decode(&vendorResp); err != nil {
		return "", log.Err("failed to decode vendor response", err)
	}

	log.Info("message accepted by vendor",
		"template", template, "messageID", vendorResp.MessageID, "targets", len(targets))
	return vendorResp.MessageID, nil
}
