package push

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"gastbook/pkg/logger"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Device is one registered push token.
type Device struct {
	Token    string
	Platform string
}

// Provider delivers a push to a user's devices.
type Provider interface {
	SendPush(ctx context.Context, devices []Device, title, body string, data map[string]string) error
}

// FCMProvider sends through Firebase Cloud Messaging.
type FCMProvider struct {
	client *messaging.Client
}

// NewFCMProvider prefers base64 credentials in FCM_SERVICE_ACCOUNT_JSON and
// falls back to the credentials file.
func NewFCMProvider(ctx context.Context, credentialsFile string) (*FCMProvider, error) {
	var opt option.ClientOption

	if encoded := os.Getenv("FCM_SERVICE_ACCOUNT_JSON"); encoded != "" {
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("decode FCM_SERVICE_ACCOUNT_JSON: %w", err)
		}
		opt = option.WithCredentialsJSON(decoded)
	} else {
		if _, err := os.Stat(credentialsFile); err != nil {
			return nil, fmt.Errorf("firebase credentials %s: %w", credentialsFile, err)
		}
		opt = option.WithCredentialsFile(credentialsFile)
	}

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("get messaging client: %w", err)
	}

	return &FCMProvider{client: client}, nil
}

// SendPush sends one message per device; it fails only when every send failed.
func (p *FCMProvider) SendPush(ctx context.Context, devices []Device, title, body string, data map[string]string) error {
	if len(devices) == 0 {
		return nil
	}

	sent, failed := 0, 0
	for _, d := range devices {
		msg := &messaging.Message{
			Token: d.Token,
			Notification: &messaging.Notification{
				Title: title,
				Body:  body,
			},
			Data: data,
		}
		switch d.Platform {
		case "ios":
			msg.APNS = &messaging.APNSConfig{
				Payload: &messaging.APNSPayload{Aps: &messaging.Aps{Sound: "default"}},
			}
		default:
			msg.Android = &messaging.AndroidConfig{
				Priority:     "high",
				Notification: &messaging.AndroidNotification{Sound: "default"},
			}
		}

		if _, err := p.client.Send(ctx, msg); err != nil {
			logger.Warn("fcm send failed", zap.String("platform", d.Platform), zap.Error(err))
			failed++
			continue
		}
		sent++
	}

	logger.Debug("fcm batch done", zap.Int("sent", sent), zap.Int("failed", failed))
	if sent == 0 && failed > 0 {
		return fmt.Errorf("all %d push sends failed", failed)
	}
	return nil
}

// LogProvider only logs; used when push is disabled.
type LogProvider struct{}

func (LogProvider) SendPush(ctx context.Context, devices []Device, title, body string, data map[string]string) error {
	logger.Info("push (log only)",
		zap.Int("devices", len(devices)),
		zap.String("title", title),
		zap.String("body", body),
	)
	return nil
}
