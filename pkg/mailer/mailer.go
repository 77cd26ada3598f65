package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"gastbook/pkg/logger"

	"go.uber.org/zap"
)

// Mailer sends one rendered email.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Subject for a notification type, from the actor's display name.
func Subject(notificationType, actorName string) string {
	if actorName == "" {
		actorName = "Someone"
	}
	switch notificationType {
	case "friend_request":
		return fmt.Sprintf("%s sent you a friend request", actorName)
	case "friend_accepted":
		return fmt.Sprintf("%s accepted your friend request", actorName)
	case "message":
		return fmt.Sprintf("New message from %s", actorName)
	case "comment":
		return fmt.Sprintf("%s commented on your post", actorName)
	case "like":
		return fmt.Sprintf("%s liked your post", actorName)
	case "group_request":
		return fmt.Sprintf("%s asked to join your group", actorName)
	case "group_join_accepted":
		return "You've been accepted to join a group"
	default:
		return "New notification from Gastbook"
	}
}

var bodyTemplate = template.Must(template.New("notification").Parse(`<html>
  <body>
    <h1>Gastbook Notification</h1>
    <p>{{.Message}}</p>
    {{if .Link}}<p><a href="{{.Link}}">Open Gastbook</a></p>{{end}}
  </body>
</html>`))

// Body renders the HTML body. Message and Link are escaped.
func Body(message, link string) (string, error) {
	var buf bytes.Buffer
	err := bodyTemplate.Execute(&buf, struct {
		Message string
		Link    string
	}{message, link})
	if err != nil {
		return "", fmt.Errorf("render email: %w", err)
	}
	return buf.String(), nil
}

// LogMailer writes emails to the log instead of sending them.
type LogMailer struct {
	From string
}

func (m LogMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	logger.Info("email (log only)",
		zap.String("from", m.From),
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("bytes", len(htmlBody)),
	)
	return nil
}
