package notifications

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/smtp"
	"net/textproto"
	"time"

	"go.uber.org/zap"

	"github.com/mcvu-symposium/backend/config"
)

// Attachment is a file to attach to an outgoing message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is one outgoing email.
type Message struct {
	To          string
	ToName      string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Mailer sends email through the transactional API when configured, falling
// back to plain SMTP otherwise.
type Mailer struct {
	cfg    config.EmailConfig
	client *http.Client
	logger *zap.Logger
}

func NewMailer(cfg config.EmailConfig, logger *zap.Logger) *Mailer {
	return &Mailer{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// Send delivers msg. It returns an error when neither delivery path is
// configured or the configured path fails.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("send email: empty recipient")
	}
	if m.cfg.APIURL != "" {
		return m.sendAPI(ctx, msg)
	}
	if m.cfg.SMTPHost != "" {
		return m.sendSMTP(msg)
	}
	return fmt.Errorf("send email: no delivery method configured")
}

type apiAttachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     string `json:"content"` // base64
}

type apiRequest struct {
	From        string          `json:"from"`
	To          []string        `json:"to"`
	Subject     string          `json:"subject"`
	HTML        string          `json:"html"`
	Attachments []apiAttachment `json:"attachments,omitempty"`
}

func (m *Mailer) sendAPI(ctx context.Context, msg Message) error {
	req := apiRequest{
		From:    fmt.Sprintf("%s <%s>", m.cfg.FromName, m.cfg.FromAddress),
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
	}
	for _, a := range msg.Attachments {
		req.Attachments = append(req.Attachments, apiAttachment{
			Filename:    a.Filename,
			ContentType: a.ContentType,
			Content:     base64.StdEncoding.EncodeToString(a.Data),
		})
	}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal email request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("email api: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("email api returned status %d", resp.StatusCode)
	}
	m.logger.Info("email sent via api", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

func (m *Mailer) sendSMTP(msg Message) error {
	raw, err := buildMIME(m.cfg, msg)
	if err != nil {
		return err
	}
	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)
	var auth smtp.Auth
	if m.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPass, m.cfg.SMTPHost)
	}
	if err := smtp.SendMail(addr, auth, m.cfg.FromAddress, []string{msg.To}, raw); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	m.logger.Info("email sent via smtp", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

// buildMIME assembles a multipart/mixed message with the HTML body and any
// attachments base64-encoded.
func buildMIME(cfg config.EmailConfig, msg Message) ([]byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s <%s>\r\n", cfg.FromName, cfg.FromAddress)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", w.Boundary())

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Type", "text/html; charset=utf-8")
	part, err := w.CreatePart(hdr)
	if err != nil {
		return nil, fmt.Errorf("build mime: %w", err)
	}
	if _, err := part.Write([]byte(msg.HTML)); err != nil {
		return nil, fmt.Errorf("build mime: %w", err)
	}

	for _, a := range msg.Attachments {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Type", a.ContentType)
		hdr.Set("Content-Transfer-Encoding", "base64")
		hdr.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.Filename))
		part, err := w.CreatePart(hdr)
		if err != nil {
			return nil, fmt.Errorf("build mime: %w", err)
		}
		enc := base64.NewEncoder(base64.StdEncoding, part)
		if _, err := enc.Write(a.Data); err != nil {
			return nil, fmt.Errorf("build mime: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("build mime: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("build mime: %w", err)
	}
	return buf.Bytes(), nil
}
