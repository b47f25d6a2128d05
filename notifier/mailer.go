package notifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"storefront-service/models"

	"go.uber.org/zap"
)

var ErrNoRecipient = errors.New("order has no customer email")

var orderTemplate = template.Must(template.New("order").Funcs(template.FuncMap{
	"money":     func(v float64) string { return fmt.Sprintf("$%.2f", v) },
	"lineTotal": func(p models.OrderItem) float64 { return p.Price * float64(p.Quantity) },
}).Parse(`<div style="font-family:Arial,Helvetica,sans-serif;font-size:14px;color:#333;">
  <h2>Thank you for your order!</h2>
  <p>Order ID: <strong>{{.OrderID}}</strong></p>
  <h3>Order Summary</h3>
  <table style="border-collapse:collapse;width:100%;">
    <thead><tr><th align="left">Item</th><th align="left">Qty</th><th align="left">Price</th><th align="left">Total</th></tr></thead>
    <tbody>
    {{- range .Products}}
      <tr>
        <td>{{if .Image}}<img src="{{.Image}}" alt="{{.Title}}" width="48" height="48" /> {{end}}{{.Title}}{{if .VariantName}} ({{.VariantName}}){{end}}</td>
        <td>{{.Quantity}}</td>
        <td>{{money .Price}}</td>
        <td>{{money (lineTotal .)}}</td>
      </tr>
    {{- end}}
    </tbody>
  </table>
  <p style="font-size:16px;">Grand Total: <strong>{{money .TotalAmount}}</strong></p>
  <h3>Shipping Details</h3>
  <p>{{.Customer.FullName}}<br/>{{.Customer.Address}}<br/>{{.Customer.City}} {{.Customer.PostalCode}}<br/>{{.Customer.Country}}</p>
  <p>We will notify you once your order status changes.</p>
</div>`))

// RenderOrderConfirmation returns the subject and HTML body for an order.
func RenderOrderConfirmation(order *models.Order) (string, string, error) {
	var buf bytes.Buffer
	if err := orderTemplate.Execute(&buf, order); err != nil {
		return "", "", err
	}
	return "Order Confirmed - " + order.OrderID, buf.String(), nil
}

var resetTemplate = template.Must(template.New("reset").Parse(`<div style="font-family:Arial,Helvetica,sans-serif;font-size:14px;color:#333;">
  <p>You requested a password reset for your admin account.</p>
  <p><a href="{{.URL}}">Click here to reset your password</a></p>
  <p>This link expires in <strong>{{.Minutes}} minutes</strong>. If you did not request this, you can ignore this email.</p>
</div>`))

// RenderPasswordReset returns the subject and HTML body of a reset email.
func RenderPasswordReset(resetURL string, ttl time.Duration) (string, string, error) {
	var buf bytes.Buffer
	data := struct {
		URL     string
		Minutes int
	}{resetURL, int(ttl.Minutes())}
	if err := resetTemplate.Execute(&buf, data); err != nil {
		return "", "", err
	}
	return "Reset your admin password", buf.String(), nil
}

// Mailer sends order emails to the customer and copies the shop admin.
type Mailer struct {
	sender     EmailSender
	adminEmail string
	logger     *zap.Logger
}

func NewMailer(sender EmailSender, adminEmail string, logger *zap.Logger) *Mailer {
	return &Mailer{sender: sender, adminEmail: adminEmail, logger: logger}
}

func (m *Mailer) SendOrderConfirmation(ctx context.Context, order *models.Order) error {
	if order.Customer.Email == "" {
		return ErrNoRecipient
	}
	subject, body, err := RenderOrderConfirmation(order)
	if err != nil {
		return fmt.Errorf("render order email: %w", err)
	}
	res, err := m.sender.SendEmail(ctx, order.Customer.Email, subject, body)
	if err != nil {
		return err
	}
	m.logger.Info("Order confirmation sent", zap.String("order_id", order.OrderID), zap.String("message_id", res.MessageID))

	if m.adminEmail != "" {
		if _, err := m.sender.SendEmail(ctx, m.adminEmail, "[Admin] "+subject, body); err != nil {
			m.logger.Warn("Admin order copy failed", zap.String("order_id", order.OrderID), zap.Error(err))
		}
	}
	return nil
}

// SendPasswordReset mails the reset link. The admin copy is not sent.
func (m *Mailer) SendPasswordReset(ctx context.Context, to, resetURL string, ttl time.Duration) error {
	if to == "" {
		return ErrNoRecipient
	}
	subject, body, err := RenderPasswordReset(resetURL, ttl)
	if err != nil {
		return fmt.Errorf("render reset email: %w", err)
	}
	res, err := m.sender.SendEmail(ctx, to, subject, body)
	if err != nil {
		return err
	}
	m.logger.Info("Password reset email sent", zap.String("message_id", res.MessageID))
	return nil
}
