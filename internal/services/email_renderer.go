package services

import (
	"fmt"
	"html"
	"strings"

	"github.com/moonventures/cardpurchases/internal/amount"
	"github.com/moonventures/cardpurchases/internal/creditlimit"
	"github.com/moonventures/cardpurchases/internal/models"
)

// RenderWarningSection renders the warning section HTML.
func RenderWarningSection(warnings []string) string {
	if len(warnings) == 0 {
		return ""
	}

	var items strings.Builder
	for _, w := range warnings {
		items.WriteString(fmt.Sprintf("<li>%s</li>", html.EscapeString(w)))
	}

	return fmt.Sprintf(`
		<div style="background-color: #fff8e1; border-left: 5px solid #f2a900; padding: 15px; margin-bottom: 20px;">
			<h3 style="color: #8a6100; margin-top: 0; font-size: 18px;">Atenção</h3>
			<ul style="margin-bottom: 0; padding-left: 20px;">
				%s
			</ul>
		</div>
	`, items.String())
}

func renderPage(color, title, content string) string {
	return fmt.Sprintf(`
		<html>
		<body style="font-family: 'Segoe UI', sans-serif; color: #333; line-height: 1.6; background-color: #f4f4f4; margin: 0; padding: 20px;">
			<div style="max-width: 600px; margin: 0 auto; background: white; border-radius: 8px; overflow: hidden; box-shadow: 0 2px 8px rgba(0,0,0,0.1);">
				<div style="background-color: %s; padding: 20px; text-align: center; color: white;">
					<h2 style="margin: 0;">%s</h2>
				</div>
				<div style="padding: 20px;">
					%s
				</div>
			</div>
		</body>
		</html>
	`, color, html.EscapeString(title), content)
}

// RenderConfirmationBody renders the email sent after a purchase is recorded.
func RenderConfirmationBody(msg models.Confirmation) string {
	var rows strings.Builder
	for _, f := range msg.Fields {
		rows.WriteString(fmt.Sprintf(
			`<tr><td style="padding: 6px 12px 6px 0; font-weight: 600;">%s</td><td style="padding: 6px 0;">%s</td></tr>`,
			html.EscapeString(f.Label), html.EscapeString(f.Value)))
	}

	content := fmt.Sprintf(`
					%s
					<p>Os dados da compra foram registrados:</p>
					<table style="border-collapse: collapse; width: 100%%;">%s</table>`,
		RenderWarningSection(msg.Warnings), rows.String())
	return renderPage("#0078d4", "Compra registrada", content)
}

// RenderReminderBody renders the upcoming-installments reminder.
func RenderReminderBody(holder models.Cardholder, dues []creditlimit.Due) string {
	var rows strings.Builder
	for _, d := range dues {
		rows.WriteString(fmt.Sprintf(
			`<tr><td style="padding: 6px 12px 6px 0;">%s</td><td style="padding: 6px 12px 6px 0;">%s</td><td style="padding: 6px 12px 6px 0;">%s</td><td style="padding: 6px 0; text-align: right;">%s</td></tr>`,
			d.DueDate.Format("02/01/2006"),
			html.EscapeString(d.Row.Supplier),
			html.EscapeString(d.Label),
			amount.Format(d.Row.InstallmentValue)))
	}

	content := fmt.Sprintf(`
					<p>Olá, %s. Estas parcelas vencem nos próximos dias:</p>
					<table style="border-collapse: collapse; width: 100%%;">
						<tr><th align="left">Vencimento</th><th align="left">Fornecedor</th><th align="left">Parcela</th><th align="right">Valor</th></tr>
						%s
					</table>`,
		html.EscapeString(holder.Name), rows.String())
	return renderPage("#107c10", "Parcelas a vencer", content)
}
