package recorder

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/moonventures/cardpurchases/internal/amount"
	"github.com/moonventures/cardpurchases/internal/config"
	"github.com/moonventures/cardpurchases/internal/installment"
	"github.com/moonventures/cardpurchases/internal/models"
	"github.com/shopspring/decimal"
)

// Receipt is an uploaded receipt file.
type Receipt struct {
	Name        string
	ContentType string
	Content     []byte
}

// Form holds the raw values of a purchase submission.
type Form struct {
	Card         string
	Supplier     string
	Amount       string // BR formatted, e.g. "1.234,56"
	Currency     string // empty or BRL for local amounts
	Installment  bool
	Installments int
	CardholderID string
	Buyer        string // defaults to the cardholder name
	Description  string
	Email        string
	PurchaseDate string // YYYY-MM-DD, defaults to today
	Receipt      *Receipt
}

// normalized is a form whose values were checked against the configuration.
type normalized struct {
	card         config.Card
	company      config.Company
	holder       models.Cardholder
	total        decimal.Decimal
	conversion   *models.Conversion
	count        int
	buyer        string
	purchaseDate time.Time
	email        string
}

// normalize validates f and resolves its references. Every problem found is
// returned, in form order.
func (r *Recorder) normalize(ctx context.Context, f Form, today time.Time) (*normalized, []string) {
	var errs []string
	n := &normalized{}

	cardName := strings.TrimSpace(f.Card)
	if cardName == "" {
		errs = append(errs, "Cartão não informado.")
	} else if card, ok := r.cfg.Card(cardName); !ok {
		errs = append(errs, fmt.Sprintf("Cartão desconhecido: %s.", cardName))
	} else {
		n.card = card
		n.company, _ = r.cfg.CompanyForCard(card.Name)
	}

	if strings.TrimSpace(f.Supplier) == "" {
		errs = append(errs, "Fornecedor não informado.")
	}

	original, err := amount.ParseStrict(f.Amount)
	switch {
	case err != nil:
		errs = append(errs, fmt.Sprintf("Valor inválido: %q.", f.Amount))
	case !original.IsPositive():
		errs = append(errs, "Valor deve ser maior que zero.")
	default:
		n.total = original.Round(2)
		if r.Converter != nil {
			if conv := r.Converter.Convert(ctx, f.Currency, original); conv != nil {
				n.conversion = conv
				n.total = conv.Local.Round(2)
			}
		}
	}

	n.count = 1
	if f.Installment {
		n.count = f.Installments
		if n.count < 1 || n.count > r.cfg.MaxInstallments {
			errs = append(errs, fmt.Sprintf("Quantidade de parcelas deve estar entre 1 e %d.", r.cfg.MaxInstallments))
		}
	}

	holderID := strings.TrimSpace(f.CardholderID)
	if holderID == "" {
		errs = append(errs, "Titular não informado.")
	} else if holder, ok := r.cfg.Cardholder(holderID); !ok {
		errs = append(errs, fmt.Sprintf("Titular desconhecido: %s.", holderID))
	} else {
		n.holder = holder
	}

	n.buyer = strings.TrimSpace(f.Buyer)
	if n.buyer == "" {
		n.buyer = n.holder.Name
	}
	if n.buyer == "" {
		errs = append(errs, "Nome do comprador não informado.")
	}

	if strings.TrimSpace(f.Description) == "" {
		errs = append(errs, "Descrição da compra não informada.")
	}

	n.purchaseDate = today
	if s := strings.TrimSpace(f.PurchaseDate); s != "" {
		d, err := time.ParseInLocation(models.DateLayout, s, today.Location())
		if err != nil {
			errs = append(errs, fmt.Sprintf("Data da compra inválida: %s.", s))
		} else {
			n.purchaseDate = d
		}
	}

	if s := strings.TrimSpace(f.Email); s != "" {
		addr, err := mail.ParseAddress(s)
		if err != nil {
			errs = append(errs, fmt.Sprintf("E-mail inválido: %s.", s))
		} else {
			n.email = addr.Address
		}
	}

	if r.cfg.ReceiptRequired() && (f.Receipt == nil || len(f.Receipt.Content) == 0) {
		errs = append(errs, "Comprovante não anexado.")
	}

	return n, errs
}

// schedule splits the normalized purchase into its installments.
func (n *normalized) schedule() ([]models.Installment, error) {
	return installment.Schedule(n.total, n.count, n.purchaseDate, n.holder.DueDay)
}
