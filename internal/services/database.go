package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/moonventures/cardpurchases/internal/installment"
	"github.com/moonventures/cardpurchases/internal/models"
	"github.com/shopspring/decimal"
)

// DatabaseService stores purchase rows in Azure Table Storage. Rows are
// partitioned by cardholder.
type DatabaseService struct {
	serviceClient  *aztables.ServiceClient
	purchasesTable string
}

// NewDatabaseService creates a new DatabaseService instance.
func NewDatabaseService() (*DatabaseService, error) {
	tableURL := os.Getenv("TABLE_SERVICE_URL")
	if tableURL == "" {
		return nil, fmt.Errorf("TABLE_SERVICE_URL environment variable is required")
	}

	purchasesTable := envOr("PURCHASES_TABLE", "purchases")

	var client *aztables.ServiceClient

	// Check if running locally with Azurite (http endpoint)
	if isLocal(tableURL) {
		slog.Info("using shared key credentials for database service")
		name, key := sharedKey()
		cred, err := aztables.NewSharedKeyCredential(name, key)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		client, err = aztables.NewServiceClientWithSharedKey(tableURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create table service client with shared key: %w", err)
		}
	} else {
		// Production: Managed Identity
		cred, err := newDefaultAzureCredential()
		if err != nil {
			return nil, fmt.Errorf("failed to create default azure credential: %w", err)
		}
		client, err = aztables.NewServiceClient(tableURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create table service client: %w", err)
		}
	}

	svc := &DatabaseService{
		serviceClient:  client,
		purchasesTable: purchasesTable,
	}

	if err := svc.CreateTables(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	slog.Info("database service initialized successfully",
		"table_url", tableURL,
		"purchases_table", purchasesTable,
	)
	return svc, nil
}

// CreateTables ensures the purchases table exists.
func (s *DatabaseService) CreateTables(ctx context.Context) error {
	_, err := s.serviceClient.CreateTable(ctx, s.purchasesTable, nil)
	if err != nil {
		var azErr *azcore.ResponseError
		if errors.As(err, &azErr) && azErr.ErrorCode == "TableAlreadyExists" {
			return nil
		}
		return fmt.Errorf("failed to create table %s: %w", s.purchasesTable, err)
	}
	return nil
}

func (s *DatabaseService) getClient() *aztables.Client {
	return s.serviceClient.NewClient(s.purchasesTable)
}

// partitionKey returns the partition a row belongs to.
func partitionKey(r models.PurchaseRow) string {
	if r.CardholderID == "" {
		return "unassigned"
	}
	return r.CardholderID
}

// rowKey returns the unique key of one installment row of a purchase.
func rowKey(r models.PurchaseRow) string {
	k, _, err := installment.ParseLabel(r.Position)
	if err != nil {
		k = 0
	}
	return fmt.Sprintf("%s_%02d", r.PurchaseID, k)
}

func toEntity(r models.PurchaseRow, importedAt string) map[string]any {
	entity := map[string]any{
		"PartitionKey":     partitionKey(r),
		"RowKey":           rowKey(r),
		"Date":             r.PostingDate,
		"Card":             r.Card,
		"Company":          r.Company,
		"Supplier":         r.Supplier,
		"Total":            r.Total.String(),
		"Installment":      r.Installment,
		"InstallmentCount": r.InstallmentCount,
		"InstallmentValue": r.InstallmentValue.String(),
		"Buyer":            r.Buyer,
		"Position":         r.Position,
		"Description":      r.Description,
		"Receipt":          r.ReceiptRef,
		"PurchaseDate":     r.PurchaseDate,
		"CardholderID":     r.CardholderID,
		"PurchaseID":       r.PurchaseID,
		"ImportedAt":       importedAt,
	}
	if r.HasConversion() {
		entity["Currency"] = r.Currency
		entity["OriginalAmount"] = r.OriginalAmount.String()
		entity["ExchangeRate"] = r.ExchangeRate.String()
	}
	return entity
}

func fromEntity(parsed map[string]any) models.PurchaseRow {
	getString := func(key string) string {
		if v, ok := parsed[key].(string); ok {
			return v
		}
		return ""
	}

	getDecimal := func(key string) decimal.Decimal {
		if v, ok := parsed[key].(string); ok {
			d, _ := decimal.NewFromString(v)
			return d
		}
		if v, ok := parsed[key].(float64); ok {
			return decimal.NewFromFloat(v)
		}
		return decimal.Zero
	}

	getInt := func(key string) int {
		if v, ok := parsed[key].(float64); ok {
			return int(v)
		}
		if v, ok := parsed[key].(string); ok {
			var i int
			fmt.Sscanf(v, "%d", &i)
			return i
		}
		return 0
	}

	installmentFlag, _ := parsed["Installment"].(bool)

	return models.PurchaseRow{
		PostingDate:      getString("Date"),
		Card:             getString("Card"),
		Company:          getString("Company"),
		Supplier:         getString("Supplier"),
		Total:            getDecimal("Total"),
		Installment:      installmentFlag,
		InstallmentCount: getInt("InstallmentCount"),
		InstallmentValue: getDecimal("InstallmentValue"),
		Buyer:            getString("Buyer"),
		Position:         getString("Position"),
		Description:      getString("Description"),
		ReceiptRef:       getString("Receipt"),
		PurchaseDate:     getString("PurchaseDate"),
		Currency:         getString("Currency"),
		OriginalAmount:   getDecimal("OriginalAmount"),
		ExchangeRate:     getDecimal("ExchangeRate"),
		CardholderID:     getString("CardholderID"),
		PurchaseID:       getString("PurchaseID"),
	}
}

// AppendRows inserts rows in batched transactions, one batch per partition.
func (s *DatabaseService) AppendRows(ctx context.Context, rows []models.PurchaseRow) error {
	if len(rows) == 0 {
		return nil
	}

	client := s.getClient()
	timestamp := time.Now().Format(time.RFC3339)

	partitions := make(map[string][]aztables.TransactionAction)
	var order []string
	for _, r := range rows {
		entityJson, err := json.Marshal(toEntity(r, timestamp))
		if err != nil {
			return fmt.Errorf("failed to marshal purchase row: %w", err)
		}
		pk := partitionKey(r)
		if _, ok := partitions[pk]; !ok {
			order = append(order, pk)
		}
		partitions[pk] = append(partitions[pk], aztables.TransactionAction{
			ActionType: aztables.TransactionTypeAdd,
			Entity:     entityJson,
		})
	}

	const batchSize = 100
	for _, pk := range order {
		batch := partitions[pk]
		for i := 0; i < len(batch); i += batchSize {
			end := min(i+batchSize, len(batch))
			if _, err := client.SubmitTransaction(ctx, batch[i:end], nil); err != nil {
				return fmt.Errorf("failed to submit purchase batch %d-%d for %s: %w", i, end, pk, err)
			}
		}
	}

	slog.Info("appended purchase rows to table", "table", s.purchasesTable, "rows", len(rows))
	return nil
}

// ListRows returns every stored purchase row.
func (s *DatabaseService) ListRows(ctx context.Context) ([]models.PurchaseRow, error) {
	pager := s.getClient().NewListEntitiesPager(nil)

	var rows []models.PurchaseRow
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list purchases: %w", err)
		}
		for _, entity := range resp.Entities {
			var parsed map[string]any
			if err := json.Unmarshal(entity, &parsed); err != nil {
				continue
			}
			rows = append(rows, fromEntity(parsed))
		}
	}
	return rows, nil
}
