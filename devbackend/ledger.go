package devbackend

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-fintrack-client/finance"
	apperrors "github.com/jrsteele09/go-fintrack-client/internal/errors"
)

// FieldErrors maps request fields to validation messages.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	fields := make([]string, 0, len(f))
	for k, v := range f {
		fields = append(fields, k+": "+v)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

type walletRecord struct {
	owner        string
	wallet       finance.Wallet
	transactions []finance.Transaction
}

// Ledger keeps wallets and transactions in memory, scoped by owner.
type Ledger struct {
	lock       sync.RWMutex
	categories []finance.Category
	wallets    map[string]*walletRecord
	order      []string // wallet ids in creation order
}

func NewLedger() *Ledger {
	return &Ledger{
		categories: []finance.Category{
			{ID: "salary", Name: "Salary", Type: finance.Income},
			{ID: "gifts", Name: "Gifts", Type: finance.Income},
			{ID: "groceries", Name: "Groceries", Type: finance.Expense},
			{ID: "rent", Name: "Rent", Type: finance.Expense},
			{ID: "transport", Name: "Transport", Type: finance.Expense},
		},
		wallets: make(map[string]*walletRecord),
	}
}

func (l *Ledger) Categories() []finance.Category {
	return append([]finance.Category(nil), l.categories...)
}

func (l *Ledger) Wallets(owner string) []finance.Wallet {
	l.lock.RLock()
	defer l.lock.RUnlock()

	wallets := make([]finance.Wallet, 0)
	for _, id := range l.order {
		if rec := l.wallets[id]; rec.owner == owner {
			wallets = append(wallets, rec.wallet)
		}
	}
	return wallets
}

func (l *Ledger) CreateWallet(owner string, w finance.NewWallet) (finance.Wallet, error) {
	fields := FieldErrors{}
	if strings.TrimSpace(w.Name) == "" {
		fields["name"] = "name is required"
	}
	if len(w.Currency) != 3 {
		fields["currency"] = "currency must be a three letter code"
	}
	if len(fields) > 0 {
		return finance.Wallet{}, fields
	}

	wallet := finance.Wallet{
		ID:       uuid.NewString(),
		Name:     strings.TrimSpace(w.Name),
		Currency: strings.ToUpper(w.Currency),
		Balance:  w.InitialBalance,
	}

	l.lock.Lock()
	defer l.lock.Unlock()
	l.wallets[wallet.ID] = &walletRecord{owner: owner, wallet: wallet}
	l.order = append(l.order, wallet.ID)
	return wallet, nil
}

func (l *Ledger) Transactions(owner, walletID string) ([]finance.Transaction, error) {
	l.lock.RLock()
	defer l.lock.RUnlock()

	rec, err := l.owned(owner, walletID)
	if err != nil {
		return nil, err
	}
	return append([]finance.Transaction{}, rec.transactions...), nil
}

// CreateTransaction records tx and moves the wallet balance by its amount.
func (l *Ledger) CreateTransaction(owner string, tx finance.NewTransaction) (finance.Transaction, error) {
	category, ok := l.category(tx.CategoryID)
	fields := FieldErrors{}
	if !ok {
		fields["categoryId"] = "unknown category"
	} else if tx.Type != "" && tx.Type != category.Type {
		fields["type"] = fmt.Sprintf("category %s is %s", category.ID, category.Type)
	}
	if tx.Amount <= 0 {
		fields["amount"] = "amount must be positive"
	}
	date := tx.Date
	if date == "" {
		date = time.Now().Format(finance.DateLayout)
	} else if _, err := time.Parse(finance.DateLayout, date); err != nil {
		fields["date"] = "date must be YYYY-MM-DD"
	}
	if len(fields) > 0 {
		return finance.Transaction{}, fields
	}

	l.lock.Lock()
	defer l.lock.Unlock()

	rec, err := l.owned(owner, tx.WalletID)
	if err != nil {
		return finance.Transaction{}, err
	}
	created := finance.Transaction{
		ID:         uuid.NewString(),
		WalletID:   tx.WalletID,
		CategoryID: category.ID,
		Type:       category.Type,
		Amount:     tx.Amount,
		Date:       date,
		Note:       tx.Note,
	}
	rec.transactions = append(rec.transactions, created)
	if created.Type == finance.Income {
		rec.wallet.Balance += created.Amount
	} else {
		rec.wallet.Balance -= created.Amount
	}
	return created, nil
}

// Analytics totals the owner's transactions dated within [from, to]. Zero
// bounds are open. An empty walletID covers every wallet of the owner.
func (l *Ledger) Analytics(owner, walletID string, from, to time.Time) (finance.Analytics, error) {
	l.lock.RLock()
	defer l.lock.RUnlock()

	var records []*walletRecord
	if walletID != "" {
		rec, err := l.owned(owner, walletID)
		if err != nil {
			return finance.Analytics{}, err
		}
		records = append(records, rec)
	} else {
		for _, id := range l.order {
			if rec := l.wallets[id]; rec.owner == owner {
				records = append(records, rec)
			}
		}
	}

	totals := map[string]*finance.CategoryTotal{}
	var a finance.Analytics
	for _, rec := range records {
		for _, tx := range rec.transactions {
			date, _ := time.Parse(finance.DateLayout, tx.Date)
			if (!from.IsZero() && date.Before(from)) || (!to.IsZero() && date.After(to)) {
				continue
			}
			if tx.Type == finance.Income {
				a.Income += tx.Amount
			} else {
				a.Expense += tx.Amount
			}
			total, ok := totals[tx.CategoryID]
			if !ok {
				category, _ := l.category(tx.CategoryID)
				total = &finance.CategoryTotal{CategoryID: category.ID, Name: category.Name, Type: category.Type}
				totals[tx.CategoryID] = total
			}
			total.Total += tx.Amount
		}
	}
	a.Net = a.Income - a.Expense
	a.ByCategory = make([]finance.CategoryTotal, 0, len(totals))
	for _, t := range totals {
		a.ByCategory = append(a.ByCategory, *t)
	}
	sort.Slice(a.ByCategory, func(i, j int) bool {
		return a.ByCategory[i].CategoryID < a.ByCategory[j].CategoryID
	})
	return a, nil
}

// owned must be called with the lock held.
func (l *Ledger) owned(owner, walletID string) (*walletRecord, error) {
	rec, ok := l.wallets[walletID]
	if !ok || rec.owner != owner {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "wallet %s", walletID)
	}
	return rec, nil
}

func (l *Ledger) category(id string) (finance.Category, bool) {
	for _, c := range l.categories {
		if c.ID == id {
			return c, true
		}
	}
	return finance.Category{}, false
}
