// Package holdings projects a user's transaction ledger into valued positions.
//
// The projection is a pure function of (ledger, rate config, price snapshot,
// today): Scan folds transactions into per-group trackers, Value turns the
// trackers into Holding records. Nothing is persisted and nothing is shared
// between calls.
package holdings

import (
	"strings"

	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/model"
)

// Kind is the position regime of a group.
type Kind int

const (
	Cash Kind = iota
	MarginFinancing
	MarginShort
)

// String returns the API name of the kind.
func (k Kind) String() string {
	switch k {
	case MarginFinancing:
		return model.KindMarginFinancing
	case MarginShort:
		return model.KindMarginShort
	default:
		return model.KindCash
	}
}

// ParseKind maps an API kind name back to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case model.KindCash:
		return Cash, true
	case model.KindMarginFinancing:
		return MarginFinancing, true
	case model.KindMarginShort:
		return MarginShort, true
	}
	return Cash, false
}

// Direction is the side of a transaction.
type Direction int

const (
	Unknown Direction = iota
	Buy
	Sell
)

// Ledger type tags are free text written by the order-entry screen, in
// Chinese (現股買進, 融資賣出, 融券賣出 ...) or English ("margin financing buy").
var (
	financingMarkers = []string{"融資", "margin financing"}
	shortMarkers     = []string{"融券", "margin short"}
	buyMarkers       = []string{"買進", "買入", "buy", "cover"}
	sellMarkers      = []string{"賣出", "賣", "sell"}
)

// Classify derives the position kind and direction from a ledger type tag.
// A tag with no recognisable side yields Unknown and is ignored by Scan.
func Classify(transactionType string) (Kind, Direction) {
	tag := strings.ToLower(transactionType)

	kind := Cash
	switch {
	case containsAny(tag, financingMarkers):
		kind = MarginFinancing
	case containsAny(tag, shortMarkers):
		kind = MarginShort
	}

	switch {
	case containsAny(tag, buyMarkers):
		return kind, Buy
	case containsAny(tag, sellMarkers):
		return kind, Sell
	}
	return kind, Unknown
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// GroupKey identifies one position group. Transactions without a
// securities account share the Account value "null".
type GroupKey struct {
	Account  string
	Code     string
	Kind     Kind
	Domestic bool
}

func (k GroupKey) String() string {
	class := "FOREIGN"
	if k.Domestic {
		class = "TWD"
	}
	return k.Account + "|" + k.Code + "|" + k.Kind.String() + "|" + class
}

// KeyOf returns the group a transaction belongs to.
func KeyOf(t model.Transaction) GroupKey {
	kind, _ := Classify(t.TransactionType)
	return GroupKey{
		Account:  t.AccountKey(),
		Code:     t.StockCode,
		Kind:     kind,
		Domestic: t.IsDomestic(),
	}
}
