// Package intent classifies one user utterance into a tagged intent.
//
// Classification is a deterministic cascade: an ordered list of rules is
// evaluated top to bottom and the first match wins. Several patterns overlap
// (a quantity phrase can also mention "price"), so the ordering is
// load-bearing; later rules assume earlier ones already failed. Utterances
// that no rule claims come back as Unclassified and are deferred to the
// dialogue collaborator.
package intent

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/arozco/mesero/catalog"
	"github.com/arozco/mesero/internal/strutil"
)

// Type tags the classified purpose of one utterance.
type Type string

const (
	TypeShowMenu          Type = "show_menu"
	TypeShowCategory      Type = "show_category"
	TypeCheckDelivery     Type = "check_delivery"
	TypeListDeliveryAreas Type = "list_delivery_areas"
	TypePriceQuery        Type = "price_query"
	TypeAddItem           Type = "add_item"
	TypeRemoveItem        Type = "remove_item"
	TypeModifyItem        Type = "modify_item"
	TypeShowOrder         Type = "show_order"
	TypeCancelOrder       Type = "cancel_order"
	TypeConfirmOrder      Type = "confirm_order"
	TypeUnclassified      Type = "unclassified"
)

// AddRequest is one "<quantity> <item phrase>" occurrence. An utterance may
// carry several; the caller applies them sequentially.
type AddRequest struct {
	Quantity int
	Phrase   string
}

// Intent is the classification result for one utterance. Only the fields
// relevant to Type are populated. Produced fresh per utterance, never stored.
type Intent struct {
	Type       Type
	Category   string       // TypeShowCategory
	Locality   string       // TypeCheckDelivery
	ItemPhrase string       // TypePriceQuery, TypeRemoveItem, TypeModifyItem
	Quantity   int          // TypeModifyItem
	Adds       []AddRequest // TypeAddItem
	Raw        string       // original utterance, always set
}

// Pre-compiled patterns. The bot serves a bilingual clientele, so each
// keyword set carries English and Spanish forms.
var (
	quantityItemRegex = regexp.MustCompile(`(\d+)\s+(\p{L}[\p{L} ]*)`)
	segmentSplitRegex = regexp.MustCompile(`\s+(?:and|y)\s+|[,.;]`)

	modifyRegex = regexp.MustCompile(`^(?:change|update|make|cambia|cambiar|pon)\s+(?:the\s+|my\s+|el\s+|la\s+|los\s+|las\s+|mi\s+)?(.+?)\s+(?:to|a)\s+(\d+)$`)
	removeRegex = regexp.MustCompile(`^(?:remove|delete|drop|quita|quitar|elimina|saca)\s+(?:the\s+|my\s+|el\s+|la\s+|los\s+|las\s+|mi\s+)?(.+)$`)

	// \b is ASCII-only in RE2, so "menú" cannot take a trailing boundary.
	menuRegex   = regexp.MustCompile(`\b(?:menu\b|menú|carta\b)`)
	browseRegex = regexp.MustCompile(`\b(?:show|see|what|which|have|got|any|list|ver|muestra|hay|tienes|qué|que)\b`)

	citiesRegex   = regexp.MustCompile(`\b(?:cities|city|towns|areas|ciudades|ciudad|zonas)\b`)
	deliveryRegex = regexp.MustCompile(`\b(?:delivery|deliveries|deliver|shipping|ship|entrega|entregas|entregan|envio|envío|envían|reparto|reparten)\b`)
	localityRegex = regexp.MustCompile(`\b(?:in|to|en)\s+(\p{L}[\p{L} ]*)$`)

	priceRegex   = regexp.MustCompile(`\b(?:price|cost|costs|precio|costo|cuesta|vale)\b`)
	priceOfRegex = regexp.MustCompile(`\b(?:of|for|de|del)\s+(?:the\s+|a\s+|an\s+|el\s+|la\s+|los\s+|las\s+|un\s+|una\s+)?(\p{L}[\p{L} ]*)$`)
)

// Spanish aliases for the fixed catalog categories.
var categoryAliases = map[string]string{
	"desayuno":   "breakfast",
	"almuerzo":   "lunch",
	"comida":     "lunch",
	"cena":       "dinner",
	"entrada":    "appetizer",
	"entradas":   "appetizer",
	"postre":     "dessert",
	"postres":    "dessert",
	"bebida":     "beverage",
	"bebidas":    "beverage",
	"guarnicion": "side",
}

// Order-control phrases are matched exactly (after normalization) so they
// cannot be shadowed by looser patterns.
var controlPhrases = map[string]Type{
	"show order":       TypeShowOrder,
	"show my order":    TypeShowOrder,
	"ver pedido":       TypeShowOrder,
	"ver mi pedido":    TypeShowOrder,
	"mi pedido":        TypeShowOrder,
	"cancel order":     TypeCancelOrder,
	"cancel my order":  TypeCancelOrder,
	"cancelar pedido":  TypeCancelOrder,
	"confirm order":    TypeConfirmOrder,
	"confirm my order": TypeConfirmOrder,
	"confirmar pedido": TypeConfirmOrder,
}

type rule struct {
	name  string
	match func(text string) (Intent, bool)
}

// rules is the classifier. Order is the precedence contract:
// line-mutation phrasings first (so "remove 2 pancakes" is not read as an
// add), then the quantity+item pattern, then menu browsing, delivery,
// price and finally the exact control phrases.
var rules = []rule{
	{"modify_item", matchModify},
	{"remove_item", matchRemove},
	{"quantity_item", matchQuantityItems},
	{"show_menu", matchMenu},
	{"show_category", matchCategory},
	{"list_delivery_areas", matchListAreas},
	{"check_delivery", matchDelivery},
	{"price_query", matchPrice},
	{"order_control", matchControl},
}

// Extract classifies one utterance. It never fails; anything the cascade
// cannot claim is returned as Unclassified with the raw text attached.
func Extract(text string) Intent {
	norm := normalizeText(text)
	for _, r := range rules {
		if in, ok := r.match(norm); ok {
			in.Raw = text
			slog.Debug("intent matched",
				"rule", r.name,
				"type", string(in.Type),
				"input", strutil.Truncate(norm, 40))
			return in
		}
	}
	return Intent{Type: TypeUnclassified, Raw: text}
}

// normalizeText lowercases, collapses whitespace and strips surrounding
// punctuation. Accented characters are preserved so Spanish keywords match;
// only the resolver strips to ASCII.
func normalizeText(text string) string {
	t := strings.ToLower(text)
	t = strings.Join(strings.Fields(t), " ")
	return strings.Trim(t, " ?!¿¡.")
}

func matchModify(text string) (Intent, bool) {
	m := modifyRegex.FindStringSubmatch(text)
	if m == nil {
		return Intent{}, false
	}
	qty, err := strconv.Atoi(m[2])
	if err != nil {
		return Intent{}, false
	}
	return Intent{Type: TypeModifyItem, ItemPhrase: strings.TrimSpace(m[1]), Quantity: qty}, true
}

func matchRemove(text string) (Intent, bool) {
	m := removeRegex.FindStringSubmatch(text)
	if m == nil {
		return Intent{}, false
	}
	return Intent{Type: TypeRemoveItem, ItemPhrase: strings.TrimSpace(m[1])}, true
}

// matchQuantityItems collects every "<integer> <phrase>" occurrence across
// connector-separated segments. Segments without a leading integer are
// skipped; one parsed segment is enough to claim the utterance.
func matchQuantityItems(text string) (Intent, bool) {
	var adds []AddRequest
	for _, segment := range segmentSplitRegex.Split(text, -1) {
		m := quantityItemRegex.FindStringSubmatch(segment)
		if m == nil {
			continue
		}
		qty, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		phrase := trimPhrase(m[2])
		if phrase == "" {
			continue
		}
		adds = append(adds, AddRequest{Quantity: qty, Phrase: phrase})
	}
	if len(adds) == 0 {
		return Intent{}, false
	}
	return Intent{Type: TypeAddItem, Adds: adds}, true
}

// trimPhrase drops filler tokens that commonly lead the item phrase,
// as in "2 orders of fries".
func trimPhrase(phrase string) string {
	words := strings.Fields(phrase)
	for len(words) > 0 {
		switch words[0] {
		case "orders", "order", "of", "x", "de", "units", "unit":
			words = words[1:]
		default:
			return strings.Join(words, " ")
		}
	}
	return ""
}

func matchMenu(text string) (Intent, bool) {
	if !menuRegex.MatchString(text) {
		return Intent{}, false
	}
	if cat := findCategory(text); cat != "" {
		return Intent{Type: TypeShowCategory, Category: cat}, true
	}
	return Intent{Type: TypeShowMenu}, true
}

func matchCategory(text string) (Intent, bool) {
	cat := findCategory(text)
	if cat == "" || !browseRegex.MatchString(text) {
		return Intent{}, false
	}
	return Intent{Type: TypeShowCategory, Category: cat}, true
}

func findCategory(text string) string {
	for _, word := range strings.Fields(text) {
		candidate := resolveCategoryWord(word)
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

func resolveCategoryWord(word string) string {
	if alias, ok := categoryAliases[word]; ok {
		return alias
	}
	singular := strings.TrimSuffix(word, "s")
	for _, cat := range catalog.AllowedCategories {
		if word == cat || singular == cat {
			return cat
		}
	}
	return ""
}

func matchListAreas(text string) (Intent, bool) {
	if citiesRegex.MatchString(text) && deliveryRegex.MatchString(text) {
		return Intent{Type: TypeListDeliveryAreas}, true
	}
	return Intent{}, false
}

func matchDelivery(text string) (Intent, bool) {
	if !deliveryRegex.MatchString(text) {
		return Intent{}, false
	}
	if m := localityRegex.FindStringSubmatch(text); m != nil {
		return Intent{Type: TypeCheckDelivery, Locality: strings.TrimSpace(m[1])}, true
	}
	return Intent{Type: TypeListDeliveryAreas}, true
}

func matchPrice(text string) (Intent, bool) {
	if !priceRegex.MatchString(text) {
		return Intent{}, false
	}
	m := priceOfRegex.FindStringSubmatch(text)
	if m == nil {
		// "price" without an extractable item falls through to later rules.
		return Intent{}, false
	}
	return Intent{Type: TypePriceQuery, ItemPhrase: strings.TrimSpace(m[1])}, true
}

func matchControl(text string) (Intent, bool) {
	if t, ok := controlPhrases[text]; ok {
		return Intent{Type: t}, true
	}
	return Intent{}, false
}
