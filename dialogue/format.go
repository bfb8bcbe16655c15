package dialogue

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/arozco/mesero/catalog"
	"github.com/arozco/mesero/delivery"
	"github.com/arozco/mesero/order"
	"github.com/arozco/mesero/resolver"
)

// Fixed user-facing messages. Apology is what every collaborator failure
// degrades to; it must never leak the underlying error.
const (
	Apology          = "Sorry, I couldn't process that. Could you rephrase it with something related to our restaurant?"
	ModerationNotice = "Please keep the language respectful."
	OffTopicNotice   = "I can help with our menu, prices, delivery areas and your order. What would you like?"
)

func title(s string) string {
	return cases.Title(language.AmericanEnglish).String(s)
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// FormatMenu renders the whole menu grouped by category.
func FormatMenu(c *catalog.Catalog) string {
	var b strings.Builder
	b.WriteString("Our menu:\n")
	for _, cat := range c.Categories() {
		fmt.Fprintf(&b, "\n%s\n", title(cat))
		for _, it := range c.ByCategory(cat) {
			fmt.Fprintf(&b, "- %s (%s) %s\n", title(it.Name), it.ServingSize, money(it.Price))
		}
	}
	b.WriteString("\nAsk me about a category for details, or order with \"2 pancakes and 1 coffee\".")
	return b.String()
}

// FormatCategory renders one category of the menu.
func FormatCategory(c *catalog.Catalog, category string) string {
	items := c.ByCategory(category)
	if len(items) == 0 {
		return fmt.Sprintf("We have nothing under %s right now.", title(category))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n", title(category))
	for _, it := range items {
		fmt.Fprintf(&b, "- %s (%s) %s\n", title(it.Name), it.ServingSize, money(it.Price))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatOrder renders the running order with its recomputed total.
func FormatOrder(l *order.Ledger) string {
	lines := l.Snapshot()
	if len(lines) == 0 {
		return "You have no order in progress."
	}
	var b strings.Builder
	b.WriteString("Your current order:\n")
	for _, line := range lines {
		fmt.Fprintf(&b, "- %d x %s %s\n", line.Quantity, title(line.Item.Name), money(line.Subtotal()))
	}
	fmt.Fprintf(&b, "Total: %s", money(l.Total()))
	return b.String()
}

// FormatDeliveryAreas lists every serviceable locality.
func FormatDeliveryAreas(a *delivery.Area) string {
	names := a.Localities()
	titled := make([]string, len(names))
	for i, n := range names {
		titled[i] = title(n)
	}
	return "We deliver to: " + strings.Join(titled, ", ") + "."
}

// FormatDeliveryCheck renders the answer to "do you deliver in X". When the
// permissive containment match hits several localities they are all listed;
// the bot never guesses which one was meant.
func FormatDeliveryCheck(locality string, candidates []string) string {
	switch len(candidates) {
	case 0:
		return fmt.Sprintf("Sorry, we don't deliver to %s at the moment.", title(locality))
	case 1:
		return fmt.Sprintf("Yes, we deliver to %s.", title(candidates[0]))
	default:
		titled := make([]string, len(candidates))
		for i, c := range candidates {
			titled[i] = title(c)
		}
		return fmt.Sprintf("Yes, around %s we deliver to: %s.", title(locality), strings.Join(titled, ", "))
	}
}

// FormatPrice renders the answer to a price query.
func FormatPrice(res resolver.Resolution, phrase string) string {
	switch res.Kind {
	case resolver.KindExact, resolver.KindFuzzy:
		return fmt.Sprintf("%s (%s) costs %s.", title(res.Item.Name), res.Item.ServingSize, money(res.Item.Price))
	case resolver.KindSuggestion:
		return formatSuggestions(phrase, res.Suggestions)
	default:
		return fmt.Sprintf("I couldn't find %q on our menu.", phrase)
	}
}

func formatSuggestions(phrase string, suggestions []string) string {
	titled := make([]string, len(suggestions))
	for i, s := range suggestions {
		titled[i] = title(s)
	}
	return fmt.Sprintf("I couldn't find %q. Did you mean: %s?", phrase, strings.Join(titled, ", "))
}

// formatOrderError renders the typed ledger errors as user-facing text.
func formatOrderError(phrase string, err error) string {
	switch e := err.(type) {
	case *order.NotFoundError:
		if len(e.Suggestions) > 0 {
			return formatSuggestions(e.Phrase, e.Suggestions)
		}
		return fmt.Sprintf("I couldn't find %q on our menu.", e.Phrase)
	case *order.CapacityError:
		return fmt.Sprintf("Sorry, we can serve at most %d of one item per order (you asked for %d).", order.MaxQuantity, e.Quantity)
	case *order.PolicyError:
		return fmt.Sprintf("Sorry, %s can't be ordered through the chat.", title(e.Item))
	}
	switch err {
	case order.ErrInvalidQuantity:
		return fmt.Sprintf("How many %s would you like?", phrase)
	case order.ErrNotInOrder:
		return fmt.Sprintf("%s is not in your order.", title(phrase))
	case order.ErrEmptyLedger:
		return "You have no order in progress."
	}
	return Apology
}
