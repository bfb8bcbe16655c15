// Package dialogue turns classified intents into replies.
//
// The Router owns one conversation: it binds the shared read-only catalog and
// delivery area to the conversation's ledger, routes every utterance through
// the intent cascade and falls back to the LLM collaborator for anything the
// cascade cannot claim. The router never lets a collaborator failure mutate
// the ledger; free-form turns are read-only by construction.
package dialogue

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arozco/mesero/catalog"
	"github.com/arozco/mesero/delivery"
	"github.com/arozco/mesero/intent"
	"github.com/arozco/mesero/internal/strutil"
	"github.com/arozco/mesero/order"
	"github.com/arozco/mesero/resolver"
)

// Chat roles on the collaborator wire.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of collaborator context.
type Message struct {
	Role    string
	Content string
}

// Collaborator is the LLM fallback for utterances the rule cascade cannot
// claim. Implementations must honor the context deadline; the router treats
// any error as a degraded turn and answers with the fixed apology.
type Collaborator interface {
	// Moderate reports whether the text violates content policy.
	Moderate(ctx context.Context, text string) (bool, error)
	// ClassifyRelevance reports whether the text is about the restaurant.
	ClassifyRelevance(ctx context.Context, text string) (bool, error)
	// Respond generates a free-form reply from the conversation history.
	Respond(ctx context.Context, history []Message) (string, error)
}

// Result is the outcome of one routed utterance.
type Result struct {
	Reply       string
	Intent      intent.Type
	Confirmed   *order.ConfirmedOrder // set when this turn confirmed an order
	CollabError bool                  // set when the collaborator failed and the apology was used
}

const maxHistory = 20

const systemPrompt = "You are the ordering assistant of a small restaurant. " +
	"Answer briefly and only about the menu, prices, delivery areas and the guest's order. " +
	"If asked about anything else, politely steer the conversation back to the restaurant."

// Router routes one conversation. Not safe for concurrent use; the transport
// layer serializes utterances per session.
type Router struct {
	catalog *catalog.Catalog
	area    *delivery.Area
	ledger  *order.Ledger
	sink    order.Sink
	collab  Collaborator // nil disables the free-form fallback
	history []Message
}

// NewRouter creates a router for one conversation. The collaborator history
// is seeded with the menu and delivery context so free-form answers stay
// grounded in what the restaurant actually serves.
func NewRouter(c *catalog.Catalog, a *delivery.Area, l *order.Ledger, sink order.Sink, collab Collaborator) *Router {
	r := &Router{
		catalog: c,
		area:    a,
		ledger:  l,
		sink:    sink,
		collab:  collab,
	}
	r.history = []Message{
		{Role: RoleSystem, Content: systemPrompt},
		{Role: RoleSystem, Content: contextMessage(c, a)},
	}
	return r
}

func contextMessage(c *catalog.Catalog, a *delivery.Area) string {
	var b strings.Builder
	b.WriteString("Menu (name, category, price, serving size):\n")
	for _, it := range c.Items() {
		fmt.Fprintf(&b, "%s | %s | $%s | %s\n", it.Name, it.Category, it.Price.StringFixed(2), it.ServingSize)
	}
	b.WriteString("Delivery localities: ")
	b.WriteString(strings.Join(a.Localities(), ", "))
	return b.String()
}

// Handle routes one utterance and returns the reply. It never returns an
// error: every failure path degrades to a fixed user-facing message.
func (r *Router) Handle(ctx context.Context, text string) Result {
	in := intent.Extract(text)

	var reply string
	res := Result{Intent: in.Type}
	switch in.Type {
	case intent.TypeShowMenu:
		reply = FormatMenu(r.catalog)
	case intent.TypeShowCategory:
		reply = FormatCategory(r.catalog, in.Category)
	case intent.TypeListDeliveryAreas:
		reply = FormatDeliveryAreas(r.area)
	case intent.TypeCheckDelivery:
		reply = FormatDeliveryCheck(in.Locality, r.area.Candidates(in.Locality))
	case intent.TypePriceQuery:
		reply = FormatPrice(resolver.Resolve(in.ItemPhrase, r.catalog), in.ItemPhrase)
	case intent.TypeAddItem:
		reply = r.handleAdds(in.Adds)
	case intent.TypeRemoveItem:
		reply = r.handleRemove(in.ItemPhrase)
	case intent.TypeModifyItem:
		reply = r.handleModify(in.ItemPhrase, in.Quantity)
	case intent.TypeShowOrder:
		reply = FormatOrder(r.ledger)
	case intent.TypeConfirmOrder:
		reply, res.Confirmed = r.handleConfirm(ctx)
	case intent.TypeCancelOrder:
		reply = r.handleCancel()
	default:
		reply, res.CollabError = r.handleFreeForm(ctx, text)
	}

	r.remember(text, reply)
	res.Reply = reply
	return res
}

// handleAdds applies each requested line independently so one unknown item
// does not void the rest of the utterance. The running total is appended once
// when at least one line landed.
func (r *Router) handleAdds(adds []intent.AddRequest) string {
	var parts []string
	added := 0
	for _, a := range adds {
		result, err := r.ledger.Add(a.Phrase, a.Quantity)
		if err != nil {
			parts = append(parts, formatOrderError(a.Phrase, err))
			continue
		}
		added++
		parts = append(parts, fmt.Sprintf("Added %d x %s (%s each).",
			a.Quantity, title(result.Line.Item.Name), money(result.Line.Item.Price)))
	}
	if added > 0 {
		parts = append(parts, fmt.Sprintf("Order total: %s.", money(r.ledger.Total())))
	}
	return strings.Join(parts, "\n")
}

func (r *Router) handleRemove(phrase string) string {
	result, err := r.ledger.Remove(phrase)
	if err != nil {
		return formatOrderError(phrase, err)
	}
	return fmt.Sprintf("Removed %s from your order. Order total: %s.",
		title(result.Line.Item.Name), money(result.Total))
}

func (r *Router) handleModify(phrase string, quantity int) string {
	result, err := r.ledger.Modify(phrase, quantity)
	if err != nil {
		return formatOrderError(phrase, err)
	}
	if result.Removed {
		return fmt.Sprintf("Removed %s from your order. Order total: %s.",
			title(result.Line.Item.Name), money(result.Total))
	}
	return fmt.Sprintf("Changed %s to %d. Order total: %s.",
		title(result.Line.Item.Name), result.Line.Quantity, money(result.Total))
}

func (r *Router) handleConfirm(ctx context.Context) (string, *order.ConfirmedOrder) {
	result, err := r.ledger.Confirm(ctx, r.sink)
	if err == order.ErrEmptyLedger {
		return "You have no order to confirm.", nil
	}
	if err != nil {
		slog.Error("confirm failed", "error", err)
		return "Sorry, I couldn't save your order. Your order is still here, please try again.", nil
	}
	return fmt.Sprintf("Your order is confirmed! Total: %s. Thank you!",
		money(result.Order.Total)), result.Order
}

func (r *Router) handleCancel() string {
	if _, err := r.ledger.Cancel(); err == order.ErrEmptyLedger {
		return "You have no order to cancel."
	}
	return "Your order has been cancelled."
}

// handleFreeForm defers an unclassified utterance to the collaborator:
// moderation first, then relevance, then a grounded reply. Any failure
// answers with the apology and reports the degraded turn to the caller.
func (r *Router) handleFreeForm(ctx context.Context, text string) (string, bool) {
	if r.collab == nil {
		return Apology, false
	}

	flagged, err := r.collab.Moderate(ctx, text)
	if err != nil {
		slog.Error("moderation failed", "error", err, "input", strutil.Truncate(text, 40))
		return Apology, true
	}
	if flagged {
		return ModerationNotice, false
	}

	relevant, err := r.collab.ClassifyRelevance(ctx, text)
	if err != nil {
		slog.Error("relevance check failed", "error", err, "input", strutil.Truncate(text, 40))
		return Apology, true
	}
	if !relevant {
		return OffTopicNotice, false
	}

	history := append(r.history, Message{Role: RoleUser, Content: text})
	reply, err := r.collab.Respond(ctx, history)
	if err != nil {
		slog.Error("collaborator respond failed", "error", err, "input", strutil.Truncate(text, 40))
		return Apology, true
	}
	return reply, false
}

// remember appends the turn to the collaborator history, keeping the two
// seeded context messages and trimming the oldest turns past the cap.
func (r *Router) remember(userText, reply string) {
	r.history = append(r.history,
		Message{Role: RoleUser, Content: userText},
		Message{Role: RoleAssistant, Content: reply},
	)
	if len(r.history) > maxHistory {
		seeded := r.history[:2]
		rest := r.history[len(r.history)-(maxHistory-2):]
		r.history = append(append([]Message{}, seeded...), rest...)
	}
}
