package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Intent
	}{
		{
			"show menu",
			"Show me the menu, please!",
			Intent{Type: TypeShowMenu},
		},
		{
			"show menu spanish",
			"¿Me muestras el menú?",
			Intent{Type: TypeShowMenu},
		},
		{
			"show category via menu keyword",
			"show me the dessert menu",
			Intent{Type: TypeShowCategory, Category: "dessert"},
		},
		{
			"show category without menu keyword",
			"what desserts do you have?",
			Intent{Type: TypeShowCategory, Category: "dessert"},
		},
		{
			"show category spanish alias",
			"¿qué bebidas tienes?",
			Intent{Type: TypeShowCategory, Category: "beverage"},
		},
		{
			"list delivery areas",
			"Which cities do you deliver to?",
			Intent{Type: TypeListDeliveryAreas},
		},
		{
			"delivery without locality lists areas",
			"do you do delivery?",
			Intent{Type: TypeListDeliveryAreas},
		},
		{
			"check delivery",
			"Do you deliver to Springfield?",
			Intent{Type: TypeCheckDelivery, Locality: "springfield"},
		},
		{
			"check delivery spanish",
			"¿Hacen entregas en San Antonio?",
			Intent{Type: TypeCheckDelivery, Locality: "san antonio"},
		},
		{
			"price query",
			"What is the price of the burger?",
			Intent{Type: TypePriceQuery, ItemPhrase: "burger"},
		},
		{
			"price query spanish",
			"¿cuánto cuesta el burrito? precio del burrito",
			Intent{Type: TypePriceQuery, ItemPhrase: "burrito"},
		},
		{
			"single add",
			"I want 2 pancakes",
			Intent{Type: TypeAddItem, Adds: []AddRequest{{Quantity: 2, Phrase: "pancakes"}}},
		},
		{
			"multiple adds",
			"2 pancakes and 1 coffee",
			Intent{Type: TypeAddItem, Adds: []AddRequest{
				{Quantity: 2, Phrase: "pancakes"},
				{Quantity: 1, Phrase: "coffee"},
			}},
		},
		{
			"adds with filler",
			"give me 2 orders of fries, 3 units of coffee",
			Intent{Type: TypeAddItem, Adds: []AddRequest{
				{Quantity: 2, Phrase: "fries"},
				{Quantity: 3, Phrase: "coffee"},
			}},
		},
		{
			"unparseable segment is skipped",
			"2 pancakes and some juice",
			Intent{Type: TypeAddItem, Adds: []AddRequest{{Quantity: 2, Phrase: "pancakes"}}},
		},
		{
			"remove beats quantity rule",
			"remove 2 pancakes",
			Intent{Type: TypeRemoveItem, ItemPhrase: "2 pancakes"},
		},
		{
			"remove with article",
			"Remove the pancakes.",
			Intent{Type: TypeRemoveItem, ItemPhrase: "pancakes"},
		},
		{
			"remove spanish",
			"quita el burrito",
			Intent{Type: TypeRemoveItem, ItemPhrase: "burrito"},
		},
		{
			"modify",
			"change the pancakes to 5",
			Intent{Type: TypeModifyItem, ItemPhrase: "pancakes", Quantity: 5},
		},
		{
			"modify spanish",
			"cambia los pancakes a 3",
			Intent{Type: TypeModifyItem, ItemPhrase: "pancakes", Quantity: 3},
		},
		{
			"show order",
			"show my order",
			Intent{Type: TypeShowOrder},
		},
		{
			"confirm order",
			"Confirm order",
			Intent{Type: TypeConfirmOrder},
		},
		{
			"cancel order spanish",
			"¡Cancelar pedido!",
			Intent{Type: TypeCancelOrder},
		},
		{
			"greeting is unclassified",
			"hello there",
			Intent{Type: TypeUnclassified},
		},
		{
			"off topic is unclassified",
			"tell me about the weather",
			Intent{Type: TypeUnclassified},
		},
		{
			"empty is unclassified",
			"   ",
			Intent{Type: TypeUnclassified},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.text)
			tt.want.Raw = tt.text
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractPriceWithoutItemFallsThrough(t *testing.T) {
	// "price" alone carries no item phrase, so the price rule must not claim
	// the utterance.
	got := Extract("price please")
	assert.Equal(t, TypeUnclassified, got.Type)
}

func TestNormalizeTextKeepsAccents(t *testing.T) {
	require.Equal(t, "menú por favor", normalizeText("  Menú   por FAVOR?! "))
}
