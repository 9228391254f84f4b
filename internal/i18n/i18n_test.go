package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocalize(t *testing.T) {
	assert.Equal(t, "Product not found.", Localize("en-US", "product_not_found", "fallback", nil))
	assert.Equal(t, "Produk tidak ditemukan.", Localize("id,en;q=0.8", "product_not_found", "fallback", nil))
	assert.Equal(t, "A business can have at most 2 vendors.",
		Localize("en", "vendor_limit", "fallback", map[string]interface{}{"Max": 2}))
}

func TestLocalize_UnknownIDUsesFallback(t *testing.T) {
	assert.Equal(t, "plain fallback", Localize("en", "no_such_message", "plain fallback", nil))
}
