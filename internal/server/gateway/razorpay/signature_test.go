package razorpay

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignature_KnownVector(t *testing.T) {
	sig := Signature("secret", "order_1", "pay_1")
	assert.Equal(t, "52115a0d3400de9e86aade1f1b6eba9e8974604f4e267a9e9a16633a4c8dd2cb", sig)
	assert.NoError(t, VerifyPaymentSignature("secret", "order_1", "pay_1", sig))
}

func TestVerifyPaymentSignature_Rejects(t *testing.T) {
	sig := Signature("secret", "order_1", "pay_1")

	assert.ErrorIs(t, VerifyPaymentSignature("other", "order_1", "pay_1", sig), ErrSignatureMismatch)
	assert.ErrorIs(t, VerifyPaymentSignature("secret", "order_2", "pay_1", sig), ErrSignatureMismatch)
	assert.ErrorIs(t, VerifyPaymentSignature("secret", "order_1", "pay_2", sig), ErrSignatureMismatch)
	assert.ErrorIs(t, VerifyPaymentSignature("secret", "order_1", "pay_1", ""), ErrSignatureMismatch)
	assert.ErrorIs(t, VerifyPaymentSignature("secret", "order_1", "pay_1", sig[:63]), ErrSignatureMismatch)
}

func TestVerifyPaymentSignature_AnyBitFlipFails(t *testing.T) {
	sig := Signature("secret", "order_1", "pay_1")
	raw, err := hex.DecodeString(sig)
	require.NoError(t, err)

	for i := range raw {
		for bit := 0; bit < 8; bit++ {
			flipped := append([]byte(nil), raw...)
			flipped[i] ^= 1 << bit
			err := VerifyPaymentSignature("secret", "order_1", "pay_1", hex.EncodeToString(flipped))
			assert.ErrorIs(t, err, ErrSignatureMismatch, "byte %d bit %d", i, bit)
		}
	}
}

func TestClientVerifyUsesKeySecret(t *testing.T) {
	c := NewClient("http://unused", "key", "the-secret", 0, 0)
	assert.NoError(t, c.VerifyPaymentSignature("o", "p", Signature("the-secret", "o", "p")))
	assert.Error(t, c.VerifyPaymentSignature("o", "p", Signature("key", "o", "p")))
}
