package eip712

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTypedData(from string) TypedData {
	return TypedData{
		PrimaryType: PrimaryType,
		Domain: Domain{
			Name:              "USD Coin",
			Version:           "2",
			ChainID:           8453,
			VerifyingContract: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		},
		Message: Authorization{
			From:        from,
			To:          "0x1111111111111111111111111111111111111111",
			Value:       "10290000",
			ValidAfter:  "0",
			ValidBefore: "1900000000",
			Nonce:       "0x" + "ab" + "00000000000000000000000000000000000000000000000000000000000000",
		},
	}
}

func TestSignAndRecover(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(key.PublicKey)

	td := sampleTypedData(addr.Hex())
	sig, err := Sign(td, key)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	assert.Contains(t, []byte{27, 28}, sig[64])

	got, err := Recover(td, sig)
	require.NoError(t, err)
	assert.Equal(t, addr, got)

	raw := make([]byte, 65)
	copy(raw, sig)
	raw[64] -= 27
	got, err = Recover(td, raw)
	require.NoError(t, err)
	assert.Equal(t, addr, got)
}

func TestRecover_TamperedValue(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(key.PublicKey)

	td := sampleTypedData(addr.Hex())
	sig, err := Sign(td, key)
	require.NoError(t, err)

	td.Message.Value = "99999999"
	got, err := Recover(td, sig)
	if err == nil {
		assert.NotEqual(t, addr, got)
	}
}

func TestDigest_BoundToChain(t *testing.T) {
	td := sampleTypedData("0x2222222222222222222222222222222222222222")
	base, err := Digest(td)
	require.NoError(t, err)

	td.Domain.ChainID = 137
	polygon, err := Digest(td)
	require.NoError(t, err)

	assert.NotEqual(t, base, polygon)
}

func TestDigest_Rejects(t *testing.T) {
	td := sampleTypedData("0x2222222222222222222222222222222222222222")
	td.Domain.Name = ""
	_, err := Digest(td)
	assert.ErrorIs(t, err, ErrIncompleteDomain)

	td = sampleTypedData("not-an-address")
	_, err = Digest(td)
	assert.Error(t, err)

	td = sampleTypedData("0x2222222222222222222222222222222222222222")
	td.Message.Value = "-1"
	_, err = Digest(td)
	assert.Error(t, err)

	_, err = Recover(td, []byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestParseNonce(t *testing.T) {
	n, err := ParseNonce("0x01")
	require.NoError(t, err)
	assert.Equal(t, byte(1), n[31])

	_, err = ParseNonce("0xzz")
	assert.Error(t, err)
}
