package wallet

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"scanpay/internal/eip712"
	"scanpay/internal/metrics"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCaller struct {
	mock.Mock
}

func (m *MockCaller) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	args := m.Called(msg)
	if b, ok := args.Get(0).([]byte); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

func encodeUint(n int64) []byte {
	return common.LeftPadBytes(big.NewInt(n).Bytes(), 32)
}

func TestEVMBalances_Balance(t *testing.T) {
	owner := common.HexToAddress("0x2222222222222222222222222222222222222222")
	token := common.HexToAddress(KnownChains[ChainBase].TokenAddress)
	selector := crypto.Keccak256([]byte("balanceOf(address)"))[:4]

	tests := []struct {
		name      string
		chainID   int64
		setupMock func(*MockCaller)
		want      string
		wantErr   error
	}{
		{
			name:    "reads six decimal balance",
			chainID: ChainBase,
			setupMock: func(m *MockCaller) {
				m.On("CallContract", mock.MatchedBy(func(msg ethereum.CallMsg) bool {
					return *msg.To == token && assert.ObjectsAreEqual(selector, msg.Data[:4])
				})).Return(encodeUint(10_500_000), nil)
			},
			want: "10.5",
		},
		{
			name:      "unknown chain",
			chainID:   1,
			setupMock: func(m *MockCaller) {},
			wantErr:   ErrUnsupportedChain,
		},
		{
			name:    "rpc failure",
			chainID: ChainBase,
			setupMock: func(m *MockCaller) {
				m.On("CallContract", mock.Anything).Return(nil, errors.New("connection refused"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caller := new(MockCaller)
			tt.setupMock(caller)

			b, err := NewEVMBalances(map[int64]ContractCaller{ChainBase: caller}, KnownChains, metrics.NoopRecorder{})
			require.NoError(t, err)

			got, err := b.Balance(context.Background(), owner, tt.chainID)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.want == "":
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got.String())
			}
			caller.AssertExpectations(t)
		})
	}
}

func TestEVMBalances_MissingClient(t *testing.T) {
	b, err := NewEVMBalances(map[int64]ContractCaller{}, KnownChains, nil)
	require.NoError(t, err)

	_, err = b.Balance(context.Background(), common.Address{}, ChainPolygon)
	assert.ErrorIs(t, err, ErrUnsupportedChain)
}

func TestKeySigner_SignAuthorization(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := NewKeySignerFromKey(key)

	chain := KnownChains[ChainBase]
	td := eip712.TypedData{
		PrimaryType: eip712.PrimaryType,
		Domain: eip712.Domain{
			Name:              chain.TokenName,
			Version:           chain.TokenVersion,
			ChainID:           chain.ID,
			VerifyingContract: chain.TokenAddress,
		},
		Message: eip712.Authorization{
			From:        signer.Address().Hex(),
			To:          "0x1111111111111111111111111111111111111111",
			Value:       "1000000",
			ValidAfter:  "0",
			ValidBefore: "1900000000",
			Nonce:       "0x01",
		},
	}

	sig, err := signer.SignAuthorization(context.Background(), td)
	require.NoError(t, err)

	recovered, err := eip712.Recover(td, sig)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), recovered)

	td.Message.From = "0x3333333333333333333333333333333333333333"
	_, err = signer.SignAuthorization(context.Background(), td)
	assert.ErrorIs(t, err, ErrSignerMismatch)
}

func TestNewKeySigner(t *testing.T) {
	_, err := NewKeySigner("0xnothex")
	assert.ErrorIs(t, err, ErrInvalidKey)

	s, err := NewKeySigner("0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	require.NoError(t, err)
	assert.Equal(t, "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23", s.Address().Hex())
}

func TestBaseUnits(t *testing.T) {
	assert.Equal(t, "10290000", ToBaseUnits(decimal.RequireFromString("10.29"), 6).String())
	assert.Equal(t, "1", ToBaseUnits(decimal.RequireFromString("0.0000001"), 6).String())
	assert.Equal(t, "12.345678", FromBaseUnits(big.NewInt(12_345_678), 6).String())
}

func TestLookupChain(t *testing.T) {
	c, err := LookupChain(ChainPolygon, "")
	require.NoError(t, err)
	assert.Equal(t, "Polygon", c.Name)

	c, err = LookupChain(ChainBase, "0x4444444444444444444444444444444444444444")
	require.NoError(t, err)
	assert.Equal(t, "0x4444444444444444444444444444444444444444", c.TokenAddress)

	_, err = LookupChain(10, "")
	assert.ErrorIs(t, err, ErrUnsupportedChain)

	_, err = LookupChain(ChainBase, "nope")
	assert.Error(t, err)
}
