package qr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndValidate_DynamicMerchant(t *testing.T) {
	res := ParseAndValidate("upi://pay?pa=merchant@bank&pn=Test%20Store&am=850.00&cu=INR&mc=1234&tr=TXN1")

	assert.True(t, res.IsValid)
	assert.Equal(t, SubtypeDynamicMerchant, res.QRType)
	assert.Equal(t, "850.00", res.Data.Amount)
	assert.Equal(t, "Test Store", res.Data.PayeeName)
	assert.Equal(t, "TXN1", res.Data.TransactionRef)
	assert.Empty(t, res.Errors)
}

func TestParseAndValidate_LowercaseCurrency(t *testing.T) {
	res := ParseAndValidate("upi://pay?pa=merchant@bank&am=10&cu=inr")

	assert.False(t, res.IsValid)
	assert.Contains(t, res.Errors, MsgCurrencyFormat)
	assert.Contains(t, strings.Join(res.Errors, " "), "3 uppercase letters")
}

func TestParseAndValidate_Malformed(t *testing.T) {
	for _, raw := range []string{"", "   ", "https://example.com", "upi://collect?pa=a@b", "\x00\xff\xfe"} {
		res := ParseAndValidate(raw)
		assert.False(t, res.IsValid, raw)
		assert.Equal(t, SubtypePersonal, res.QRType)
		assert.Equal(t, "", res.Data.PayeeAddress)
		assert.Equal(t, []string{MsgInvalidFormat}, res.Errors)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *Record
	}{
		{
			name: "not this protocol",
			raw:  "bitcoin:abc",
			want: nil,
		},
		{
			name: "plus is literal",
			raw:  "upi://pay?pa=a@b&pn=Tea+Stall",
			want: &Record{PayeeAddress: "a@b", PayeeName: "Tea+Stall"},
		},
		{
			name: "unknown keys kept",
			raw:  "upi://pay?pa=a@b&mode=02&purpose=00",
			want: &Record{PayeeAddress: "a@b", Extras: []Param{{"mode", "02"}, {"purpose", "00"}}},
		},
		{
			name: "bad escape falls back to raw query",
			raw:  "upi://pay?pa=a@b&pn=100%zz&am=5",
			want: &Record{PayeeAddress: "a@b", PayeeName: "100%zz", Amount: "5"},
		},
		{
			name: "value keeps later equals signs",
			raw:  "upi://pay?pa=a@b&tn=x=y",
			want: &Record{PayeeAddress: "a@b", Extras: []Param{{"tn", "x=y"}}},
		},
		{
			name: "last duplicate wins",
			raw:  "upi://pay?pa=first@b&pa=second@b",
			want: &Record{PayeeAddress: "second@b"},
		},
		{
			name: "empty pairs and keys skipped",
			raw:  "upi://pay?&&=orphan&pa=a@b&",
			want: &Record{PayeeAddress: "a@b"},
		},
		{
			name: "surrounding whitespace trimmed",
			raw:  "  upi://pay?pa=a@b\n",
			want: &Record{PayeeAddress: "a@b"},
		},
		{
			name: "escaped ampersand splits after whole-query decode",
			raw:  "upi://pay?pa=a@b&pn=Salt%26Pepper",
			want: &Record{PayeeAddress: "a@b", PayeeName: "Salt", Extras: []Param{{"Pepper", ""}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(got), "got %+v", got)
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want Subtype
	}{
		{"nothing", Record{PayeeAddress: "a@b"}, SubtypePersonal},
		{"amount without category", Record{PayeeAddress: "a@b", Amount: "5", CurrencyCode: "INR"}, SubtypePersonal},
		{"other fields only", Record{PayeeAddress: "a@b", TransactionRef: "x"}, SubtypePersonal},
		{"category only", Record{MerchantCategoryCode: "5411"}, SubtypeStaticMerchant},
		{"category and amount without currency", Record{MerchantCategoryCode: "5411", Amount: "5"}, SubtypeStaticMerchant},
		{"category and currency without amount", Record{MerchantCategoryCode: "5411", CurrencyCode: "INR"}, SubtypeStaticMerchant},
		{"complete", Record{MerchantCategoryCode: "5411", Amount: "5", CurrencyCode: "INR"}, SubtypeDynamicMerchant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(&tt.rec))
		})
	}
	assert.Equal(t, SubtypePersonal, Classify(nil))
}

func TestValidate_CollectsEveryRule(t *testing.T) {
	res := Validate(&Record{Amount: "-3", MerchantCategoryCode: "54a1"})

	assert.False(t, res.IsValid)
	assert.ElementsMatch(t, []string{
		MsgPayeeAddressMandatory,
		MsgCurrencyRequired,
		MsgMerchantCodeNumeric,
		MsgAmountPositive,
	}, res.Errors)
}

func TestValidate_MissingPayeeAlwaysReported(t *testing.T) {
	for _, raw := range []string{
		"upi://pay?",
		"upi://pay?pn=Shop",
		"upi://pay?am=10&cu=INR&mc=1234",
		"upi://pay?pa=&am=abc",
	} {
		res := Validate(Parse(raw))
		assert.Contains(t, res.Errors, MsgPayeeAddressMandatory, raw)
		assert.NotContains(t, res.Errors, MsgPayeeAddressSeparator, raw)
	}
}

func TestValidate_Rules(t *testing.T) {
	tests := []struct {
		name    string
		rec     Record
		wantErr string
	}{
		{"no realm separator", Record{PayeeAddress: "merchant"}, MsgPayeeAddressSeparator},
		{"zero amount", Record{PayeeAddress: "a@b", Amount: "0", CurrencyCode: "INR"}, MsgAmountPositive},
		{"not a number", Record{PayeeAddress: "a@b", Amount: "ten", CurrencyCode: "INR"}, MsgAmountPositive},
		{"infinity", Record{PayeeAddress: "a@b", Amount: "Infinity", CurrencyCode: "INR"}, MsgAmountPositive},
		{"two letter currency", Record{PayeeAddress: "a@b", CurrencyCode: "IN"}, MsgCurrencyFormat},
		{"mixed case currency", Record{PayeeAddress: "a@b", CurrencyCode: "Inr"}, MsgCurrencyFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(&tt.rec)
			assert.False(t, res.IsValid)
			assert.Contains(t, res.Errors, tt.wantErr)
		})
	}

	ok := Validate(&Record{PayeeAddress: "a@b", Amount: "0.01", CurrencyCode: "USD", MerchantCategoryCode: "0000"})
	assert.True(t, ok.IsValid)
	assert.Empty(t, ok.Errors)

	for _, addr := range []string{"@bank", "merchant@", "a@b@c"} {
		res := Validate(&Record{PayeeAddress: addr})
		assert.NotContains(t, res.Errors, MsgPayeeAddressSeparator, addr)
	}
}

func TestParseAmount(t *testing.T) {
	d, err := ParseAmount("850.00")
	require.NoError(t, err)
	assert.Equal(t, "850", d.String())

	_, err = ParseAmount("-1")
	assert.Error(t, err)
	_, err = ParseAmount("")
	assert.Error(t, err)
}

func TestBuild_RoundTrip(t *testing.T) {
	recs := []Record{
		{PayeeAddress: "merchant@bank", PayeeName: "Test Store", Amount: "850.00", CurrencyCode: "INR", MerchantCategoryCode: "1234", TransactionRef: "TXN1"},
		{PayeeAddress: "friend@okaxis"},
		{PayeeAddress: "shop@ybl", PayeeName: "Café Ωmega 100%", Extras: []Param{{"mode", "02"}, {"tn", "lunch=paid"}}},
	}

	for _, rec := range recs {
		uri := Build(&rec)
		assert.True(t, strings.HasPrefix(uri, SchemePrefix))

		got := Parse(uri)
		require.NotNil(t, got, uri)
		assert.True(t, rec.Equal(got), "uri %s parsed to %+v", uri, got)
	}
}

func TestBuild_FixedKeyOrder(t *testing.T) {
	uri := Build(&Record{TransactionRef: "T", PayeeAddress: "a@b", CurrencyCode: "INR", Amount: "1"})
	assert.Equal(t, "upi://pay?pa=a@b&am=1&cu=INR&tr=T", uri)
}

func FuzzParseAndValidate(f *testing.F) {
	f.Add("upi://pay?pa=merchant@bank&pn=Test%20Store&am=850.00&cu=INR&mc=1234&tr=TXN1")
	f.Add("upi://pay?pa=%")
	f.Add("")
	f.Add(strings.Repeat("upi://pay?a=b&", 500))

	f.Fuzz(func(t *testing.T, raw string) {
		res := ParseAndValidate(raw)
		if res.IsValid && len(res.Errors) > 0 {
			t.Fatalf("valid result carries errors: %v", res.Errors)
		}
		if !res.IsValid && len(res.Errors) == 0 {
			t.Fatalf("invalid result without errors for %q", raw)
		}
	})
}
