package qr

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var errAmountNotPositive = errors.New("amount must be greater than zero")

// Validate applies every rule independently and collects all violations.
func Validate(rec *Record) ValidationResult {
	if rec == nil {
		return ValidationResult{IsValid: false, Errors: []string{MsgInvalidFormat}}
	}

	errs := []string{}

	if rec.PayeeAddress == "" {
		errs = append(errs, MsgPayeeAddressMandatory)
	}
	if rec.Amount != "" && rec.CurrencyCode == "" {
		errs = append(errs, MsgCurrencyRequired)
	}
	if rec.MerchantCategoryCode != "" && !isDigits(rec.MerchantCategoryCode) {
		errs = append(errs, MsgMerchantCodeNumeric)
	}
	if rec.Amount != "" {
		if _, err := ParseAmount(rec.Amount); err != nil {
			errs = append(errs, MsgAmountPositive)
		}
	}
	if rec.CurrencyCode != "" && !isCurrencyCode(rec.CurrencyCode) {
		errs = append(errs, MsgCurrencyFormat)
	}
	// An empty address is already reported as mandatory.
	if rec.PayeeAddress != "" && !strings.Contains(rec.PayeeAddress, "@") {
		errs = append(errs, MsgPayeeAddressSeparator)
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// ParseAmount applies the amount rule: a finite decimal strictly above zero.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, errAmountNotPositive
	}
	return d, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}
