/*
Package qr parses, validates and classifies payment URIs of the form

	upi://pay?pa=<addr>&pn=<name>&am=<decimal>&cu=<code>&mc=<digits>&tr=<ref>[&...]

Parsing never interprets values: numbers and codes are checked only by
Validate, which reports every broken rule rather than the first one.

Usage:

	res := qr.ParseAndValidate(raw)
	if !res.IsValid {
	    // show res.Errors
	}

	switch res.QRType {
	case qr.SubtypeDynamicMerchant:
	    // amount is fixed by the merchant
	}

Build goes the other way and RenderPNG draws the URI as a QR image.
*/
package qr
