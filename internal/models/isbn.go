// file: internal/models/isbn.go
// version: 1.0.0
// guid: 2b61c0de-7d4f-4e0a-9a1c-5f3e8d2b7c41

package models

import "strings"

// CleanISBN strips hyphens and whitespace.
func CleanISBN(isbn string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, isbn)
}

// IsValidISBN checks the shape of an ISBN-10 or ISBN-13. Check digits are not verified.
func IsValidISBN(isbn string) bool {
	clean := CleanISBN(isbn)
	switch len(clean) {
	case 10:
		for _, r := range clean {
			if (r < '0' || r > '9') && r != 'X' {
				return false
			}
		}
		return true
	case 13:
		for _, r := range clean {
			if r < '0' || r > '9' {
				return false
			}
		}
		return true
	}
	return false
}

// FormatISBN inserts hyphens: 1-234-56789-X for ISBN-10 and
// 978-2-253-09300-8 for ISBN-13. Other lengths are returned unchanged.
func FormatISBN(isbn string) string {
	c := CleanISBN(isbn)
	switch len(c) {
	case 10:
		return c[0:1] + "-" + c[1:4] + "-" + c[4:9] + "-" + c[9:]
	case 13:
		return c[0:3] + "-" + c[3:4] + "-" + c[4:7] + "-" + c[7:12] + "-" + c[12:]
	}
	return isbn
}
