package users

import "unicode/utf8"

const minPasswordLen = 8

// MaxPasswordBytes es el límite de bcrypt; cuenta bytes UTF-8, no caracteres.
const MaxPasswordBytes = 72

// ValidatePassword: al menos 8 caracteres, una mayúscula, un dígito y un
// símbolo (cualquier caracter fuera de [A-Za-z0-9], espacios incluidos).
func ValidatePassword(pw string) bool {
	if utf8.RuneCountInString(pw) < minPasswordLen {
		return false
	}

	var upper, digit, symbol bool
	for _, r := range pw {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case r >= 'a' && r <= 'z':
		default:
			symbol = true
		}
	}
	return upper && digit && symbol
}
