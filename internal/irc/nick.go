package irc

// MaxNickLen is the longest nickname the server accepts.
const MaxNickLen = 9

// ValidNickname reports whether nick is 1..MaxNickLen ASCII letters and
// digits and does not start with a digit.
func ValidNickname(nick string) bool {
	if nick == "" || len(nick) > MaxNickLen {
		return false
	}
	if isDigit(nick[0]) {
		return false
	}
	for i := 0; i < len(nick); i++ {
		c := nick[i]
		if !isDigit(c) && !isLetter(c) {
			return false
		}
	}
	return true
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
