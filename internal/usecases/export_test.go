package usecases

// SetSignInTokenGenerator swaps the token source and returns a restore func.
func SetSignInTokenGenerator(gen func(int) (string, error)) func() {
	orig := generateSignInToken
	generateSignInToken = gen
	return func() { generateSignInToken = orig }
}

// SetSessionIDGenerator swaps the session id source and returns a restore func.
func SetSessionIDGenerator(gen func() (string, error)) func() {
	orig := generateSessionID
	generateSessionID = gen
	return func() { generateSessionID = orig }
}
