package core

// payloadAs extracts a concrete record from a change payload. Transactions
// record cloned values but a pointer payload is tolerated.
func payloadAs[T any](payload any) (T, bool) {
	switch v := payload.(type) {
	case T:
		return v, true
	case *T:
		if v != nil {
			return *v, true
		}
	}
	var zero T
	return zero, false
}
