package store

// Key prefixes. Every entity lives under its own prefix; the ordered
// collections also keep an order record under orderPrefix + entity prefix.
const (
	bookPrefix        = "book:"
	loanPrefix        = "loan:"
	preferencesPrefix = "prefs:"

	orderPrefix = "meta:order:"
)

func entityKey(prefix, id string) []byte {
	key := make([]byte, 0, len(prefix)+len(id))
	key = append(key, prefix...)
	return append(key, id...)
}

func orderKey(prefix string) []byte {
	return entityKey(orderPrefix, prefix)
}
