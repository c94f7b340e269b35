package domain

const (
	// DefaultGlue joins a group key and a child key into a flat key.
	DefaultGlue = "_"

	// UndefinedKey is the key a misspelled constant usually turns into.
	UndefinedKey = "undefined"

	// UndefinedWarning is the diagnostic emitted when UndefinedKey is registered.
	UndefinedWarning = "Reducer contains an 'undefined' action type. Have you misspelled a constant?"
)
