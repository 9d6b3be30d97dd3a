package entities

// Screen is the process-scoped belief about which logical screen the banking
// app currently shows. It is never persisted.
type Screen string

const (
	ScreenUnknown         Screen = "unknown"
	ScreenHome            Screen = "home"
	ScreenWidget          Screen = "widget"
	ScreenTransactionForm Screen = "transaction_form"
)
