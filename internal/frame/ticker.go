package frame

// Ticker is anything driven once per frame.
type Ticker interface {
	// Tick performs one frame of work. Called on the manager goroutine.
	Tick()
}

// closer is implemented by tickers that release resources on unregister.
type closer interface {
	Close()
}
