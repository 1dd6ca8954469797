// Package app is the composition root for Courier.
//
// Run loads configuration, builds the zap logger and Prometheus registry,
// then wires the resolver, the backend client and the shared state.Store.
// The rider app fetches its online status and subscribes to order updates;
// the customer app loads the restaurant listing. Finally either the Bubble
// Tea dashboard starts or, with Options.Headless, snapshot changes are logged
// until the context is cancelled.
//
//	Run()
//	 ├─ config.Load + Validate
//	 ├─ logging.NewLogger, metrics.New (+ Serve when metrics_addr is set)
//	 ├─ resolver.New → backend.NewClient → session
//	 ├─ rider:    RefreshRiderStatus, StartUpdates (subscription → store)
//	 ├─ customer: RefreshRestaurants
//	 └─ ui.Run or runHeadless
//
// Backend failures never stop the client: they are recorded in the store and
// logged, and the next call probes the candidates again.
package app
