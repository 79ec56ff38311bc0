// Package app wires the dashboard API together and manages its lifecycle.
//
// # Initialization Flow
//
//  1. Load configuration from environment and files
//  2. Initialize logging and OpenTelemetry
//  3. Create the dataset cache and loader
//  4. Initialize services on top of the loader
//  5. Set up middleware, handlers and the HTTP server
//
// # Usage
//
//	app, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := app.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// Run preloads the datasets when configured, serves until SIGINT or
// SIGTERM and then shuts the server and telemetry providers down. The
// package never calls os.Exit.
package app
