package httpserver

import "time"

// ShutdownTimeout bounds graceful shutdown. It covers in-flight requests and
// the dependency cleanup hooks that run after the listener stops.
const ShutdownTimeout = 10 * time.Second
